package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
	pkgerrors "github.com/debranko/obedio-yacht-crew-management-sub004/pkg/errors"
)

var errStoreDown = errors.New("connection refused")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	crew  *mockCrewRepo // optional, used to preload CrewMember
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return m.withCrew(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return m.withCrew(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		all = append(all, *m.withCrew(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) withCrew(u *model.User) *model.User {
	if m.crew == nil {
		return u
	}
	for _, c := range m.crew.crew {
		if c.UserID != nil && *c.UserID == u.UserID {
			u.CrewMember = c
		}
	}
	return u
}

// ── Mock CrewMemberRepository ──

type mockCrewRepo struct {
	crew    map[string]*model.CrewMember
	devices *mockDeviceRepo // optional, used by ListOnDuty
	listErr error
	// onLock runs before a locking read, standing in for a writer that
	// committed just ahead of the lock
	onLock func(id string)
}

func newMockCrewRepo() *mockCrewRepo {
	return &mockCrewRepo{crew: make(map[string]*model.CrewMember)}
}

func (m *mockCrewRepo) add(name string, status model.DutyStatus) *model.CrewMember {
	c := &model.CrewMember{CrewMemberID: uuid.NewString(), Name: name, Status: status}
	c.Version = 1
	m.crew[c.CrewMemberID] = c
	return c
}

func (m *mockCrewRepo) Create(_ context.Context, crew *model.CrewMember) error {
	if crew.CrewMemberID == "" {
		crew.CrewMemberID = uuid.NewString()
	}
	crew.Version = 1
	m.crew[crew.CrewMemberID] = crew
	return nil
}

func (m *mockCrewRepo) GetByID(_ context.Context, id string) (*model.CrewMember, error) {
	if c, ok := m.crew[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCrewRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.CrewMember, error) {
	if m.onLock != nil {
		m.onLock(id)
	}
	return m.GetByID(ctx, id)
}

func (m *mockCrewRepo) GetByIDForShare(ctx context.Context, id string) (*model.CrewMember, error) {
	if m.onLock != nil {
		m.onLock(id)
	}
	return m.GetByID(ctx, id)
}

func (m *mockCrewRepo) GetByUserID(_ context.Context, userID string) (*model.CrewMember, error) {
	for _, c := range m.crew {
		if c.UserID != nil && *c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCrewRepo) List(_ context.Context, filter repository.CrewFilter) ([]model.CrewMember, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []model.CrewMember
	for _, c := range m.crew {
		if filter.Department != "" && c.Department != filter.Department {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCrewRepo) ListOnDuty(ctx context.Context, department string) ([]model.CrewMember, error) {
	list, err := m.List(ctx, repository.CrewFilter{Department: department, Status: model.DutyOnDuty})
	if err != nil {
		return nil, err
	}
	if m.devices != nil {
		for i := range list {
			for _, d := range m.devices.devices {
				if d.CrewMemberID != nil && *d.CrewMemberID == list[i].CrewMemberID {
					list[i].Devices = append(list[i].Devices, *d)
				}
			}
		}
	}
	return list, nil
}

// Update enforces the optimistic lock like the gorm repository.
func (m *mockCrewRepo) Update(_ context.Context, crew *model.CrewMember) error {
	cur, ok := m.crew[crew.CrewMemberID]
	if !ok || cur.Version != crew.Version {
		return pkgerrors.ErrOptimisticLock
	}
	crew.Version++
	cp := *crew
	m.crew[crew.CrewMemberID] = &cp
	return nil
}

func (m *mockCrewRepo) Delete(_ context.Context, id string) error {
	delete(m.crew, id)
	return nil
}

// ── Mock DeviceRepository ──

type mockDeviceRepo struct {
	devices map[string]*model.Device
	logs    []model.DeviceLog
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]*model.Device)}
}

func (m *mockDeviceRepo) add(key string, t model.DeviceType, crewID *string) *model.Device {
	d := &model.Device{
		DeviceID:     uuid.NewString(),
		DeviceKey:    key,
		Type:         t,
		Status:       model.DeviceOnline,
		CrewMemberID: crewID,
	}
	m.devices[d.DeviceID] = d
	return d
}

func (m *mockDeviceRepo) Create(_ context.Context, device *model.Device) error {
	for _, d := range m.devices {
		if d.DeviceKey == device.DeviceKey {
			return gorm.ErrDuplicatedKey
		}
	}
	if device.DeviceID == "" {
		device.DeviceID = uuid.NewString()
	}
	m.devices[device.DeviceID] = device
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id string) (*model.Device, error) {
	if d, ok := m.devices[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRepo) GetByKey(_ context.Context, key string) (*model.Device, error) {
	for _, d := range m.devices {
		if d.DeviceKey == key {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeviceRepo) List(_ context.Context, filter repository.DeviceFilter) ([]model.Device, error) {
	var result []model.Device
	for _, d := range m.devices {
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.CrewMemberID != "" && (d.CrewMemberID == nil || *d.CrewMemberID != filter.CrewMemberID) {
			continue
		}
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDeviceRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) error {
	d, ok := m.devices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			d.Status = v.(model.DeviceStatus)
		case "battery_level":
			b := v.(int)
			d.BatteryLevel = &b
		case "signal_strength":
			s := v.(int)
			d.SignalStrength = &s
		case "last_seen_at":
			t := v.(time.Time)
			d.LastSeenAt = &t
		case "firmware_version":
			d.FirmwareVersion = v.(string)
		case "name":
			d.Name = v.(string)
		case "type":
			d.Type = v.(model.DeviceType)
		}
	}
	return nil
}

func (m *mockDeviceRepo) SetCrewMember(_ context.Context, id string, crewMemberID *string) error {
	d, ok := m.devices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.CrewMemberID = crewMemberID
	return nil
}

func (m *mockDeviceRepo) SetLocation(_ context.Context, id string, locationID *string) error {
	d, ok := m.devices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.LocationID = locationID
	return nil
}

func (m *mockDeviceRepo) Delete(_ context.Context, id string) error {
	delete(m.devices, id)
	return nil
}

func (m *mockDeviceRepo) CreateLog(_ context.Context, log *model.DeviceLog) error {
	log.LogID = uuid.NewString()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockDeviceRepo) ListLogs(_ context.Context, deviceID string, limit int) ([]model.DeviceLog, error) {
	var result []model.DeviceLog
	for i := len(m.logs) - 1; i >= 0 && len(result) < limit; i-- {
		if m.logs[i].DeviceID == deviceID {
			result = append(result, m.logs[i])
		}
	}
	return result, nil
}

// ── Mock LocationRepository ──

type mockLocationRepo struct {
	locations map[string]*model.Location
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{locations: make(map[string]*model.Location)}
}

func (m *mockLocationRepo) add(name, buttonKey string) *model.Location {
	l := &model.Location{LocationID: uuid.NewString(), Name: name, Type: "cabin"}
	if buttonKey != "" {
		l.SmartButtonKey = &buttonKey
	}
	m.locations[l.LocationID] = l
	return l
}

func (m *mockLocationRepo) Create(_ context.Context, loc *model.Location) error {
	for _, l := range m.locations {
		if l.Name == loc.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if loc.LocationID == "" {
		loc.LocationID = uuid.NewString()
	}
	m.locations[loc.LocationID] = loc
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id string) (*model.Location, error) {
	if l, ok := m.locations[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocationRepo) GetByName(_ context.Context, name string) (*model.Location, error) {
	for _, l := range m.locations {
		if l.Name == name {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocationRepo) GetByButtonKey(_ context.Context, key string) (*model.Location, error) {
	for _, l := range m.locations {
		if l.SmartButtonKey != nil && *l.SmartButtonKey == key {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocationRepo) List(_ context.Context, locType string) ([]model.Location, error) {
	var result []model.Location
	for _, l := range m.locations {
		if locType == "" || l.Type == locType {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockLocationRepo) Update(_ context.Context, loc *model.Location) error {
	for id, l := range m.locations {
		if id != loc.LocationID && l.Name == loc.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *loc
	m.locations[loc.LocationID] = &cp
	return nil
}

func (m *mockLocationRepo) Delete(_ context.Context, id string) error {
	delete(m.locations, id)
	return nil
}

// ── Mock ServiceRequestRepository ──

type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*model.ServiceRequest
	// staleNext makes the next UpdateStatus fail the version check
	staleNext bool
	createErr error
	// createDelay widens the window between claim and insert
	createDelay time.Duration
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.ServiceRequest)}
}

func (m *mockRequestRepo) Create(_ context.Context, req *model.ServiceRequest) error {
	if m.createDelay > 0 {
		time.Sleep(m.createDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	cp := *req
	m.requests[req.RequestID] = &cp
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestRepo) List(_ context.Context, filter repository.RequestFilter) ([]model.ServiceRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ServiceRequest
	for _, r := range m.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && r.Priority != filter.Priority {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, int64(len(result)), nil
}

func (m *mockRequestRepo) ListActive(_ context.Context) ([]model.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ServiceRequest
	for _, r := range m.requests {
		if r.Status.IsActive() {
			result = append(result, *r)
		}
	}
	SortActive(result)
	return result, nil
}

func (m *mockRequestRepo) UpdateStatus(_ context.Context, req *model.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.requests[req.RequestID]
	if !ok || cur.Version != req.Version || m.staleNext {
		m.staleNext = false
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	cp := *req
	m.requests[req.RequestID] = &cp
	return nil
}

func (m *mockRequestRepo) DeleteActive(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.requests {
		if r.Status.IsActive() {
			delete(m.requests, id)
			n++
		}
	}
	return n, nil
}

func (m *mockRequestRepo) CountActiveByCrew(_ context.Context, crewID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.requests {
		if r.Status.IsActive() && r.AssignedCrewID != nil && *r.AssignedCrewID == crewID {
			n++
		}
	}
	return n, nil
}

func (m *mockRequestRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// ── Mock ServiceRequestHistoryRepository ──

type mockHistoryRepo struct {
	mu   sync.Mutex
	rows []model.ServiceRequestHistory
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{}
}

func (m *mockHistoryRepo) Create(_ context.Context, h *model.ServiceRequestHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.HistoryID = uuid.NewString()
	m.rows = append(m.rows, *h)
	return nil
}

func (m *mockHistoryRepo) List(_ context.Context, filter repository.HistoryFilter) ([]model.ServiceRequestHistory, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ServiceRequestHistory
	for _, h := range m.rows {
		if !filter.From.IsZero() && h.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !h.CreatedAt.Before(filter.To) {
			continue
		}
		if filter.ActedByID != "" && (h.ActedByID == nil || *h.ActedByID != filter.ActedByID) {
			continue
		}
		result = append(result, h)
	}
	return result, int64(len(result)), nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) add(name, start, end string) *model.Shift {
	sh := &model.Shift{ShiftID: uuid.NewString(), Name: name, StartTime: start, EndTime: end, IsActive: true}
	m.shifts[sh.ShiftID] = sh
	return sh
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = uuid.NewString()
	}
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) List(_ context.Context, activeOnly bool) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if activeOnly && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	cp := *shift
	m.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) Delete(_ context.Context, id string) error {
	delete(m.shifts, id)
	return nil
}

func (m *mockShiftRepo) Reorder(_ context.Context, ids []string) error {
	for _, id := range ids {
		if _, ok := m.shifts[id]; !ok {
			return gorm.ErrRecordNotFound
		}
	}
	for i, id := range ids {
		m.shifts[id].SortOrder = i
	}
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*model.Assignment
	shifts      *mockShiftRepo
	crew        *mockCrewRepo
}

func newMockAssignmentRepo(shifts *mockShiftRepo, crew *mockCrewRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{
		assignments: make(map[string]*model.Assignment),
		shifts:      shifts,
		crew:        crew,
	}
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	if a.AssignmentID == "" {
		a.AssignmentID = uuid.NewString()
	}
	cp := *a
	m.assignments[a.AssignmentID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) List(_ context.Context, filter repository.AssignmentFilter) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if !filter.From.IsZero() && a.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && a.Date.After(filter.To) {
			continue
		}
		if filter.CrewMemberID != "" && a.CrewMemberID != filter.CrewMemberID {
			continue
		}
		if filter.ShiftID != "" && a.ShiftID != filter.ShiftID {
			continue
		}
		cp := *a
		if m.shifts != nil {
			cp.Shift = m.shifts.shifts[a.ShiftID]
		}
		if m.crew != nil {
			cp.CrewMember = m.crew.crew[a.CrewMemberID]
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockAssignmentRepo) ExistsForCrewOnDate(_ context.Context, crewMemberID string, date time.Time) (bool, error) {
	for _, a := range m.assignments {
		if a.CrewMemberID == crewMemberID && a.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

// ── Mock GuestRepository ──

type mockGuestRepo struct {
	guests map[string]*model.Guest
	seq    int
}

func newMockGuestRepo() *mockGuestRepo {
	return &mockGuestRepo{guests: make(map[string]*model.Guest)}
}

// add stores a guest; later adds count as later check-ins.
func (m *mockGuestRepo) add(first, last string, status model.GuestStatus, locationID *string) *model.Guest {
	m.seq++
	checkIn := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Minute)
	g := &model.Guest{GuestID: uuid.NewString(), FirstName: first, LastName: last, Status: status, LocationID: locationID, CheckInAt: &checkIn}
	m.guests[g.GuestID] = g
	return g
}

func (m *mockGuestRepo) Create(_ context.Context, guest *model.Guest) error {
	if guest.GuestID == "" {
		guest.GuestID = uuid.NewString()
	}
	cp := *guest
	m.guests[guest.GuestID] = &cp
	return nil
}

func (m *mockGuestRepo) GetByID(_ context.Context, id string) (*model.Guest, error) {
	if g, ok := m.guests[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGuestRepo) List(_ context.Context, filter repository.GuestFilter) ([]model.Guest, int64, error) {
	var result []model.Guest
	for _, g := range m.guests {
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		if filter.LocationID != "" && (g.LocationID == nil || *g.LocationID != filter.LocationID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(g.FullName()), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastName < result[j].LastName })
	return result, int64(len(result)), nil
}

func (m *mockGuestRepo) LatestOnboardAt(_ context.Context, locationID string) (*model.Guest, error) {
	var latest *model.Guest
	for _, g := range m.guests {
		if g.Status != model.GuestOnboard || g.LocationID == nil || *g.LocationID != locationID {
			continue
		}
		if latest == nil || (g.CheckInAt != nil && (latest.CheckInAt == nil || g.CheckInAt.After(*latest.CheckInAt))) {
			latest = g
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockGuestRepo) Update(_ context.Context, guest *model.Guest) error {
	if _, ok := m.guests[guest.GuestID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *guest
	m.guests[guest.GuestID] = &cp
	return nil
}

func (m *mockGuestRepo) Delete(_ context.Context, id string) error {
	delete(m.guests, id)
	return nil
}

// ── Mock ActivityLogRepository ──

type mockActivityRepo struct {
	mu        sync.Mutex
	entries   []model.ActivityLog
	createErr error
}

func (m *mockActivityRepo) Create(_ context.Context, entry *model.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if entry.ActivityID == "" {
		entry.ActivityID = uuid.NewString()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, filter repository.ActivityFilter) ([]model.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ActivityLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if filter.LocationID != "" && (e.LocationID == nil || *e.LocationID != filter.LocationID) {
			continue
		}
		if filter.RequestID != "" && (e.RequestID == nil || *e.RequestID != filter.RequestID) {
			continue
		}
		if filter.UserID != "" && (e.UserID == nil || *e.UserID != filter.UserID) {
			continue
		}
		result = append(result, e)
	}
	return result, int64(len(result)), nil
}

// byType entries of one type, oldest first.
func (m *mockActivityRepo) byType(t model.ActivityType) []model.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLog
	for _, e := range m.entries {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ── aggregate ──

type testRepos struct {
	users       *mockUserRepo
	crew        *mockCrewRepo
	devices     *mockDeviceRepo
	locations   *mockLocationRepo
	requests    *mockRequestRepo
	history     *mockHistoryRepo
	shifts      *mockShiftRepo
	assignments *mockAssignmentRepo
	guests      *mockGuestRepo
	activity    *mockActivityRepo
}

// newTestRepos in-memory repositories behind a Repository with no database,
// so BeginTx yields a nil tx.
func newTestRepos() (*repository.Repository, *testRepos) {
	crew := newMockCrewRepo()
	devices := newMockDeviceRepo()
	crew.devices = devices
	users := newMockUserRepo()
	users.crew = crew
	shifts := newMockShiftRepo()

	r := &testRepos{
		users:       users,
		crew:        crew,
		devices:     devices,
		locations:   newMockLocationRepo(),
		requests:    newMockRequestRepo(),
		history:     newMockHistoryRepo(),
		shifts:      shifts,
		assignments: newMockAssignmentRepo(shifts, crew),
		guests:      newMockGuestRepo(),
		activity:    &mockActivityRepo{},
	}
	repo := &repository.Repository{
		User:           r.users,
		CrewMember:     r.crew,
		Device:         r.devices,
		Location:       r.locations,
		ServiceRequest: r.requests,
		History:        r.history,
		Shift:          r.shifts,
		Assignment:     r.assignments,
		Guest:          r.guests,
		Activity:       r.activity,
	}
	return repo, r
}
