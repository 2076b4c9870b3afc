package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
)

// ── test helpers ──

type recordingNotifier struct {
	mu       sync.Mutex
	payloads map[string]NotificationPayload
	failKeys map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		payloads: make(map[string]NotificationPayload),
		failKeys: make(map[string]bool),
	}
}

func (n *recordingNotifier) Notify(_ context.Context, deviceKey string, payload NotificationPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failKeys[deviceKey] {
		return errors.New("device unreachable")
	}
	n.payloads[deviceKey] = payload
	return nil
}

func (n *recordingNotifier) got(deviceKey string) (NotificationPayload, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.payloads[deviceKey]
	return p, ok
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []StatusUpdate
}

func (p *recordingPublisher) PublishStatus(_ context.Context, u StatusUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
	return nil
}

type testRequestEnv struct {
	svc       RequestService
	repos     *testRepos
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func setupTestRequestService(window time.Duration) *testRequestEnv {
	repo, repos := newTestRepos()
	cfg := config.DispatchConfig{
		CoalesceWindow:  window,
		MaxConcurrency:  4,
		DeliveryTimeout: time.Second,
		DispatchTimeout: time.Second,
	}
	logger := zap.NewNop()
	notifier := newRecordingNotifier()
	publisher := &recordingPublisher{}
	dispatch := NewDispatchService(cfg, repo, notifier, logger)

	return &testRequestEnv{
		svc:       NewRequestService(cfg, repo, NewMemoryCoalescer(), dispatch, publisher, logger),
		repos:     repos,
		notifier:  notifier,
		publisher: publisher,
	}
}

func trigger(buttonID, locationID, priority string) *dto.TriggerRequest {
	return &dto.TriggerRequest{
		ButtonID:    buttonID,
		LocationID:  locationID,
		RequestType: "service",
		Priority:    priority,
	}
}

// ── Create ──

func TestRequestService_Lifecycle(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	env.repos.locations.add("master bedroom", "")
	crew := env.repos.crew.add("Anna", model.DutyOnDuty)

	created, err := env.svc.Create(ctx, trigger("BTN001", "master-bedroom", "urgent"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if created.Status != "pending" {
		t.Errorf("expected status pending, got %s", created.Status)
	}
	if created.RequestType != "service" {
		t.Errorf("expected request type service, got %s", created.RequestType)
	}
	if created.Location == nil || created.Location.Name != "master bedroom" {
		t.Errorf("expected location resolved from slug, got %+v", created.Location)
	}

	accepted, err := env.svc.Transition(ctx, created.ID, "accepted", crew.CrewMemberID)
	if err != nil {
		t.Fatalf("accept should succeed: %v", err)
	}
	if accepted.Status != "accepted" {
		t.Errorf("expected status accepted, got %s", accepted.Status)
	}
	if accepted.AssignedCrew == nil || accepted.AssignedCrew.ID != crew.CrewMemberID {
		t.Errorf("expected request assigned to %s, got %+v", crew.CrewMemberID, accepted.AssignedCrew)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, accepted.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, accepted.UpdatedAt)
	if !updatedAt.After(createdAt) {
		t.Errorf("expected updated_at > created_at, got %s <= %s", accepted.UpdatedAt, accepted.CreatedAt)
	}

	back, err := env.svc.Transition(ctx, created.ID, "pending", crew.CrewMemberID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if back == nil || back.Status != "accepted" {
		t.Errorf("expected the unchanged request to be returned, got %+v", back)
	}
	stored, _ := env.svc.Get(ctx, created.ID)
	if stored.Status != "accepted" {
		t.Errorf("expected stored status to remain accepted, got %s", stored.Status)
	}

	env.svc.Wait()
}

func TestRequestService_Create_LegacyCallType(t *testing.T) {
	env := setupTestRequestService(0)
	req := trigger("BTN002", "", "")
	req.RequestType = "call"

	created, err := env.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if created.RequestType != "service" {
		t.Errorf("expected call to normalise to service, got %s", created.RequestType)
	}
	if created.Priority != "normal" {
		t.Errorf("expected default priority normal, got %s", created.Priority)
	}
	env.svc.Wait()
}

func TestRequestService_Create_Validation(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	cases := map[string]*dto.TriggerRequest{
		"no button or location": {RequestType: "service"},
		"unknown priority":      trigger("BTN001", "", "critical"),
		"unknown type":          {ButtonID: "BTN001", RequestType: "massage"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, req)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
	if n := env.repos.requests.count(); n != 0 {
		t.Errorf("expected nothing persisted, got %d requests", n)
	}
}

func TestRequestService_Create_UnknownLocationKeptAsLabel(t *testing.T) {
	env := setupTestRequestService(0)

	created, err := env.svc.Create(context.Background(), trigger("", "sun-deck", "normal"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if created.Location != nil {
		t.Errorf("expected no resolved location, got %+v", created.Location)
	}
	if created.GuestCabin != "sun-deck" {
		t.Errorf("expected cabin label sun-deck, got %q", created.GuestCabin)
	}
	env.svc.Wait()
}

func TestRequestService_Create_ButtonMapping(t *testing.T) {
	env := setupTestRequestService(0)
	loc := env.repos.locations.add("VIP cabin", "BTN-VIP")

	created, err := env.svc.Create(context.Background(), trigger("BTN-VIP", "", "normal"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if created.Location == nil || created.Location.ID != loc.LocationID {
		t.Errorf("expected location %s from button mapping, got %+v", loc.LocationID, created.Location)
	}
	env.svc.Wait()
}

func TestRequestService_Create_PersistenceError(t *testing.T) {
	env := setupTestRequestService(0)
	env.repos.requests.createErr = errStoreDown

	_, err := env.svc.Create(context.Background(), trigger("BTN001", "", "normal"))
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}

// ── coalescing ──

func TestRequestService_Create_CoalescesRepeatedPresses(t *testing.T) {
	env := setupTestRequestService(time.Minute)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if err != nil {
		t.Fatalf("first Create should succeed: %v", err)
	}
	second, err := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if err != nil {
		t.Fatalf("second Create should succeed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected second press to fold into %s, got %s", first.ID, second.ID)
	}
	if !second.Coalesced {
		t.Error("expected Coalesced=true on the folded trigger")
	}
	if n := env.repos.requests.count(); n != 1 {
		t.Errorf("expected 1 stored request, got %d", n)
	}
	env.svc.Wait()
}

func TestRequestService_Create_NewRequestAfterAccept(t *testing.T) {
	env := setupTestRequestService(time.Minute)
	ctx := context.Background()
	crew := env.repos.crew.add("Anna", model.DutyOnDuty)

	first, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if _, err := env.svc.Transition(ctx, first.ID, "accepted", crew.CrewMemberID); err != nil {
		t.Fatalf("accept should succeed: %v", err)
	}

	second, err := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if second.ID == first.ID || second.Coalesced {
		t.Error("expected a fresh request once the previous one left pending")
	}
	env.svc.Wait()
}

func TestRequestService_Create_ConcurrentPressesAfterAccept(t *testing.T) {
	env := setupTestRequestService(time.Minute)
	ctx := context.Background()
	crew := env.repos.crew.add("Anna", model.DutyOnDuty)

	first, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if _, err := env.svc.Transition(ctx, first.ID, "accepted", crew.CrewMemberID); err != nil {
		t.Fatalf("accept should succeed: %v", err)
	}
	env.repos.requests.createDelay = 20 * time.Millisecond

	const presses = 5
	results := make([]*dto.ServiceRequestResponse, presses)
	errs := make([]error, presses)
	var wg sync.WaitGroup
	for i := 0; i < presses; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.svc.Create(ctx, trigger("BTN001", "", "normal"))
		}(i)
	}
	wg.Wait()
	env.svc.Wait()

	ids := make(map[string]bool)
	coalesced := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("press %d failed: %v", i, errs[i])
		}
		ids[results[i].ID] = true
		if results[i].Coalesced {
			coalesced++
		}
	}
	if len(ids) != 1 || ids[first.ID] {
		t.Errorf("expected every press to land on one new request, got %v", ids)
	}
	if coalesced != presses-1 {
		t.Errorf("expected %d coalesced presses, got %d", presses-1, coalesced)
	}
	if n := env.repos.requests.count(); n != 2 {
		t.Errorf("expected 2 stored requests, got %d", n)
	}
}

func TestRequestService_Create_DuplicateWaitsForInFlightCreate(t *testing.T) {
	env := setupTestRequestService(time.Minute)
	ctx := context.Background()
	env.repos.requests.createDelay = 30 * time.Millisecond

	var (
		wg         sync.WaitGroup
		a, b       *dto.ServiceRequestResponse
		errA, errB error
	)
	wg.Add(2)
	go func() { defer wg.Done(); a, errA = env.svc.Create(ctx, trigger("BTN001", "", "normal")) }()
	go func() { defer wg.Done(); b, errB = env.svc.Create(ctx, trigger("BTN001", "", "normal")) }()
	wg.Wait()
	env.svc.Wait()

	if errA != nil || errB != nil {
		t.Fatalf("expected both presses to succeed, got %v / %v", errA, errB)
	}
	if a.ID != b.ID {
		t.Errorf("expected one request, got %s and %s", a.ID, b.ID)
	}
	if a.Coalesced == b.Coalesced {
		t.Error("expected exactly one press to be reported as coalesced")
	}
	if n := env.repos.requests.count(); n != 1 {
		t.Errorf("expected 1 stored request, got %d", n)
	}
}

func TestRequestService_Create_InFlightGivesUp(t *testing.T) {
	env := setupTestRequestService(time.Minute)
	ctx := context.Background()
	svc := env.svc.(*requestService)
	svc.inFlightWait = 50 * time.Millisecond
	svc.coalescer.Claim(ctx, coalesceKeyPrefix+"BTN001", inFlightPrefix+"stuck", time.Minute)

	_, err := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if !errors.Is(err, ErrDuplicateTrigger) {
		t.Errorf("expected ErrDuplicateTrigger, got %v", err)
	}
	if n := env.repos.requests.count(); n != 0 {
		t.Errorf("expected nothing stored, got %d", n)
	}
}

func TestRequestService_Create_DifferentButtonsNotCoalesced(t *testing.T) {
	env := setupTestRequestService(time.Minute)
	ctx := context.Background()

	a, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	b, _ := env.svc.Create(ctx, trigger("BTN002", "", "normal"))
	if a.ID == b.ID {
		t.Error("expected separate requests for separate buttons")
	}
	env.svc.Wait()
}

// ── Transition ──

func TestRequestService_Transition_CompleteWritesHistory(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	crew := env.repos.crew.add("Marco", model.DutyOnDuty)

	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if _, err := env.svc.Transition(ctx, created.ID, "accepted", crew.CrewMemberID); err != nil {
		t.Fatalf("accept should succeed: %v", err)
	}
	done, err := env.svc.Transition(ctx, created.ID, "completed", crew.CrewMemberID)
	if err != nil {
		t.Fatalf("complete should succeed: %v", err)
	}
	if done.CompletedAt == "" {
		t.Error("expected completed_at to be set")
	}

	rows, total, err := env.svc.History(ctx, &dto.HistoryListRequest{})
	if err != nil {
		t.Fatalf("History should succeed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected 1 history row, got %d", total)
	}
	h := rows[0]
	if h.PreviousStatus != "accepted" || h.NewStatus != "completed" {
		t.Errorf("expected accepted -> completed, got %s -> %s", h.PreviousStatus, h.NewStatus)
	}
	if h.ActedByName != "Marco" {
		t.Errorf("expected acted_by_name Marco, got %q", h.ActedByName)
	}
	if h.ResponseTimeSec == nil {
		t.Error("expected response time to be recorded")
	}
	env.svc.Wait()
}

func TestRequestService_Transition_TerminalIsFinal(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if _, err := env.svc.Transition(ctx, created.ID, "cancelled", ""); err != nil {
		t.Fatalf("cancel should succeed: %v", err)
	}

	for _, next := range []string{"pending", "accepted", "completed", "cancelled"} {
		resp, err := env.svc.Transition(ctx, created.ID, next, "")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s: expected ErrInvalidTransition, got %v", next, err)
		}
		if resp == nil || resp.Status != "cancelled" {
			t.Errorf("%s: expected unchanged cancelled request, got %+v", next, resp)
		}
	}
	env.svc.Wait()
}

func TestRequestService_Transition_AcceptRequiresCrew(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	_, err := env.svc.Transition(ctx, created.ID, "accepted", "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	env.svc.Wait()
}

func TestRequestService_Transition_UnknownCrew(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	_, err := env.svc.Transition(ctx, created.ID, "accepted", "7a4d2c7e-0000-4000-8000-000000000000")
	if !errors.Is(err, ErrCrewNotFound) {
		t.Errorf("expected ErrCrewNotFound, got %v", err)
	}
	env.svc.Wait()
}

func TestRequestService_Transition_AssigneeDeletedBeforeLock(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	crew := env.repos.crew.add("Anna", model.DutyOnDuty)
	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))

	env.repos.crew.onLock = func(id string) { delete(env.repos.crew.crew, id) }

	_, err := env.svc.Transition(ctx, created.ID, "accepted", crew.CrewMemberID)
	if !errors.Is(err, ErrCrewNotFound) {
		t.Fatalf("expected ErrCrewNotFound, got %v", err)
	}
	stored, _ := env.svc.Get(ctx, created.ID)
	if stored.Status != "pending" || stored.AssignedCrew != nil {
		t.Errorf("expected request left pending and unassigned, got %+v", stored)
	}
	env.svc.Wait()
}

func TestRequestService_Transition_Conflict(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	crew := env.repos.crew.add("Anna", model.DutyOnDuty)

	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	env.repos.requests.staleNext = true

	_, err := env.svc.Transition(ctx, created.ID, "accepted", crew.CrewMemberID)
	if !errors.Is(err, ErrRequestConflict) {
		t.Errorf("expected ErrRequestConflict, got %v", err)
	}
	env.svc.Wait()
}

func TestRequestService_Transition_NotFound(t *testing.T) {
	env := setupTestRequestService(0)

	for _, id := range []string{"not-a-uuid", "7a4d2c7e-0000-4000-8000-000000000000"} {
		_, err := env.svc.Transition(context.Background(), id, "completed", "")
		if !errors.Is(err, ErrRequestNotFound) {
			t.Errorf("%s: expected ErrRequestNotFound, got %v", id, err)
		}
	}
}

func TestRequestService_Transition_PublishesStatus(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	crew := env.repos.crew.add("Anna", model.DutyOnDuty)

	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if _, err := env.svc.Transition(ctx, created.ID, "accepted", crew.CrewMemberID); err != nil {
		t.Fatalf("accept should succeed: %v", err)
	}
	env.svc.Wait()

	env.publisher.mu.Lock()
	defer env.publisher.mu.Unlock()
	if len(env.publisher.updates) != 1 {
		t.Fatalf("expected 1 status update, got %d", len(env.publisher.updates))
	}
	u := env.publisher.updates[0]
	if u.Status != "accepted" || u.AssignedCrewID != crew.CrewMemberID {
		t.Errorf("unexpected status update %+v", u)
	}
}

// ── Delegate ──

func TestRequestService_Delegate(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	anna := env.repos.crew.add("Anna", model.DutyOnDuty)
	marco := env.repos.crew.add("Marco", model.DutyOnDuty)

	created, _ := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if _, err := env.svc.Delegate(ctx, created.ID, marco.CrewMemberID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected pending request delegation to be refused, got %v", err)
	}

	if _, err := env.svc.Transition(ctx, created.ID, "accepted", anna.CrewMemberID); err != nil {
		t.Fatalf("accept should succeed: %v", err)
	}
	resp, err := env.svc.Delegate(ctx, created.ID, marco.CrewMemberID)
	if err != nil {
		t.Fatalf("Delegate should succeed: %v", err)
	}
	if resp.AssignedCrew == nil || resp.AssignedCrew.ID != marco.CrewMemberID {
		t.Errorf("expected request handed to Marco, got %+v", resp.AssignedCrew)
	}
	env.svc.Wait()
}

// ── guests / activity journal ──

func TestRequestService_Create_ResolvesNewestGuestAtLocation(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	loc := env.repos.locations.add("master bedroom", "")
	other := env.repos.locations.add("vip cabin", "")
	env.repos.guests.add("Leonardo", "Rossi", model.GuestOnboard, &loc.LocationID)
	newest := env.repos.guests.add("Sofia", "Rossi", model.GuestOnboard, &loc.LocationID)
	env.repos.guests.add("Maria", "Bianchi", model.GuestAshore, &loc.LocationID)
	env.repos.guests.add("John", "Smith", model.GuestOnboard, &other.LocationID)

	created, err := env.svc.Create(ctx, trigger("BTN001", "master-bedroom", "normal"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if created.GuestID != newest.GuestID {
		t.Errorf("expected newest onboard guest %s, got %q", newest.GuestID, created.GuestID)
	}
	if created.GuestName != "Sofia Rossi" {
		t.Errorf("expected guest name Sofia Rossi, got %q", created.GuestName)
	}

	req := trigger("BTN002", "master-bedroom", "normal")
	req.GuestName = "Mr. Rossi"
	named, err := env.svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if named.GuestName != "Mr. Rossi" || named.GuestID != newest.GuestID {
		t.Errorf("expected explicit name kept with guest linked, got %q / %q", named.GuestName, named.GuestID)
	}
	env.svc.Wait()
}

func TestRequestService_Create_EmptyCabinHasNoGuest(t *testing.T) {
	env := setupTestRequestService(0)
	env.repos.locations.add("master bedroom", "")

	created, err := env.svc.Create(context.Background(), trigger("BTN001", "master-bedroom", "normal"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if created.GuestID != "" || created.GuestName != "" {
		t.Errorf("expected no guest, got %q / %q", created.GuestID, created.GuestName)
	}
	env.svc.Wait()
}

func TestRequestService_JournalsLifecycle(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	loc := env.repos.locations.add("master bedroom", "")
	anna := env.repos.crew.add("Anna", model.DutyOnDuty)
	userID := "user-anna"
	anna.UserID = &userID
	marco := env.repos.crew.add("Marco", model.DutyOnDuty)

	created, _ := env.svc.Create(ctx, trigger("BTN001", "master-bedroom", "urgent"))
	if _, err := env.svc.Transition(ctx, created.ID, "accepted", anna.CrewMemberID); err != nil {
		t.Fatalf("accept should succeed: %v", err)
	}
	if _, err := env.svc.Delegate(ctx, created.ID, marco.CrewMemberID); err != nil {
		t.Fatalf("Delegate should succeed: %v", err)
	}
	if _, err := env.svc.Transition(ctx, created.ID, "completed", marco.CrewMemberID); err != nil {
		t.Fatalf("complete should succeed: %v", err)
	}
	env.svc.Wait()

	entries := env.repos.activity.byType(model.ActivityServiceRequest)
	want := []string{"Request Created", "Request Accepted", "Request Delegated", "Request Completed"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d journal entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Action != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], e.Action)
		}
		if e.RequestID == nil || *e.RequestID != created.ID {
			t.Errorf("entry %d: expected request id %s, got %v", i, created.ID, e.RequestID)
		}
		if e.LocationID == nil || *e.LocationID != loc.LocationID {
			t.Errorf("entry %d: expected location %s, got %v", i, loc.LocationID, e.LocationID)
		}
	}
	if entries[1].UserID == nil || *entries[1].UserID != userID {
		t.Errorf("expected accept attributed to Anna's account, got %v", entries[1].UserID)
	}
	if !strings.Contains(string(entries[3].Metadata), `"response_time_sec"`) {
		t.Errorf("expected response time in completion metadata, got %s", entries[3].Metadata)
	}
}

func TestRequestService_JournalFailureDoesNotFailCreate(t *testing.T) {
	env := setupTestRequestService(0)
	env.repos.activity.createErr = errors.New("journal table locked")

	created, err := env.svc.Create(context.Background(), trigger("BTN001", "", "normal"))
	if err != nil {
		t.Fatalf("Create should succeed despite journal failure: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), created.ID); err != nil {
		t.Errorf("expected request persisted, got %v", err)
	}
	env.svc.Wait()
}

// ── ListActive / PurgeActive ──

func TestRequestService_ListActive_Ordering(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()
	svc := env.svc.(*requestService)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	steps := []struct {
		button, priority string
	}{
		{"BTN-A", "normal"},
		{"BTN-B", "emergency"},
		{"BTN-C", "urgent"},
		{"BTN-D", "normal"},
	}
	for i, s := range steps {
		at := base.Add(time.Duration(i) * time.Second)
		svc.now = func() time.Time { return at }
		if _, err := env.svc.Create(ctx, trigger(s.button, "", s.priority)); err != nil {
			t.Fatalf("Create %s should succeed: %v", s.button, err)
		}
	}

	list, err := env.svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive should succeed: %v", err)
	}
	want := []string{"BTN-B", "BTN-C", "BTN-A", "BTN-D"}
	if len(list) != len(want) {
		t.Fatalf("expected %d active requests, got %d", len(want), len(list))
	}
	for i, w := range want {
		if list[i].ButtonKey != w {
			t.Errorf("position %d: expected %s, got %s", i, w, list[i].ButtonKey)
		}
	}
	env.svc.Wait()
}

func TestRequestService_PurgeActive(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	done, _ := env.svc.Create(ctx, trigger("BTN-A", "", "normal"))
	env.svc.Transition(ctx, done.ID, "completed", "")
	env.svc.Create(ctx, trigger("BTN-B", "", "normal"))
	env.svc.Create(ctx, trigger("BTN-C", "", "urgent"))

	if _, err := env.svc.PurgeActive(ctx, Actor{UserID: "u1", Role: model.RoleCrew}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for crew role, got %v", err)
	}
	if n := env.repos.requests.count(); n != 3 {
		t.Fatalf("expected nothing purged, got %d requests left", n)
	}

	n, err := env.svc.PurgeActive(ctx, Actor{UserID: "admin", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("PurgeActive should succeed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 purged, got %d", n)
	}
	if _, err := env.svc.Get(ctx, done.ID); err != nil {
		t.Errorf("expected completed request to survive the purge: %v", err)
	}
	env.svc.Wait()
}

// ── dispatch integration ──

func TestRequestService_Create_DispatchesToOnDutyWatches(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	onDuty := env.repos.crew.add("Anna", model.DutyOnDuty)
	offDuty := env.repos.crew.add("Luca", model.DutyOffDuty)
	env.repos.devices.add("WATCH-1", model.DeviceWatch, &onDuty.CrewMemberID)
	env.repos.devices.add("WATCH-2", model.DeviceWatch, &offDuty.CrewMemberID)

	created, err := env.svc.Create(ctx, trigger("BTN001", "", "urgent"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	env.svc.Wait()

	p, ok := env.notifier.got("WATCH-1")
	if !ok {
		t.Fatal("expected on-duty watch to be notified")
	}
	if p.RequestID != created.ID || p.AlertMode != AlertSustained {
		t.Errorf("unexpected payload %+v", p)
	}
	if _, ok := env.notifier.got("WATCH-2"); ok {
		t.Error("expected off-duty watch not to be notified")
	}
}

func TestRequestService_Create_SurvivesDispatchFailure(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	crew := env.repos.crew.add("Anna", model.DutyOnDuty)
	env.repos.devices.add("WATCH-1", model.DeviceWatch, &crew.CrewMemberID)
	env.notifier.failKeys["WATCH-1"] = true

	created, err := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if err != nil {
		t.Fatalf("Create should succeed despite delivery failure: %v", err)
	}
	env.svc.Wait()

	if _, err := env.svc.Get(ctx, created.ID); err != nil {
		t.Errorf("expected request to stay stored: %v", err)
	}
}

func TestRequestService_Wait_DropsLateDispatch(t *testing.T) {
	env := setupTestRequestService(0)
	ctx := context.Background()

	crew := env.repos.crew.add("Anna", model.DutyOnDuty)
	env.repos.devices.add("WATCH-1", model.DeviceWatch, &crew.CrewMemberID)

	env.svc.Wait()

	created, err := env.svc.Create(ctx, trigger("BTN001", "", "normal"))
	if err != nil {
		t.Fatalf("Create should still persist during shutdown: %v", err)
	}
	env.svc.Wait()

	if _, ok := env.notifier.got("WATCH-1"); ok {
		t.Error("expected no dispatch once draining started")
	}
	if _, err := env.svc.Get(ctx, created.ID); err != nil {
		t.Errorf("expected request stored: %v", err)
	}
}

// ── SortActive ──

func TestSortActive(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	list := []model.ServiceRequest{
		{RequestID: "low", Priority: model.PriorityLow, CreatedAt: base},
		{RequestID: "normal-late", Priority: model.PriorityNormal, CreatedAt: base.Add(time.Minute)},
		{RequestID: "normal-early", Priority: model.PriorityNormal, CreatedAt: base},
		{RequestID: "emergency", Priority: model.PriorityEmergency, CreatedAt: base.Add(time.Hour)},
	}
	SortActive(list)

	want := []string{"emergency", "normal-early", "normal-late", "low"}
	for i, w := range want {
		if list[i].RequestID != w {
			t.Errorf("position %d: expected %s, got %s", i, w, list[i].RequestID)
		}
	}
}
