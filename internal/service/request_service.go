package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/config"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
	pkgerrors "github.com/debranko/obedio-yacht-crew-management-sub004/pkg/errors"
)

// Actor the authenticated caller of a privileged operation.
type Actor struct {
	UserID       string
	Role         model.Role
	CrewMemberID string
}

// RequestService service request lifecycle.
type RequestService interface {
	Create(ctx context.Context, req *dto.TriggerRequest) (*dto.ServiceRequestResponse, error)
	// Transition moves a request forward. On ErrInvalidTransition the
	// unchanged stored request is returned alongside the error.
	Transition(ctx context.Context, id, status, actingCrewID string) (*dto.ServiceRequestResponse, error)
	ListActive(ctx context.Context) ([]dto.ServiceRequestResponse, error)
	PurgeActive(ctx context.Context, actor Actor) (int64, error)
	Get(ctx context.Context, id string) (*dto.ServiceRequestResponse, error)
	List(ctx context.Context, req *dto.ServiceRequestListRequest) ([]dto.ServiceRequestResponse, int64, error)
	Delegate(ctx context.Context, id, crewMemberID string) (*dto.ServiceRequestResponse, error)
	History(ctx context.Context, req *dto.HistoryListRequest) ([]dto.HistoryResponse, int64, error)
	// Wait blocks until background dispatches and status broadcasts finish.
	// Work started after Wait is called is dropped.
	Wait()
}

type requestService struct {
	cfg        config.DispatchConfig
	repo       *repository.Repository
	coalescer  Coalescer
	dispatcher DispatchService
	publisher  StatusPublisher
	journal    journal
	logger     *zap.Logger
	now        func() time.Time

	// bound on waiting for an in-flight create before giving up with
	// ErrDuplicateTrigger
	inFlightWait time.Duration

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewRequestService creates a RequestService. A nil coalescer disables
// coalescing; a nil publisher skips status broadcasts.
func NewRequestService(
	cfg config.DispatchConfig,
	repo *repository.Repository,
	coalescer Coalescer,
	dispatcher DispatchService,
	publisher StatusPublisher,
	logger *zap.Logger,
) RequestService {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 15 * time.Second
	}
	return &requestService{
		cfg:        cfg,
		repo:       repo,
		coalescer:  coalescer,
		dispatcher: dispatcher,
		publisher:  publisher,
		journal:    newJournal(repo, logger),
		logger:     logger,
		now:        time.Now,

		inFlightWait: defaultInFlightWait,
	}
}

// timestamps are stored with microsecond precision
func (s *requestService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ────────────────────── Create ──────────────────────

func (s *requestService) Create(ctx context.Context, req *dto.TriggerRequest) (*dto.ServiceRequestResponse, error) {
	reqType, err := model.ParseRequestType(req.RequestType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	priority, err := model.ParsePriority(req.Priority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	buttonID := strings.TrimSpace(req.ButtonID)
	locationRef := strings.TrimSpace(req.LocationID)
	if buttonID == "" && locationRef == "" {
		return nil, validationErr("buttonId or locationId is required")
	}

	// ── coalescing ──
	claimKey := ""
	if s.coalescer != nil && s.cfg.CoalesceWindow > 0 && buttonID != "" {
		key := coalesceKeyPrefix + buttonID
		existing, claimed, err := s.claim(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		if claimed {
			claimKey = key
		}
	}

	created, err := s.create(ctx, buttonID, locationRef, reqType, priority, req)
	if err != nil {
		if claimKey != "" {
			_ = s.coalescer.Release(context.WithoutCancel(ctx), claimKey)
		}
		return nil, err
	}

	if claimKey != "" {
		if err := s.coalescer.Store(ctx, claimKey, created.RequestID, s.cfg.CoalesceWindow); err != nil {
			s.logger.Warn("store coalesce claim failed", zap.String("key", claimKey), zap.Error(err))
		}
	}

	s.logger.Info("service request created",
		zap.String("request_id", created.RequestID),
		zap.String("button_id", buttonID),
		zap.String("type", string(created.RequestType)),
		zap.String("priority", string(created.Priority)),
	)

	s.enqueueDispatch(created)
	return s.toResponse(created), nil
}

// claim takes the coalescing key for a button. It returns the existing
// pending request when the trigger folds into it. A trigger that lands while
// the first one is still being created waits for it and folds in too.
// Coalescer outages degrade to no coalescing.
func (s *requestService) claim(ctx context.Context, key string) (*dto.ServiceRequestResponse, bool, error) {
	placeholder := inFlightPrefix + uuid.NewString()
	var waited time.Duration

	for {
		ok, holder, err := s.coalescer.Claim(ctx, key, placeholder, s.cfg.CoalesceWindow)
		if err != nil {
			s.logger.Warn("coalescer unavailable, creating without coalescing", zap.Error(err))
			return nil, false, nil
		}
		if ok {
			return nil, true, nil
		}

		if strings.HasPrefix(holder, inFlightPrefix) {
			if waited >= s.inFlightWait {
				return nil, false, ErrDuplicateTrigger
			}
			select {
			case <-ctx.Done():
				return nil, false, ErrDuplicateTrigger
			case <-time.After(inFlightPoll):
			}
			waited += inFlightPoll
			continue
		}

		prev, err := s.repo.ServiceRequest.GetByID(ctx, holder)
		if err == nil && prev.Status == model.StatusPending {
			resp := s.toResponse(prev)
			resp.Coalesced = true
			s.logger.Info("trigger coalesced into pending request",
				zap.String("request_id", prev.RequestID),
				zap.String("key", key),
			)
			return resp, false, nil
		}
		if err != nil && !isNotFound(err) {
			s.logger.Error("load coalesced request failed", zap.String("request_id", holder), zap.Error(err))
			return nil, false, persistenceErr(err)
		}

		// the previous request moved on; only the trigger that swaps the
		// stale holder out starts the new one
		swapped, err := s.coalescer.Swap(ctx, key, holder, placeholder, s.cfg.CoalesceWindow)
		if err != nil {
			s.logger.Warn("coalescer unavailable, creating without coalescing", zap.Error(err))
			return nil, false, nil
		}
		if swapped {
			return nil, true, nil
		}
	}
}

func (s *requestService) create(
	ctx context.Context,
	buttonID, locationRef string,
	reqType model.RequestType,
	priority model.Priority,
	req *dto.TriggerRequest,
) (*model.ServiceRequest, error) {
	loc, err := s.resolveLocation(ctx, buttonID, locationRef)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	sr := &model.ServiceRequest{
		ButtonKey:   buttonID,
		GuestName:   req.GuestName,
		GuestCabin:  locationRef,
		RequestType: reqType,
		Priority:    priority,
		Status:      model.StatusPending,
		Message:     req.Message,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if loc != nil {
		sr.LocationID = &loc.LocationID
		sr.GuestCabin = loc.Name
		if guest := s.occupant(ctx, loc.LocationID); guest != nil {
			sr.GuestID = &guest.GuestID
			if sr.GuestName == "" {
				sr.GuestName = guest.FullName()
			}
		}
	}

	if err := s.repo.ServiceRequest.Create(ctx, sr); err != nil {
		s.logger.Error("create service request failed", zap.Error(err))
		return nil, persistenceErr(err)
	}
	sr.Location = loc

	s.journal.record(ctx, &model.ActivityLog{
		Type:       model.ActivityServiceRequest,
		Action:     "Request Created",
		Details:    requestDetails(sr),
		LocationID: sr.LocationID,
		GuestID:    sr.GuestID,
		RequestID:  &sr.RequestID,
		CreatedAt:  now,
	}, requestMeta(sr))
	return sr, nil
}

// occupant the guest who most recently checked in to the location, nil when
// the cabin is empty or the lookup fails.
func (s *requestService) occupant(ctx context.Context, locationID string) *model.Guest {
	if s.repo.Guest == nil {
		return nil
	}
	guest, err := s.repo.Guest.LatestOnboardAt(ctx, locationID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("resolve guest for location failed", zap.String("location_id", locationID), zap.Error(err))
		}
		return nil
	}
	return guest
}

// resolveLocation finds the location by explicit reference (id or name),
// falling back to the button's mapping. Unknown references are not an
// error: the raw reference is kept as the cabin label.
func (s *requestService) resolveLocation(ctx context.Context, buttonID, ref string) (*model.Location, error) {
	if ref != "" {
		loc, err := s.locationByRef(ctx, ref)
		if err != nil || loc != nil {
			return loc, err
		}
	}
	if buttonID == "" {
		return nil, nil
	}

	loc, err := s.repo.Location.GetByButtonKey(ctx, buttonID)
	if err == nil {
		return loc, nil
	}
	if !isNotFound(err) {
		return nil, s.locationErr(buttonID, err)
	}

	device, err := s.repo.Device.GetByKey(ctx, buttonID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.locationErr(buttonID, err)
	}
	if device.LocationID == nil {
		return nil, nil
	}
	loc, err = s.repo.Location.GetByID(ctx, *device.LocationID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.locationErr(buttonID, err)
	}
	return loc, nil
}

// locationByRef accepts a location id, a name, or a hyphenated name slug.
func (s *requestService) locationByRef(ctx context.Context, ref string) (*model.Location, error) {
	var (
		loc *model.Location
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		loc, err = s.repo.Location.GetByID(ctx, ref)
	} else {
		loc, err = s.repo.Location.GetByName(ctx, ref)
		if isNotFound(err) && strings.Contains(ref, "-") {
			loc, err = s.repo.Location.GetByName(ctx, strings.ReplaceAll(ref, "-", " "))
		}
	}
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.locationErr(ref, err)
	}
	return loc, nil
}

func (s *requestService) locationErr(ref string, err error) error {
	s.logger.Error("resolve location failed", zap.String("ref", ref), zap.Error(err))
	return persistenceErr(err)
}

// enqueueDispatch notifies crew in the background. Dispatch problems are
// logged and never affect the created request.
func (s *requestService) enqueueDispatch(sr *model.ServiceRequest) {
	if s.dispatcher == nil {
		return
	}
	if !s.track() {
		s.logger.Warn("shutting down, dispatch skipped", zap.String("request_id", sr.RequestID))
		return
	}
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DispatchTimeout)
		defer cancel()

		if _, err := s.dispatcher.DispatchRequest(ctx, sr); err != nil {
			s.logger.Error("dispatch failed", zap.String("request_id", sr.RequestID), zap.Error(err))
		}
	}()
}

// track registers a background job unless Wait has started draining.
func (s *requestService) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *requestService) Wait() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.wg.Wait()
}

// ────────────────────── Transition ──────────────────────

func (s *requestService) Transition(ctx context.Context, id, status, actingCrewID string) (*dto.ServiceRequestResponse, error) {
	next, err := model.ParseRequestStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sr.Status.CanTransitionTo(next) {
		return s.toResponse(sr), fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sr.Status, next)
	}

	var actor *model.CrewMember
	if actingCrewID != "" {
		actor, err = s.repo.CrewMember.GetByID(ctx, actingCrewID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrCrewNotFound
			}
			s.logger.Error("load acting crew failed", zap.String("crew_id", actingCrewID), zap.Error(err))
			return nil, persistenceErr(err)
		}
	} else if next == model.StatusAccepted {
		return nil, validationErr("accepting a request requires a crew member")
	}

	now := s.transitionTime(sr)
	prev := sr.Status
	sr.Status = next
	sr.UpdatedAt = now

	switch next {
	case model.StatusAccepted:
		sr.AssignedCrewID = &actor.CrewMemberID
		sr.AssignedCrew = actor
		sr.AcceptedAt = &now
	case model.StatusCompleted:
		sr.CompletedAt = &now
		if sr.AssignedCrewID == nil && actor != nil {
			sr.AssignedCrewID = &actor.CrewMemberID
			sr.AssignedCrew = actor
		}
	}

	if err := s.persistTransition(ctx, sr, prev, actor); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, sr, transitionAction(next), actor)

	s.logger.Info("service request transitioned",
		zap.String("request_id", sr.RequestID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
		zap.String("crew_id", actingCrewID),
	)

	if next == model.StatusAccepted || next == model.StatusCompleted {
		s.broadcast(sr, now)
	}
	return s.toResponse(sr), nil
}

// transitionTime now, nudged forward so updatedAt always moves past both
// createdAt and the previous updatedAt.
func (s *requestService) transitionTime(sr *model.ServiceRequest) time.Time {
	now := s.clock()
	floor := sr.CreatedAt
	if sr.UpdatedAt.After(floor) {
		floor = sr.UpdatedAt
	}
	if !now.After(floor) {
		now = floor.Add(time.Microsecond)
	}
	return now
}

func (s *requestService) persistTransition(ctx context.Context, sr *model.ServiceRequest, prev model.RequestStatus, actor *model.CrewMember) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("begin transaction failed", zap.Error(err))
		return persistenceErr(err)
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	// shared lock on the assignee so a concurrent crew delete waits for us
	if sr.AssignedCrewID != nil && sr.Status.IsActive() {
		if _, err := txRepo.CrewMember.GetByIDForShare(ctx, *sr.AssignedCrewID); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			if isNotFound(err) {
				return ErrCrewNotFound
			}
			s.logger.Error("lock assigned crew failed", zap.String("crew_id", *sr.AssignedCrewID), zap.Error(err))
			return persistenceErr(err)
		}
	}

	if err := txRepo.ServiceRequest.UpdateStatus(ctx, sr); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrRequestConflict
		}
		s.logger.Error("update service request failed", zap.String("request_id", sr.RequestID), zap.Error(err))
		return persistenceErr(err)
	}

	if sr.Status == model.StatusCompleted || sr.Status == model.StatusCancelled {
		if err := txRepo.History.Create(ctx, buildHistory(sr, prev, actor)); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("write request history failed", zap.String("request_id", sr.RequestID), zap.Error(err))
			return persistenceErr(err)
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("commit transaction failed", zap.Error(err))
			return persistenceErr(err)
		}
	}
	return nil
}

func buildHistory(sr *model.ServiceRequest, prev model.RequestStatus, actor *model.CrewMember) *model.ServiceRequestHistory {
	h := &model.ServiceRequestHistory{
		RequestID:      sr.RequestID,
		Action:         string(sr.Status),
		PreviousStatus: prev,
		NewStatus:      sr.Status,
		RequestType:    sr.RequestType,
		Priority:       sr.Priority,
		LocationName:   sr.GuestCabin,
		CreatedAt:      sr.UpdatedAt,
	}
	if sr.Location != nil {
		h.LocationName = sr.Location.Name
	}
	if actor != nil {
		h.ActedByID = &actor.CrewMemberID
		h.ActedByName = actor.Name
	}
	if sr.AcceptedAt != nil {
		secs := int(sr.AcceptedAt.Sub(sr.CreatedAt).Seconds())
		h.ResponseTimeSec = &secs
		if sr.CompletedAt != nil {
			done := int(sr.CompletedAt.Sub(*sr.AcceptedAt).Seconds())
			h.CompletionTimeSec = &done
		}
	}
	return h
}

func transitionAction(next model.RequestStatus) string {
	switch next {
	case model.StatusAccepted:
		return "Request Accepted"
	case model.StatusCompleted:
		return "Request Completed"
	case model.StatusCancelled:
		return "Request Cancelled"
	}
	return "Request Updated"
}

func (s *requestService) recordTransition(ctx context.Context, sr *model.ServiceRequest, action string, actor *model.CrewMember) {
	entry := &model.ActivityLog{
		Type:       model.ActivityServiceRequest,
		Action:     action,
		Details:    requestDetails(sr),
		LocationID: sr.LocationID,
		GuestID:    sr.GuestID,
		RequestID:  &sr.RequestID,
		CreatedAt:  sr.UpdatedAt,
	}
	meta := requestMeta(sr)
	if actor != nil {
		entry.UserID = actor.UserID
		meta["crew_member_id"] = actor.CrewMemberID
		meta["crew_name"] = actor.Name
	}
	s.journal.record(ctx, entry, meta)
}

func requestDetails(sr *model.ServiceRequest) string {
	where := sr.GuestCabin
	if where == "" {
		where = sr.ButtonKey
	}
	if sr.GuestName != "" {
		return fmt.Sprintf("%s request from %s in %s", sr.Priority, sr.GuestName, where)
	}
	return fmt.Sprintf("%s request from %s", sr.Priority, where)
}

func requestMeta(sr *model.ServiceRequest) map[string]any {
	meta := map[string]any{
		"request_id":   sr.RequestID,
		"request_type": sr.RequestType,
		"priority":     sr.Priority,
		"status":       sr.Status,
	}
	if sr.ButtonKey != "" {
		meta["button_key"] = sr.ButtonKey
	}
	if sr.AcceptedAt != nil {
		meta["response_time_sec"] = int(sr.AcceptedAt.Sub(sr.CreatedAt).Seconds())
		if sr.CompletedAt != nil {
			meta["completion_time_sec"] = int(sr.CompletedAt.Sub(*sr.AcceptedAt).Seconds())
		}
	}
	return meta
}

func (s *requestService) broadcast(sr *model.ServiceRequest, at time.Time) {
	if s.publisher == nil {
		return
	}
	update := newStatusUpdate(sr, at)
	if !s.track() {
		return
	}
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DispatchTimeout)
		defer cancel()
		if err := s.publisher.PublishStatus(ctx, update); err != nil {
			s.logger.Warn("publish status update failed", zap.String("request_id", update.RequestID), zap.Error(err))
		}
	}()
}

// ────────────────────── ListActive ──────────────────────

func (s *requestService) ListActive(ctx context.Context) ([]dto.ServiceRequestResponse, error) {
	list, err := s.repo.ServiceRequest.ListActive(ctx)
	if err != nil {
		s.logger.Error("list active requests failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.ServiceRequestResponse, 0, len(list))
	for i := range list {
		result = append(result, *s.toResponse(&list[i]))
	}
	return result, nil
}

// SortActive orders requests most urgent first, then oldest first.
// Matches the ordering ListActive gets from the store.
func SortActive(list []model.ServiceRequest) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].Priority.Rank(), list[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

// ────────────────────── PurgeActive ──────────────────────

func (s *requestService) PurgeActive(ctx context.Context, actor Actor) (int64, error) {
	if actor.Role != model.RoleAdmin {
		s.logger.Warn("purge of active requests refused",
			zap.String("user_id", actor.UserID),
			zap.String("role", string(actor.Role)),
		)
		return 0, ErrForbidden
	}

	n, err := s.repo.ServiceRequest.DeleteActive(ctx)
	if err != nil {
		s.logger.Error("purge active requests failed", zap.Error(err))
		return 0, persistenceErr(err)
	}

	s.logger.Warn("active service requests purged",
		zap.String("user_id", actor.UserID),
		zap.Int64("deleted", n),
	)
	return n, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *requestService) Get(ctx context.Context, id string) (*dto.ServiceRequestResponse, error) {
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(sr), nil
}

func (s *requestService) List(ctx context.Context, req *dto.ServiceRequestListRequest) ([]dto.ServiceRequestResponse, int64, error) {
	filter := repository.RequestFilter{
		LocationID: req.LocationID,
		CrewID:     req.CrewID,
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	}
	if req.Status != "" {
		st, err := model.ParseRequestStatus(req.Status)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter.Status = st
	}
	if req.Priority != "" {
		p, err := model.ParsePriority(req.Priority)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter.Priority = p
	}

	list, total, err := s.repo.ServiceRequest.List(ctx, filter)
	if err != nil {
		s.logger.Error("list service requests failed", zap.Error(err))
		return nil, 0, persistenceErr(err)
	}

	result := make([]dto.ServiceRequestResponse, 0, len(list))
	for i := range list {
		result = append(result, *s.toResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── Delegate ──────────────────────

func (s *requestService) Delegate(ctx context.Context, id, crewMemberID string) (*dto.ServiceRequestResponse, error) {
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sr.Status != model.StatusAccepted {
		return s.toResponse(sr), fmt.Errorf("%w: only accepted requests can be delegated", ErrInvalidTransition)
	}

	crew, err := s.repo.CrewMember.GetByID(ctx, crewMemberID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCrewNotFound
		}
		s.logger.Error("load delegate crew failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	sr.AssignedCrewID = &crew.CrewMemberID
	sr.AssignedCrew = crew
	sr.UpdatedAt = s.transitionTime(sr)

	if err := s.persistTransition(ctx, sr, sr.Status, crew); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, sr, "Request Delegated", crew)

	s.logger.Info("service request delegated",
		zap.String("request_id", id),
		zap.String("crew_id", crewMemberID),
	)
	s.broadcast(sr, sr.UpdatedAt)
	return s.toResponse(sr), nil
}

// ────────────────────── History ──────────────────────

func (s *requestService) History(ctx context.Context, req *dto.HistoryListRequest) ([]dto.HistoryResponse, int64, error) {
	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.History.List(ctx, repository.HistoryFilter{
		From:      from,
		To:        to,
		ActedByID: req.ActedByID,
		Offset:    req.GetOffset(),
		Limit:     req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list request history failed", zap.Error(err))
		return nil, 0, persistenceErr(err)
	}

	result := make([]dto.HistoryResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toHistoryResponse(&rows[i]))
	}
	return result, total, nil
}

// parseDateRange YYYY-MM-DD bounds; the returned To is exclusive (day after).
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		if from, err = time.Parse(dateLayout, fromStr); err != nil {
			return from, to, validationErr("from must be YYYY-MM-DD")
		}
	}
	if toStr != "" {
		if to, err = time.Parse(dateLayout, toStr); err != nil {
			return from, to, validationErr("to must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return from, to, validationErr("from must not be after to")
	}
	return from, to, nil
}

// ── helpers ──

func (s *requestService) load(ctx context.Context, id string) (*model.ServiceRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRequestNotFound
	}
	sr, err := s.repo.ServiceRequest.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("load service request failed", zap.String("request_id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return sr, nil
}

func (s *requestService) toResponse(sr *model.ServiceRequest) *dto.ServiceRequestResponse {
	resp := &dto.ServiceRequestResponse{
		ID:          sr.RequestID,
		ButtonKey:   sr.ButtonKey,
		GuestName:   sr.GuestName,
		GuestCabin:  sr.GuestCabin,
		RequestType: string(sr.RequestType),
		Priority:    string(sr.Priority),
		Status:      string(sr.Status),
		Message:     sr.Message,
		AcceptedAt:  dto.FormatTime(sr.AcceptedAt),
		CompletedAt: dto.FormatTime(sr.CompletedAt),
		CreatedAt:   dto.FormatTime(&sr.CreatedAt),
		UpdatedAt:   dto.FormatTime(&sr.UpdatedAt),
		Version:     sr.Version,
	}
	if sr.Location != nil {
		resp.Location = &dto.LocationBrief{ID: sr.Location.LocationID, Name: sr.Location.Name}
	}
	if sr.GuestID != nil {
		resp.GuestID = *sr.GuestID
	}
	if sr.AssignedCrew != nil {
		resp.AssignedCrew = &dto.CrewBrief{
			ID:       sr.AssignedCrew.CrewMemberID,
			Name:     sr.AssignedCrew.Name,
			Position: sr.AssignedCrew.Position,
		}
	} else if sr.AssignedCrewID != nil {
		resp.AssignedCrew = &dto.CrewBrief{ID: *sr.AssignedCrewID}
	}
	return resp
}

func toHistoryResponse(h *model.ServiceRequestHistory) dto.HistoryResponse {
	resp := dto.HistoryResponse{
		ID:                h.HistoryID,
		RequestID:         h.RequestID,
		Action:            h.Action,
		PreviousStatus:    string(h.PreviousStatus),
		NewStatus:         string(h.NewStatus),
		ActedByName:       h.ActedByName,
		RequestType:       string(h.RequestType),
		Priority:          string(h.Priority),
		LocationName:      h.LocationName,
		ResponseTimeSec:   h.ResponseTimeSec,
		CompletionTimeSec: h.CompletionTimeSec,
		CreatedAt:         dto.FormatTime(&h.CreatedAt),
	}
	if h.ActedByID != nil {
		resp.ActedByID = *h.ActedByID
	}
	return resp
}
