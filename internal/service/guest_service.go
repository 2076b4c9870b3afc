package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

// GuestService guests aboard and the cabins they occupy
type GuestService interface {
	Create(ctx context.Context, req *dto.CreateGuestRequest, actor Actor) (*dto.GuestResponse, error)
	GetByID(ctx context.Context, id string) (*dto.GuestResponse, error)
	List(ctx context.Context, req *dto.GuestListRequest) ([]dto.GuestResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateGuestRequest) (*dto.GuestResponse, error)
	// UpdateStatus moves a guest along expected -> onboard <-> ashore -> departed.
	// Setting the current status again is a no-op.
	UpdateStatus(ctx context.Context, id, status string, actor Actor) (*dto.GuestResponse, error)
	Delete(ctx context.Context, id string) error
}

type guestService struct {
	repo    *repository.Repository
	journal journal
	logger  *zap.Logger
	now     func() time.Time
}

// NewGuestService creates a GuestService.
func NewGuestService(repo *repository.Repository, logger *zap.Logger) GuestService {
	return &guestService{
		repo:    repo,
		journal: newJournal(repo, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *guestService) Create(ctx context.Context, req *dto.CreateGuestRequest, actor Actor) (*dto.GuestResponse, error) {
	status, err := model.ParseGuestStatus(req.Status)
	if err != nil {
		return nil, validationErr("%v", err)
	}

	guest := &model.Guest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Status:    status,
		Notes:     req.Notes,
	}
	if req.LocationID != "" {
		loc, err := s.location(ctx, req.LocationID)
		if err != nil {
			return nil, err
		}
		guest.LocationID = &loc.LocationID
		guest.Location = loc
	}
	if status == model.GuestOnboard {
		now := s.now().UTC()
		guest.CheckInAt = &now
	}

	if err := s.repo.Guest.Create(ctx, guest); err != nil {
		s.logger.Error("create guest failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	s.journal.record(ctx, &model.ActivityLog{
		Type:       model.ActivityGuest,
		Action:     "Guest Added",
		Details:    guest.FullName(),
		UserID:     optional(actor.UserID),
		LocationID: guest.LocationID,
		GuestID:    &guest.GuestID,
	}, map[string]any{"status": guest.Status})

	s.logger.Info("guest created", zap.String("guest_id", guest.GuestID), zap.String("status", string(status)))
	return toGuestResponse(guest), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *guestService) GetByID(ctx context.Context, id string) (*dto.GuestResponse, error) {
	guest, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toGuestResponse(guest), nil
}

func (s *guestService) List(ctx context.Context, req *dto.GuestListRequest) ([]dto.GuestResponse, int64, error) {
	filter := repository.GuestFilter{
		LocationID: req.LocationID,
		Search:     req.Search,
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	}
	if req.Status != "" {
		status, err := model.ParseGuestStatus(req.Status)
		if err != nil {
			return nil, 0, validationErr("%v", err)
		}
		filter.Status = status
	}

	guests, total, err := s.repo.Guest.List(ctx, filter)
	if err != nil {
		s.logger.Error("list guests failed", zap.Error(err))
		return nil, 0, persistenceErr(err)
	}

	result := make([]dto.GuestResponse, 0, len(guests))
	for i := range guests {
		result = append(result, *toGuestResponse(&guests[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *guestService) Update(ctx context.Context, id string, req *dto.UpdateGuestRequest) (*dto.GuestResponse, error) {
	guest, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		guest.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		guest.LastName = *req.LastName
	}
	if req.Notes != nil {
		guest.Notes = *req.Notes
	}
	if req.DoNotDisturb != nil {
		guest.DoNotDisturb = *req.DoNotDisturb
	}
	if req.LocationID != nil {
		if *req.LocationID == "" {
			guest.LocationID = nil
			guest.Location = nil
		} else {
			loc, err := s.location(ctx, *req.LocationID)
			if err != nil {
				return nil, err
			}
			guest.LocationID = &loc.LocationID
			guest.Location = loc
		}
	}

	if err := s.repo.Guest.Update(ctx, guest); err != nil {
		s.logger.Error("update guest failed", zap.String("guest_id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return toGuestResponse(guest), nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *guestService) UpdateStatus(ctx context.Context, id, status string, actor Actor) (*dto.GuestResponse, error) {
	next, err := model.ParseGuestStatus(status)
	if err != nil || status == "" {
		return nil, validationErr("unknown guest status %q", status)
	}

	guest, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if guest.Status == next {
		return toGuestResponse(guest), nil
	}

	action, ok := guest.Status.GuestAction(next)
	if !ok {
		return toGuestResponse(guest), ErrInvalidTransition
	}

	prev := guest.Status
	now := s.now().UTC()
	guest.Status = next
	switch next {
	case model.GuestOnboard:
		if guest.CheckInAt == nil {
			guest.CheckInAt = &now
		}
	case model.GuestDeparted:
		guest.CheckOutAt = &now
	}

	if err := s.repo.Guest.Update(ctx, guest); err != nil {
		s.logger.Error("update guest status failed", zap.String("guest_id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}

	s.journal.record(ctx, &model.ActivityLog{
		Type:       model.ActivityGuest,
		Action:     action,
		Details:    guest.FullName(),
		UserID:     optional(actor.UserID),
		LocationID: guest.LocationID,
		GuestID:    &guest.GuestID,
	}, map[string]any{"from": prev, "to": next})

	s.logger.Info("guest status changed",
		zap.String("guest_id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(next)),
	)
	return toGuestResponse(guest), nil
}

// ────────────────────── Delete ──────────────────────

func (s *guestService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Guest.Delete(ctx, id); err != nil {
		s.logger.Error("delete guest failed", zap.String("guest_id", id), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

// ── helpers ──

func (s *guestService) load(ctx context.Context, id string) (*model.Guest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrGuestNotFound
	}
	guest, err := s.repo.Guest.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrGuestNotFound
		}
		s.logger.Error("load guest failed", zap.String("guest_id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return guest, nil
}

func (s *guestService) location(ctx context.Context, id string) (*model.Location, error) {
	loc, err := s.repo.Location.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrLocationNotFound
		}
		s.logger.Error("load guest location failed", zap.String("location_id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return loc, nil
}

func toGuestResponse(g *model.Guest) *dto.GuestResponse {
	resp := &dto.GuestResponse{
		ID:           g.GuestID,
		FirstName:    g.FirstName,
		LastName:     g.LastName,
		Status:       string(g.Status),
		DoNotDisturb: g.DoNotDisturb,
		Notes:        g.Notes,
		CheckInAt:    dto.FormatTime(g.CheckInAt),
		CheckOutAt:   dto.FormatTime(g.CheckOutAt),
		CreatedAt:    dto.FormatTime(&g.CreatedAt),
		UpdatedAt:    dto.FormatTime(&g.UpdatedAt),
	}
	if g.Location != nil {
		resp.Location = &dto.LocationBrief{ID: g.Location.LocationID, Name: g.Location.Name}
	} else if g.LocationID != nil {
		resp.Location = &dto.LocationBrief{ID: *g.LocationID}
	}
	return resp
}
