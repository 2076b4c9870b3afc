package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

// LocationService cabins and public areas
type LocationService interface {
	Create(ctx context.Context, req *dto.CreateLocationRequest) (*dto.LocationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LocationResponse, error)
	List(ctx context.Context, req *dto.LocationListRequest) ([]dto.LocationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error)
	// SetDoNotDisturb toggles DND and journals the change with the cabin's
	// current guest. Setting the current value again is a no-op.
	SetDoNotDisturb(ctx context.Context, id string, enabled bool, actor Actor) (*dto.LocationResponse, error)
	Delete(ctx context.Context, id string) error
}

type locationService struct {
	repo    *repository.Repository
	journal journal
	logger  *zap.Logger
}

// NewLocationService creates a LocationService.
func NewLocationService(repo *repository.Repository, logger *zap.Logger) LocationService {
	return &locationService{repo: repo, journal: newJournal(repo, logger), logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *locationService) Create(ctx context.Context, req *dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	loc := &model.Location{
		Name:        req.Name,
		Type:        req.Type,
		Floor:       req.Floor,
		Description: req.Description,
		Department:  req.Department,
	}
	if loc.Type == "" {
		loc.Type = "cabin"
	}
	if req.SmartButtonKey != "" {
		if err := s.ensureButtonFree(ctx, req.SmartButtonKey, ""); err != nil {
			return nil, err
		}
		key := req.SmartButtonKey
		loc.SmartButtonKey = &key
	}

	if err := s.repo.Location.Create(ctx, loc); err != nil {
		return nil, s.writeErr("create location failed", err)
	}

	return toLocationResponse(loc), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *locationService) GetByID(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// ────────────────────── List ──────────────────────

func (s *locationService) List(ctx context.Context, req *dto.LocationListRequest) ([]dto.LocationResponse, error) {
	locations, err := s.repo.Location.List(ctx, req.Type)
	if err != nil {
		s.logger.Error("list locations failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		result = append(result, *toLocationResponse(&locations[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *locationService) Update(ctx context.Context, id string, req *dto.UpdateLocationRequest) (*dto.LocationResponse, error) {
	loc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Type != nil {
		loc.Type = *req.Type
	}
	if req.Floor != nil {
		loc.Floor = *req.Floor
	}
	if req.Description != nil {
		loc.Description = *req.Description
	}
	if req.Department != nil {
		loc.Department = *req.Department
	}
	dndChanged := req.DoNotDisturb != nil && *req.DoNotDisturb != loc.DoNotDisturb
	if req.DoNotDisturb != nil {
		loc.DoNotDisturb = *req.DoNotDisturb
	}
	if req.SmartButtonKey != nil {
		if *req.SmartButtonKey == "" {
			loc.SmartButtonKey = nil
		} else {
			if err := s.ensureButtonFree(ctx, *req.SmartButtonKey, id); err != nil {
				return nil, err
			}
			key := *req.SmartButtonKey
			loc.SmartButtonKey = &key
		}
	}

	if err := s.repo.Location.Update(ctx, loc); err != nil {
		return nil, s.writeErr("update location failed", err)
	}
	if dndChanged {
		s.recordDND(ctx, loc, Actor{})
	}
	return toLocationResponse(loc), nil
}

// ────────────────────── SetDoNotDisturb ──────────────────────

func (s *locationService) SetDoNotDisturb(ctx context.Context, id string, enabled bool, actor Actor) (*dto.LocationResponse, error) {
	loc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc.DoNotDisturb == enabled {
		return toLocationResponse(loc), nil
	}

	loc.DoNotDisturb = enabled
	if err := s.repo.Location.Update(ctx, loc); err != nil {
		return nil, s.writeErr("update do-not-disturb failed", err)
	}
	s.recordDND(ctx, loc, actor)

	s.logger.Info("do not disturb changed",
		zap.String("location_id", id),
		zap.Bool("enabled", enabled),
		zap.String("user_id", actor.UserID),
	)
	return toLocationResponse(loc), nil
}

func (s *locationService) recordDND(ctx context.Context, loc *model.Location, actor Actor) {
	action := "DND Deactivated"
	if loc.DoNotDisturb {
		action = "DND Activated"
	}
	entry := &model.ActivityLog{
		Type:       model.ActivityDND,
		Action:     action,
		Details:    loc.Name,
		UserID:     optional(actor.UserID),
		LocationID: &loc.LocationID,
	}
	meta := map[string]any{"location_name": loc.Name, "do_not_disturb": loc.DoNotDisturb}

	if s.repo.Guest != nil {
		guest, err := s.repo.Guest.LatestOnboardAt(ctx, loc.LocationID)
		switch {
		case err == nil:
			entry.GuestID = &guest.GuestID
			entry.Details = fmt.Sprintf("%s (%s)", loc.Name, guest.FullName())
			meta["guest_name"] = guest.FullName()
		case !isNotFound(err):
			s.logger.Warn("resolve guest for location failed", zap.String("location_id", loc.LocationID), zap.Error(err))
		}
	}
	s.journal.record(ctx, entry, meta)
}

// ────────────────────── Delete ──────────────────────

func (s *locationService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Location.Delete(ctx, id); err != nil {
		s.logger.Error("delete location failed", zap.String("id", id), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

// ── helpers ──

// ensureButtonFree a button may be the primary button of one location only.
func (s *locationService) ensureButtonFree(ctx context.Context, key, selfID string) error {
	owner, err := s.repo.Location.GetByButtonKey(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		s.logger.Error("check button mapping failed", zap.Error(err))
		return persistenceErr(err)
	}
	if owner.LocationID != selfID {
		return ErrButtonAlreadyMapped
	}
	return nil
}

func (s *locationService) load(ctx context.Context, id string) (*model.Location, error) {
	loc, err := s.repo.Location.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrLocationNotFound
		}
		s.logger.Error("load location failed", zap.String("id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return loc, nil
}

func (s *locationService) writeErr(msg string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrLocationNameTaken
	}
	s.logger.Error(msg, zap.Error(err))
	return persistenceErr(err)
}

func toLocationResponse(l *model.Location) *dto.LocationResponse {
	resp := &dto.LocationResponse{
		ID:           l.LocationID,
		Name:         l.Name,
		Type:         l.Type,
		Floor:        l.Floor,
		Description:  l.Description,
		Department:   l.Department,
		DoNotDisturb: l.DoNotDisturb,
		CreatedAt:    dto.FormatTime(&l.CreatedAt),
		UpdatedAt:    dto.FormatTime(&l.UpdatedAt),
	}
	if l.SmartButtonKey != nil {
		resp.SmartButtonKey = *l.SmartButtonKey
	}
	return resp
}
