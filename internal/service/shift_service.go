package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

// ShiftPalette colours handed out to new shifts, first unused one first.
var ShiftPalette = [...]string{
	"#F59E0B", "#F97316", "#8B5CF6", "#4F46E5",
	"#EC4899", "#14B8A6", "#10B981", "#F43F5E",
	"#6366F1", "#A855F7", "#EAB308", "#06B6D4",
	"#84CC16", "#F472B6", "#0EA5E9", "#22C55E",
}

// NextShiftSlot colour and sort order for a shift added after existing.
// The colour is the first palette entry no shift uses; once all are taken
// the least used one is reused. The sort order goes after the current last.
func NextShiftSlot(existing []model.Shift) (string, int) {
	uses := make(map[string]int, len(ShiftPalette))
	sortOrder := 0
	for i := range existing {
		uses[existing[i].Color]++
		if existing[i].SortOrder >= sortOrder {
			sortOrder = existing[i].SortOrder + 1
		}
	}

	color := ShiftPalette[0]
	for _, c := range ShiftPalette {
		if uses[c] < uses[color] {
			color = c
		}
	}
	return color, sortOrder
}

const (
	defaultPrimaryCount = 2
	defaultBackupCount  = 1
	clockLayout         = "15:04"
)

// ShiftService shift definitions
type ShiftService interface {
	Create(ctx context.Context, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error)
	List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error)
	ToggleActive(ctx context.Context, id string) (*dto.ShiftResponse, error)
	Reorder(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
}

type shiftService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewShiftService creates a ShiftService.
func NewShiftService(repo *repository.Repository, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest) (*dto.ShiftResponse, error) {
	if err := validateClock("start_time", req.StartTime); err != nil {
		return nil, err
	}
	if err := validateClock("end_time", req.EndTime); err != nil {
		return nil, err
	}

	existing, err := s.repo.Shift.List(ctx, false)
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, persistenceErr(err)
	}
	color, sortOrder := NextShiftSlot(existing)

	shift := &model.Shift{
		Name:         req.Name,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Color:        color,
		Description:  req.Description,
		IsActive:     true,
		SortOrder:    sortOrder,
		PrimaryCount: defaultPrimaryCount,
		BackupCount:  defaultBackupCount,
	}
	if req.PrimaryCount != nil {
		shift.PrimaryCount = *req.PrimaryCount
	}
	if req.BackupCount != nil {
		shift.BackupCount = *req.BackupCount
	}

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("create shift failed", zap.Error(err))
		return nil, persistenceErr(err)
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *shiftService) GetByID(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) List(ctx context.Context, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error) {
	shifts, err := s.repo.Shift.List(ctx, req.ActiveOnly)
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *shiftService) Update(ctx context.Context, id string, req *dto.UpdateShiftRequest) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		shift.Name = *req.Name
	}
	if req.StartTime != nil {
		if err := validateClock("start_time", *req.StartTime); err != nil {
			return nil, err
		}
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if err := validateClock("end_time", *req.EndTime); err != nil {
			return nil, err
		}
		shift.EndTime = *req.EndTime
	}
	if req.Description != nil {
		shift.Description = *req.Description
	}
	if req.PrimaryCount != nil {
		shift.PrimaryCount = *req.PrimaryCount
	}
	if req.BackupCount != nil {
		shift.BackupCount = *req.BackupCount
	}

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("update shift failed", zap.String("id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── ToggleActive ──────────────────────

func (s *shiftService) ToggleActive(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	shift.IsActive = !shift.IsActive
	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("toggle shift failed", zap.String("id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── Reorder ──────────────────────

func (s *shiftService) Reorder(ctx context.Context, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return validationErr("duplicate shift id %s", id)
		}
		seen[id] = struct{}{}
	}

	if err := s.repo.Shift.Reorder(ctx, ids); err != nil {
		if isNotFound(err) {
			return ErrShiftNotFound
		}
		s.logger.Error("reorder shifts failed", zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *shiftService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Shift.Delete(ctx, id); err != nil {
		s.logger.Error("delete shift failed", zap.String("id", id), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

// ── helpers ──

func (s *shiftService) load(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("load shift failed", zap.String("id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return shift, nil
}

// validateClock HH:MM, 24-hour
func validateClock(field, v string) error {
	if len(v) != len(clockLayout) {
		return validationErr("%s must be HH:MM", field)
	}
	if _, err := time.Parse(clockLayout, v); err != nil {
		return validationErr("%s must be HH:MM", field)
	}
	return nil
}

func toShiftResponse(sh *model.Shift) *dto.ShiftResponse {
	return &dto.ShiftResponse{
		ID:           sh.ShiftID,
		Name:         sh.Name,
		StartTime:    sh.StartTime,
		EndTime:      sh.EndTime,
		Color:        sh.Color,
		Description:  sh.Description,
		IsActive:     sh.IsActive,
		SortOrder:    sh.SortOrder,
		PrimaryCount: sh.PrimaryCount,
		BackupCount:  sh.BackupCount,
	}
}
