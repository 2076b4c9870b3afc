package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
	pkgerrors "github.com/debranko/obedio-yacht-crew-management-sub004/pkg/errors"
)

// CrewService crew directory
type CrewService interface {
	Create(ctx context.Context, req *dto.CreateCrewMemberRequest) (*dto.CrewMemberResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CrewMemberResponse, error)
	List(ctx context.Context, req *dto.CrewListRequest) ([]dto.CrewMemberResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCrewMemberRequest) (*dto.CrewMemberResponse, error)
	SetDutyStatus(ctx context.Context, id, status string) (*dto.CrewMemberResponse, error)
	Delete(ctx context.Context, id string) error
}

type crewService struct {
	repo    *repository.Repository
	journal journal
	logger  *zap.Logger
}

// NewCrewService creates a CrewService.
func NewCrewService(repo *repository.Repository, logger *zap.Logger) CrewService {
	return &crewService{repo: repo, journal: newJournal(repo, logger), logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *crewService) Create(ctx context.Context, req *dto.CreateCrewMemberRequest) (*dto.CrewMemberResponse, error) {
	status := model.DutyOffDuty
	if req.Status != "" {
		st, err := model.ParseDutyStatus(req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		status = st
	}

	crew := &model.CrewMember{
		Name:       req.Name,
		Department: req.Department,
		Position:   req.Position,
		Status:     status,
		Email:      req.Email,
		Phone:      req.Phone,
	}
	if err := s.repo.CrewMember.Create(ctx, crew); err != nil {
		s.logger.Error("create crew member failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	return toCrewResponse(crew), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *crewService) GetByID(ctx context.Context, id string) (*dto.CrewMemberResponse, error) {
	crew, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCrewResponse(crew), nil
}

// ────────────────────── List ──────────────────────

func (s *crewService) List(ctx context.Context, req *dto.CrewListRequest) ([]dto.CrewMemberResponse, error) {
	filter := repository.CrewFilter{Department: req.Department}
	if req.Status != "" {
		st, err := model.ParseDutyStatus(req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter.Status = st
	}

	list, err := s.repo.CrewMember.List(ctx, filter)
	if err != nil {
		s.logger.Error("list crew failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.CrewMemberResponse, 0, len(list))
	for i := range list {
		result = append(result, *toCrewResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *crewService) Update(ctx context.Context, id string, req *dto.UpdateCrewMemberRequest) (*dto.CrewMemberResponse, error) {
	crew, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		crew.Name = *req.Name
	}
	if req.Department != nil {
		crew.Department = *req.Department
	}
	if req.Position != nil {
		crew.Position = *req.Position
	}
	if req.Email != nil {
		crew.Email = *req.Email
	}
	if req.Phone != nil {
		crew.Phone = *req.Phone
	}

	if err := s.save(ctx, crew); err != nil {
		return nil, err
	}
	return toCrewResponse(crew), nil
}

// ────────────────────── SetDutyStatus ──────────────────────

// SetDutyStatus only the hyphenated spellings are accepted.
func (s *crewService) SetDutyStatus(ctx context.Context, id, status string) (*dto.CrewMemberResponse, error) {
	st, err := model.ParseDutyStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	crew, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if crew.Status == st {
		return toCrewResponse(crew), nil
	}

	prev := crew.Status
	crew.Status = st
	if err := s.save(ctx, crew); err != nil {
		return nil, err
	}

	s.journal.record(ctx, &model.ActivityLog{
		Type:    model.ActivityCrew,
		Action:  "Duty Status Changed",
		Details: fmt.Sprintf("%s is now %s", crew.Name, st),
		UserID:  crew.UserID,
	}, map[string]any{"crew_member_id": id, "from": prev, "to": st})

	s.logger.Info("crew duty status changed",
		zap.String("crew_id", id),
		zap.String("from", string(prev)),
		zap.String("to", string(st)),
	)
	return toCrewResponse(crew), nil
}

// ────────────────────── Delete ──────────────────────

func (s *crewService) Delete(ctx context.Context, id string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("begin transaction failed", zap.Error(err))
		return persistenceErr(err)
	}
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	// holding the row lock keeps an accept from assigning this member
	// between the count and the delete
	if _, err := txRepo.CrewMember.GetByIDForUpdate(ctx, id); err != nil {
		rollback()
		if isNotFound(err) {
			return ErrCrewNotFound
		}
		s.logger.Error("lock crew member failed", zap.String("crew_id", id), zap.Error(err))
		return persistenceErr(err)
	}

	n, err := txRepo.ServiceRequest.CountActiveByCrew(ctx, id)
	if err != nil {
		rollback()
		s.logger.Error("count active requests failed", zap.String("crew_id", id), zap.Error(err))
		return persistenceErr(err)
	}
	if n > 0 {
		rollback()
		return ErrCrewHasActiveRequests
	}

	if err := txRepo.CrewMember.Delete(ctx, id); err != nil {
		rollback()
		s.logger.Error("delete crew member failed", zap.String("crew_id", id), zap.Error(err))
		return persistenceErr(err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("commit transaction failed", zap.Error(err))
			return persistenceErr(err)
		}
	}
	s.logger.Info("crew member deleted", zap.String("crew_id", id))
	return nil
}

// ── helpers ──

func (s *crewService) load(ctx context.Context, id string) (*model.CrewMember, error) {
	crew, err := s.repo.CrewMember.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCrewNotFound
		}
		s.logger.Error("load crew member failed", zap.String("crew_id", id), zap.Error(err))
		return nil, persistenceErr(err)
	}
	return crew, nil
}

func (s *crewService) save(ctx context.Context, crew *model.CrewMember) error {
	if err := s.repo.CrewMember.Update(ctx, crew); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrCrewConflict
		}
		s.logger.Error("update crew member failed", zap.String("crew_id", crew.CrewMemberID), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

func toCrewResponse(c *model.CrewMember) *dto.CrewMemberResponse {
	resp := &dto.CrewMemberResponse{
		ID:         c.CrewMemberID,
		Name:       c.Name,
		Department: c.Department,
		Position:   c.Position,
		Status:     string(c.Status),
		Email:      c.Email,
		Phone:      c.Phone,
		Devices:    make([]dto.DeviceBrief, 0, len(c.Devices)),
		Version:    c.Version,
		CreatedAt:  dto.FormatTime(&c.CreatedAt),
		UpdatedAt:  dto.FormatTime(&c.UpdatedAt),
	}
	for _, d := range c.Devices {
		resp.Devices = append(resp.Devices, dto.DeviceBrief{
			ID:        d.DeviceID,
			DeviceKey: d.DeviceKey,
			Type:      string(d.Type),
			Status:    string(d.Status),
		})
	}
	return resp
}
