package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

const dateLayout = "2006-01-02"

// AssignmentService duty roster
type AssignmentService interface {
	Create(ctx context.Context, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)
	List(ctx context.Context, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, error)
	Delete(ctx context.Context, id string) error
	Workload(ctx context.Context, crewMemberID, from, to string) (*dto.WorkloadResponse, error)
}

type assignmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssignmentService creates an AssignmentService.
func NewAssignmentService(repo *repository.Repository, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *assignmentService) Create(ctx context.Context, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, validationErr("date must be YYYY-MM-DD")
	}
	aType := model.AssignmentPrimary
	if req.Type != "" {
		if aType, err = model.ParseAssignmentType(req.Type); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	shift, err := s.repo.Shift.GetByID(ctx, req.ShiftID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("load shift failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	// ── availability ──
	crew, err := s.repo.CrewMember.GetByID(ctx, req.CrewMemberID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCrewNotFound
		}
		s.logger.Error("load crew member failed", zap.Error(err))
		return nil, persistenceErr(err)
	}
	if crew.Status == model.DutyOnLeave {
		return nil, ErrCrewUnavailable
	}
	taken, err := s.repo.Assignment.ExistsForCrewOnDate(ctx, crew.CrewMemberID, date)
	if err != nil {
		s.logger.Error("check existing assignment failed", zap.Error(err))
		return nil, persistenceErr(err)
	}
	if taken {
		return nil, ErrAlreadyAssigned
	}

	a := &model.Assignment{
		Date:         date,
		ShiftID:      shift.ShiftID,
		CrewMemberID: crew.CrewMemberID,
		Type:         aType,
		Notes:        req.Notes,
	}
	if err := s.repo.Assignment.Create(ctx, a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAssigned
		}
		s.logger.Error("create assignment failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	a.Shift = shift
	a.CrewMember = crew
	return toAssignmentResponse(a), nil
}

// ────────────────────── List ──────────────────────

func (s *assignmentService) List(ctx context.Context, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, error) {
	filter, err := assignmentFilter(req.From, req.To)
	if err != nil {
		return nil, err
	}
	filter.CrewMemberID = req.CrewMemberID

	list, err := s.repo.Assignment.List(ctx, filter)
	if err != nil {
		s.logger.Error("list assignments failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAssignmentResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *assignmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Assignment.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("delete assignment failed", zap.String("id", id), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

// ────────────────────── Workload ──────────────────────

func (s *assignmentService) Workload(ctx context.Context, crewMemberID, from, to string) (*dto.WorkloadResponse, error) {
	if _, err := s.repo.CrewMember.GetByID(ctx, crewMemberID); err != nil {
		if isNotFound(err) {
			return nil, ErrCrewNotFound
		}
		s.logger.Error("load crew member failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	filter, err := assignmentFilter(from, to)
	if err != nil {
		return nil, err
	}
	filter.CrewMemberID = crewMemberID

	list, err := s.repo.Assignment.List(ctx, filter)
	if err != nil {
		s.logger.Error("list assignments failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	resp := &dto.WorkloadResponse{CrewMemberID: crewMemberID, From: from, To: to}
	for _, a := range list {
		if a.Type == model.AssignmentBackup {
			resp.Backup++
		} else {
			resp.Primary++
		}
	}
	resp.Total = resp.Primary + resp.Backup
	return resp, nil
}

// ── helpers ──

func assignmentFilter(from, to string) (repository.AssignmentFilter, error) {
	var f repository.AssignmentFilter
	var err error
	if from != "" {
		if f.From, err = time.Parse(dateLayout, from); err != nil {
			return f, validationErr("from must be YYYY-MM-DD")
		}
	}
	if to != "" {
		if f.To, err = time.Parse(dateLayout, to); err != nil {
			return f, validationErr("to must be YYYY-MM-DD")
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, validationErr("from must not be after to")
	}
	return f, nil
}

func toAssignmentResponse(a *model.Assignment) *dto.AssignmentResponse {
	resp := &dto.AssignmentResponse{
		ID:    a.AssignmentID,
		Date:  a.Date.Format(dateLayout),
		Type:  string(a.Type),
		Notes: a.Notes,
	}
	if a.Shift != nil {
		resp.Shift = &dto.ShiftBrief{
			ID:        a.Shift.ShiftID,
			Name:      a.Shift.Name,
			StartTime: a.Shift.StartTime,
			EndTime:   a.Shift.EndTime,
			Color:     a.Shift.Color,
		}
	}
	if a.CrewMember != nil {
		resp.Crew = &dto.CrewBrief{
			ID:       a.CrewMember.CrewMemberID,
			Name:     a.CrewMember.Name,
			Position: a.CrewMember.Position,
		}
	}
	return resp
}
