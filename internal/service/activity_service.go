package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

// ActivityService read side of the activity journal
type ActivityService interface {
	List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService creates an ActivityService.
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

func (s *activityService) List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error) {
	filter := repository.ActivityFilter{
		UserID:     req.UserID,
		LocationID: req.LocationID,
		RequestID:  req.RequestID,
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	}
	if req.Type != "" {
		t, err := model.ParseActivityType(req.Type)
		if err != nil {
			return nil, 0, validationErr("%v", err)
		}
		filter.Type = t
	}

	rows, total, err := s.repo.Activity.List(ctx, filter)
	if err != nil {
		s.logger.Error("list activity failed", zap.Error(err))
		return nil, 0, persistenceErr(err)
	}

	result := make([]dto.ActivityResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toActivityResponse(&rows[i]))
	}
	return result, total, nil
}

// ── journal ──

// journal appends activity rows for the writing services. Writes are best
// effort: a failed insert is logged and never fails the operation itself.
type journal struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

func newJournal(repo *repository.Repository, logger *zap.Logger) journal {
	return journal{repo: repo, logger: logger, now: time.Now}
}

func (j journal) record(ctx context.Context, entry *model.ActivityLog, meta any) {
	if j.repo == nil || j.repo.Activity == nil {
		return
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			j.logger.Warn("encode activity metadata failed", zap.String("action", entry.Action), zap.Error(err))
		} else {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = j.now().UTC()
	}
	if err := j.repo.Activity.Create(context.WithoutCancel(ctx), entry); err != nil {
		j.logger.Warn("write activity log failed",
			zap.String("type", string(entry.Type)),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// optional nil for "", so empty references are stored as NULL
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toActivityResponse(a *model.ActivityLog) dto.ActivityResponse {
	resp := dto.ActivityResponse{
		ID:        a.ActivityID,
		Type:      string(a.Type),
		Action:    a.Action,
		Details:   a.Details,
		CreatedAt: dto.FormatTime(&a.CreatedAt),
	}
	if a.UserID != nil {
		resp.UserID = *a.UserID
	}
	if a.LocationID != nil {
		resp.LocationID = *a.LocationID
	}
	if a.GuestID != nil {
		resp.GuestID = *a.GuestID
	}
	if a.RequestID != nil {
		resp.RequestID = *a.RequestID
	}
	if len(a.Metadata) > 0 {
		resp.Metadata = json.RawMessage(a.Metadata)
	}
	return resp
}
