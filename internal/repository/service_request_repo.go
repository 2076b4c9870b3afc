package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	pkgerrors "github.com/debranko/obedio-yacht-crew-management-sub004/pkg/errors"
)

// RequestFilter list filter; zero fields match everything.
type RequestFilter struct {
	Status     model.RequestStatus
	Priority   model.Priority
	LocationID string
	CrewID     string
	Offset     int
	Limit      int
}

// priority rank in SQL, kept in step with model.Priority.Rank
const priorityRankSQL = `CASE priority
	WHEN 'emergency' THEN 3
	WHEN 'urgent' THEN 2
	WHEN 'normal' THEN 1
	ELSE 0 END`

// ServiceRequestRepository service request data access
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *model.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*model.ServiceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.ServiceRequest, int64, error)
	// ListActive pending and accepted requests, most urgent first, then oldest first.
	ListActive(ctx context.Context) ([]model.ServiceRequest, error)
	// UpdateStatus persists a transition guarded by the version column.
	UpdateStatus(ctx context.Context, req *model.ServiceRequest) error
	DeleteActive(ctx context.Context) (int64, error)
	CountActiveByCrew(ctx context.Context, crewID string) (int64, error)
}

type serviceRequestRepo struct {
	db *gorm.DB
}

// NewServiceRequestRepo creates a ServiceRequestRepository.
func NewServiceRequestRepo(db *gorm.DB) ServiceRequestRepository {
	return &serviceRequestRepo{db: db}
}

func (r *serviceRequestRepo) Create(ctx context.Context, req *model.ServiceRequest) error {
	return r.db.WithContext(ctx).Omit("Location", "AssignedCrew").Create(req).Error
}

func (r *serviceRequestRepo) GetByID(ctx context.Context, id string) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("AssignedCrew").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *serviceRequestRepo) List(ctx context.Context, filter RequestFilter) ([]model.ServiceRequest, int64, error) {
	var reqs []model.ServiceRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ServiceRequest{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}
	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.CrewID != "" {
		db = db.Where("assigned_crew_id = ?", filter.CrewID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if err := db.Preload("Location").Preload("AssignedCrew").
		Offset(filter.Offset).Limit(limit).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *serviceRequestRepo) ListActive(ctx context.Context) ([]model.ServiceRequest, error) {
	var reqs []model.ServiceRequest
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("AssignedCrew").
		Where("status IN ?", model.ActiveStatuses()).
		Order(priorityRankSQL + " DESC").
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *serviceRequestRepo) UpdateStatus(ctx context.Context, req *model.ServiceRequest) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(&model.ServiceRequest{}).
		Where("request_id = ? AND version = ?", req.RequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":           req.Status,
			"assigned_crew_id": req.AssignedCrewID,
			"accepted_at":      req.AcceptedAt,
			"completed_at":     req.CompletedAt,
			"updated_at":       req.UpdatedAt,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}

func (r *serviceRequestRepo) DeleteActive(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ?", model.ActiveStatuses()).
		Delete(&model.ServiceRequest{})
	return result.RowsAffected, result.Error
}

func (r *serviceRequestRepo) CountActiveByCrew(ctx context.Context, crewID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ServiceRequest{}).
		Where("assigned_crew_id = ? AND status IN ?", crewID, model.ActiveStatuses()).
		Count(&n).Error
	return n, err
}

// ── History ──

// HistoryFilter history query; zero fields match everything.
type HistoryFilter struct {
	From      time.Time
	To        time.Time
	ActedByID string
	Offset    int
	Limit     int
}

// ServiceRequestHistoryRepository completed/cancelled request journal
type ServiceRequestHistoryRepository interface {
	Create(ctx context.Context, h *model.ServiceRequestHistory) error
	List(ctx context.Context, filter HistoryFilter) ([]model.ServiceRequestHistory, int64, error)
}

type historyRepo struct {
	db *gorm.DB
}

// NewServiceRequestHistoryRepo creates a ServiceRequestHistoryRepository.
func NewServiceRequestHistoryRepo(db *gorm.DB) ServiceRequestHistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Create(ctx context.Context, h *model.ServiceRequestHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *historyRepo) List(ctx context.Context, filter HistoryFilter) ([]model.ServiceRequestHistory, int64, error) {
	var rows []model.ServiceRequestHistory
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ServiceRequestHistory{})
	if !filter.From.IsZero() {
		db = db.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		db = db.Where("created_at < ?", filter.To)
	}
	if filter.ActedByID != "" {
		db = db.Where("acted_by_id = ?", filter.ActedByID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	if err := db.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
