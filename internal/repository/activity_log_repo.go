package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
)

// ActivityFilter journal query; zero fields match everything.
type ActivityFilter struct {
	Type       model.ActivityType
	UserID     string
	LocationID string
	RequestID  string
	Offset     int
	Limit      int
}

// ActivityLogRepository activity journal
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo creates an ActivityLogRepository.
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityLogRepo) List(ctx context.Context, filter ActivityFilter) ([]model.ActivityLog, int64, error) {
	var rows []model.ActivityLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.RequestID != "" {
		db = db.Where("request_id = ?", filter.RequestID)
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
