package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
)

// AssignmentFilter date range is inclusive on both ends.
type AssignmentFilter struct {
	From         time.Time
	To           time.Time
	CrewMemberID string
	ShiftID      string
}

// AssignmentRepository duty roster data access
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error)
	ExistsForCrewOnDate(ctx context.Context, crewMemberID string, date time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo creates an AssignmentRepository.
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	return r.db.WithContext(ctx).Omit("Shift", "CrewMember").Create(a).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Preload("CrewMember").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) List(ctx context.Context, filter AssignmentFilter) ([]model.Assignment, error) {
	var list []model.Assignment
	db := r.db.WithContext(ctx).Preload("Shift").Preload("CrewMember")

	if !filter.From.IsZero() {
		db = db.Where("date >= ?", filter.From.Format("2006-01-02"))
	}
	if !filter.To.IsZero() {
		db = db.Where("date <= ?", filter.To.Format("2006-01-02"))
	}
	if filter.CrewMemberID != "" {
		db = db.Where("crew_member_id = ?", filter.CrewMemberID)
	}
	if filter.ShiftID != "" {
		db = db.Where("shift_id = ?", filter.ShiftID)
	}

	err := db.Order("date ASC, type DESC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ExistsForCrewOnDate(ctx context.Context, crewMemberID string, date time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("crew_member_id = ? AND date = ?", crewMemberID, date.Format("2006-01-02")).
		Count(&n).Error
	return n > 0, err
}

func (r *assignmentRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("assignment_id = ?", id).
		Delete(&model.Assignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
