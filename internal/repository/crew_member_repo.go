package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	pkgerrors "github.com/debranko/obedio-yacht-crew-management-sub004/pkg/errors"
)

// CrewFilter list filter; zero fields match everything.
type CrewFilter struct {
	Department string
	Status     model.DutyStatus
}

// CrewMemberRepository crew data access
type CrewMemberRepository interface {
	Create(ctx context.Context, crew *model.CrewMember) error
	GetByID(ctx context.Context, id string) (*model.CrewMember, error)
	GetByUserID(ctx context.Context, userID string) (*model.CrewMember, error)
	// GetByIDForUpdate and GetByIDForShare lock the row until the
	// surrounding transaction ends. Call them on a WithTx aggregate.
	GetByIDForUpdate(ctx context.Context, id string) (*model.CrewMember, error)
	GetByIDForShare(ctx context.Context, id string) (*model.CrewMember, error)
	List(ctx context.Context, filter CrewFilter) ([]model.CrewMember, error)
	// ListOnDuty on-duty crew with their devices preloaded.
	ListOnDuty(ctx context.Context, department string) ([]model.CrewMember, error)
	Update(ctx context.Context, crew *model.CrewMember) error
	Delete(ctx context.Context, id string) error
}

type crewMemberRepo struct {
	db *gorm.DB
}

// NewCrewMemberRepo creates a CrewMemberRepository.
func NewCrewMemberRepo(db *gorm.DB) CrewMemberRepository {
	return &crewMemberRepo{db: db}
}

func (r *crewMemberRepo) Create(ctx context.Context, crew *model.CrewMember) error {
	return r.db.WithContext(ctx).Create(crew).Error
}

func (r *crewMemberRepo) GetByID(ctx context.Context, id string) (*model.CrewMember, error) {
	var crew model.CrewMember
	err := r.db.WithContext(ctx).
		Preload("Devices").
		Where("crew_member_id = ?", id).
		First(&crew).Error
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

func (r *crewMemberRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.CrewMember, error) {
	return r.getLocked(ctx, id, clause.LockingStrengthUpdate)
}

func (r *crewMemberRepo) GetByIDForShare(ctx context.Context, id string) (*model.CrewMember, error) {
	return r.getLocked(ctx, id, clause.LockingStrengthShare)
}

func (r *crewMemberRepo) getLocked(ctx context.Context, id, strength string) (*model.CrewMember, error) {
	var crew model.CrewMember
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: strength}).
		Where("crew_member_id = ?", id).
		First(&crew).Error
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

func (r *crewMemberRepo) GetByUserID(ctx context.Context, userID string) (*model.CrewMember, error) {
	var crew model.CrewMember
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&crew).Error
	if err != nil {
		return nil, err
	}
	return &crew, nil
}

func (r *crewMemberRepo) List(ctx context.Context, filter CrewFilter) ([]model.CrewMember, error) {
	var crew []model.CrewMember
	db := r.db.WithContext(ctx).Preload("Devices")

	if filter.Department != "" {
		db = db.Where("department = ?", filter.Department)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	err := db.Order("name ASC").Find(&crew).Error
	return crew, err
}

func (r *crewMemberRepo) ListOnDuty(ctx context.Context, department string) ([]model.CrewMember, error) {
	var crew []model.CrewMember
	db := r.db.WithContext(ctx).
		Preload("Devices").
		Where("status = ?", model.DutyOnDuty)

	if department != "" {
		db = db.Where("department = ?", department)
	}

	err := db.Order("name ASC").Find(&crew).Error
	return crew, err
}

func (r *crewMemberRepo) Update(ctx context.Context, crew *model.CrewMember) error {
	oldVersion := crew.Version
	result := r.db.WithContext(ctx).
		Model(crew).
		Where("crew_member_id = ? AND version = ?", crew.CrewMemberID, oldVersion).
		Updates(map[string]interface{}{
			"name":       crew.Name,
			"department": crew.Department,
			"position":   crew.Position,
			"status":     crew.Status,
			"email":      crew.Email,
			"phone":      crew.Phone,
			"user_id":    crew.UserID,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	crew.Version = oldVersion + 1
	return nil
}

func (r *crewMemberRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("crew_member_id = ?", id).
		Delete(&model.CrewMember{}).Error
}
