package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
)

// LocationRepository location data access
type LocationRepository interface {
	Create(ctx context.Context, loc *model.Location) error
	GetByID(ctx context.Context, id string) (*model.Location, error)
	GetByName(ctx context.Context, name string) (*model.Location, error)
	GetByButtonKey(ctx context.Context, buttonKey string) (*model.Location, error)
	List(ctx context.Context, locType string) ([]model.Location, error)
	Update(ctx context.Context, loc *model.Location) error
	Delete(ctx context.Context, id string) error
}

type locationRepo struct {
	db *gorm.DB
}

// NewLocationRepo creates a LocationRepository.
func NewLocationRepo(db *gorm.DB) LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) Create(ctx context.Context, loc *model.Location) error {
	return r.db.WithContext(ctx).Create(loc).Error
}

func (r *locationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).
		Where("location_id = ?", id).
		First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepo) GetByName(ctx context.Context, name string) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepo) GetByButtonKey(ctx context.Context, buttonKey string) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).
		Where("smart_button_key = ?", buttonKey).
		First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepo) List(ctx context.Context, locType string) ([]model.Location, error) {
	var locations []model.Location
	db := r.db.WithContext(ctx)

	if locType != "" {
		db = db.Where("type = ?", locType)
	}

	err := db.Order("floor ASC, name ASC").Find(&locations).Error
	return locations, err
}

func (r *locationRepo) Update(ctx context.Context, loc *model.Location) error {
	return r.db.WithContext(ctx).Save(loc).Error
}

func (r *locationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("location_id = ?", id).
		Delete(&model.Location{}).Error
}
