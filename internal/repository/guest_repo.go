package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
)

// GuestFilter list filter; zero fields match everything.
type GuestFilter struct {
	Status     model.GuestStatus
	LocationID string
	Search     string
	Offset     int
	Limit      int
}

// GuestRepository guest data access
type GuestRepository interface {
	Create(ctx context.Context, guest *model.Guest) error
	GetByID(ctx context.Context, id string) (*model.Guest, error)
	List(ctx context.Context, filter GuestFilter) ([]model.Guest, int64, error)
	// LatestOnboardAt the most recently checked-in guest aboard in a location.
	LatestOnboardAt(ctx context.Context, locationID string) (*model.Guest, error)
	Update(ctx context.Context, guest *model.Guest) error
	Delete(ctx context.Context, id string) error
}

type guestRepo struct {
	db *gorm.DB
}

// NewGuestRepo creates a GuestRepository.
func NewGuestRepo(db *gorm.DB) GuestRepository {
	return &guestRepo{db: db}
}

func (r *guestRepo) Create(ctx context.Context, guest *model.Guest) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

func (r *guestRepo) GetByID(ctx context.Context, id string) (*model.Guest, error) {
	var guest model.Guest
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("guest_id = ?", id).
		First(&guest).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *guestRepo) List(ctx context.Context, filter GuestFilter) ([]model.Guest, int64, error) {
	var guests []model.Guest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Guest{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Preload("Location").Order("last_name ASC, first_name ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	if err := db.Find(&guests).Error; err != nil {
		return nil, 0, err
	}
	return guests, total, nil
}

func (r *guestRepo) LatestOnboardAt(ctx context.Context, locationID string) (*model.Guest, error) {
	var guest model.Guest
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND status = ?", locationID, model.GuestOnboard).
		Order("check_in_at DESC NULLS LAST, created_at DESC").
		First(&guest).Error
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func (r *guestRepo) Update(ctx context.Context, guest *model.Guest) error {
	return r.db.WithContext(ctx).Omit("Location").Save(guest).Error
}

func (r *guestRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("guest_id = ?", id).
		Delete(&model.Guest{}).Error
}
