package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
)

// DeviceFilter list filter; zero fields match everything.
type DeviceFilter struct {
	Type         model.DeviceType
	Status       model.DeviceStatus
	CrewMemberID string
	LocationID   string
}

// DeviceRepository device and device log data access
type DeviceRepository interface {
	Create(ctx context.Context, device *model.Device) error
	GetByID(ctx context.Context, id string) (*model.Device, error)
	GetByKey(ctx context.Context, deviceKey string) (*model.Device, error)
	List(ctx context.Context, filter DeviceFilter) ([]model.Device, error)
	// UpdateFields writes only the given columns so concurrent heartbeats
	// never clobber a binding made in between.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	// SetCrewMember binds (or with nil unbinds) a device. Last write wins.
	SetCrewMember(ctx context.Context, id string, crewMemberID *string) error
	SetLocation(ctx context.Context, id string, locationID *string) error
	Delete(ctx context.Context, id string) error

	CreateLog(ctx context.Context, log *model.DeviceLog) error
	ListLogs(ctx context.Context, deviceID string, limit int) ([]model.DeviceLog, error)
}

type deviceRepo struct {
	db *gorm.DB
}

// NewDeviceRepo creates a DeviceRepository.
func NewDeviceRepo(db *gorm.DB) DeviceRepository {
	return &deviceRepo{db: db}
}

func (r *deviceRepo) Create(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Omit("CrewMember", "Location").Create(device).Error
}

func (r *deviceRepo) GetByID(ctx context.Context, id string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Preload("CrewMember").
		Preload("Location").
		Where("device_id = ?", id).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepo) GetByKey(ctx context.Context, deviceKey string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).
		Where("device_key = ?", deviceKey).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *deviceRepo) List(ctx context.Context, filter DeviceFilter) ([]model.Device, error) {
	var devices []model.Device
	db := r.db.WithContext(ctx).Preload("CrewMember").Preload("Location")

	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CrewMemberID != "" {
		db = db.Where("crew_member_id = ?", filter.CrewMemberID)
	}
	if filter.LocationID != "" {
		db = db.Where("location_id = ?", filter.LocationID)
	}

	err := db.Order("device_key ASC").Find(&devices).Error
	return devices, err
}

func (r *deviceRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("device_id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *deviceRepo) SetCrewMember(ctx context.Context, id string, crewMemberID *string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"crew_member_id": crewMemberID,
		"updated_at":     gorm.Expr("NOW()"),
	})
}

func (r *deviceRepo) SetLocation(ctx context.Context, id string, locationID *string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"location_id": locationID,
		"updated_at":  gorm.Expr("NOW()"),
	})
}

func (r *deviceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("device_id = ?", id).
		Delete(&model.Device{}).Error
}

// ── Device log ──

func (r *deviceRepo) CreateLog(ctx context.Context, log *model.DeviceLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *deviceRepo) ListLogs(ctx context.Context, deviceID string, limit int) ([]model.DeviceLog, error) {
	var logs []model.DeviceLog
	err := r.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
