package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository.
type Repository struct {
	db *gorm.DB

	User           UserRepository
	CrewMember     CrewMemberRepository
	Device         DeviceRepository
	Location       LocationRepository
	ServiceRequest ServiceRequestRepository
	History        ServiceRequestHistoryRepository
	Shift          ShiftRepository
	Assignment     AssignmentRepository
	Guest          GuestRepository
	Activity       ActivityLogRepository
}

// NewRepository builds the aggregate on one connection pool.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		CrewMember:     NewCrewMemberRepo(db),
		Device:         NewDeviceRepo(db),
		Location:       NewLocationRepo(db),
		ServiceRequest: NewServiceRequestRepo(db),
		History:        NewServiceRequestHistoryRepo(db),
		Shift:          NewShiftRepo(db),
		Assignment:     NewAssignmentRepo(db),
		Guest:          NewGuestRepo(db),
		Activity:       NewActivityLogRepo(db),
	}
}

// BeginTx starts a transaction. Returns a nil tx when the aggregate has no
// database behind it (unit tests with in-memory repositories).
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx returns an aggregate bound to tx. A nil tx returns r unchanged.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Ping checks the database connection.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
