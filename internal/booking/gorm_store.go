package booking

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"mediconnect-server/internal/models"
)

// GormDirectory implements Directory over the users table.
type GormDirectory struct {
	db *gorm.DB
}

// NewGormDirectory creates a GormDirectory.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) LookupUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GormAvailabilityStore implements AvailabilityStore over the
// availability_windows table.
type GormAvailabilityStore struct {
	db *gorm.DB
}

// NewGormAvailabilityStore creates a GormAvailabilityStore.
func NewGormAvailabilityStore(db *gorm.DB) *GormAvailabilityStore {
	return &GormAvailabilityStore{db: db}
}

func (s *GormAvailabilityStore) ListWindows(ctx context.Context, doctorID string, dayOfWeek int) ([]models.AvailabilityWindow, error) {
	var windows []models.AvailabilityWindow
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND day_of_week = ?", doctorID, dayOfWeek).
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

// GormAppointmentStore implements AppointmentStore over the appointments
// table. The unique index on appointments.slot_key is what makes Insert
// atomic with respect to racing bookings: the database rejects the second
// insert and the duplicated-key error is translated to ErrSlotTaken.
type GormAppointmentStore struct {
	db *gorm.DB
}

// NewGormAppointmentStore creates a GormAppointmentStore.
func NewGormAppointmentStore(db *gorm.DB) *GormAppointmentStore {
	return &GormAppointmentStore{db: db}
}

func (s *GormAppointmentStore) FindActive(ctx context.Context, doctorID, date, timeOfDay string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND time = ? AND status <> ?",
			doctorID, date, timeOfDay, models.StatusCancelled).
		First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *GormAppointmentStore) Insert(ctx context.Context, appt *models.Appointment) error {
	err := s.db.WithContext(ctx).Create(appt).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotTaken
	}
	return err
}

func (s *GormAppointmentStore) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *GormAppointmentStore) Update(ctx context.Context, appt *models.Appointment) error {
	// Save writes all fields, including a nil SlotKey, which releases the slot.
	return s.db.WithContext(ctx).Save(appt).Error
}
