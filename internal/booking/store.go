package booking

import (
	"context"

	"mediconnect-server/internal/models"
)

// Directory looks up users for identity and status checks.
type Directory interface {
	// LookupUser returns (nil, nil) when no user with the ID exists.
	LookupUser(ctx context.Context, id string) (*models.User, error)
}

// AvailabilityStore reads a doctor's recurring weekly windows.
type AvailabilityStore interface {
	ListWindows(ctx context.Context, doctorID string, dayOfWeek int) ([]models.AvailabilityWindow, error)
}

// AppointmentStore persists appointments. Insert must enforce slot uniqueness
// itself and return ErrSlotTaken when another active appointment already
// holds the slot, regardless of what FindActive reported moments earlier.
type AppointmentStore interface {
	// FindActive returns the non-cancelled appointment at the slot, or
	// (nil, nil) when the slot is free.
	FindActive(ctx context.Context, doctorID, date, timeOfDay string) (*models.Appointment, error)
	Insert(ctx context.Context, appt *models.Appointment) error
	// GetByID returns (nil, nil) when no appointment with the ID exists.
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, appt *models.Appointment) error
}
