package booking

import "errors"

// Each validation step of a booking request fails with its own sentinel so
// callers can report the precise reason. Store I/O faults are wrapped with
// %w instead and must be reported opaquely.
var (
	// ErrDoctorUnavailable means the doctor does not exist, is not a doctor,
	// is deactivated, or (in the patient-facing flow) is not verified.
	ErrDoctorUnavailable = errors.New("doctor not found or unavailable")

	// ErrOutsideAvailability means no availability window of the doctor covers
	// the requested day-of-week and time.
	ErrOutsideAvailability = errors.New("doctor is not available at this time")

	// ErrSlotTaken means a non-cancelled appointment already holds the slot.
	ErrSlotTaken = errors.New("this time slot is already booked")

	// ErrInvalidSlot means the date or time of the request is malformed.
	ErrInvalidSlot = errors.New("invalid appointment date or time")

	// ErrNotFoundOrUnauthorized means the appointment does not exist or does
	// not belong to the acting doctor. The two cases are deliberately not
	// distinguished to avoid leaking which appointment IDs exist.
	ErrNotFoundOrUnauthorized = errors.New("appointment not found or unauthorized")

	// ErrNotFoundOrNotCancellable means the appointment does not exist, does
	// not belong to the acting patient, or is no longer pending.
	ErrNotFoundOrNotCancellable = errors.New("appointment not found or cannot be cancelled")

	// ErrInvalidTransition means the requested status change is not legal from
	// the appointment's current status.
	ErrInvalidTransition = errors.New("illegal appointment status transition")
)
