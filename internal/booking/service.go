// Package booking validates appointment requests against a doctor's weekly
// availability and existing reservations, and owns the appointment status
// lifecycle. The no-double-booking invariant is enforced by the appointment
// store (a unique index over active slots); the checks here exist to give
// precise failure reasons, not to win races.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mediconnect-server/internal/models"
)

// Service is the booking service. Stores are injected so tests can substitute
// in-memory doubles.
type Service struct {
	users        Directory
	windows      AvailabilityStore
	appointments AppointmentStore
	logger       *zap.Logger
}

// NewService creates a booking Service.
func NewService(users Directory, windows AvailabilityStore, appointments AppointmentStore, logger *zap.Logger) *Service {
	return &Service{
		users:        users,
		windows:      windows,
		appointments: appointments,
		logger:       logger,
	}
}

// Request describes a booking attempt. RequireVerified is set by the
// patient-facing flow; internal flows may book against unverified doctors.
type Request struct {
	PatientID       string
	DoctorID        string
	Date            string // "YYYY-MM-DD"
	Time            string // "HH:MM"
	Notes           string
	RequireVerified bool
}

// DayOfWeek returns the weekday of a "YYYY-MM-DD" date, 0 being Sunday.
func DayOfWeek(date string) (int, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// Book reserves a slot and returns the created pending appointment. The
// checks run in a fixed order so each failure mode is distinct: doctor
// status, then availability window, then slot conflict.
func (s *Service) Book(ctx context.Context, req Request) (*models.Appointment, error) {
	doctor, err := s.users.LookupUser(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("lookup doctor: %w", err)
	}
	if doctor == nil || doctor.Role != models.RoleDoctor || !doctor.IsActive {
		return nil, ErrDoctorUnavailable
	}
	if req.RequireVerified && !doctor.IsVerified {
		return nil, ErrDoctorUnavailable
	}

	day, err := DayOfWeek(req.Date)
	if err != nil {
		return nil, ErrInvalidSlot
	}
	if !validTimeOfDay(req.Time) {
		return nil, ErrInvalidSlot
	}

	windows, err := s.windows.ListWindows(ctx, req.DoctorID, day)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	covered := false
	for _, w := range windows {
		if w.Covers(req.Time) {
			covered = true
			break
		}
	}
	if !covered {
		return nil, ErrOutsideAvailability
	}

	existing, err := s.appointments.FindActive(ctx, req.DoctorID, req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if existing != nil {
		return nil, ErrSlotTaken
	}

	appt := &models.Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.StatusPending,
		Notes:     req.Notes,
	}
	appt.HoldSlotKey()

	if err := s.appointments.Insert(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			// Lost the race: another request took the slot between the
			// pre-check and the insert. The loser must see the same failure
			// as if the pre-check had caught it.
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("patient_id", req.PatientID),
		zap.String("doctor_id", req.DoctorID),
		zap.String("date", req.Date),
		zap.String("time", req.Time),
	)

	return appt, nil
}

// AdvanceStatus applies a doctor-driven status change to one of the doctor's
// own appointments. Only transitions in the explicit table are legal.
func (s *Service) AdvanceStatus(ctx context.Context, doctorID, appointmentID string, next models.AppointmentStatus) (*models.Appointment, error) {
	switch next {
	case models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled:
	default:
		return nil, ErrInvalidTransition
	}

	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil || appt.DoctorID != doctorID {
		return nil, ErrNotFoundOrUnauthorized
	}
	if !appt.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	appt.Status = next
	if next == models.StatusCancelled {
		appt.ClearSlotKey()
	}
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.logger.Info("appointment status updated",
		zap.String("appointment_id", appt.ID),
		zap.String("doctor_id", doctorID),
		zap.String("status", string(next)),
	)

	return appt, nil
}

// CancelByPatient cancels one of the patient's own appointments. Patients may
// only cancel while the appointment is still pending.
func (s *Service) CancelByPatient(ctx context.Context, patientID, appointmentID string) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil || appt.PatientID != patientID || appt.Status != models.StatusPending {
		return nil, ErrNotFoundOrNotCancellable
	}

	appt.Status = models.StatusCancelled
	appt.ClearSlotKey()
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.logger.Info("appointment cancelled by patient",
		zap.String("appointment_id", appt.ID),
		zap.String("patient_id", patientID),
	)

	return appt, nil
}

// validTimeOfDay checks the zero-padded "HH:MM" shape booking relies on for
// lexicographic comparison.
func validTimeOfDay(timeOfDay string) bool {
	_, err := time.Parse("15:04", timeOfDay)
	return err == nil && len(timeOfDay) == 5
}
