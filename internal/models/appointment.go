package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// statusTransitions is the explicit transition table. Completed and cancelled
// are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is a legal status
// transition.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment represents a booked slot with a doctor. Rows are never
// physically deleted; cancellation is a status change.
//
// SlotKey holds "doctorID|date|time" while the appointment is active and is
// NULL once cancelled. MySQL unique indexes ignore NULL values, so the unique
// index on it enforces at most one active appointment per slot while letting
// a cancelled slot be re-booked. The index, not the application pre-checks,
// is what decides between two racing bookings.
type Appointment struct {
	BaseModel
	PatientID string            `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID  string            `gorm:"size:36;index;not null" json:"doctorId"`
	Date      string            `gorm:"size:10;not null" json:"date"` // "YYYY-MM-DD"
	Time      string            `gorm:"size:5;not null" json:"time"`  // "HH:MM"
	Status    AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Notes     string            `gorm:"type:text" json:"notes,omitempty"`
	SlotKey   *string           `gorm:"size:120;uniqueIndex" json:"-"`

	Patient User `gorm:"foreignKey:PatientID" json:"patient"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"doctor"`
}

// ComposeSlotKey builds the unique key for an active appointment slot.
func ComposeSlotKey(doctorID, date, timeOfDay string) string {
	return doctorID + "|" + date + "|" + timeOfDay
}

// ClearSlotKey releases the slot so another booking may take it.
func (a *Appointment) ClearSlotKey() {
	a.SlotKey = nil
}

// HoldSlotKey claims the slot for this appointment.
func (a *Appointment) HoldSlotKey() {
	key := ComposeSlotKey(a.DoctorID, a.Date, a.Time)
	a.SlotKey = &key
}
