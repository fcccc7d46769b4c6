package models

// PaymentStatus represents the status of a payment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment records what was charged for an appointment. Only the admin revenue
// analytics read this table; there is no payment capture flow in this service.
type Payment struct {
	BaseModel
	AppointmentID string        `gorm:"size:36;index;not null" json:"appointmentId"`
	PatientID     string        `gorm:"size:36;index;not null" json:"patientId"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Status        PaymentStatus `gorm:"size:20;default:'pending'" json:"status"`

	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
	Patient     User        `gorm:"foreignKey:PatientID" json:"-"`
}
