package models

// Prescription is issued by a doctor against one of their appointments.
type Prescription struct {
	BaseModel
	DoctorID      string `gorm:"size:36;index;not null" json:"doctorId"`
	PatientID     string `gorm:"size:36;index;not null" json:"patientId"`
	AppointmentID string `gorm:"size:36;index;not null" json:"appointmentId"`
	Medications   string `gorm:"type:text;not null" json:"medications"`
	Instructions  string `gorm:"type:text" json:"instructions,omitempty"`
	Diagnosis     string `gorm:"type:text" json:"diagnosis,omitempty"`

	Doctor      User        `gorm:"foreignKey:DoctorID" json:"-"`
	Patient     User        `gorm:"foreignKey:PatientID" json:"-"`
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}
