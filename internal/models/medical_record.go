package models

// MedicalRecord represents an entry in a patient's medical history, written
// by a doctor who has (or had) an appointment with the patient.
type MedicalRecord struct {
	BaseModel
	PatientID string `gorm:"size:36;index;not null" json:"patientId"`
	DoctorID  string `gorm:"size:36;index;not null" json:"doctorId"`
	Diagnosis string `gorm:"type:text" json:"diagnosis"`
	Treatment string `gorm:"type:text" json:"treatment"`
	Notes     string `gorm:"type:text" json:"notes,omitempty"`

	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}
