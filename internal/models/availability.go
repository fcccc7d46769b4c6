package models

// AvailabilityWindow is a recurring weekly interval during which a doctor
// accepts bookings. DayOfWeek follows time.Weekday numbering: 0 is Sunday.
// Windows of the same doctor may overlap; booking only asks whether any
// window covers a point in time.
type AvailabilityWindow struct {
	BaseModel
	DoctorID  string `gorm:"size:36;index;not null" json:"doctorId"`
	DayOfWeek int    `gorm:"not null" json:"dayOfWeek"`
	StartTime string `gorm:"size:5;not null" json:"startTime"` // "HH:MM"
	EndTime   string `gorm:"size:5;not null" json:"endTime"`   // "HH:MM", start < end

	Doctor User `gorm:"foreignKey:DoctorID" json:"-"`
}

// Covers reports whether the zero-padded "HH:MM" time of day falls inside the
// window, bounds included. Lexicographic comparison is exact for this format.
func (w *AvailabilityWindow) Covers(timeOfDay string) bool {
	return w.StartTime <= timeOfDay && timeOfDay <= w.EndTime
}
