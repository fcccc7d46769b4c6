package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// User represents a user in the system. Patient- and doctor-specific profile
// columns live on the same table; which ones are populated depends on Role.
type User struct {
	BaseModel
	Name       string `gorm:"size:100;not null" json:"name"`
	Email      string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password   string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Role       Role   `gorm:"size:20;default:'patient'" json:"role"`
	Phone      string `gorm:"size:30" json:"phone,omitempty"`
	Address    string `gorm:"size:255" json:"address,omitempty"`
	IsActive   bool   `gorm:"default:true" json:"isActive"`
	IsVerified bool   `gorm:"default:false" json:"isVerified"`

	// Patient profile
	BloodGroup string `gorm:"size:10" json:"bloodGroup,omitempty"`
	Allergies  string `gorm:"type:text" json:"allergies,omitempty"`

	// Doctor profile
	Specialty  string  `gorm:"size:100" json:"specialty,omitempty"`
	Experience int     `json:"experience,omitempty"`
	Education  string  `gorm:"size:255" json:"education,omitempty"`
	Bio        string  `gorm:"type:text" json:"bio,omitempty"`
	Rating     float64 `gorm:"default:0" json:"rating"`

	// Relations (not always preloaded)
	RefreshTokens       []RefreshToken       `gorm:"foreignKey:UserID" json:"-"`
	Availability        []AvailabilityWindow `gorm:"foreignKey:DoctorID" json:"-"`
	DoctorAppointments  []Appointment        `gorm:"foreignKey:DoctorID" json:"-"`
	PatientAppointments []Appointment        `gorm:"foreignKey:PatientID" json:"-"`
	MedicalRecords      []MedicalRecord      `gorm:"foreignKey:PatientID" json:"-"`
	Notifications       []Notification       `gorm:"foreignKey:UserID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	IsActive   bool      `json:"isActive"`
	IsVerified bool      `json:"isVerified"`
	BloodGroup string    `json:"bloodGroup,omitempty"`
	Allergies  string    `json:"allergies,omitempty"`
	Specialty  string    `json:"specialty,omitempty"`
	Experience int       `json:"experience,omitempty"`
	Education  string    `json:"education,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Rating     float64   `json:"rating"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Phone:      u.Phone,
		Address:    u.Address,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		BloodGroup: u.BloodGroup,
		Allergies:  u.Allergies,
		Specialty:  u.Specialty,
		Experience: u.Experience,
		Education:  u.Education,
		Bio:        u.Bio,
		Rating:     u.Rating,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
