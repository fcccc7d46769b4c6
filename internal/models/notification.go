package models

// Notification is a persisted message for a user, created by admin broadcasts
// or by appointment lifecycle events. Delivery over the realtime hub is
// best-effort; the row is the source of truth.
type Notification struct {
	BaseModel
	UserID  string `gorm:"size:36;index;not null" json:"userId"`
	Title   string `gorm:"size:255;not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	IsRead  bool   `gorm:"default:false" json:"isRead"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
