package user

import "time"

// Status values mirror the user_status column; Active is the only state that
// may log in.
const (
	StatusActive              = "active"
	StatusInactive            = "inactive"
	StatusBanned              = "banned"
	StatusPendingVerification = "pending_verification"
)

type User struct {
	ID             int64      `gorm:"primaryKey"`
	FirstName      string     `gorm:"column:first_name;not null"`
	LastName       string     `gorm:"column:last_name;not null"`
	Email          string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash   string     `gorm:"column:password_hash;not null"`
	PhoneNumber    string     `gorm:"column:phone_number"`
	Status         string     `gorm:"column:status;default:active"`
	EmailConfirmed bool       `gorm:"column:email_confirmed;default:false"`
	PhoneConfirmed bool       `gorm:"column:phone_confirmed;default:false"`
	ProfileImage   string     `gorm:"column:profile_image_url"`
	LastLoginAt    *time.Time `gorm:"column:last_login_at"`
	IsDeleted      bool       `gorm:"column:is_deleted;default:false"`
	CreatedBy      *int64     `gorm:"column:created_by"`
	UpdatedBy      *int64     `gorm:"column:updated_by"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
