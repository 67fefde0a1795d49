package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a platform user. Every tenant-owned record carries a UserID
// referencing this table; all queries are scoped by it.
type User struct {
	ID                string     `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Email             string     `json:"email" gorm:"type:varchar(255);not null;unique;index"`
	PasswordHash      string     `json:"-" gorm:"type:varchar(255);not null"`
	FirstName         string     `json:"first_name" gorm:"type:varchar(255)"`
	LastName          string     `json:"last_name" gorm:"type:varchar(255)"`
	Phone             string     `json:"phone,omitempty" gorm:"type:varchar(32)"`
	Avatar            string     `json:"avatar,omitempty" gorm:"type:text"`
	IsActive          bool       `json:"is_active" gorm:"default:true;index"`
	IsAdmin           bool       `json:"is_admin" gorm:"default:false;index"`
	IsEmailVerified   bool       `json:"is_email_verified" gorm:"default:false"`
	EmailVerifyToken  string     `json:"-" gorm:"type:varchar(128);index"`
	ResetToken        string     `json:"-" gorm:"type:varchar(128);index"`
	ResetTokenExpires *time.Time `json:"-"`
	LastLoginAt       *time.Time `json:"last_login_at"`

	// Relationships
	Sessions []Session `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
