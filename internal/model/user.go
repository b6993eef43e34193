package model

import (
	"time"

	"gym-service/internal/rbac"

	"gorm.io/gorm"
)

// User represents a staff-side credential. Every user except a
// superadmin belongs to exactly one gym; the password hash and the
// single live refresh token are never serialized.
type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	GymID        string         `json:"gymId,omitempty" gorm:"type:varchar(20);index"` // empty for superadmin
	Email        string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password     string         `json:"-" gorm:"type:varchar(255)"`
	Name         string         `json:"name" gorm:"type:varchar(100)"`
	Phone        string         `json:"phone" gorm:"type:varchar(30)"`
	Role         rbac.Role      `json:"role" gorm:"type:varchar(20);default:'staff';index"`
	Active       bool           `json:"active" gorm:"default:true"`
	RefreshToken string         `json:"-" gorm:"type:text"`
	LastLogin    *time.Time     `json:"lastLogin,omitempty"`
	CreatedBy    *uint          `json:"createdBy,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
