package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"gorm.io/gorm"
)

// GymAddress is the embedded street address of a gym
type GymAddress struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// GymContact holds the gym's public contact channels
type GymContact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// GymSettings holds per-gym operational settings
type GymSettings struct {
	Timezone   string `json:"timezone"`
	Currency   string `json:"currency"`
	MaxMembers *int   `json:"maxMembers,omitempty"` // nil means unlimited
}

// Gym represents a tenant. All operational data is partitioned by GymID,
// an opaque system-generated identifier that is never reassigned.
type Gym struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	GymID       string         `json:"gymId" gorm:"type:varchar(20);uniqueIndex"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Address     GymAddress     `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Contact     GymContact     `json:"contact" gorm:"embedded;embeddedPrefix:contact_"`
	Settings    GymSettings    `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedBy   *uint          `json:"createdBy,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate generates the opaque gym identifier. The identifier is
// never user-suppliable and never reused.
func (g *Gym) BeforeCreate(tx *gorm.DB) error {
	if g.GymID != "" {
		return nil
	}
	for {
		id := newGymID()
		var count int64
		if err := tx.Model(&Gym{}).Where("gym_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			g.GymID = id
			return nil
		}
	}
}

// newGymID returns "GYM" plus 9 random hex characters, uppercased.
func newGymID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "GYM" + strings.ToUpper(hex.EncodeToString(b))[:9]
}
