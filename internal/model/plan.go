package model

import (
	"time"

	"gorm.io/gorm"
)

// DurationUnit is the unit of a plan's duration.
type DurationUnit string

const (
	DurationDays   DurationUnit = "days"
	DurationMonths DurationUnit = "months"
	DurationYears  DurationUnit = "years"
)

// Plan is a gym-scoped membership plan. Its name must be unique among
// the gym's active plans; retired plans may share a name.
type Plan struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	GymID         string         `json:"gymId" gorm:"type:varchar(20);index;not null"`
	Name          string         `json:"name" gorm:"type:varchar(100);not null"`
	Description   string         `json:"description" gorm:"type:text"`
	DurationValue int            `json:"durationValue" gorm:"not null"`
	DurationUnit  DurationUnit   `json:"durationUnit" gorm:"type:varchar(10);default:'months'"`
	Price         float64        `json:"price" gorm:"not null"`
	Features      []string       `json:"features" gorm:"serializer:json"`
	Active        bool           `json:"active" gorm:"default:true"`
	CreatedBy     *uint          `json:"createdBy,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// DurationInDays converts the plan duration to days. Months and years
// use fixed 30 and 365 day multipliers, deliberately calendar-naive.
func (p *Plan) DurationInDays() int {
	switch p.DurationUnit {
	case DurationDays:
		return p.DurationValue
	case DurationMonths:
		return p.DurationValue * 30
	case DurationYears:
		return p.DurationValue * 365
	default:
		return p.DurationValue
	}
}
