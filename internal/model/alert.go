package model

import (
	"time"

	"gorm.io/gorm"
)

// AlertType classifies alerts raised for staff attention.
type AlertType string

const (
	AlertMembershipExpired  AlertType = "membership_expired"
	AlertMembershipExpiring AlertType = "membership_expiring"
	AlertFeeOverdue         AlertType = "fee_overdue"
	AlertAccessDenied       AlertType = "access_denied"
)

// AlertPriority is the severity of an alert.
type AlertPriority string

const (
	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// alertRetention is how long alerts are kept before the store's sweep
// removes them.
const alertRetention = 30 * 24 * time.Hour

// Alert is a gym-scoped notification addressed to a set of roles.
// After creation it is only ever mutated to mark it read.
type Alert struct {
	ID          uint                   `json:"id" gorm:"primaryKey"`
	GymID       string                 `json:"gymId" gorm:"type:varchar(20);index;not null"`
	Type        AlertType              `json:"type" gorm:"type:varchar(30);not null"`
	MemberRef   uint                   `json:"memberRef" gorm:"index;not null"`
	Title       string                 `json:"title" gorm:"type:varchar(100);not null"`
	Message     string                 `json:"message" gorm:"type:text;not null"`
	Priority    AlertPriority          `json:"priority" gorm:"type:varchar(10);default:'medium'"`
	Read        bool                   `json:"read" gorm:"default:false;index"`
	TargetRoles []string               `json:"targetRoles" gorm:"serializer:json"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" gorm:"serializer:json"`
	ExpiresAt   time.Time              `json:"-" gorm:"index"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt         `json:"-" gorm:"index"`

	ReadBy []AlertRead `json:"readBy,omitempty" gorm:"foreignKey:AlertID"`
	Member *Member     `json:"member,omitempty" gorm:"foreignKey:MemberRef"`
}

// AlertRead records one user acknowledging an alert.
type AlertRead struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	AlertID uint      `json:"alertId" gorm:"index;not null"`
	UserID  uint      `json:"userId" gorm:"not null"`
	ReadAt  time.Time `json:"readAt"`
}

// BeforeCreate stamps the retention deadline.
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ExpiresAt.IsZero() {
		a.ExpiresAt = time.Now().Add(alertRetention)
	}
	return nil
}
