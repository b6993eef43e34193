package model

import (
	"time"

	"gorm.io/gorm"
)

// auditRetention is how long audit entries are kept.
const auditRetention = 365 * 24 * time.Hour

// AuditLog is an append-only record of a privileged action. Entries
// are never updated or exposed to tenant-scoped users.
type AuditLog struct {
	ID         uint                   `json:"id" gorm:"primaryKey"`
	UserID     uint                   `json:"userId" gorm:"index;not null"`
	Action     string                 `json:"action" gorm:"type:varchar(50);index;not null"`
	Resource   string                 `json:"resource" gorm:"type:varchar(30);index;not null"`
	ResourceID string                 `json:"resourceId,omitempty" gorm:"type:varchar(50)"`
	Details    map[string]interface{} `json:"details,omitempty" gorm:"serializer:json"`
	IPAddress  string                 `json:"ipAddress,omitempty" gorm:"type:varchar(50)"`
	UserAgent  string                 `json:"userAgent,omitempty" gorm:"type:varchar(255)"`
	ExpiresAt  time.Time              `json:"-" gorm:"index"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// BeforeCreate stamps the retention deadline.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ExpiresAt.IsZero() {
		a.ExpiresAt = time.Now().Add(auditRetention)
	}
	return nil
}
