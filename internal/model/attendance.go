package model

import (
	"time"

	"gorm.io/gorm"
)

// CheckInMethod is how an attendance record was produced.
type CheckInMethod string

const (
	MethodQR     CheckInMethod = "qr"
	MethodManual CheckInMethod = "manual"
)

// attendanceRetention is how long attendance records are kept before
// the store's sweep removes them.
const attendanceRetention = 60 * 24 * time.Hour

// Attendance is one scan decision, granted or denied. Records are
// written once and never updated; retention is handled by the store's
// expiry sweep, not by the engine.
type Attendance struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	GymID         string         `json:"gymId" gorm:"type:varchar(20);index:idx_gym_checkin;not null"`
	MemberRef     uint           `json:"memberRef" gorm:"index;not null"`
	CheckInTime   time.Time      `json:"checkInTime" gorm:"index:idx_gym_checkin;not null"`
	CheckOutTime  *time.Time     `json:"checkOutTime,omitempty"`
	Method        CheckInMethod  `json:"method" gorm:"type:varchar(10);default:'qr'"`
	Location      string         `json:"location" gorm:"type:varchar(100);default:'Main Entrance'"`
	VerifiedBy    *uint          `json:"verifiedBy,omitempty"`
	Notes         string         `json:"notes,omitempty" gorm:"type:text"`
	AccessGranted bool           `json:"accessGranted" gorm:"default:true;index"`
	DenialReason  string         `json:"denialReason,omitempty" gorm:"type:varchar(100)"`
	ExpiresAt     time.Time      `json:"-" gorm:"index"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	Member *Member `json:"member,omitempty" gorm:"foreignKey:MemberRef"`
}

// BeforeCreate stamps the check-in time and retention deadline.
func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.CheckInTime.IsZero() {
		a.CheckInTime = time.Now()
	}
	if a.ExpiresAt.IsZero() {
		a.ExpiresAt = a.CheckInTime.Add(attendanceRetention)
	}
	return nil
}

// WithinDedupWindow reports whether a granted check-in at checkIn
// falls inside the trailing dedup window ending at now. The lower
// bound, now minus window, is inclusive.
func WithinDedupWindow(checkIn, now time.Time, window time.Duration) bool {
	return !checkIn.Before(now.Add(-window))
}
