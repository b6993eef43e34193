package model

import (
	"time"

	"gorm.io/gorm"
)

// MembershipStatus is the lifecycle state of a member's subscription.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipFrozen    MembershipStatus = "frozen"
	MembershipCancelled MembershipStatus = "cancelled"
)

// FeeStatus is the payment state of a member.
type FeeStatus string

const (
	FeePaid    FeeStatus = "paid"
	FeePending FeeStatus = "pending"
	FeeOverdue FeeStatus = "overdue"
)

// Denial reasons, in fixed priority order. Only the first matching
// reason is ever reported for a denied scan.
const (
	DenialInactive   = "Member account is inactive"
	DenialExpired    = "Membership has expired"
	DenialFeeOverdue = "Fee payment is overdue"
	DenialGeneric    = "Access denied"
)

// PersonalInfo is the member's embedded personal data block
type PersonalInfo struct {
	Name        string     `json:"name" gorm:"column:name;type:varchar(100);not null"`
	Email       string     `json:"email,omitempty" gorm:"column:email;type:varchar(100);index"`
	Phone       string     `json:"phone" gorm:"column:phone;type:varchar(30);index"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty" gorm:"column:date_of_birth"`
	Gender      string     `json:"gender,omitempty" gorm:"column:gender;type:varchar(10)"`
	Address     string     `json:"address,omitempty" gorm:"column:address;type:text"`
	Photo       string     `json:"photo,omitempty" gorm:"column:photo;type:text"`
}

// Membership is the embedded subscription sub-record
type Membership struct {
	PlanID    uint             `json:"planId" gorm:"column:plan_id;not null;index"`
	StartDate time.Time        `json:"startDate" gorm:"column:start_date;not null"`
	EndDate   time.Time        `json:"endDate" gorm:"column:end_date;not null"`
	Status    MembershipStatus `json:"status" gorm:"column:status;type:varchar(20);default:'active';index"`
}

// EmergencyContact is the member's embedded emergency contact
type EmergencyContact struct {
	Name         string `json:"name,omitempty" gorm:"column:name;type:varchar(100)"`
	Phone        string `json:"phone,omitempty" gorm:"column:phone;type:varchar(30)"`
	Relationship string `json:"relationship,omitempty" gorm:"column:relationship;type:varchar(50)"`
}

// Member is a gym-scoped member record. MemberID is unique within the
// gym, not globally. QRCode is the permanent credential payload and is
// never regenerated once issued. ExpiryDate mirrors
// Membership.EndDate for fast-path reads; SetExpiry is the single
// place that mutates either.
type Member struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	GymID            string           `json:"gymId" gorm:"type:varchar(20);uniqueIndex:idx_gym_member;not null"`
	MemberID         string           `json:"memberId" gorm:"type:varchar(30);uniqueIndex:idx_gym_member;not null"`
	PersonalInfo     PersonalInfo     `json:"personalInfo" gorm:"embedded;embeddedPrefix:personal_"`
	Membership       Membership       `json:"membership" gorm:"embedded;embeddedPrefix:membership_"`
	ExpiryDate       *time.Time       `json:"expiryDate,omitempty"`
	FeeStatus        FeeStatus        `json:"feeStatus" gorm:"type:varchar(10);default:'paid';index"`
	LastPaymentDate  *time.Time       `json:"lastPaymentDate,omitempty"`
	NextPaymentDue   *time.Time       `json:"nextPaymentDue,omitempty"`
	QRCode           string           `json:"qrCode" gorm:"type:text;not null"`
	EmergencyContact EmergencyContact `json:"emergencyContact" gorm:"embedded;embeddedPrefix:emergency_"`
	Notes            string           `json:"notes,omitempty" gorm:"type:text"`
	Active           bool             `json:"active" gorm:"default:true"`
	CreatedBy        *uint            `json:"createdBy,omitempty"`
	UpdatedBy        *uint            `json:"updatedBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt   `json:"-" gorm:"index"`
}

// SetExpiry updates the membership end date and keeps the top-level
// expiry mirror in sync. Every expiry mutation must go through here.
func (m *Member) SetExpiry(end time.Time) {
	m.Membership.EndDate = end
	m.ExpiryDate = &end
}

// IsMembershipExpiredAt reports whether the membership has lapsed at
// the given instant, preferring the top-level mirror when set.
func (m *Member) IsMembershipExpiredAt(now time.Time) bool {
	compare := m.Membership.EndDate
	if m.ExpiryDate != nil {
		compare = *m.ExpiryDate
	}
	if compare.IsZero() {
		return true
	}
	return now.After(compare)
}

// IsFeeOverdueAt reports whether the member's fee is overdue at the
// given instant.
func (m *Member) IsFeeOverdueAt(now time.Time) bool {
	return m.FeeStatus == FeeOverdue ||
		(m.NextPaymentDue != nil && now.After(*m.NextPaymentDue))
}

// CanAccessAt is the admission decision: a pure function of the active
// flag, membership status, expiry and fee state.
func (m *Member) CanAccessAt(now time.Time) bool {
	return m.Active &&
		m.Membership.Status == MembershipActive &&
		!m.IsMembershipExpiredAt(now) &&
		m.FeeStatus == FeePaid
}

// DenialReasonAt returns the human-readable reason access is denied at
// the given instant. Reasons are evaluated in fixed priority order so
// a denied scan always reports a single deterministic message.
func (m *Member) DenialReasonAt(now time.Time) string {
	switch {
	case !m.Active:
		return DenialInactive
	case m.IsMembershipExpiredAt(now):
		return DenialExpired
	case m.IsFeeOverdueAt(now):
		return DenialFeeOverdue
	default:
		return DenialGeneric
	}
}

// ApplyRenewal extends the membership by the plan's duration. The new
// expiry is counted from the current expiry when it is still in the
// future (no stacking loss), otherwise from now (no gap backdating).
// Renewal always succeeds: an expired or deactivated member is
// restored to active, paid state.
func (m *Member) ApplyRenewal(plan *Plan, now time.Time) {
	base := now
	if m.ExpiryDate != nil && m.ExpiryDate.After(now) {
		base = *m.ExpiryDate
	}

	m.SetExpiry(base.AddDate(0, 0, plan.DurationInDays()))
	m.Membership.Status = MembershipActive
	m.Active = true
	m.FeeStatus = FeePaid
	m.LastPaymentDate = &now

	// Switching to a different plan restarts the membership term
	if plan.ID != m.Membership.PlanID {
		m.Membership.PlanID = plan.ID
		m.Membership.StartDate = now
	}
}
