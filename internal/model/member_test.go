package model

import (
	"testing"
	"time"
)

func activeMember(now time.Time) Member {
	m := Member{
		GymID:    "GYM123ABC456",
		MemberID: "MEMTEST01",
		Membership: Membership{
			PlanID:    1,
			StartDate: now.AddDate(0, 0, -10),
			Status:    MembershipActive,
		},
		FeeStatus: FeePaid,
		Active:    true,
	}
	m.SetExpiry(now.AddDate(0, 0, 20))
	return m
}

func TestCanAccessAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*Member)
		want   bool
	}{
		{"all conditions met", func(m *Member) {}, true},
		{"inactive account", func(m *Member) { m.Active = false }, false},
		{"frozen membership", func(m *Member) { m.Membership.Status = MembershipFrozen }, false},
		{"cancelled membership", func(m *Member) { m.Membership.Status = MembershipCancelled }, false},
		{"expired membership", func(m *Member) { m.SetExpiry(now.AddDate(0, 0, -1)) }, false},
		{"fee pending", func(m *Member) { m.FeeStatus = FeePending }, false},
		{"fee overdue", func(m *Member) { m.FeeStatus = FeeOverdue }, false},
		{"zero expiry date", func(m *Member) { m.SetExpiry(time.Time{}) }, false},
		{"expires later today", func(m *Member) { m.SetExpiry(now.Add(time.Hour)) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := activeMember(now)
			tt.mutate(&m)
			if got := m.CanAccessAt(now); got != tt.want {
				t.Errorf("CanAccessAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDenialReasonPriority(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*Member)
		want   string
	}{
		{
			"inactive wins over everything",
			func(m *Member) {
				m.Active = false
				m.SetExpiry(now.AddDate(0, 0, -1))
				m.FeeStatus = FeeOverdue
			},
			DenialInactive,
		},
		{
			"expired wins over fee overdue",
			func(m *Member) {
				m.SetExpiry(now.AddDate(0, 0, -1))
				m.FeeStatus = FeeOverdue
			},
			DenialExpired,
		},
		{
			"fee overdue alone",
			func(m *Member) { m.FeeStatus = FeeOverdue },
			DenialFeeOverdue,
		},
		{
			"past payment due counts as overdue",
			func(m *Member) {
				due := now.AddDate(0, 0, -2)
				m.NextPaymentDue = &due
			},
			DenialFeeOverdue,
		},
		{
			"frozen status falls to generic",
			func(m *Member) { m.Membership.Status = MembershipFrozen },
			DenialGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := activeMember(now)
			tt.mutate(&m)
			if got := m.DenialReasonAt(now); got != tt.want {
				t.Errorf("DenialReasonAt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyRenewalExtendsFromFutureExpiry(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	m := activeMember(now)
	currentExpiry := *m.ExpiryDate

	plan := Plan{ID: 1, DurationValue: 1, DurationUnit: DurationMonths}
	m.ApplyRenewal(&plan, now)

	want := currentExpiry.AddDate(0, 0, 30)
	if !m.ExpiryDate.Equal(want) {
		t.Errorf("expiry = %v, want %v (extended from current expiry, not now)", m.ExpiryDate, want)
	}
	if !m.Membership.EndDate.Equal(want) {
		t.Errorf("membership end date %v out of sync with expiry mirror %v", m.Membership.EndDate, want)
	}
}

func TestApplyRenewalRestoresExpiredMember(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	m := activeMember(now)
	m.SetExpiry(now.AddDate(0, 0, -40))
	m.Membership.Status = MembershipExpired
	m.Active = false
	m.FeeStatus = FeeOverdue

	plan := Plan{ID: 1, DurationValue: 1, DurationUnit: DurationMonths}
	m.ApplyRenewal(&plan, now)

	want := now.AddDate(0, 0, 30)
	if !m.ExpiryDate.Equal(want) {
		t.Errorf("expiry = %v, want %v (counted from now, not the lapsed expiry)", m.ExpiryDate, want)
	}
	if m.Membership.Status != MembershipActive {
		t.Errorf("status = %v, want active", m.Membership.Status)
	}
	if !m.Active {
		t.Error("member not reactivated by renewal")
	}
	if m.FeeStatus != FeePaid {
		t.Errorf("fee status = %v, want paid", m.FeeStatus)
	}
	if m.LastPaymentDate == nil || !m.LastPaymentDate.Equal(now) {
		t.Errorf("last payment date = %v, want %v", m.LastPaymentDate, now)
	}
}

func TestApplyRenewalPlanSwitchRestartsTerm(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	m := activeMember(now)
	originalStart := m.Membership.StartDate

	samePlan := Plan{ID: 1, DurationValue: 1, DurationUnit: DurationMonths}
	m.ApplyRenewal(&samePlan, now)
	if !m.Membership.StartDate.Equal(originalStart) {
		t.Error("renewing onto the same plan must not move the start date")
	}

	otherPlan := Plan{ID: 2, DurationValue: 1, DurationUnit: DurationYears}
	m.ApplyRenewal(&otherPlan, now)
	if m.Membership.PlanID != 2 {
		t.Errorf("plan id = %d, want 2", m.Membership.PlanID)
	}
	if !m.Membership.StartDate.Equal(now) {
		t.Errorf("start date = %v, want %v (plan switch restarts the term)", m.Membership.StartDate, now)
	}
}

func TestSetExpiryKeepsMirrorInSync(t *testing.T) {
	var m Member
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	m.SetExpiry(end)

	if !m.Membership.EndDate.Equal(end) {
		t.Errorf("end date = %v, want %v", m.Membership.EndDate, end)
	}
	if m.ExpiryDate == nil || !m.ExpiryDate.Equal(end) {
		t.Errorf("expiry mirror = %v, want %v", m.ExpiryDate, end)
	}
}

func TestIsMembershipExpiredAtPrefersMirror(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	m := Member{}
	m.Membership.EndDate = now.AddDate(0, 0, 10)
	stale := now.AddDate(0, 0, -1)
	m.ExpiryDate = &stale

	if !m.IsMembershipExpiredAt(now) {
		t.Error("mirror says expired; the mirror must win")
	}
}
