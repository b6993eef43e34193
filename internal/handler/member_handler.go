package handler

import (
	"time"

	"gym-service/internal/audit"
	"gym-service/internal/middleware"
	"gym-service/internal/model"
	"gym-service/pkg/database"
	"gym-service/pkg/logger"
	"gym-service/pkg/qrcode"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// findGymPlan loads a plan and verifies it belongs to the caller's gym.
// A plan from another gym is reported as not found, never as forbidden.
func findGymPlan(gymID string, planID uint) (*model.Plan, error) {
	var plan model.Plan
	err := database.GetDB().Where("id = ? AND gym_id = ?", planID, gymID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateMember registers a member, issues the permanent member ID and
// QR credential, and derives the first expiry from the chosen plan.
func CreateMember(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)

	var req struct {
		PersonalInfo     model.PersonalInfo     `json:"personalInfo"`
		PlanID           uint                   `json:"planId"`
		StartDate        *time.Time             `json:"startDate"`
		EmergencyContact model.EmergencyContact `json:"emergencyContact"`
		Notes            string                 `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}
	if req.PersonalInfo.Name == "" || req.PersonalInfo.Phone == "" {
		return response.UnprocessableEntity(c, "Member name and phone are required")
	}
	if req.PlanID == 0 {
		return response.UnprocessableEntity(c, "planId is required")
	}

	plan, err := findGymPlan(gymID, req.PlanID)
	if err != nil {
		return response.NotFound(c, "Plan not found")
	}
	if !plan.Active {
		return response.UnprocessableEntity(c, "Plan is no longer available")
	}

	now := time.Now()
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	expiry := start.AddDate(0, 0, plan.DurationInDays())

	memberID := qrcode.NewMemberID()
	callerID, _ := c.Get("user_id").(uint)

	member := model.Member{
		GymID:        gymID,
		MemberID:     memberID,
		PersonalInfo: req.PersonalInfo,
		Membership: model.Membership{
			PlanID:    plan.ID,
			StartDate: start,
			Status:    model.MembershipActive,
		},
		FeeStatus:        model.FeePaid,
		LastPaymentDate:  &now,
		NextPaymentDue:   &expiry,
		QRCode:           qrcode.Encode(gymID, memberID),
		EmergencyContact: req.EmergencyContact,
		Notes:            req.Notes,
		Active:           true,
		CreatedBy:        &callerID,
	}
	member.SetExpiry(expiry)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&member).Error; err != nil {
		log.Error("Failed to create member", zap.Error(err))
		return response.InternalServerError(c, "Failed to create member")
	}

	audit.Log(c, "create", "member", member.MemberID, map[string]interface{}{
		"name":   member.PersonalInfo.Name,
		"planId": plan.ID,
	})

	log.Info("Member created",
		zap.String("member_id", member.MemberID),
		zap.String("gym_id", gymID))

	return response.Created(c, "Member created successfully", echo.Map{"member": member})
}

// ListMembers returns the gym's members with search, filters, sorting
// and pagination.
func ListMembers(c echo.Context) error {
	gymID := middleware.GymScope(c)
	page, limit := response.PageParams(c)

	db := database.GetDB().Model(&model.Member{}).Where("gym_id = ?", gymID)

	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + search + "%"
		db = db.Where("personal_name ILIKE ? OR personal_phone ILIKE ? OR member_id ILIKE ?",
			pattern, pattern, pattern)
	}
	if status := c.QueryParam("status"); status != "" {
		db = db.Where("membership_status = ?", status)
	}
	if feeStatus := c.QueryParam("feeStatus"); feeStatus != "" {
		db = db.Where("fee_status = ?", feeStatus)
	}
	if active := c.QueryParam("active"); active != "" {
		db = db.Where("active = ?", active == "true")
	}

	order := "created_at DESC"
	switch c.QueryParam("sortBy") {
	case "name":
		order = "personal_name ASC"
	case "expiryDate":
		order = "expiry_date ASC"
	}

	var total int64
	db.Count(&total)
	pagination, offset := response.Paginate(page, limit, total)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var members []model.Member
	if err := db.Order(order).Offset(offset).Limit(limit).Find(&members).Error; err != nil {
		logger.FromContext(c).Error("Failed to list members", zap.Error(err))
		return response.InternalServerError(c, "Failed to retrieve members")
	}

	return response.OK(c, "Members retrieved successfully", echo.Map{
		"members":    members,
		"pagination": pagination,
	})
}

// GetMember returns a single member by database id, scoped to the gym.
func GetMember(c echo.Context) error {
	gymID := middleware.GymScope(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var member model.Member
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&member).Error; err != nil {
		return response.NotFound(c, "Member not found")
	}

	return response.OK(c, "Member retrieved successfully", echo.Map{"member": member})
}

// GetMemberByMemberID looks a member up by the printed member code.
func GetMemberByMemberID(c echo.Context) error {
	gymID := middleware.GymScope(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var member model.Member
	if err := database.GetDB().Where("member_id = ? AND gym_id = ?", c.Param("memberId"), gymID).
		First(&member).Error; err != nil {
		return response.NotFound(c, "Member not found")
	}

	return response.OK(c, "Member retrieved successfully", echo.Map{"member": member})
}

// UpdateMember applies a partial update. The member ID, QR credential
// and gym assignment are immutable; a plan change recomputes the
// expiry from the membership start date.
func UpdateMember(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)

	var member model.Member
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&member).Error; err != nil {
		return response.NotFound(c, "Member not found")
	}

	var req struct {
		PersonalInfo     *model.PersonalInfo     `json:"personalInfo"`
		EmergencyContact *model.EmergencyContact `json:"emergencyContact"`
		PlanID           *uint                   `json:"planId"`
		Status           *model.MembershipStatus `json:"status"`
		FeeStatus        *model.FeeStatus        `json:"feeStatus"`
		Notes            *string                 `json:"notes"`
		Active           *bool                   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}

	if req.PersonalInfo != nil {
		if req.PersonalInfo.Name == "" {
			return response.UnprocessableEntity(c, "Member name is required")
		}
		member.PersonalInfo = *req.PersonalInfo
	}
	if req.EmergencyContact != nil {
		member.EmergencyContact = *req.EmergencyContact
	}
	if req.PlanID != nil && *req.PlanID != member.Membership.PlanID {
		plan, err := findGymPlan(gymID, *req.PlanID)
		if err != nil {
			return response.NotFound(c, "Plan not found")
		}
		member.Membership.PlanID = plan.ID
		member.SetExpiry(member.Membership.StartDate.AddDate(0, 0, plan.DurationInDays()))
	}
	if req.Status != nil {
		member.Membership.Status = *req.Status
	}
	if req.FeeStatus != nil {
		member.FeeStatus = *req.FeeStatus
	}
	if req.Notes != nil {
		member.Notes = *req.Notes
	}
	if req.Active != nil {
		member.Active = *req.Active
	}

	callerID, _ := c.Get("user_id").(uint)
	member.UpdatedBy = &callerID

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&member).Error; err != nil {
		log.Error("Failed to update member", zap.Error(err))
		return response.InternalServerError(c, "Failed to update member")
	}

	audit.Log(c, "update", "member", member.MemberID, nil)

	return response.OK(c, "Member updated successfully", echo.Map{"member": member})
}

// DeleteMember soft-deletes a member. Attendance history stays intact.
func DeleteMember(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)

	var member model.Member
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&member).Error; err != nil {
		return response.NotFound(c, "Member not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&member).Error; err != nil {
		log.Error("Failed to delete member", zap.Error(err))
		return response.InternalServerError(c, "Failed to delete member")
	}

	audit.Log(c, "delete", "member", member.MemberID, nil)

	return response.OK(c, "Member deleted successfully", nil)
}

// RenewMember extends a membership. The plan defaults to the member's
// current one; naming a different plan switches to it and restarts the
// term. Renewal always restores the member to active, paid state.
func RenewMember(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)

	var member model.Member
	if err := database.GetDB().Where("id = ? AND gym_id = ?", c.Param("id"), gymID).
		First(&member).Error; err != nil {
		return response.NotFound(c, "Member not found")
	}

	var req struct {
		PlanID uint `json:"planId"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}
	if req.PlanID == 0 {
		req.PlanID = member.Membership.PlanID
	}

	plan, err := findGymPlan(gymID, req.PlanID)
	if err != nil {
		return response.NotFound(c, "Plan not found")
	}

	now := time.Now()
	member.ApplyRenewal(plan, now)
	member.NextPaymentDue = member.ExpiryDate

	callerID, _ := c.Get("user_id").(uint)
	member.UpdatedBy = &callerID

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&member).Error; err != nil {
		log.Error("Failed to renew member", zap.Error(err))
		return response.InternalServerError(c, "Failed to renew membership")
	}

	prometheus.RenewalCounter.Inc()
	audit.Log(c, "renew", "member", member.MemberID, map[string]interface{}{
		"planId":    plan.ID,
		"newExpiry": member.ExpiryDate,
	})

	log.Info("Membership renewed",
		zap.String("member_id", member.MemberID),
		zap.Uint("plan_id", plan.ID),
		zap.Timep("expiry", member.ExpiryDate))

	return response.OK(c, "Membership renewed successfully", echo.Map{"member": member})
}

// MemberStats returns the gym's headline membership counters.
func MemberStats(c echo.Context) error {
	gymID := middleware.GymScope(c)
	now := time.Now()

	members := func() *gorm.DB {
		return database.GetDB().Model(&model.Member{}).Where("gym_id = ?", gymID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total, active, expired, feeOverdue, expiringSoon int64
	members().Count(&total)
	members().Where("active = ? AND membership_status = ?",
		true, model.MembershipActive).Count(&active)
	members().Where("membership_status = ? OR expiry_date < ?",
		model.MembershipExpired, now).Count(&expired)
	members().Where("fee_status = ?", model.FeeOverdue).Count(&feeOverdue)
	members().Where("membership_status = ? AND expiry_date BETWEEN ? AND ?",
		model.MembershipActive, now, now.AddDate(0, 0, 7)).Count(&expiringSoon)

	return response.OK(c, "Member statistics retrieved successfully", echo.Map{
		"totalMembers":        total,
		"activeMembers":       active,
		"expiredMembers":      expired,
		"feeOverdue":          feeOverdue,
		"expiringInSevenDays": expiringSoon,
	})
}

// RegenerateQR always refuses. The QR credential is issued once at
// creation and is valid for the life of the member record.
func RegenerateQR(c echo.Context) error {
	return response.Forbidden(c, "QR code is permanent and cannot be regenerated")
}
