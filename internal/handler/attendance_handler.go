package handler

import (
	"time"

	"gym-service/internal/bus"
	"gym-service/internal/middleware"
	"gym-service/internal/model"
	"gym-service/internal/rbac"
	"gym-service/pkg/config"
	"gym-service/pkg/database"
	"gym-service/pkg/logger"
	"gym-service/pkg/qrcode"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var attendanceConfig *config.AttendanceConfig

// InitAttendanceHandler wires the scan handlers to the loaded
// configuration.
func InitAttendanceHandler(cfg *config.Config) {
	attendanceConfig = &cfg.Attendance
}

// alertRoles is who denial alerts are addressed to.
var alertRoles = []string{string(rbac.RoleGymOwner), string(rbac.RoleStaff)}

// scanEventData is the bus payload for check-in and access-denied
// events.
type scanEventData struct {
	MemberID     string    `json:"memberId"`
	MemberName   string    `json:"memberName"`
	GymID        string    `json:"gymId"`
	Time         time.Time `json:"time"`
	DenialReason string    `json:"denialReason,omitempty"`
}

// ScanQR runs the admission decision for a scanned QR payload.
//
// The payload is checked in fixed order: malformed data is rejected,
// a credential from another gym is refused, an unknown member is
// reported missing. None of those leave an attendance record. A real
// member is then either denied (recorded, alerted, broadcast),
// deduplicated (recent grant within the window, nothing written), or
// granted (recorded, broadcast).
func ScanQR(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)
	now := time.Now()

	var req struct {
		QRData   string `json:"qrData"`
		Location string `json:"location"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordScan("rejected")
		return response.BadRequest(c, "Invalid request")
	}

	payload, err := qrcode.Decode(req.QRData)
	if err != nil {
		prometheus.RecordScan("rejected")
		return response.BadRequest(c, "Invalid QR code data")
	}

	if payload.GymID != gymID {
		prometheus.RecordScan("rejected")
		log.Warn("Cross-gym QR scan refused",
			zap.String("scanned_gym", payload.GymID),
			zap.String("scope_gym", gymID))
		return response.Forbidden(c, "QR code belongs to a different gym")
	}

	var member model.Member
	if err := database.GetDB().Where("gym_id = ? AND member_id = ?", gymID, payload.MemberID).
		First(&member).Error; err != nil {
		prometheus.RecordScan("rejected")
		return response.NotFound(c, "Member not found")
	}

	callerID, _ := c.Get("user_id").(uint)
	location := req.Location
	if location == "" {
		location = "Main Entrance"
	}

	if !member.CanAccessAt(now) {
		return denyAccess(c, &member, now, location, callerID)
	}

	// Duplicate suppression: a grant inside the trailing window is
	// acknowledged without writing a second record.
	var last model.Attendance
	err = database.GetDB().
		Where("gym_id = ? AND member_ref = ? AND access_granted = ?", gymID, member.ID, true).
		Order("check_in_time DESC").First(&last).Error
	if err == nil && model.WithinDedupWindow(last.CheckInTime, now, attendanceConfig.DedupWindow) {
		prometheus.RecordScan("duplicate")
		return response.OK(c, "Member already checked in", duplicateScanResponse(&member, &last))
	}

	attendance := model.Attendance{
		GymID:         gymID,
		MemberRef:     member.ID,
		CheckInTime:   now,
		Method:        model.MethodQR,
		Location:      location,
		VerifiedBy:    &callerID,
		AccessGranted: true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&attendance).Error; err != nil {
		log.Error("Failed to record check-in", zap.Error(err))
		return response.InternalServerError(c, "Failed to record check-in")
	}

	prometheus.RecordScan("granted")
	publishScanEvent(c, "check-in", &member, now, "")

	log.Info("Member checked in",
		zap.String("member_id", member.MemberID),
		zap.String("gym_id", gymID))

	return response.OK(c, "Access granted", echo.Map{
		"accessGranted": true,
		"member":        member,
		"attendance":    attendance,
	})
}

// duplicateScanResponse acknowledges a scan inside the dedup window,
// returning the existing record instead of writing a second one.
func duplicateScanResponse(member *model.Member, last *model.Attendance) echo.Map {
	return echo.Map{
		"accessGranted":    true,
		"skippedDuplicate": true,
		"member":           member,
		"attendance":       last,
		"lastCheckIn":      last.CheckInTime,
	}
}

// denyAccess records a denied scan, raises the staff alert and
// broadcasts the denial. The response is 200: the scan itself
// succeeded, the answer is no.
func denyAccess(c echo.Context, member *model.Member, now time.Time, location string, callerID uint) error {
	log := logger.FromContext(c)
	reason := member.DenialReasonAt(now)

	attendance := model.Attendance{
		GymID:         member.GymID,
		MemberRef:     member.ID,
		CheckInTime:   now,
		Method:        model.MethodQR,
		Location:      location,
		VerifiedBy:    &callerID,
		AccessGranted: false,
		DenialReason:  reason,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&attendance).Error; err != nil {
		log.Error("Failed to record denied scan", zap.Error(err))
		return response.InternalServerError(c, "Failed to record scan")
	}

	alertType := model.AlertAccessDenied
	if reason == model.DenialExpired {
		alertType = model.AlertMembershipExpired
	}
	alert := model.Alert{
		GymID:       member.GymID,
		Type:        alertType,
		MemberRef:   member.ID,
		Title:       "Access Denied",
		Message:     member.PersonalInfo.Name + ": " + reason,
		Priority:    model.PriorityHigh,
		TargetRoles: alertRoles,
		Metadata: map[string]interface{}{
			"memberId": member.MemberID,
			"reason":   reason,
		},
	}
	if err := database.GetDB().Create(&alert).Error; err != nil {
		log.Error("Failed to create denial alert", zap.Error(err))
	} else {
		prometheus.RecordAlert(string(alertType))
	}

	prometheus.RecordScan("denied")
	publishScanEvent(c, "access-denied", member, now, reason)

	log.Info("Access denied",
		zap.String("member_id", member.MemberID),
		zap.String("reason", reason))

	return response.OK(c, "Access denied", echo.Map{
		"accessGranted": false,
		"reason":        reason,
		"member":        member,
		"attendance":    attendance,
	})
}

// publishScanEvent broadcasts a scan outcome to the owner and staff
// channels. Delivery is best-effort and never fails the scan.
func publishScanEvent(c echo.Context, event string, member *model.Member, now time.Time, reason string) {
	data := scanEventData{
		MemberID:     member.MemberID,
		MemberName:   member.PersonalInfo.Name,
		GymID:        member.GymID,
		Time:         now,
		DenialReason: reason,
	}
	if err := bus.PublishToRoles(c.Request().Context(), alertRoles, event, data); err != nil {
		logger.FromContext(c).Warn("Failed to publish scan event",
			zap.String("event", event), zap.Error(err))
		return
	}
	prometheus.RecordBusEvent(event)
}

// ManualCheckIn records an attendance grant entered by staff, skipping
// the QR decode but not the admission decision.
func ManualCheckIn(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := middleware.GymScope(c)
	now := time.Now()

	var req struct {
		MemberID string `json:"memberId"`
		Location string `json:"location"`
		Notes    string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}
	if req.MemberID == "" {
		return response.UnprocessableEntity(c, "memberId is required")
	}

	var member model.Member
	if err := database.GetDB().Where("gym_id = ? AND member_id = ?", gymID, req.MemberID).
		First(&member).Error; err != nil {
		return response.NotFound(c, "Member not found")
	}

	callerID, _ := c.Get("user_id").(uint)
	location := req.Location
	if location == "" {
		location = "Main Entrance"
	}

	if !member.CanAccessAt(now) {
		return denyAccess(c, &member, now, location, callerID)
	}

	attendance := model.Attendance{
		GymID:         gymID,
		MemberRef:     member.ID,
		CheckInTime:   now,
		Method:        model.MethodManual,
		Location:      location,
		VerifiedBy:    &callerID,
		Notes:         req.Notes,
		AccessGranted: true,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&attendance).Error; err != nil {
		log.Error("Failed to record manual check-in", zap.Error(err))
		return response.InternalServerError(c, "Failed to record check-in")
	}

	prometheus.RecordScan("granted")
	publishScanEvent(c, "check-in", &member, now, "")

	return response.OK(c, "Access granted", echo.Map{
		"accessGranted": true,
		"member":        member,
		"attendance":    attendance,
	})
}

// ListAttendance returns the gym's attendance records with date range,
// member and outcome filters. An endDate names a day, so the filter
// runs to the end of that day.
func ListAttendance(c echo.Context) error {
	gymID := middleware.GymScope(c)
	page, limit := response.PageParams(c)

	db := database.GetDB().Model(&model.Attendance{}).Where("gym_id = ?", gymID)

	if startDate := c.QueryParam("startDate"); startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			db = db.Where("check_in_time >= ?", t)
		}
	}
	if endDate := c.QueryParam("endDate"); endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			db = db.Where("check_in_time < ?", t.AddDate(0, 0, 1))
		}
	}
	if memberID := c.QueryParam("memberId"); memberID != "" {
		var member model.Member
		if err := database.GetDB().Where("gym_id = ? AND member_id = ?", gymID, memberID).
			First(&member).Error; err != nil {
			return response.NotFound(c, "Member not found")
		}
		db = db.Where("member_ref = ?", member.ID)
	}
	if granted := c.QueryParam("accessGranted"); granted != "" {
		db = db.Where("access_granted = ?", granted == "true")
	}

	var total int64
	db.Count(&total)
	pagination, offset := response.Paginate(page, limit, total)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var records []model.Attendance
	if err := db.Preload("Member").Order("check_in_time DESC").
		Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		logger.FromContext(c).Error("Failed to list attendance", zap.Error(err))
		return response.InternalServerError(c, "Failed to retrieve attendance")
	}

	return response.OK(c, "Attendance retrieved successfully", echo.Map{
		"attendance": records,
		"pagination": pagination,
	})
}

// MemberAttendance returns a member's granted check-in history.
func MemberAttendance(c echo.Context) error {
	gymID := middleware.GymScope(c)
	page, limit := response.PageParams(c)

	var member model.Member
	if err := database.GetDB().Where("gym_id = ? AND member_id = ?", gymID, c.Param("memberId")).
		First(&member).Error; err != nil {
		return response.NotFound(c, "Member not found")
	}

	db := database.GetDB().Model(&model.Attendance{}).
		Where("gym_id = ? AND member_ref = ? AND access_granted = ?", gymID, member.ID, true)

	var total int64
	db.Count(&total)
	pagination, offset := response.Paginate(page, limit, total)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var records []model.Attendance
	if err := db.Order("check_in_time DESC").Offset(offset).Limit(limit).
		Find(&records).Error; err != nil {
		logger.FromContext(c).Error("Failed to load member attendance", zap.Error(err))
		return response.InternalServerError(c, "Failed to retrieve attendance")
	}

	return response.OK(c, "Attendance retrieved successfully", echo.Map{
		"member":     member,
		"attendance": records,
		"pagination": pagination,
	})
}

// TodayStats returns today's scan counters for the gym.
func TodayStats(c echo.Context) error {
	gymID := middleware.GymScope(c)

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today := func() *gorm.DB {
		return database.GetDB().Model(&model.Attendance{}).
			Where("gym_id = ? AND check_in_time >= ?", gymID, dayStart)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var totalCheckIns, deniedAccess, currentlyInGym int64
	today().Where("access_granted = ?", true).Count(&totalCheckIns)
	today().Where("access_granted = ?", false).Count(&deniedAccess)
	today().Where("access_granted = ? AND check_out_time IS NULL", true).Count(&currentlyInGym)

	return response.OK(c, "Attendance statistics retrieved successfully", echo.Map{
		"totalCheckIns":  totalCheckIns,
		"deniedAccess":   deniedAccess,
		"currentlyInGym": currentlyInGym,
		"date":           dayStart.Format("2006-01-02"),
	})
}
