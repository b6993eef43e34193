package handler

import (
	"time"

	"gym-service/internal/audit"
	"gym-service/internal/middleware"
	"gym-service/internal/model"
	"gym-service/internal/rbac"
	"gym-service/pkg/database"
	"gym-service/pkg/logger"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// gymWithCounts is the list/get projection for the superadmin console
type gymWithCounts struct {
	model.Gym
	MemberCount int64 `json:"memberCount"`
	UserCount   int64 `json:"userCount"`
}

func countGymMembers(gymID string) (members, users int64) {
	db := database.GetDB()
	db.Model(&model.Member{}).Where("gym_id = ?", gymID).Count(&members)
	db.Model(&model.User{}).Where("gym_id = ?", gymID).Count(&users)
	return
}

// CreateGym provisions a tenant together with its owner account. The
// gym and the owner are created in one transaction so a duplicate
// owner email leaves no half-provisioned tenant behind.
func CreateGym(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Address     model.GymAddress  `json:"address"`
		Contact     model.GymContact  `json:"contact"`
		Settings    model.GymSettings `json:"settings"`
		Owner       struct {
			Email    string `json:"email"`
			Password string `json:"password"`
			Name     string `json:"name"`
			Phone    string `json:"phone"`
		} `json:"owner"`
	}

	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}
	if req.Name == "" || req.Owner.Email == "" || req.Owner.Password == "" || req.Owner.Name == "" {
		return response.UnprocessableEntity(c, "Gym name and owner email, password and name are required")
	}

	var existing model.User
	if err := database.GetDB().Where("email = ?", req.Owner.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "User with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Owner.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash owner password", zap.Error(err))
		return response.InternalServerError(c, "Failed to create gym")
	}

	callerID, _ := c.Get("user_id").(uint)
	if req.Settings.Timezone == "" {
		req.Settings.Timezone = "UTC"
	}
	if req.Settings.Currency == "" {
		req.Settings.Currency = "USD"
	}

	gym := model.Gym{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Contact:     req.Contact,
		Settings:    req.Settings,
		Active:      true,
		CreatedBy:   &callerID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&gym).Error; err != nil {
			return err
		}
		owner := model.User{
			GymID:     gym.GymID,
			Email:     req.Owner.Email,
			Password:  string(hashed),
			Name:      req.Owner.Name,
			Phone:     req.Owner.Phone,
			Role:      rbac.RoleGymOwner,
			Active:    true,
			CreatedBy: &callerID,
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		log.Error("Failed to create gym", zap.Error(err))
		return response.InternalServerError(c, "Failed to create gym")
	}

	audit.Log(c, "create", "gym", gym.GymID, map[string]interface{}{
		"name":       gym.Name,
		"ownerEmail": req.Owner.Email,
	})

	log.Info("Gym created", zap.String("gym_id", gym.GymID), zap.String("name", gym.Name))
	return response.Created(c, "Gym created successfully", echo.Map{"gym": gym})
}

// ListGyms returns all tenants with member and user counts.
func ListGyms(c echo.Context) error {
	page, limit := response.PageParams(c)
	search := c.QueryParam("search")

	db := database.GetDB().Model(&model.Gym{})
	if search != "" {
		pattern := "%" + search + "%"
		db = db.Where("name ILIKE ? OR contact_email ILIKE ?", pattern, pattern)
	}

	var total int64
	db.Count(&total)

	pagination, offset := response.Paginate(page, limit, total)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var gyms []model.Gym
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&gyms).Error; err != nil {
		logger.FromContext(c).Error("Failed to list gyms", zap.Error(err))
		return response.InternalServerError(c, "Failed to retrieve gyms")
	}

	out := make([]gymWithCounts, 0, len(gyms))
	for _, g := range gyms {
		members, users := countGymMembers(g.GymID)
		out = append(out, gymWithCounts{Gym: g, MemberCount: members, UserCount: users})
	}

	return response.OK(c, "Gyms retrieved successfully", echo.Map{
		"gyms":       out,
		"pagination": pagination,
	})
}

// GetGym returns a single tenant with its member and user counts.
func GetGym(c echo.Context) error {
	gymID := c.Param("gymId")

	defer prometheus.TrackDBOperation("query")(time.Now())
	var gym model.Gym
	if err := database.GetDB().Where("gym_id = ?", gymID).First(&gym).Error; err != nil {
		return response.NotFound(c, "Gym not found")
	}

	members, users := countGymMembers(gym.GymID)
	return response.OK(c, "Gym retrieved successfully", echo.Map{
		"gym": gymWithCounts{Gym: gym, MemberCount: members, UserCount: users},
	})
}

// MyGym returns the caller's own gym. This is the only gym read
// available to gym-scoped roles.
func MyGym(c echo.Context) error {
	gymID := middleware.GymScope(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var gym model.Gym
	if err := database.GetDB().Where("gym_id = ?", gymID).First(&gym).Error; err != nil {
		return response.NotFound(c, "Gym not found")
	}

	members, users := countGymMembers(gym.GymID)
	return response.OK(c, "Gym retrieved successfully", echo.Map{
		"gym": gymWithCounts{Gym: gym, MemberCount: members, UserCount: users},
	})
}

// GymStats returns platform-wide tenant counters for the superadmin
// console.
func GymStats(c echo.Context) error {
	db := database.GetDB()

	defer prometheus.TrackDBOperation("query")(time.Now())

	var totalGyms, activeGyms, totalMembers, totalUsers int64
	db.Model(&model.Gym{}).Count(&totalGyms)
	db.Model(&model.Gym{}).Where("active = ?", true).Count(&activeGyms)
	db.Model(&model.Member{}).Count(&totalMembers)
	db.Model(&model.User{}).Where("role <> ?", rbac.RoleSuperAdmin).Count(&totalUsers)

	return response.OK(c, "Gym statistics retrieved successfully", echo.Map{
		"totalGyms":    totalGyms,
		"activeGyms":   activeGyms,
		"inactiveGyms": totalGyms - activeGyms,
		"totalMembers": totalMembers,
		"totalUsers":   totalUsers,
	})
}

// UpdateGym applies a partial update. Toggling the active flag
// cascades to the gym's users.
func UpdateGym(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := c.Param("gymId")

	var gym model.Gym
	if err := database.GetDB().Where("gym_id = ?", gymID).First(&gym).Error; err != nil {
		return response.NotFound(c, "Gym not found")
	}

	var req struct {
		Name        *string            `json:"name"`
		Description *string            `json:"description"`
		Address     *model.GymAddress  `json:"address"`
		Contact     *model.GymContact  `json:"contact"`
		Settings    *model.GymSettings `json:"settings"`
		Active      *bool              `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}

	if req.Name != nil {
		gym.Name = *req.Name
	}
	if req.Description != nil {
		gym.Description = *req.Description
	}
	if req.Address != nil {
		gym.Address = *req.Address
	}
	if req.Contact != nil {
		gym.Contact = *req.Contact
	}
	if req.Settings != nil {
		gym.Settings = *req.Settings
	}
	activeChanged := false
	if req.Active != nil && gym.Active != *req.Active {
		activeChanged = true
		gym.Active = *req.Active
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Save(&gym).Error; err != nil {
		log.Error("Failed to update gym", zap.Error(err))
		return response.InternalServerError(c, "Failed to update gym")
	}

	// Blocking or unblocking a gym cascades to its users; blocking also
	// kills live sessions so they cannot outlast the block.
	if activeChanged {
		updates := map[string]interface{}{"active": gym.Active}
		if !gym.Active {
			updates["refresh_token"] = ""
		}
		if err := database.GetDB().Model(&model.User{}).Where("gym_id = ?", gym.GymID).
			Updates(updates).Error; err != nil {
			log.Error("Failed to cascade gym active flag", zap.Error(err))
		}
	}

	audit.Log(c, "update", "gym", gym.GymID, map[string]interface{}{
		"active": gym.Active,
	})

	return response.OK(c, "Gym updated successfully", echo.Map{"gym": gym})
}

// DeleteGym soft-deletes a tenant by default. A hard delete removes
// the gym row only; partitioned data stays in place under its gym_id.
func DeleteGym(c echo.Context) error {
	log := logger.FromContext(c)
	gymID := c.Param("gymId")
	hard := c.QueryParam("hard") == "true"

	var gym model.Gym
	if err := database.GetDB().Where("gym_id = ?", gymID).First(&gym).Error; err != nil {
		return response.NotFound(c, "Gym not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	db := database.GetDB()
	if hard {
		db = db.Unscoped()
	}
	if err := db.Delete(&gym).Error; err != nil {
		log.Error("Failed to delete gym", zap.Error(err))
		return response.InternalServerError(c, "Failed to delete gym")
	}

	audit.Log(c, "delete", "gym", gym.GymID, map[string]interface{}{
		"hard": hard,
	})

	log.Info("Gym deleted", zap.String("gym_id", gym.GymID), zap.Bool("hard", hard))
	return response.OK(c, "Gym deleted successfully", nil)
}
