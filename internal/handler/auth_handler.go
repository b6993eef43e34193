package handler

import (
	"net/http"
	"time"

	"gym-service/internal/model"
	"gym-service/internal/rbac"
	"gym-service/pkg/config"
	"gym-service/pkg/database"
	"gym-service/pkg/jwtutil"
	"gym-service/pkg/logger"
	"gym-service/pkg/response"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const refreshCookieName = "refreshToken"

var authConfig *config.Config

// InitAuthHandler wires the auth handlers to the loaded configuration
func InitAuthHandler(cfg *config.Config) {
	authConfig = cfg
}

func setRefreshCookie(c echo.Context, token string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   authConfig.Server.Env == "production",
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
	})
}

func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		MaxAge:   -1,
	})
}

// gymBlocked reports whether the user's gym has been deactivated by a
// superadmin. Superadmins have no gym and are never blocked.
func gymBlocked(user *model.User) (bool, error) {
	if user.Role == rbac.RoleSuperAdmin || user.GymID == "" {
		return false, nil
	}
	var gym model.Gym
	if err := database.GetDB().Select("active").Where("gym_id = ?", user.GymID).First(&gym).Error; err != nil {
		// A missing gym does not block login; isolation still holds
		return false, nil
	}
	return !gym.Active, nil
}

// Register creates a user within the caller's gym. A superadmin may
// create users for any gym by naming it explicitly; everyone else's
// gym assignment is inherited, never chosen.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email    string    `json:"email"`
		Password string    `json:"password"`
		Name     string    `json:"name"`
		Phone    string    `json:"phone"`
		Role     rbac.Role `json:"role"`
		GymID    string    `json:"gymId,omitempty"` // honored for superadmin callers only
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return response.BadRequest(c, "Invalid request")
	}

	if req.Email == "" || req.Password == "" || req.Name == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return response.UnprocessableEntity(c, "Email, password and name are required")
	}

	if req.Role == "" {
		req.Role = rbac.RoleStaff
	}
	if !rbac.Valid(req.Role) || req.Role == rbac.RoleSuperAdmin {
		return response.UnprocessableEntity(c, "Invalid role")
	}

	caller, _ := c.Get("user").(model.User)

	// Resolve the new user's gym: inherited from the caller, except a
	// superadmin names the target gym explicitly.
	gymID := caller.GymID
	if caller.Role == rbac.RoleSuperAdmin {
		if req.GymID == "" {
			return response.UnprocessableEntity(c, "gymId is required when registering across gyms")
		}
		var gym model.Gym
		if err := database.GetDB().Where("gym_id = ?", req.GymID).First(&gym).Error; err != nil {
			return response.NotFound(c, "Gym not found")
		}
		gymID = req.GymID
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&existing).Error; err == nil {
		prometheus.RecordAuthError("email_already_exists")
		return response.Conflict(c, "User with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return response.InternalServerError(c, "Registration failed")
	}

	user := model.User{
		GymID:     gymID,
		Email:     req.Email,
		Password:  string(hashed),
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      req.Role,
		Active:    true,
		CreatedBy: &caller.ID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&user).Error; err != nil {
		log.Error("Failed to create user", zap.Error(err))
		return response.InternalServerError(c, "Registration failed")
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.String("gym_id", user.GymID))

	return response.Created(c, "User registered successfully", echo.Map{
		"user": user,
	})
}

// Login verifies credentials and issues the token pair: a short-lived
// access token in the body and the refresh token in an HTTP-only
// cookie. The refresh token is stored before the response is written.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return response.BadRequest(c, "Invalid request")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&user).Error; err != nil {
		prometheus.RecordAuthError("user_not_found")
		return response.Unauthorized(c, "Invalid email or password")
	}

	// A blocked gym locks out all of its users, credentials or not
	if blocked, _ := gymBlocked(&user); blocked {
		prometheus.RecordAuthError("gym_blocked")
		return response.Forbidden(c, "Gym has been blocked by the administrator")
	}

	if !user.Active {
		prometheus.RecordAuthError("account_deactivated")
		return response.Forbidden(c, "Account is deactivated. Please contact administrator.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return response.Unauthorized(c, "Invalid email or password")
	}

	accessToken, err := jwtutil.GenerateAccessToken(user.ID, user.GymID, string(user.Role))
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		return response.InternalServerError(c, "Token error")
	}

	refreshToken, err := jwtutil.GenerateRefreshToken(user.ID, user.GymID)
	if err != nil {
		log.Error("Failed to generate refresh token", zap.Error(err))
		return response.InternalServerError(c, "Token error")
	}

	// Persist the single live refresh token before responding
	now := time.Now()
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"refresh_token": refreshToken,
		"last_login":    now,
	}).Error; err != nil {
		log.Error("Failed to store refresh token", zap.Error(err))
		return response.InternalServerError(c, "Login failed")
	}

	setRefreshCookie(c, refreshToken, authConfig.JWT.RefreshTokenTTL)
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.String("gym_id", user.GymID))

	return response.OK(c, "Login successful", echo.Map{
		"accessToken": accessToken,
		"user":        user,
	})
}

// Refresh rotates the token pair. The presented refresh token must be
// the single stored one; anything else fails even if cryptographically
// valid, which catches stale tokens after a rotation. The new token is
// stored before the response is written, so from the caller's view the
// rotation is atomic.
func Refresh(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RefreshCounter.Inc()

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		prometheus.RecordAuthError("missing_refresh_token")
		return response.Unauthorized(c, "Refresh token not found")
	}

	claims, err := jwtutil.ValidateToken(cookie.Value, jwtutil.KindRefresh)
	if err != nil {
		prometheus.RecordAuthError("invalid_refresh_token")
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
		prometheus.RecordAuthError("user_not_found")
		return response.Unauthorized(c, "Invalid refresh token")
	}

	// Single-use-per-session: a rotated-away token is indistinguishable
	// from one that was never valid.
	if user.RefreshToken == "" || user.RefreshToken != cookie.Value {
		prometheus.RecordAuthError("stale_refresh_token")
		return response.Unauthorized(c, "Invalid refresh token")
	}

	if blocked, _ := gymBlocked(&user); blocked {
		prometheus.RecordAuthError("gym_blocked")
		return response.Forbidden(c, "Gym has been blocked by the administrator")
	}

	if !user.Active {
		prometheus.RecordAuthError("account_deactivated")
		return response.Forbidden(c, "Account is deactivated. Please contact administrator.")
	}

	accessToken, err := jwtutil.GenerateAccessToken(user.ID, user.GymID, string(user.Role))
	if err != nil {
		log.Error("Failed to generate access token", zap.Error(err))
		return response.InternalServerError(c, "Token error")
	}

	newRefreshToken, err := jwtutil.GenerateRefreshToken(user.ID, user.GymID)
	if err != nil {
		log.Error("Failed to generate refresh token", zap.Error(err))
		return response.InternalServerError(c, "Token error")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("refresh_token", newRefreshToken).Error; err != nil {
		log.Error("Failed to rotate refresh token", zap.Error(err))
		return response.InternalServerError(c, "Token refresh failed")
	}

	setRefreshCookie(c, newRefreshToken, authConfig.JWT.RefreshTokenTTL)

	return response.OK(c, "Token refreshed successfully", echo.Map{
		"accessToken": accessToken,
	})
}

// Logout invalidates the stored refresh token and clears the cookie.
func Logout(c echo.Context) error {
	if userID, ok := c.Get("user_id").(uint); ok {
		defer prometheus.TrackDBOperation("update")(time.Now())
		if err := database.GetDB().Model(&model.User{}).Where("id = ?", userID).
			Update("refresh_token", "").Error; err != nil {
			logger.FromContext(c).Error("Failed to clear refresh token", zap.Error(err))
		}
		prometheus.DecreaseActiveTokens()
	}

	clearRefreshCookie(c)
	return response.OK(c, "Logout successful", nil)
}

// Me returns the authenticated caller.
func Me(c echo.Context) error {
	user, ok := c.Get("user").(model.User)
	if !ok {
		return response.Unauthorized(c, "Authentication required.")
	}
	return response.OK(c, "User retrieved successfully", echo.Map{"user": user})
}

// ChangePassword verifies the current password and stores a new hash.
// This is the only path that rehashes a credential.
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := c.Get("user").(model.User)
	if !ok {
		return response.Unauthorized(c, "Authentication required.")
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "Invalid request")
	}

	if len(req.NewPassword) < 6 {
		return response.UnprocessableEntity(c, "Password must be at least 6 characters")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return response.Unauthorized(c, "Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return response.InternalServerError(c, "Password change failed")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("password", string(hashed)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return response.InternalServerError(c, "Password change failed")
	}

	return response.OK(c, "Password changed successfully", nil)
}
