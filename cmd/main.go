package main

import (
	"gym-service/internal/bus"
	"gym-service/internal/handler"
	"gym-service/internal/middleware"
	"gym-service/internal/rbac"
	"gym-service/pkg/config"
	"gym-service/pkg/database"
	"gym-service/pkg/jwtutil"
	"gym-service/pkg/logger"
	"gym-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting gym service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Initialize notification bus (redis or in-process)
	if err := bus.Init(cfg); err != nil {
		log.Fatal("Failed to initialize notification bus", zap.Error(err))
	}
	log.Info("Notification bus initialized", zap.Bool("redis", cfg.Redis.Addr != ""))

	handler.InitAuthHandler(cfg)
	handler.InitAttendanceHandler(cfg)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// The event stream authenticates via query token; EventSource
	// cannot send an Authorization header
	e.GET("/events", handler.StreamEvents)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.Refresh)

	authProtected := auth.Group("")
	authProtected.Use(middleware.Authenticate)
	authProtected.POST("/register", handler.Register,
		middleware.Authorize(rbac.RoleSuperAdmin, rbac.RoleGymOwner))
	authProtected.POST("/logout", handler.Logout)
	authProtected.GET("/me", handler.Me)
	authProtected.POST("/change-password", handler.ChangePassword)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.Authenticate)

	// A gym-scoped user's view of their own gym; registered outside the
	// superadmin group
	api.GET("/gyms/me", handler.MyGym, middleware.GymContext)

	// Gym management - superadmin console
	gyms := api.Group("/gyms")
	gyms.Use(middleware.RequireSuperAdmin)
	gyms.POST("", handler.CreateGym)
	gyms.GET("", handler.ListGyms)
	gyms.GET("/stats", handler.GymStats)
	gyms.GET("/:gymId", handler.GetGym)
	gyms.PATCH("/:gymId", handler.UpdateGym)
	gyms.DELETE("/:gymId", handler.DeleteGym)

	// Member management - gym scoped
	members := api.Group("/members")
	members.Use(middleware.GymContext)
	members.POST("", handler.CreateMember, middleware.RequirePermission(rbac.PermManageMembers))
	members.GET("", handler.ListMembers, middleware.RequirePermission(rbac.PermViewMembers))
	members.GET("/stats", handler.MemberStats, middleware.RequirePermission(rbac.PermViewReports))
	members.GET("/by-member-id/:memberId", handler.GetMemberByMemberID,
		middleware.RequirePermission(rbac.PermViewMembers))
	members.GET("/:id", handler.GetMember, middleware.RequirePermission(rbac.PermViewMembers))
	members.PATCH("/:id", handler.UpdateMember, middleware.RequirePermission(rbac.PermManageMembers))
	members.DELETE("/:id", handler.DeleteMember, middleware.RequirePermission(rbac.PermManageMembers))
	members.POST("/:id/renew", handler.RenewMember, middleware.RequirePermission(rbac.PermManageMembers))
	members.POST("/:id/regenerate-qr", handler.RegenerateQR)

	// Plan management - gym scoped
	plans := api.Group("/plans")
	plans.Use(middleware.GymContext)
	plans.POST("", handler.CreatePlan, middleware.RequirePermission(rbac.PermManagePlans))
	plans.GET("", handler.ListPlans, middleware.RequirePermission(rbac.PermViewMembers))
	plans.GET("/:id", handler.GetPlan, middleware.RequirePermission(rbac.PermViewMembers))
	plans.PATCH("/:id", handler.UpdatePlan, middleware.RequirePermission(rbac.PermManagePlans))
	plans.DELETE("/:id", handler.DeletePlan, middleware.RequirePermission(rbac.PermManagePlans))

	// Attendance - gym scoped
	attendance := api.Group("/attendance")
	attendance.Use(middleware.GymContext)
	attendance.POST("/scan", handler.ScanQR, middleware.RequirePermission(rbac.PermScanQR))
	attendance.POST("/manual", handler.ManualCheckIn, middleware.RequirePermission(rbac.PermScanQR))
	attendance.GET("", handler.ListAttendance, middleware.RequirePermission(rbac.PermViewAttendance))
	attendance.GET("/today", handler.TodayStats, middleware.RequirePermission(rbac.PermViewAttendance))
	attendance.GET("/member/:memberId", handler.MemberAttendance,
		middleware.RequirePermission(rbac.PermViewAttendance))

	// Alerts - gym scoped, role targeted
	alerts := api.Group("/alerts")
	alerts.Use(middleware.GymContext)
	alerts.Use(middleware.RequirePermission(rbac.PermViewAlerts))
	alerts.GET("", handler.ListAlerts)
	alerts.GET("/unread-count", handler.UnreadAlertCount)
	alerts.POST("/mark-all-read", handler.MarkAllAlertsRead)
	alerts.POST("/:id/read", handler.MarkAlertRead)
	alerts.DELETE("/:id", handler.DeleteAlert)

	// Staff account management - gym scoped
	users := api.Group("/users")
	users.Use(middleware.GymContext)
	users.Use(middleware.RequirePermission(rbac.PermManageUsers))
	users.GET("", handler.ListUsers)
	users.GET("/:id", handler.GetUser)
	users.PATCH("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser)

	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
