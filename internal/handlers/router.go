package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/services"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

type HandlerManager struct {
	serviceManager    services.ServiceManager
	userHandler       *UserHandler
	catalogHandler    *CatalogHandler
	lessonHandler     *LessonHandler
	attendanceHandler *AttendanceHandler
	authMiddleware    *SessionAuthMiddleware
	logger            utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authenticator *auth.SessionAuthenticator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:    serviceManager,
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		catalogHandler:    NewCatalogHandler(serviceManager.Program(), serviceManager.Group(), logger),
		lessonHandler:     NewLessonHandler(serviceManager.Lesson(), serviceManager.Material(), serviceManager.Message(), logger),
		attendanceHandler: NewAttendanceHandler(serviceManager.Attendance(), logger),
		authMiddleware:    NewSessionAuthMiddleware(authenticator, logger),
		logger:            logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	// Registration and login are the only anonymous endpoints
	public := router.Group("/api/v1/auth")
	{
		public.POST("/register", hm.userHandler.Register)
		public.POST("/login", hm.userHandler.Login)
	}

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		staff := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)
		adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

		account := v1.Group("/account")
		{
			account.GET("", hm.userHandler.GetMe)
			account.PUT("", hm.userHandler.UpdateMe)
			account.DELETE("", hm.userHandler.DeleteMe)
		}

		users := v1.Group("/users", adminOnly)
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/by-email", hm.userHandler.GetUserByEmail)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.userHandler.DeleteUser)
		}

		programs := v1.Group("/programs")
		{
			programs.GET("", hm.catalogHandler.ListPrograms)
			programs.GET("/:id", hm.catalogHandler.GetProgram)
			programs.POST("", adminOnly, hm.catalogHandler.CreateProgram)
			programs.PUT("/:id", adminOnly, hm.catalogHandler.UpdateProgram)
			programs.DELETE("/:id", adminOnly, hm.catalogHandler.DeleteProgram)
		}

		groups := v1.Group("/groups")
		{
			groups.GET("", hm.catalogHandler.ListGroups)
			groups.GET("/mine", hm.catalogHandler.MyGroups)
			groups.GET("/:id", hm.catalogHandler.GetGroup)
			groups.POST("", adminOnly, hm.catalogHandler.CreateGroup)
			groups.PUT("/:id", adminOnly, hm.catalogHandler.UpdateGroup)
			groups.DELETE("/:id", adminOnly, hm.catalogHandler.DeleteGroup)

			// Membership; the services decide who may join
			groups.POST("/:id/join", hm.catalogHandler.JoinGroup)
			groups.POST("/:id/leave", hm.catalogHandler.LeaveGroup)
		}

		lessons := v1.Group("/lessons")
		{
			lessons.GET("", hm.lessonHandler.ListLessons)
			lessons.GET("/:id", hm.lessonHandler.GetLesson)
			lessons.POST("", adminOnly, hm.lessonHandler.CreateLesson)
			lessons.PUT("/:id", adminOnly, hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:id", adminOnly, hm.lessonHandler.DeleteLesson)
			lessons.PUT("/:id/comment", staff, hm.lessonHandler.CommentLesson)

			lessons.GET("/:id/materials", hm.lessonHandler.GetLessonMaterials)
			lessons.GET("/:id/messages", hm.lessonHandler.GetLessonMessages)
			lessons.GET("/:id/attendance", staff, hm.attendanceHandler.GetLessonAttendance)
			lessons.GET("/:id/attendance/export", staff, hm.attendanceHandler.ExportLessonAttendance)
			lessons.GET("/:id/attendance/audits", staff, hm.attendanceHandler.GetLessonAudits)
		}

		materials := v1.Group("/materials")
		{
			materials.GET("", hm.lessonHandler.ListMaterials)
			materials.GET("/:id", hm.lessonHandler.GetMaterial)
			materials.POST("", staff, hm.lessonHandler.CreateMaterial)
			materials.PUT("/:id", staff, hm.lessonHandler.UpdateMaterial)
			materials.DELETE("/:id", staff, hm.lessonHandler.DeleteMaterial)
		}

		messages := v1.Group("/messages")
		{
			messages.GET("", adminOnly, hm.lessonHandler.ListMessages)
			messages.GET("/:id", hm.lessonHandler.GetMessage)
			messages.POST("", hm.lessonHandler.CreateMessage)
			messages.PUT("/:id", hm.lessonHandler.UpdateMessage)
			messages.DELETE("/:id", hm.lessonHandler.DeleteMessage)
		}

		attendance := v1.Group("/attendance")
		{
			attendance.GET("", staff, hm.attendanceHandler.ListAttendance)
			attendance.GET("/student/:student_id", hm.attendanceHandler.GetStudentAttendance)
			attendance.GET("/:id", staff, hm.attendanceHandler.GetAttendance)
			attendance.POST("", staff, hm.attendanceHandler.CreateAttendance)
			attendance.POST("/bulk", staff, hm.attendanceHandler.BulkMarkAttendance)
			attendance.PUT("/:id", staff, hm.attendanceHandler.UpdateAttendance)
			attendance.DELETE("/:id", staff, hm.attendanceHandler.DeleteAttendance)
		}
	}
}

// HealthCheck reports database and cache reachability
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		hm.logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "classroom-service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "classroom-service",
	})
}
