package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classflow/backend/config"
	"classflow/backend/internal/api/handler"
	"classflow/backend/internal/api/middleware"
	"classflow/backend/internal/model"
	"classflow/backend/pkg/jwt"
	"classflow/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.POST("", middleware.RoleAuth(model.RoleManager), h.User.CreateUser)
				users.GET("", middleware.RoleAuth(model.RoleManager), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth(model.RoleManager), h.User.GetUser)
			}

			// 课程模块
			classes := authorized.Group("/classes")
			{
				classes.GET("", h.Class.ListClasses)
				classes.GET("/:id", h.Class.GetClass)
				classes.GET("/:id/roster", h.Class.ListRoster)
				classes.POST("", middleware.RoleAuth(model.RoleManager), h.Class.CreateClass)
				classes.PUT("/:id", middleware.RoleAuth(model.RoleManager), h.Class.UpdateClass)
				classes.DELETE("/:id", middleware.RoleAuth(model.RoleManager), h.Class.DeleteClass)
				classes.POST("/:id/enrollments", middleware.RoleAuth(model.RoleManager), h.Class.Enroll)
				classes.DELETE("/:id/enrollments/:enrollmentId", middleware.RoleAuth(model.RoleManager), h.Class.Unenroll)

				// 考勤（挂在课程下）
				classes.GET("/:id/attendance", h.Attendance.GetSheet)
				classes.PUT("/:id/attendance", middleware.RoleAuth(model.RoleManager), h.Attendance.SaveSheet)
				classes.GET("/:id/attendance/export", middleware.RoleAuth(model.RoleManager), h.Export.ExportAttendance)
			}

			// 学员考勤记录（学员只能查本人，Handler 层鉴权）
			authorized.GET("/students/:id/attendance", h.Attendance.ListStudentRecords)

			// 停课模块
			exceptions := authorized.Group("/exceptions")
			{
				exceptions.GET("", h.Exception.ListExceptions)
				exceptions.POST("", middleware.RoleAuth(model.RoleManager), h.Exception.CreateException)
				exceptions.DELETE("/:id", middleware.RoleAuth(model.RoleManager), h.Exception.DeleteException)
			}

			// 日历模块
			calendar := authorized.Group("/calendar")
			{
				calendar.GET("/feed", h.Calendar.GetFeed)
				calendar.GET("/ics", h.Calendar.ExportICS)
			}

			// 活动模块
			events := authorized.Group("/events")
			{
				events.GET("", h.Calendar.ListEvents)
				events.POST("", middleware.RoleAuth(model.RoleManager), h.Calendar.CreateEvent)
				events.DELETE("/:id", middleware.RoleAuth(model.RoleManager), h.Calendar.DeleteEvent)
			}
		}
	}

	return r
}
