package app

import (
	"time"

	"recruit_backend/docs"
	"recruit_backend/internal/config"
	"recruit_backend/internal/middleware"
	"recruit_backend/internal/util"
	"recruit_backend/pkg/monitoring"
	"recruit_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	router.GET("/api/health", c.health.HealthCheck)

	// 1. 候选人作答(无需登录)
	a.registerCandidateRoutes(router, c, cfg)

	// 2. 招聘方接口
	recruiter := router.Group("/api")
	recruiter.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(util.RoleRecruiter))
	{
		a.registerJobRoutes(recruiter, c)
		a.registerApplicationRoutes(recruiter, c)
	}
}

func (a *App) registerCandidateRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api/public")
	{
		public.POST("/assessments/:token/start", c.attempt.Start)

		window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
		if window <= 0 {
			window = time.Minute
		}

		// 按访问令牌限流，同一出口 IP 后的多个候选人互不影响
		attempt := public.Group("/applications/:id")
		attempt.Use(
			middleware.AttemptTokenMiddleware(),
			security.RateLimiterBy(cfg.RateLimit.MaxRequests, window, security.HeaderKey(util.AttemptTokenHeader)),
		)
		{
			attempt.PUT("/answers/:questionId", c.attempt.SubmitAnswer)
			attempt.POST("/proctoring", c.attempt.RecordProctoring)
			attempt.POST("/submit", c.attempt.Submit)
		}
	}
}

func (a *App) registerJobRoutes(group *gin.RouterGroup, c *controllers) {
	jobs := group.Group("/jobs")
	{
		jobs.POST("", c.job.Create)
		jobs.GET("", c.job.List)
		jobs.GET("/:id", c.job.Get)
		jobs.PUT("/:id", c.job.Update)
		jobs.PUT("/:id/criteria", c.job.UpdateCriteria)
		jobs.POST("/:id/close", c.job.Close)

		// 测评
		jobs.POST("/:id/assessment", c.assessment.Create)
		jobs.GET("/:id/assessment", c.assessment.GetByJob)

		// 候选人与排名
		jobs.POST("/:id/invitations", c.application.Invite)
		jobs.GET("/:id/applications", c.application.ListByJob)
		jobs.GET("/:id/leaderboard", c.application.Leaderboard)
		jobs.POST("/:id/leaderboard/rebuild", c.application.Rerank)
		jobs.GET("/:id/leaderboard/export", c.application.ExportLeaderboard)
		jobs.POST("/:id/reevaluate", c.application.ReevaluatePending)
	}

	assessments := group.Group("/assessments")
	{
		assessments.GET("/:id", c.assessment.Get)
		assessments.PATCH("/:id", c.assessment.Update)
	}
}

func (a *App) registerApplicationRoutes(group *gin.RouterGroup, c *controllers) {
	apps := group.Group("/applications")
	{
		apps.GET("/:id", c.application.Get)
		apps.GET("/:id/report", c.application.Report)
		apps.PUT("/:id/status", c.application.Override)
		apps.POST("/:id/reevaluate", c.application.Reevaluate)
	}
}
