package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/atdgo/backend/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Profile   *apiHandler.ProfileHandler
	Bundle    *apiHandler.BundleHandler
	Task      *apiHandler.TaskHandler
	Integrity *apiHandler.IntegrityHandler
	Health    *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/restore", handlers.Auth.Restore)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))
	r.POST("/api/v1/auth/password-reset", handlers.Auth.PasswordReset)
	r.POST("/api/v1/auth/password-reset/confirm", handlers.Auth.PasswordResetConfirm)

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))
	r.GET("/api/v1/profile/history", authMiddleware(handlers.Profile.History))
	r.POST("/api/v1/profile/restore", authMiddleware(handlers.Profile.RestoreProfile))

	r.GET("/api/v1/bundle", authMiddleware(handlers.Bundle.Get))
	r.PUT("/api/v1/bundle", authMiddleware(handlers.Bundle.Put))
	r.GET("/api/v1/bundle/backups", authMiddleware(handlers.Bundle.Backups))
	r.POST("/api/v1/bundle/restore-backup", authMiddleware(handlers.Bundle.RestoreBackup))
	r.GET("/api/v1/bundle/export", authMiddleware(handlers.Bundle.Export))
	r.POST("/api/v1/bundle/import", authMiddleware(handlers.Bundle.Import))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	r.GET("/api/v1/integrity/scan", authMiddleware(handlers.Integrity.Scan))
	r.POST("/api/v1/integrity/repair", authMiddleware(handlers.Integrity.Repair))

	return r
}
