package server

import (
	"log"
	"net/http"

	"github.com/fredserel/Sistema-kanban/internal/config"
	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/handlers"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/notify"
	"github.com/fredserel/Sistema-kanban/internal/settings"
	"github.com/fredserel/Sistema-kanban/internal/workflow"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("kanban_session", store))

	appSettings := settings.New(database.DB)
	if err := appSettings.Load(); err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	mailer := notify.NewMailer(appSettings)
	engine := workflow.New(database.DB, mailer)
	handlers.Configure(engine, appSettings)

	api := r.Group("/api")

	api.POST("/auth/register", handlers.Register)
	api.POST("/auth/login", handlers.Login)

	auth := api.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.POST("/auth/logout", handlers.Logout)
	auth.GET("/auth/me", handlers.Me)

	// projects
	auth.GET("/projects", handlers.ListProjects)
	auth.POST("/projects", middleware.RequirePermission("projects.create"), handlers.CreateProject)
	auth.GET("/projects/trash", middleware.RequirePermission("projects.delete"), handlers.ListTrash)
	auth.GET("/projects/:id", handlers.GetProject)
	auth.PUT("/projects/:id", handlers.UpdateProject)
	auth.DELETE("/projects/:id", middleware.RequirePermission("projects.delete"), handlers.DeleteProject)
	auth.POST("/projects/:id/restore", middleware.RequirePermission("projects.delete"), handlers.RestoreProject)
	auth.DELETE("/projects/:id/purge", middleware.RequirePermission("projects.delete"), handlers.PurgeProject)
	auth.POST("/projects/:id/move", handlers.MoveProject)

	// stage ledger
	auth.GET("/projects/:id/stages", handlers.ListProjectStages)
	auth.PUT("/stages/:id", handlers.UpdateStage)
	auth.POST("/stages/:id/complete", handlers.CompleteStage)
	auth.POST("/stages/:id/block", handlers.BlockStage)
	auth.POST("/stages/:id/unblock", handlers.UnblockStage)

	// team and comments
	auth.POST("/projects/:id/members", handlers.AddMember)
	auth.DELETE("/projects/:id/members/:userId", handlers.RemoveMember)
	auth.GET("/projects/:id/comments", handlers.ListComments)
	auth.POST("/projects/:id/comments", handlers.AddComment)

	// administration
	auth.GET("/users", middleware.RequirePermission("users.read"), handlers.ListUsers)
	auth.POST("/users", middleware.RequirePermission("users.create"), handlers.CreateUser)
	auth.GET("/users/:id", middleware.RequirePermission("users.read"), handlers.GetUser)
	auth.PUT("/users/:id", middleware.RequirePermission("users.update"), handlers.UpdateUser)
	auth.DELETE("/users/:id", middleware.RequirePermission("users.delete"), handlers.DeleteUser)
	auth.PUT("/users/:id/roles", middleware.RequirePermission("users.update"), handlers.AssignRoles)

	auth.GET("/roles", middleware.RequirePermission("roles.read"), handlers.ListRoles)
	auth.POST("/roles", middleware.RequirePermission("roles.create"), handlers.CreateRole)
	auth.GET("/roles/:id", middleware.RequirePermission("roles.read"), handlers.GetRole)
	auth.PUT("/roles/:id", middleware.RequirePermission("roles.update"), handlers.UpdateRole)
	auth.DELETE("/roles/:id", middleware.RequirePermission("roles.delete"), handlers.DeleteRole)
	auth.GET("/permissions", middleware.RequirePermission("permissions.read"), handlers.ListPermissions)

	auth.GET("/settings", middleware.RequirePermission("settings.read"), handlers.ListSettings)
	auth.PUT("/settings", middleware.RequirePermission("settings.update"), handlers.UpdateSettings)

	auth.GET("/audit", middleware.RequirePermission("audit.read"), handlers.ListAuditLogs)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
