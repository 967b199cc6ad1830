package main

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/handlers"
	"github.com/yukikurage/kanban-board-api/internal/middleware"
)

// newSessionStore builds the session store named by cfg.SessionStore.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	case "redis", "":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		s, err := redisStore.NewStore(
			10,                        // Redis pool size
			"tcp",                     // network type
			redisAddr,                 // Redis address from config
			"",                        // password (empty = no password)
			[]byte(cfg.SessionSecret), // authentication key
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}

	// Configure session options based on environment
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

func newRouter(a *app, store sessions.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(a.auth)
	containerHandler := handlers.NewContainerHandler(a.containers, a.ordering)
	taskHandler := handlers.NewTaskHandler(a.tasks)
	orderingHandler := handlers.NewOrderingHandler(a.ordering)
	timeHandler := handlers.NewTimeTrackingHandler(a.time)
	boardHandler := handlers.NewBoardHandler(a.board)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Kanban Board API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Container routes (protected)
		containers := api.Group("/containers")
		containers.Use(middleware.RequireAuth())
		{
			containerID := middleware.RequireIDParam("container")
			containers.GET("", containerHandler.ListContainers)
			containers.POST("", containerHandler.CreateContainer)
			containers.PATCH("/:id", containerID, containerHandler.UpdateContainer)
			containers.DELETE("/:id", containerID, containerHandler.DeleteContainer)
			containers.POST("/:id/reorder", containerID, containerHandler.ReorderContainer)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			taskID := middleware.RequireIDParam("task")
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.POST("/reorder", orderingHandler.BulkReorder)
			tasks.GET("/:id", taskID, taskHandler.GetTask)
			tasks.PATCH("/:id", taskID, taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskID, taskHandler.DeleteTask)
			tasks.POST("/:id/move", taskID, orderingHandler.MoveTask)
			tasks.POST("/:id/time/start", taskID, timeHandler.StartTracking)
			tasks.POST("/:id/time/stop", taskID, timeHandler.StopTracking)
			tasks.GET("/:id/time/status", taskID, timeHandler.GetStatus)
			tasks.GET("/:id/time/history", taskID, timeHandler.GetHistory)
		}

		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.GET("/time/active", timeHandler.ListActive)
			protected.GET("/dashboard", timeHandler.GetDashboard)
			protected.GET("/board", boardHandler.GetBoard)
		}
	}

	return r
}
