package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/database"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/services"
	"gorm.io/gorm"
)

// app holds the services shared by the HTTP server and the CLI commands.
type app struct {
	auth       *services.AuthService
	containers *services.ContainerService
	tasks      *services.TaskService
	ordering   *services.OrderingService
	time       *services.TimeTrackingService
	board      *services.BoardService
}

func newApp(db *gorm.DB, cfg *config.Config) *app {
	taskRepo := repository.NewTaskRepository(db)
	containerRepo := repository.NewContainerRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize AI service
	var aiService *services.AIService
	switch {
	case cfg.OpenAIAPIKey != "" && cfg.OpenAIBaseURL != "":
		aiService = services.NewAIServiceWithBaseURL(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	case cfg.OpenAIAPIKey != "":
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	containers := services.NewContainerService(containerRepo, taskRepo)
	return &app{
		auth:       services.NewAuthService(userRepo),
		containers: containers,
		tasks:      services.NewTaskService(taskRepo, userRepo, sessionRepo, containers, aiService),
		ordering:   services.NewOrderingService(taskRepo, containers),
		time:       services.NewTimeTrackingService(taskRepo, sessionRepo),
		board:      services.NewBoardService(containerRepo, taskRepo),
	}
}

// bootstrap loads the configuration, connects, migrates and seeds.
func bootstrap(ctx context.Context) (*config.Config, *app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := database.Connect(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := newApp(database.GetDB(), cfg)
	if err := a.containers.SeedDefaults(ctx); err != nil {
		return nil, nil, err
	}
	log.Println("Default containers ready")

	return cfg, a, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, _, err := bootstrap(cmd.Context())
	return err
}

func runRenormalize(cmd *cobra.Command, args []string) error {
	_, a, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}

	n, err := a.ordering.RenormalizeAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renormalized %d containers\n", n)
	return nil
}
