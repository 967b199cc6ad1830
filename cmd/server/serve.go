package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/kanban-board-api/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, a, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}

	jobs := scheduler.New(time.Minute)
	if _, err := jobs.ScheduleRenormalization(cfg.RenormalizeSchedule, a.ordering); err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: newRouter(a, store),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
