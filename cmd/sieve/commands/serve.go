package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmaslov/factorsieve/internal/api"
	"github.com/dmaslov/factorsieve/internal/api/handlers"
	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/store"
	"github.com/dmaslov/factorsieve/pkg/database"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves saved rankings, the screening audit trail, an on-demand run
endpoint and a websocket stream of fresh shortlists.

Endpoints:
  GET  /health
  GET  /api/v1/rankings/{sector}
  GET  /api/v1/screenings/{sector}?date=YYYY-MM-DD
  POST /api/v1/run/{sector}
  GET  /api/v1/stream (websocket)

Example:
  sieve serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	provider, cleanup, err := a.buildProvider("yahoo")
	if err != nil {
		return err
	}
	defer cleanup()

	runner := pipeline.NewRunner(a.strategy, provider, a.log)

	// Persistence is optional: without DATABASE_URL the API still
	// serves live runs, just nothing saved.
	var repo handlers.RunStore
	if a.cfg.Database.URL != "" {
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		repo = store.NewRepository(db.Pool)
	} else {
		a.log.Warn("DATABASE_URL not set, running without persistence")
	}

	hub := api.NewHub(a.log)
	handler := handlers.NewRankingHandler(runner, repo, hub, a.hash, a.log)
	router := api.NewRouter(handler, hub, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
