package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/fastprodman/crystalpay/internal/api"
	"github.com/fastprodman/crystalpay/internal/infra/logging"
	"github.com/fastprodman/crystalpay/internal/infra/pgutils"
	"github.com/fastprodman/crystalpay/internal/infra/shutdown"
	"github.com/fastprodman/crystalpay/internal/rules"
	"github.com/fastprodman/crystalpay/internal/services/bankroll"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg, err := readConfig()
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	queue := shutdown.New()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := queue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	catalog, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	slog.Info("rules loaded",
		"path", cfg.RulesPath,
		"version", catalog.Version,
		"abilities", len(catalog.Abilities()),
		"max_crystals", catalog.MaxCrystals,
	)

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	queue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	svc := bankroll.New(db, catalog)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, svc)

	queue.Add("http server", srv.Shutdown)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("API started", "addr", srv.Addr)

		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	})

	// Drains the queue once a signal arrives or the server fails, which
	// unblocks ListenAndServe. The deferred drain above is then a no-op.
	g.Go(func() error {
		<-gctx.Done()

		slog.Info("API stopping")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return queue.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
