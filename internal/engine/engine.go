// Package engine wires config, VFS, Indexer, Cache, Store, and the three
// transport adapters (rpc, mcpserver, httpapi+sse) into one running
// process, replacing the teacher's internal/entry.go Run/Option pair
// with the same functional-options + errgroup shape pointed at the
// engine's own components instead of storage/index/api.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dendrite/dendrite/internal/cache"
	"github.com/dendrite/dendrite/internal/config"
	"github.com/dendrite/dendrite/internal/httpapi"
	"github.com/dendrite/dendrite/internal/identity"
	"github.com/dendrite/dendrite/internal/indexer"
	"github.com/dendrite/dendrite/internal/mcpserver"
	"github.com/dendrite/dendrite/internal/query"
	"github.com/dendrite/dendrite/internal/refactor"
	"github.com/dendrite/dendrite/internal/rpc"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/sse"
	"github.com/dendrite/dendrite/internal/store"
	"github.com/dendrite/dendrite/internal/vfs"
)

// Option configures a Run invocation.
type Option func(*application)

type application struct {
	config *config.Config
	stdin  *os.File
	stdout *os.File
}

// WithConfig sets the engine's configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) { a.config = cfg }
}

// WithStdio overrides the streams the rpc/mcpserver stdio transports
// read/write, for tests. Defaults to os.Stdin/os.Stdout.
func WithStdio(in, out *os.File) Option {
	return func(a *application) { a.stdin, a.stdout = in, out }
}

// Run starts the engine and blocks until ctx is cancelled or a fatal
// transport error occurs.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{stdin: os.Stdin, stdout: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("engine: config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	if len(cfg.Workspace.Vaults) == 0 {
		return fmt.Errorf("engine: at least one vault is required")
	}
	vaultRoot := cfg.Workspace.Vaults[0]
	if err := os.MkdirAll(vaultRoot, 0o755); err != nil {
		return fmt.Errorf("engine: create vault dir: %w", err)
	}

	m, err := semantic.ForName(cfg.Semantic.Model)
	if err != nil {
		return fmt.Errorf("engine: semantic model: %w", err)
	}

	physicalFS, err := vfs.NewPhysical(vaultRoot)
	if err != nil {
		return fmt.Errorf("engine: init vfs: %w", err)
	}
	var fs vfs.FileSystem = physicalFS

	reg := identity.NewRegistry()
	st := store.New()
	idx := indexer.New(fs, m, reg, st, logger)

	cachePath := cache.Path(vaultRoot)
	if cfg.Cache.Enabled {
		if snapshot, ok, loadErr := cache.Load(cachePath); loadErr != nil {
			logger.Warn("engine: cache load failed", slog.String("error", loadErr.Error()))
		} else if ok {
			cache.Restore(snapshot, st, reg, idx)
			logger.Info("engine: restored cache", slog.String("path", cachePath))
		}
	}

	stats, err := idx.FullScan(ctx)
	if err != nil {
		return fmt.Errorf("engine: initial scan: %w", err)
	}
	logger.Info("engine: initial scan complete",
		slog.Int("files", stats.TotalFiles), slog.Int("fullParses", stats.FullParses))

	var writer *cache.DebouncedWriter
	if cfg.Cache.Enabled {
		writer = cache.NewDebouncedWriter(cachePath, time.Duration(cfg.Cache.SaveInterval)*time.Second,
			func() *cache.PersistentState { return cache.Snapshot(m.ID(), st, reg, idx) })
	}

	planner := refactor.NewPlanner(st, reg, m, cfg.Transport.MutationHistoryLimit)
	api := query.New(m, st)

	broker := sse.NewBroker(2 * time.Second)
	onHierarchyChanged := func() {
		broker.PublishHierarchyChanged()
		if writer != nil {
			writer.Touch()
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return vfs.Watch(gCtx, physicalFS, m.SupportedExtensions(), logger, func(ev vfs.Event) {
			if err := idx.HandleEvent(ev); err != nil {
				logger.Warn("engine: watch event failed", slog.String("error", err.Error()))
				return
			}
			onHierarchyChanged()
		})
	})

	if cfg.Transport.HTTPEnabled {
		handler := httpapi.NewHandler(api, st, m)
		router := httpapi.NewRouter(handler, false, "", broker)
		httpServer := &http.Server{Addr: cfg.Transport.HTTPAddress, Handler: router}

		g.Go(func() error {
			logger.Info("engine: http listening", slog.String("address", cfg.Transport.HTTPAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("engine: http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	switch {
	case cfg.Transport.RPCEnabled:
		server := rpc.New(fs, m, reg, st, idx, planner, logger, onHierarchyChanged)
		g.Go(func() error {
			logger.Info("engine: rpc serving on stdio")
			return server.Serve(gCtx, app.stdin, app.stdout)
		})
	case cfg.Transport.MCPEnabled:
		mcp := mcpserver.New(api, st, m)
		g.Go(func() error {
			logger.Info("engine: mcp serving on stdio")
			return mcp.ServeStdio()
		})
	}

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info("engine: received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		return nil
	})

	runErr := g.Wait()
	broker.Close()
	if writer != nil {
		if err := writer.Flush(); err != nil {
			logger.Error("engine: final cache flush failed", slog.String("error", err.Error()))
		}
	}
	if runErr != nil {
		logger.Error("engine: stopped with error", slog.String("error", runErr.Error()))
		return runErr
	}
	logger.Info("engine: stopped")
	return nil
}
