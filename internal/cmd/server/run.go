package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tisonkun/morax/internal/bookie"
	cfgpkg "github.com/tisonkun/morax/internal/config"
	"github.com/tisonkun/morax/internal/controller"
	httpserver "github.com/tisonkun/morax/internal/server/http"
	logpkg "github.com/tisonkun/morax/pkg/log"
)

// Run starts the configured roles and blocks until ctx is cancelled or a
// shutdown signal arrives.
func Run(ctx context.Context, cfg cfgpkg.Config) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = cfgpkg.DefaultDataDir()
	}

	logger, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	// Pebble and raft log through the stdlib logger.
	logpkg.RedirectStdLog(logger)

	logger.Info("starting morax node",
		logpkg.Str("data_dir", cfg.DataDir),
		logpkg.Str("http", cfg.HTTPAddr),
		logpkg.Bool("controller", cfg.Controller.Enabled),
		logpkg.Bool("bookie", cfg.Bookie.Enabled),
	)

	var ctrl *controller.Controller
	if cfg.Controller.Enabled {
		ctrl, err = controller.Open(controller.Options{
			NodeID:       cfg.Controller.NodeID,
			BindAddr:     cfg.Controller.BindAddr,
			DataDir:      filepath.Join(cfg.DataDir, "controller"),
			Bootstrap:    cfg.Controller.Bootstrap,
			Peers:        cfg.Controller.Peers,
			ApplyTimeout: time.Duration(cfg.Controller.ApplyTimeoutMs) * time.Millisecond,
			Logger:       logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := ctrl.Shutdown(); err != nil {
				logger.Error("controller shutdown", logpkg.Err(err))
			}
		}()
	}

	var bk *bookie.Bookie
	if cfg.Bookie.Enabled {
		bk, err = bookie.Open(bookie.Options{
			DataDir:         filepath.Join(cfg.DataDir, "bookie"),
			ReaderCacheSize: cfg.Bookie.ReaderCacheSize,
			Logger:          logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := bk.Close(); err != nil {
				logger.Error("bookie shutdown", logpkg.Err(err))
			}
		}()
	}

	srv := httpserver.New(ctrl, bk, logger)
	defer srv.Close()
	return srv.ListenAndServe(sctx, cfg.HTTPAddr)
}
