package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
	"tinygo.org/x/bluetooth"

	"github.com/lowaak/interval-split/internal/api"
	"github.com/lowaak/interval-split/internal/config"
	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/go_func_utils"
	"github.com/lowaak/interval-split/internal/history"
	"github.com/lowaak/interval-split/internal/interval"
	"github.com/lowaak/interval-split/internal/metrics"
	"github.com/lowaak/interval-split/internal/storage"
	"github.com/lowaak/interval-split/internal/treadmill"
	"github.com/lowaak/interval-split/internal/ui"
)

const (
	uiLogBufferSize     = 256
	httpShutdownTimeout = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "interval-split: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	logFile := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	defer logFile.Close()

	// The terminal belongs to tview while the UI runs, so log lines go to
	// the log panel instead of stderr.
	uiLogChan := make(chan string, uiLogBufferSize)
	var logOut io.Writer = io.MultiWriter(logFile, os.Stderr)
	if cfg.UI.Enabled {
		logOut = io.MultiWriter(logFile, newChanWriter(uiLogChan))
	}
	logger := log.New(logOut, "", log.LstdFlags)
	logger.Printf("Main: Starting with data dir %s (%s storage)", cfg.DataDir, cfg.Storage.Backend)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Backend, cfg.DataDir, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("Main: Error closing store: %v", err)
		}
	}()

	plan, err := loadPlan(cfg, store)
	if err != nil {
		return err
	}
	logger.Printf("Main: Plan has %d rounds, %s", len(plan.Rounds), interval.FormatDuration(plan.TotalSeconds()))

	sink := history.NewAsyncSink(store, logger, 0)
	eng := engine.NewEngine(plan, sink, engine.SystemClock(), logger)
	runner := engine.NewRunner(eng, cfg.Timer.TickInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(registry)
		runner.ListenToEvents(m.ObserveEvent)
		sink.ListenToFailures(m.RecordSubmitFailure)

		snapshots := make(chan engine.Snapshot, 1)
		unregister := runner.ListenToSnapshots(snapshots)
		g.Go(func() error {
			defer unregister()
			for {
				select {
				case <-gctx.Done():
					return nil
				case snap := <-snapshots:
					m.ObserveSnapshot(snap)
				}
			}
		})
	}

	tm := startTreadmill(gctx, cfg.Treadmill, logger)
	if tm != nil {
		runner.ListenToEvents(tm.HandleEvent)
	}

	if cfg.HTTP.Address != "" {
		handler := api.NewHandler(runner, store, store, loc, logger)
		routerCfg := api.RouterConfig{}
		if m != nil {
			routerCfg.MetricsHandler = m.Handler()
			routerCfg.Requests = m
		}
		srv := &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           api.NewRouter(handler, logger, routerCfg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			return go_func_utils.Recover(logger, "HTTPServer", func() error {
				logger.Printf("Main: HTTP API listening on %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var shutdownUI func()
	if cfg.UI.Enabled {
		var tmSource ui.TreadmillSource
		if tm != nil {
			tmSource = tm
		}
		model := ui.NewUIModel(runner, tmSource, logger, uiLogChan)
		controller := ui.NewUIController(model, runner, store, loc, logger)
		app := tview.NewApplication()
		base := ui.NewBaseUIView(ui.NewBaseUIViewArg{
			UIViewImpl:   ui.NewCursesUIView(logger, app),
			UIModel:      model,
			UIController: controller,
			Logger:       logger,
		})
		shutdownUI = func() {
			base.Shutdown()
			model.Shutdown()
		}

		g.Go(func() error {
			return go_func_utils.Recover(logger, "UI", func() error {
				// leaving the UI ends the program
				defer stop()
				return base.Run()
			})
		})
		g.Go(func() error {
			<-gctx.Done()
			app.Stop()
			return nil
		})
	} else {
		logger.Printf("Main: Running headless, stop with Ctrl-C")
	}

	err = g.Wait()
	logger.Printf("Main: Shutting down")

	if shutdownUI != nil {
		shutdownUI()
	}
	runner.Shutdown()
	if tm != nil {
		tm.Shutdown()
	}
	sink.Shutdown()
	return err
}

// loadPlan prefers an explicit plan file over the stored plan
func loadPlan(cfg config.Config, store storage.PlanStore) (interval.Plan, error) {
	if cfg.PlanFile != "" {
		plan, err := interval.LoadPlanFile(cfg.PlanFile)
		if err != nil {
			return interval.Plan{}, err
		}
		if err := plan.Validate(); err != nil {
			return interval.Plan{}, fmt.Errorf("plan file %s: %w", cfg.PlanFile, err)
		}
		return plan, nil
	}
	return storage.LoadPlanOrDefault(store)
}

// startTreadmill connects the configured treadmill. A failed connection is
// logged and the timer runs without one.
func startTreadmill(ctx context.Context, cfg config.TreadmillConfig, logger *log.Logger) *treadmill.Controller {
	if !cfg.Enabled {
		return nil
	}

	var device treadmill.Device
	if cfg.Address == treadmill.MockAddress {
		device = treadmill.NewMockDevice(logger)
	} else {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		var err error
		device, err = treadmill.Connect(connectCtx, bluetooth.DefaultAdapter, cfg.Address, logger)
		if err != nil {
			logger.Printf("Main: Treadmill unavailable: %v", err)
			return nil
		}
	}

	controller := treadmill.NewController(device, logger, 0)
	if err := controller.EnableResponses(); err != nil {
		logger.Printf("Main: Treadmill responses unavailable: %v", err)
	}
	return controller
}
