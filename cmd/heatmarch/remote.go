package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/config"
	"github.com/san-kum/heatmarch/internal/experiment"
	"github.com/san-kum/heatmarch/internal/serve"
)

func serveRuns(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if cmd.Flags().Changed("redis-addr") {
		cfg.Checkpoint.Redis.Addr = redisAddr
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	logger, closeLog, err := newLogger(cfg.LogLevel, false)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog := checkpoint.NewCatalog(dataDir)
	if err := catalog.Init(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry := experiment.NewRegistry()
	opener := func(m *checkpoint.Manifest, dir *checkpoint.FileStore) (checkpoint.Store, error) {
		c := cfg.Clone()
		c.Checkpoint.Store = m.Store
		return registry.OpenStore(c, m.ID, dir)
	}

	srv := &http.Server{
		Addr: addr,
		Handler: serve.NewHandler(catalog,
			serve.WithGatherer(reg),
			serve.WithStoreOpener(opener),
			serve.WithLogger(logger),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving runs", "addr", addr, "data", dataDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func fetchRun(cmd *cobra.Command, args []string) error {
	url, id := args[0], args[1]
	logger, closeLog, err := newLogger(logLevel, false)
	if err != nil {
		return err
	}
	defer closeLog()

	catalog := checkpoint.NewCatalog(dataDir)
	if err := catalog.Init(); err != nil {
		return err
	}
	dst, err := catalog.Adopt(id)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := serve.NewClient(url, serve.WithClientLogger(logger))
	m, err := client.Fetch(ctx, id, dst)
	if err != nil {
		return err
	}
	fmt.Printf("fetched %s: %d checkpoints into %s\n", m.ID, len(m.Checkpoints), dst.Dir)
	return nil
}
