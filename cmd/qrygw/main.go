// Command qrygw runs the query-translation gateway: it loads its
// ClickHouse/server/cache configuration, dials the log and trace backends,
// warms the series index, and serves the Loki- and Tempo-compatible HTTP
// surfaces on one listener.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/caibirdme/qrygw/pkg/chstore"
	"github.com/caibirdme/qrygw/pkg/gwconfig"
	"github.com/caibirdme/qrygw/pkg/lokiapi"
	"github.com/caibirdme/qrygw/pkg/querycache"
	"github.com/caibirdme/qrygw/pkg/seriesstore"
	"github.com/caibirdme/qrygw/pkg/tempoapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := gwconfig.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Server.Log)
	level.Info(logger).Log("msg", "starting", "listen_addr", cfg.Server.ListenAddr)

	logConn, err := chstore.Dial(chstore.ConnConfig{
		Addr:     cfg.LogSource.Clickhouse.Addr,
		Database: cfg.LogSource.Clickhouse.Database,
		Username: cfg.LogSource.Clickhouse.Username,
		Password: cfg.LogSource.Clickhouse.Password,
	})
	if err != nil {
		return fmt.Errorf("dial log source: %w", err)
	}
	traceConn, err := chstore.Dial(chstore.ConnConfig{
		Addr:     cfg.TraceSource.Clickhouse.Addr,
		Database: cfg.TraceSource.Clickhouse.Database,
		Username: cfg.TraceSource.Clickhouse.Username,
		Password: cfg.TraceSource.Clickhouse.Password,
	})
	if err != nil {
		return fmt.Errorf("dial trace source: %w", err)
	}

	series := seriesstore.New(seriesstore.Options{
		MaxStreams:       200_000,
		CleanupThreshold: 150_000,
	})
	if err := prometheus.DefaultRegisterer.Register(series); err != nil {
		level.Warn(logger).Log("msg", "series store metric registration failed", "err", err)
	}

	logQuerier := chstore.NewLogQuerier(logConn, chstore.LogQuerierConfig{
		Database:                 cfg.LogSource.Clickhouse.Database,
		Table:                    cfg.LogSource.Clickhouse.Table,
		ReplaceDashToDot:         cfg.LogSource.Clickhouse.ReplaceDashToDot,
		LevelCaseInsensitive:     true,
		DefaultLevel:             defaultLevel(cfg.LogSource.Clickhouse.DefaultLogLevel),
		ConcernedResourceLabels:  cfg.LogSource.Clickhouse.Label.Resources,
		ConcernedAttributeLabels: cfg.LogSource.Clickhouse.Label.Attributes,
	}, series, log.With(logger, "component", "log_querier"))

	traceQuerier := chstore.NewTraceQuerier(traceConn, chstore.TraceQuerierConfig{
		Database:    cfg.TraceSource.Clickhouse.Database,
		Table:       cfg.TraceSource.Clickhouse.Table,
		TraceTSName: cfg.TraceSource.Clickhouse.TraceTSTable,
	}, log.With(logger, "component", "trace_querier"))

	cache := querycache.New(querycache.Options{
		MaxCapacityBytes: cfg.Cache.MaxCapacityBytes,
		TimeToLive:       cfg.Cache.TimeToLive,
		TimeToIdle:       cfg.Cache.TimeToIdle,
		ExtendDuration:   cfg.Cache.ExtendDuration,
	})

	refresher := &querycache.Refresher{
		Cache:    cache,
		Store:    series,
		Fetch:    logQuerier.FetchSeriesSince,
		Interval: cfg.Cache.RefreshInterval,
		Logger:   log.With(logger, "component", "refresher"),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	refresher.WarmStartup(ctx)
	go refresher.Run(ctx)

	lokiAPI := lokiapi.NewAPI(logQuerier, cache)
	tempoAPI := tempoapi.NewAPI(traceQuerier, cache)

	root := mux.NewRouter()
	lokiAPI.RegisterRoutes(root, cfg.Server.Timeout)
	tempoAPI.RegisterRoutes(root, cfg.Server.Timeout)

	handler := lokiapi.Gzip(lokiapi.GunzipRequest(root))
	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		level.Info(logger).Log("msg", "shutting down")
		grace := cfg.Server.Timeout
		if grace <= 0 {
			grace = 10 * time.Second
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), grace)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}
}

// newLogger builds a go-kit logfmt logger writing to stdout/stderr (or a
// file path) and filtered at the configured level, mirroring the teacher's
// log.NewLogfmtLogger + level.NewFilter wiring.
func newLogger(cfg gwconfig.Log) log.Logger {
	var w *os.File
	switch strings.ToLower(cfg.File) {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			w = os.Stdout
			break
		}
		w = f
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, levelOption(cfg.Level))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger
}

func levelOption(raw string) level.Option {
	switch strings.ToLower(raw) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func defaultLevel(raw string) chstore.LogLevel {
	if lvl, ok := chstore.ParseLevel(raw); ok {
		return lvl
	}
	return chstore.LevelInfo
}
