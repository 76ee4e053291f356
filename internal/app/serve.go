package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver"
	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmark-checker/internal/index"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/metrics"
	"github.com/MrSnakeDoc/bookmark-checker/internal/redis"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
	"github.com/MrSnakeDoc/bookmark-checker/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/bookmark-checker/internal/store/redis"
	"github.com/MrSnakeDoc/bookmark-checker/internal/utils"
	"github.com/MrSnakeDoc/bookmark-checker/internal/version"
)

// Serve runs scheduled scans and the HTTP API until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Info("starting bookmark-checker server",
		logger.String("version", version.Version),
		logger.String("commit", version.Commit),
		logger.String("addr", a.cfg.ListenPort))

	idx := index.NewReportIndex()
	d := deps.Deps{
		Logger:       a.logger,
		StartTime:    a.now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      a.now,
		AllowedHosts: a.cfg.AllowedHosts,
		AllowedCIDRS: a.cfg.AllowedCIDRS,
		TrustProxy:   a.cfg.TrustProxy,
		Index:        idx,
		ReportFile:   a.cfg.ReportFile,
		Profile:      a.cfg.Profile,
	}

	var redisClient *goredis.Client
	if a.cfg.RedisAddr != "" {
		client, err := redis.New(ctx, a.redisOptions(), a.logger)
		if err != nil {
			a.logger.Warn("report history disabled", logger.Error(err))
		} else {
			redisClient = client
			store := redisstore.NewStore(client, a.cfg.ReportHistory)
			a.history = store
			d.History = store
			d.RedisPing = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			a.seedFromHistory(ctx, store, idx)
		}
	}
	a.seedFromFile(idx)

	sched := scheduler.NewScanScheduler(scheduler.ScanFunc(a.scheduledScan), idx, a.logger, a.cfg.ScanInterval)
	d.Scanner = sched

	server := httpserver.New(a.cfg.ListenPort, d)

	sched.Start(ctx)
	a.logger.Info("scan scheduler started", logger.Duration("interval", a.cfg.ScanInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("failed to stop server: %w", err))
	}
	sched.Stop()

	if redisClient != nil {
		utils.CloseLogged(redisClient, a.logger, "redis")
	}

	if runErr == nil {
		a.logger.Info("bookmark-checker stopped cleanly")
	}
	return runErr
}

func (a *App) scheduledScan(ctx context.Context) (*report.FailureReport, int, error) {
	s, err := a.Scan(ctx, ScanOptions{})
	if err != nil {
		return nil, s.Checked, err
	}
	if s.Report == nil {
		// Nothing to check still counts as a clean result.
		s.Report = report.New(a.now())
	}
	return s.Report, s.Checked, nil
}

func (a *App) seedFromHistory(ctx context.Context, store *redisstore.Store, idx *index.ReportIndex) {
	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r, err := store.LatestReport(loadCtx)
	if err != nil {
		if !errors.Is(err, redisstore.ErrNoReport) {
			a.logger.Warn("failed to load latest report from redis", logger.Error(err))
		}
		return
	}
	idx.Seed(r)
	metrics.SetLastScan(r.Counts())
	a.logger.Info("latest report loaded from redis", logger.Int("failing", r.Total()))
}

func (a *App) seedFromFile(idx *index.ReportIndex) {
	r, err := report.Read(a.cfg.ReportFile)
	if err != nil {
		a.logger.Debug("no previous report file", logger.Error(err))
		return
	}
	idx.Seed(r)
}

func (a *App) redisOptions() redis.ConnectOptions {
	return redis.ConnectOptions{
		Addr:           a.cfg.RedisAddr,
		User:           a.cfg.RedisUser,
		Password:       a.cfg.RedisPassword,
		RedisDB:        a.cfg.RedisDB,
		DialTimeout:    a.cfg.RedisDT,
		ReadTimeout:    a.cfg.RedisRT,
		WriteTimeout:   a.cfg.RedisWT,
		PoolSize:       a.cfg.RedisPoolSize,
		ConnectTimeout: a.cfg.RedisConnectTimeout,
		RetryInterval:  a.cfg.RedisRetryInterval,
		MaxWait:        a.cfg.RedisMaxWait,
		PingTimeout:    a.cfg.RedisPingTimeout,
		WarnThreshold:  a.cfg.RedisWarnThreshold,
	}
}
