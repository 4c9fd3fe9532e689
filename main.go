package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"antarctic-explorer/internal/auth"
	"antarctic-explorer/internal/config"
	"antarctic-explorer/internal/feed/application"
	feed "antarctic-explorer/internal/feed/domain"
	"antarctic-explorer/internal/feed/infrastructure/postgres"
	"antarctic-explorer/internal/feed/infrastructure/random"
	feedhttp "antarctic-explorer/internal/feed/interfaces/http"
	"antarctic-explorer/internal/observability/logging"
	"antarctic-explorer/internal/observability/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.WithLevel(cfg.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode logs err and flushes the logger before the process exits.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("dashboard stopped", zap.Error(err), zap.Bool("invalid_config", errors.Is(err, feed.ErrInvalidConfig)))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, db, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	metrics.Init(db, logger)

	broker := feedhttp.NewSSEBroker(logger.Named("stream"))
	dashboardFeed, err := application.NewFeed(application.Config{
		Interval:        cfg.Feed.Interval,
		Capacity:        cfg.Feed.Capacity,
		GenerateTimeout: cfg.Feed.GenerateTimeout,
		Eager:           cfg.Feed.Eager,
	}, source,
		application.WithLogger(logger.Named("feed")),
		application.WithNotifier(broker),
	)
	if err != nil {
		return err
	}

	var authMiddleware *auth.Middleware
	if cfg.Auth.JWTSecret != "" {
		authMiddleware = auth.NewMiddleware([]byte(cfg.Auth.JWTSecret), auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil))
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: feedhttp.NewRouter(feedhttp.RouterConfig{
			Feed:   dashboardFeed,
			Broker: broker,
			Text: feedhttp.PageText{
				Title:     cfg.Page.Title,
				Heading:   cfg.Page.Heading,
				Blurb:     cfg.Page.Blurb,
				SourceURL: cfg.Page.SourceURL,
			},
			Auth:   authMiddleware,
			Logger: logger.Named("http"),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	feedDone := make(chan error, 1)
	go func() { feedDone <- dashboardFeed.Run(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.Bool("auth", authMiddleware != nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		stop()
		<-feedDone
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return <-feedDone
}

func buildSource(cfg config.Config, logger *zap.Logger) (feed.Source, *sql.DB, error) {
	loc, err := cfg.Source.TimeLocation()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Source.Kind {
	case config.SourcePostgres:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			// The source reports unavailability per tick; keep serving.
			logger.Warn("database unreachable at startup", zap.Error(err))
		}
		source, err := postgres.NewLatestReadingSource(db, cfg.Source.StationID, cfg.Source.PointKey,
			postgres.WithQueryTimeout(cfg.Source.QueryTimeout),
			postgres.WithLocation(loc),
		)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("sample source", zap.String("kind", cfg.Source.Kind),
			zap.String("station_id", cfg.Source.StationID), zap.String("point_key", cfg.Source.PointKey))
		return source, db, nil
	default:
		opts := []random.Option{random.WithClock(locationClock{loc: loc})}
		if cfg.Source.Seed != 0 {
			opts = append(opts, random.WithSeed(cfg.Source.Seed))
		}
		source, err := random.NewUniformSource(cfg.Source.Min, cfg.Source.Max, cfg.Source.Precision, opts...)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sample source", zap.String("kind", config.SourceRandom),
			zap.Float64("min", cfg.Source.Min), zap.Float64("max", cfg.Source.Max), zap.Int("precision", cfg.Source.Precision))
		return source, nil, nil
	}
}

// ---- Adapters ----

type locationClock struct {
	loc *time.Location
}

func (c locationClock) Now() time.Time { return time.Now().In(c.loc) }
