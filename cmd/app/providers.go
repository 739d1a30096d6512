package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	"github.com/yanqian/aqi-predictor/internal/infra/config"
	"github.com/yanqian/aqi-predictor/internal/infra/formsession"
	"github.com/yanqian/aqi-predictor/internal/infra/historyrepo"
	"github.com/yanqian/aqi-predictor/internal/infra/locationstore"
	"github.com/yanqian/aqi-predictor/internal/infra/predictor/mock"
	"github.com/yanqian/aqi-predictor/internal/infra/predictor/remote"
	"github.com/yanqian/aqi-predictor/pkg/metrics"
)

const (
	predictorMock   = "mock"
	predictorRemote = "remote"
)

func provideFormConfig(cfg *config.Config) (airquality.FormConfig, error) {
	policy, err := airquality.ParseEditPolicy(cfg.Forms.EditPolicy)
	if err != nil {
		return airquality.FormConfig{}, err
	}
	return airquality.FormConfig{EditPolicy: policy}, nil
}

func provideServiceConfig(cfg *config.Config) airquality.ServiceConfig {
	return airquality.ServiceConfig{
		PredictorName: predictorName(cfg),
		RecentLimit:   cfg.History.RecentLimit,
	}
}

func provideSessionConfig(cfg *config.Config) formsession.Config {
	return formsession.Config{
		IdleTTL:     cfg.Forms.IdleTTL,
		MaxSessions: cfg.Forms.MaxSessions,
	}
}

func provideCounters() *metrics.PredictionCounters {
	return &metrics.PredictionCounters{}
}

func predictorName(cfg *config.Config) string {
	if strings.TrimSpace(cfg.Prediction.BackendURL) != "" {
		return predictorRemote
	}
	return predictorMock
}

// providePredictor picks the remote model when a backend URL is configured and
// wraps it so every outcome is counted and successes are recorded.
func providePredictor(cfg *config.Config, history airquality.HistoryRepository, stats airquality.LocationStats, counters *metrics.PredictionCounters, logger *slog.Logger) airquality.Predictor {
	var base airquality.Predictor
	switch predictorName(cfg) {
	case predictorRemote:
		p := cfg.Prediction
		logger.Info("remote predictor enabled", "backend_url", p.BackendURL, "rps", p.BackendRPS)
		base = remote.NewClient(p.BackendURL, p.BackendTimeout, p.BackendRPS, p.BackendBurst)
	default:
		logger.Info("mock predictor enabled", "latency_ms", cfg.Prediction.Latency.Milliseconds())
		base = mock.NewPredictor(cfg.Prediction.Latency)
	}
	return airquality.NewRecordingPredictor(base, history, stats, counters, logger)
}

func provideSessionRegistry(cfg formsession.Config, formCfg airquality.FormConfig, predictor airquality.Predictor, logger *slog.Logger) *formsession.Registry {
	return formsession.NewRegistry(cfg, formCfg, predictor, logger)
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) airquality.HistoryRepository {
	fallback := historyrepo.NewMemoryRepository(cfg.History.MemoryCapacity)
	dsn := strings.TrimSpace(cfg.Storage.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Storage.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Storage.Postgres.MaxConns
	}
	if cfg.Storage.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Storage.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := historyrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("history schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("history postgres repository enabled")
	return repo
}

func provideLocationStats(cfg *config.Config, logger *slog.Logger) airquality.LocationStats {
	if cfg.Storage.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return locationstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return locationstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
		} else {
			logger.Info("location valkey store enabled", "addr", cfg.Storage.Redis.Addr)
			return locationstore.NewValkeyStore(client, cfg.Storage.Redis.Prefix)
		}
	}
	return locationstore.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Storage.Redis.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Storage.Redis.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Storage.Redis.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
