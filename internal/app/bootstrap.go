package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"spendsense/internal/api"
	"spendsense/internal/classify"
	"spendsense/internal/feed"
	"spendsense/internal/infra"
	"spendsense/internal/metrics"
	"spendsense/internal/service"
	"spendsense/internal/storage"
)

// Services are the domain services the API and CLI share.
type Services struct {
	Records  *service.RecordService
	Bills    *service.BillService
	Budgets  *service.BudgetService
	Spending *service.SpendingService
	Flows    *service.FlowService
}

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config      *infra.Config
	Store       *storage.SQLStore
	Metrics     *metrics.Metrics
	Hub         *feed.Hub
	Categorizer *classify.Categorizer
	Services    Services

	closers []func()
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap(cfg *infra.Config) *Bootstrap {
	return &Bootstrap{Config: cfg}
}

// LoadConfig resolves, loads and validates the configuration, then installs
// the process logger.
func LoadConfig(path string) (*infra.Config, error) {
	if path == "" {
		path = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	SetLogger(cfg)
	return cfg, nil
}

// SetLogger installs the process logger for cfg.
func SetLogger(cfg *infra.Config) {
	slog.SetDefault(infra.NewLogger(cfg, os.Stderr))
}

// Initialize performs core system initialization: database, classifier,
// feed hub and services.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	slog.Info("🚀 Bootstrapping SpendSense...")

	if err := b.OpenStore(ctx); err != nil {
		return err
	}

	if err := b.InitClassifier(); err != nil {
		return err
	}

	b.Hub = feed.NewHub(b.Config.Feed.BufferSize, b.Metrics, b.Config.Server.AllowedOrigins)
	slog.Info("✅ Feed hub ready", slog.Int("buffer", b.Config.Feed.BufferSize))

	budgets := service.NewBudgetService(b.Store, b.Hub, b.Metrics)
	b.Services = Services{
		Records:  service.NewRecordService(b.Store, b.Categorizer, budgets, b.Hub, b.Metrics),
		Bills:    service.NewBillService(b.Store, b.Categorizer, b.Hub, b.Metrics),
		Budgets:  budgets,
		Spending: service.NewSpendingService(b.Store),
		Flows:    service.NewFlowService(b.Store),
	}
	return nil
}

// OpenStore connects the configured database and applies the schema.
func (b *Bootstrap) OpenStore(ctx context.Context) error {
	if b.Store != nil {
		return nil
	}
	cfg := b.Config

	var (
		store *storage.SQLStore
		err   error
	)
	switch cfg.Database.Driver {
	case "postgres":
		store, err = storage.OpenPostgres(ctx, cfg.PostgresDSN(), storage.PoolConfig{
			MinConns: cfg.Database.PoolMin,
			MaxConns: cfg.Database.PoolMax,
		})
	default:
		var path string
		path, err = infra.ResolveDataPath(cfg.Database.Path)
		if err != nil {
			return err
		}
		store, err = storage.OpenSQLite(path)
		if err == nil {
			slog.Info("✅ SQLite store opened (WAL-mode)", slog.String("path", path))
		}
	}
	if err != nil {
		return err
	}
	b.addCloser(func() {
		if err := store.Close(); err != nil {
			slog.Warn("Store close failed", slog.Any("error", err))
		}
	})

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	b.Store = store
	return nil
}

// InitClassifier builds the fallback chain: the remote zero-shot model when
// configured, rules always. Only remote answers are cached, so a fallback
// during an outage never outlives it.
func (b *Bootstrap) InitClassifier() error {
	if b.Metrics == nil {
		b.Metrics = metrics.NewMetrics()
	}
	cfg := b.Config.Classifier

	rules := classify.NewRuleClassifier()
	var chain classify.Classifier = rules
	if cfg.Provider == "zeroshot" {
		breakerCfg := infra.DefaultCircuitBreakerConfig("zeroshot")
		breakerCfg.OnStateChange = func(name string, from, to infra.State) {
			slog.Warn("🔌 Circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			b.Metrics.BreakerState(name, int(to))
		}
		b.Metrics.BreakerState(breakerCfg.Name, int(infra.StateClosed))

		var remote classify.Classifier = classify.NewZeroShotClient(classify.ZeroShotConfig{
			APIURL:      cfg.APIURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
			MaxAttempts: cfg.MaxAttempts,
			LoadingWait: time.Duration(cfg.LoadingWaitSec) * time.Second,
			RatePerSec:  cfg.RatePerSecond,
			Burst:       cfg.Burst,
		}, infra.NewCircuitBreaker(breakerCfg))

		cache, err := b.newCache()
		if err != nil {
			return err
		}
		if cache != nil {
			remote = classify.NewCachedClassifier(remote, cache, b.Metrics)
		}
		chain = classify.NewChain(b.Metrics, remote, rules)
	}

	b.Categorizer = classify.NewCategorizer(chain)
	slog.Info("✅ Classifier ready",
		slog.String("provider", chain.Name()),
		slog.String("cache", b.Config.Cache.Backend))
	return nil
}

// newCache returns the configured prediction cache, or nil when caching is off.
func (b *Bootstrap) newCache() (classify.Cache, error) {
	ttl := time.Duration(b.Config.Cache.TTLSec) * time.Second
	switch b.Config.Cache.Backend {
	case "redis":
		rc, err := classify.NewRedisCache(classify.RedisConfig{
			Addr:     b.Config.Cache.RedisAddr,
			Password: b.Config.Cache.RedisPass,
			DB:       b.Config.Cache.RedisDB,
			TTL:      ttl,
		})
		if err != nil {
			return nil, err
		}
		b.addCloser(func() { rc.Close() })
		return rc, nil
	case "memory":
		return classify.NewMemoryCache(ttl, 0), nil
	}
	return nil, nil
}

// Handler returns the HTTP API.
func (b *Bootstrap) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Records:        b.Services.Records,
		Bills:          b.Services.Bills,
		Budgets:        b.Services.Budgets,
		Spending:       b.Services.Spending,
		Flows:          b.Services.Flows,
		DB:             b.Store,
		Hub:            b.Hub,
		Metrics:        b.Metrics,
		AllowedOrigins: b.Config.Server.AllowedOrigins,
		ServiceName:    b.Config.App.Name,
	})
}

// LockWorkspace blocks a second server from sharing an embedded database.
func (b *Bootstrap) LockWorkspace() error {
	if b.Config.Database.Driver != "sqlite" {
		return nil
	}
	workDir := infra.GetWorkspaceDir()
	if err := infra.EnsureDir(workDir); err != nil {
		return fmt.Errorf("failed to create workspace dir: %w", err)
	}
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.addCloser(unlock)
	return nil
}

func (b *Bootstrap) addCloser(fn func()) {
	b.closers = append(b.closers, fn)
}

// Close releases everything Initialize acquired, newest first.
func (b *Bootstrap) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
