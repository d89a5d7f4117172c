package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/tessera"
	"github.com/aretw0/tessera/internal/config"
	"github.com/aretw0/tessera/pkg/adapters/file"
	"github.com/aretw0/tessera/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/tessera/pkg/adapters/redis"
	sqlAdapter "github.com/aretw0/tessera/pkg/adapters/sql"
	"github.com/aretw0/tessera/pkg/components"
	"github.com/aretw0/tessera/pkg/persistence/middleware"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/aretw0/tessera/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime is an engine wired from configuration, plus what must be shut down with it.
type Runtime struct {
	Engine    *tessera.Engine
	Autosaver *session.Autosaver
	// Metrics is the registry the store metrics are registered on (nil when disabled).
	Metrics *prometheus.Registry

	closer io.Closer
	logger *slog.Logger
}

// NewRuntime initializes a Tessera engine with standard CLI conventions.
func NewRuntime(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{logger: logger}

	store, locker, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	rt.closer = closer

	engineOpts := []tessera.Option{
		tessera.WithLogger(logger),
		tessera.WithStore(store),
		tessera.WithHistoryLimit(cfg.HistoryLimit),
	}
	if cfg.Templates != "" {
		engineOpts = append(engineOpts, tessera.WithTemplateDir(cfg.Templates))
	}
	if locker != nil {
		engineOpts = append(engineOpts, tessera.WithLocker(locker))
	}

	// Middleware order is outermost first: metrics see every call, and
	// validation runs before the schema is encrypted.
	var mws []middleware.Middleware
	if cfg.Metrics {
		rt.Metrics = prometheus.NewRegistry()
		m, err := middleware.NewMetrics(rt.Metrics)
		if err != nil {
			rt.closeStore()
			return nil, err
		}
		mws = append(mws, m.Middleware())
	}
	if cfg.Store.Validate {
		reg, err := components.NewRegistry()
		if err != nil {
			rt.closeStore()
			return nil, err
		}
		engineOpts = append(engineOpts, tessera.WithRegistry(reg))
		mws = append(mws, middleware.NewValidationMiddleware(reg))
	}
	key, err := cfg.Store.Key()
	if err != nil {
		rt.closeStore()
		return nil, err
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	engineOpts = append(engineOpts, tessera.WithStoreMiddleware(mws...))

	eng, err := tessera.New(engineOpts...)
	if err != nil {
		rt.closeStore()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = eng

	if cfg.Autosave != "" {
		saver, err := session.NewAutosaver(eng.Sessions(), cfg.Autosave, session.WithAutosaveLogger(logger))
		if err != nil {
			rt.closeStore()
			return nil, err
		}
		rt.Autosaver = saver
	}

	logger.Debug("engine ready",
		"store", cfg.Store.Driver,
		"templates", cfg.Templates,
		"encrypted", key != nil,
		"locking", locker != nil,
		"autosave", cfg.Autosave)
	return rt, nil
}

// Start begins background work such as autosaving.
func (r *Runtime) Start() {
	if r.Autosaver != nil {
		r.Autosaver.Start()
	}
}

// Close stops autosaving, persists dirty sessions and releases the store.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Autosaver != nil {
		errs = append(errs, r.Autosaver.Stop(ctx))
	}
	if r.Engine != nil {
		if n, err := r.Engine.Sessions().SaveDirty(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to save open sessions: %w", err))
		} else if n > 0 {
			r.logger.Info("saved open sessions on shutdown", "count", n)
		}
	}
	errs = append(errs, r.closeStore())
	return errors.Join(errs...)
}

func (r *Runtime) closeStore() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// openStore builds the page store for the configured driver.
func openStore(cfg config.Config) (ports.SchemaStore, ports.DistributedLocker, io.Closer, error) {
	switch cfg.Store.Driver {
	case "", config.DriverMemory:
		return memory.NewStore(), nil, nil, nil
	case config.DriverFile:
		return file.New(cfg.Store.Path), nil, nil, nil
	case config.DriverRedis:
		r := cfg.Store.Redis
		prefix := r.Prefix
		if prefix == "" {
			prefix = redisAdapter.DefaultPrefix
		}
		store := redisAdapter.New(r.Addr, r.Password, r.DB,
			redisAdapter.WithPrefix(prefix),
			redisAdapter.WithTTL(r.TTL))
		var locker ports.DistributedLocker
		if cfg.Locking {
			locker = redisAdapter.NewLocker(store.Client(), prefix)
		}
		return store, locker, store, nil
	case config.DriverSQLite, config.DriverPostgres, config.DriverMySQL:
		store, err := sqlAdapter.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
		}
		return store, nil, store, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
