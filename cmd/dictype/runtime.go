package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/dictype/internal/config"
	"github.com/verte-zerg/dictype/internal/library"
	"github.com/verte-zerg/dictype/internal/logger"
	"github.com/verte-zerg/dictype/internal/progress"
	"github.com/verte-zerg/dictype/internal/stats"
	"github.com/verte-zerg/dictype/internal/store"
)

const (
	backendSQLite = "sqlite"
	backendDiskv  = "diskv"
	backendMemory = "memory"
)

// runtime bundles the stores shared by every command.
type runtime struct {
	cfg     config.FileConfig
	log     *logger.Logger
	kv      store.KV
	history *store.Store
	libs    *library.Store
	checks  *progress.Store
	closers []func() error
}

// loadConfig reads .env, the config file and environment overrides.
func loadConfig() (config.FileConfig, error) {
	if err := config.LoadDotEnv(""); err != nil {
		return config.FileConfig{}, err
	}
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&cfg)
	return cfg, nil
}

// openRuntime opens the configured stores and seeds the default libraries on
// first run. With logToFile set, logs go to the log file so they do not
// disturb the practice screen.
func openRuntime(ctx context.Context, cfg config.FileConfig, logToFile bool) (*runtime, error) {
	rt := &runtime{cfg: cfg}
	level := logger.INFO
	if cfg.Log.Level != nil {
		level = logger.ParseLevel(*cfg.Log.Level)
	}
	if logToFile {
		path := config.DefaultLogPath()
		if cfg.Log.File != nil && *cfg.Log.File != "" {
			path = *cfg.Log.File
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		rt.closers = append(rt.closers, f.Close)
		rt.log = logger.New(logger.WithOutput(f), logger.WithLevel(level), logger.WithColors(false))
	} else {
		rt.log = logger.New(logger.WithLevel(level), logger.WithColors(stats.ShouldUseColor(os.Stderr)))
	}
	logger.SetDefault(rt.log)

	if err := rt.openStores(); err != nil {
		rt.Close()
		return nil, err
	}
	rt.libs = library.New(library.NewKVBackend(rt.kv))
	rt.checks = progress.New(rt.kv, progress.WithLogger(rt.log))

	defaults, err := library.Defaults()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to load default libraries: %w", err)
	}
	seeded, err := rt.libs.Seed(ctx, rt.kv, defaults)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to seed libraries: %w", err)
	}
	if seeded {
		rt.log.Info("seeded %d default libraries", len(defaults))
	}
	return rt, nil
}

func (rt *runtime) openStores() error {
	dataDir := config.DefaultDataDir()
	if rt.cfg.Storage.Path != nil && *rt.cfg.Storage.Path != "" {
		dataDir = *rt.cfg.Storage.Path
	}
	backend := backendSQLite
	if rt.cfg.Storage.Backend != nil && *rt.cfg.Storage.Backend != "" {
		backend = strings.ToLower(strings.TrimSpace(*rt.cfg.Storage.Backend))
	}

	if backend == backendMemory {
		rt.log.Warn("using in-memory storage: nothing will be saved")
		rt.kv = store.NewMemory()
		return nil
	}

	db, err := store.Open(filepath.Join(dataDir, "dictype.db"))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	rt.closers = append(rt.closers, db.Close)
	rt.history = db

	switch backend {
	case backendSQLite:
		rt.kv = db
	case backendDiskv:
		disk, err := store.OpenDisk(filepath.Join(dataDir, "records"))
		if err != nil {
			return fmt.Errorf("failed to open record store: %w", err)
		}
		rt.kv = disk
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)", backend, backendSQLite, backendDiskv, backendMemory)
	}
	return nil
}

// Close releases stores in reverse order of opening.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			logErrf("failed to close: %v\n", err)
		}
	}
	rt.closers = nil
}
