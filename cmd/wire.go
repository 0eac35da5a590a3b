package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	historysqlite "github.com/halcyra/oracle-validator-cli/internal/adapters/history/sqlite"
	"github.com/halcyra/oracle-validator-cli/internal/adapters/oracle"
	statusadapter "github.com/halcyra/oracle-validator-cli/internal/adapters/render/status"
	sessiontoml "github.com/halcyra/oracle-validator-cli/internal/adapters/sessionstore/toml"
	"github.com/halcyra/oracle-validator-cli/internal/application"
	"github.com/halcyra/oracle-validator-cli/internal/config"
	"github.com/halcyra/oracle-validator-cli/internal/domain"
	"github.com/halcyra/oracle-validator-cli/internal/ports"
	"github.com/halcyra/oracle-validator-cli/internal/retry"
)

type app struct {
	cfg       config.Config
	api       ports.OracleAPI
	sessions  ports.SessionStore
	history   ports.CycleHistory
	allocator *application.ProxyAllocator
	log       *logrus.Logger

	statusRenderer func([]domain.AccountInfo, statusadapter.RenderOptions) (string, error)
	now            func() time.Time

	closers []func() error
}

func wireApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("OV_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}

	sessions, err := newSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire session store: %w", err)
	}

	history, closeHistory, err := newHistory(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire cycle history: %w", err)
	}

	api := &oracle.Client{
		AuthBaseURL: cfg.AuthBaseURL,
		APIBaseURL:  cfg.APIBaseURL,
	}

	a := &app{
		cfg:            cfg,
		api:            api,
		sessions:       sessions,
		history:        history,
		allocator:      application.NewProxyAllocator(cfg.Proxies),
		log:            log,
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}
	if closeHistory != nil {
		a.closers = append(a.closers, closeHistory)
	}
	return a, nil
}

func (a *app) close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.log.WithError(err).Warn("close failed during shutdown")
		}
	}
}

func (a *app) retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  a.cfg.RetryMaxAttempts,
		InitialDelay: a.cfg.RetryInitialDelay,
	}
}

func (a *app) driverConfig() application.DriverConfig {
	return application.DriverConfig{
		RefreshInterval: a.cfg.RefreshInterval,
		CycleInterval:   a.cfg.CycleInterval,
		InfoInterval:    a.cfg.InfoInterval,
		MaxConcurrency:  a.cfg.MaxConcurrency,
		Retry:           a.retryConfig(),
	}
}

func newSessionStore(cfg config.Config) (*sessiontoml.Store, error) {
	if cfg.SessionsPath != "" {
		return sessiontoml.NewStoreAt(cfg.SessionsPath)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return sessiontoml.NewStoreAt(filepath.Join(home, ".ov", "sessions.toml"))
}

func newHistory(cfg config.Config) (ports.CycleHistory, func() error, error) {
	path := cfg.HistoryPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".ov", "history.db")
	}
	h, err := historysqlite.New(path)
	if err != nil {
		return nil, nil, err
	}
	return h, h.Close, nil
}
