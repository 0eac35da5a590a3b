package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/halcyra/oracle-validator-cli/internal/domain"
)

const (
	defaultAuthBaseURL = "https://app-auth.jp.stork-oracle.network"
	defaultAPIBaseURL  = "https://app-api.jp.stork-oracle.network"
)

// Config is the fully resolved runtime configuration: the TOML file merged
// with OV_* environment overrides and defaults.
type Config struct {
	Accounts []domain.Account

	AuthBaseURL string
	APIBaseURL  string

	Proxies []string

	RefreshInterval time.Duration
	CycleInterval   time.Duration
	InfoInterval    time.Duration
	MaxConcurrency  int

	RetryMaxAttempts  int
	RetryInitialDelay time.Duration

	SessionsPath string
	HistoryPath  string
}

type accountEntry struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// Load resolves configuration from configPath, or ~/.ov/config.toml when
// empty. A .env file next to the working directory is applied first so env
// overrides in it behave like real environment variables.
func Load(configPath string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix("OV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		v.SetConfigFile(filepath.Join(home, ".ov", "config.toml"))
		if err := v.ReadInConfig(); err != nil {
			// A missing default config is fine; the command may not
			// need accounts at all.
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("auth_base_url", defaultAuthBaseURL)
	v.SetDefault("api_base_url", defaultAPIBaseURL)
	v.SetDefault("refresh_interval", "55m")
	v.SetDefault("cycle_interval", "5m")
	v.SetDefault("info_interval", "5m")
	v.SetDefault("max_concurrency", 5)
	v.SetDefault("retry_max_attempts", 5)
	v.SetDefault("retry_initial_delay", "500ms")
}

func fromViper(v *viper.Viper) (Config, error) {
	var entries []accountEntry
	if err := v.UnmarshalKey("accounts", &entries); err != nil {
		return Config{}, fmt.Errorf("decode accounts: %w", err)
	}

	accounts := make([]domain.Account, 0, len(entries))
	for i, entry := range entries {
		account := domain.Account{Email: entry.Email, Password: entry.Password}
		if err := account.Validate(); err != nil {
			return Config{}, fmt.Errorf("account %d: %w", i+1, err)
		}
		accounts = append(accounts, account)
	}

	proxies, err := loadProxyFile(v.GetString("proxy_file"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Accounts:          accounts,
		AuthBaseURL:       strings.TrimRight(v.GetString("auth_base_url"), "/"),
		APIBaseURL:        strings.TrimRight(v.GetString("api_base_url"), "/"),
		Proxies:           proxies,
		RefreshInterval:   v.GetDuration("refresh_interval"),
		CycleInterval:     v.GetDuration("cycle_interval"),
		InfoInterval:      v.GetDuration("info_interval"),
		MaxConcurrency:    v.GetInt("max_concurrency"),
		RetryMaxAttempts:  v.GetInt("retry_max_attempts"),
		RetryInitialDelay: v.GetDuration("retry_initial_delay"),
		SessionsPath:      v.GetString("sessions_path"),
		HistoryPath:       v.GetString("history_path"),
	}

	if cfg.AuthBaseURL == "" || cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("%w: base URLs must not be empty", domain.ErrConfigInvalid)
	}
	if cfg.MaxConcurrency <= 0 {
		return Config{}, fmt.Errorf("%w: max_concurrency must be positive", domain.ErrConfigInvalid)
	}
	return cfg, nil
}

// loadProxyFile reads one proxy URI per line; blank lines and # comments are
// skipped. An unset path means direct connections.
func loadProxyFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open proxy file: %w", err)
	}
	defer f.Close()

	var proxies []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read proxy file: %w", err)
	}
	return proxies, nil
}
