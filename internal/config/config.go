// Package config loads the TOML configuration file and applies
// environment overrides. Everything has a default, so a missing file is
// a valid zero configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "TGHERD"
	appDirName     = ".tgherd"
	configFileName = "config.toml"

	defaultGatewayURL    = "http://127.0.0.1:8765"
	defaultMode          = "sequential"
	defaultWatchInterval = 4 * time.Second
	defaultDialogLimit   = 40
	defaultHistoryLimit  = 50
)

// Config is the resolved application configuration.
type Config struct {
	// GatewayURL is the base URL of the MTProto gateway sidecar.
	GatewayURL string
	// DataDir holds the flat state files; SessionsDir the *.session files.
	DataDir     string
	SessionsDir string

	// DefaultMode is the account selection mode at startup.
	DefaultMode string
	// AdvanceOnReaction rotates the round-robin cursor after reactions.
	AdvanceOnReaction bool
	// WatchInterval is the comment-watch poll period.
	WatchInterval time.Duration

	DialogLimit  int
	HistoryLimit int
}

type fileSchema struct {
	Gateway struct {
		URL string `toml:"url"`
	} `toml:"gateway"`
	Data struct {
		Dir         string `toml:"dir"`
		SessionsDir string `toml:"sessions_dir"`
	} `toml:"data"`
	Dispatch struct {
		Mode              string `toml:"mode"`
		AdvanceOnReaction bool   `toml:"advance_on_reaction"`
		WatchIntervalSecs int    `toml:"watch_interval_secs"`
	} `toml:"dispatch"`
	UI struct {
		DialogLimit  int `toml:"dialog_limit"`
		HistoryLimit int `toml:"history_limit"`
	} `toml:"ui"`
}

// DefaultPath is the config file location under the user's home.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, appDirName, configFileName), nil
}

// Load reads the config file at path (the default location when path is
// empty), fills defaults, and applies TGHERD_* environment overrides.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	var file fileSchema
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("decode config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Missing file means all defaults.
	default:
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	env := viper.New()
	env.SetEnvPrefix(envPrefix)
	env.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	env.AutomaticEnv()
	for _, key := range []string{"gateway.url", "data.dir", "data.sessions_dir", "dispatch.mode"} {
		_ = env.BindEnv(key)
	}

	cfg := Config{
		GatewayURL:        firstNonEmpty(env.GetString("gateway.url"), file.Gateway.URL, defaultGatewayURL),
		DataDir:           firstNonEmpty(env.GetString("data.dir"), file.Data.Dir),
		SessionsDir:       firstNonEmpty(env.GetString("data.sessions_dir"), file.Data.SessionsDir),
		DefaultMode:       firstNonEmpty(env.GetString("dispatch.mode"), file.Dispatch.Mode, defaultMode),
		AdvanceOnReaction: file.Dispatch.AdvanceOnReaction,
		WatchInterval:     defaultWatchInterval,
		DialogLimit:       file.UI.DialogLimit,
		HistoryLimit:      file.UI.HistoryLimit,
	}
	if file.Dispatch.WatchIntervalSecs > 0 {
		cfg.WatchInterval = time.Duration(file.Dispatch.WatchIntervalSecs) * time.Second
	}
	if cfg.DialogLimit <= 0 {
		cfg.DialogLimit = defaultDialogLimit
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}

	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, appDirName)
	}
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	if cfg.SessionsDir == "" {
		cfg.SessionsDir = filepath.Join(cfg.DataDir, "sessions")
	}
	cfg.SessionsDir = filepath.Clean(cfg.SessionsDir)

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
