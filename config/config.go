// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/internal/constants"
	"github.com/stratastor/zclone/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

type Config struct {
	Master struct {
		Host    string `mapstructure:"host"`
		Dataset string `mapstructure:"dataset"`
	} `mapstructure:"master"`

	Local struct {
		// Dataset defaults to the master dataset name when empty.
		Dataset string `mapstructure:"dataset"`
	} `mapstructure:"local"`

	// Profile namespaces snapshot labels, the PID file, the mount root and
	// log tags so multiple replication profiles coexist on one host.
	Profile string `mapstructure:"profile"`

	Retention struct {
		KeepMaster int `mapstructure:"keepMaster"`
		KeepLocal  int `mapstructure:"keepLocal"`
		PurgeDelay int `mapstructure:"purgeDelay"` // cycles to skip between purges
	} `mapstructure:"retention"`

	Replication struct {
		PauseSeconds int    `mapstructure:"pauseSeconds"`
		Schedule     string `mapstructure:"schedule"` // optional cron expression
	} `mapstructure:"replication"`

	Remote struct {
		User           string   `mapstructure:"user"`
		SSHBinary      string   `mapstructure:"sshBinary"`
		TimeoutSeconds int      `mapstructure:"timeoutSeconds"`
		Options        []string `mapstructure:"options"` // extra ssh -o options
	} `mapstructure:"remote"`

	Clone struct {
		LinkPath  string `mapstructure:"linkPath"`
		MountRoot string `mapstructure:"mountRoot"`
	} `mapstructure:"clone"`

	PIDFile string `mapstructure:"pidFile"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN"`
	} `mapstructure:"logger"`

	Status struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"status"`

	Notify struct {
		WebhookURL     string `mapstructure:"webhookURL"`
		TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
		RetryCount     int    `mapstructure:"retryCount"`
	} `mapstructure:"notify"`
}

// GetConfigDir returns the system configuration directory.
func GetConfigDir() string {
	if dir := os.Getenv("ZCLONE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return constants.SystemConfigDir
}

// LoadConfig loads the configuration with precedence rules: explicit path,
// ZCLONE_CONFIG env var, then the system-wide config file.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		logConfig := logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
		l, err := logger.NewTag(logConfig, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		viper.Reset()
		viper.SetConfigType("yaml")

		systemConfigPath := filepath.Join(GetConfigDir(), constants.ConfigFileName)

		if configFilePath != "" {
			configPath = configFilePath
		} else if envPath := os.Getenv("ZCLONE_CONFIG"); envPath != "" {
			configPath = envPath
		} else {
			configPath = systemConfigPath
		}

		if absPath, err := filepath.Abs(configPath); err == nil {
			configPath = absPath
		}

		viper.SetConfigFile(configPath)

		viper.SetDefault("master.host", "")
		viper.SetDefault("master.dataset", "")
		viper.SetDefault("local.dataset", "")
		viper.SetDefault("profile", "")
		viper.SetDefault("retention.keepMaster", 10)
		viper.SetDefault("retention.keepLocal", 10)
		viper.SetDefault("retention.purgeDelay", 0)
		viper.SetDefault("replication.pauseSeconds", 0)
		viper.SetDefault("replication.schedule", "")
		viper.SetDefault("remote.user", "")
		viper.SetDefault("remote.sshBinary", "ssh")
		viper.SetDefault("remote.timeoutSeconds", 30)
		viper.SetDefault("clone.linkPath", "")
		viper.SetDefault("clone.mountRoot", "")
		viper.SetDefault("pidFile", "")
		viper.SetDefault("logger.logLevel", "info")
		viper.SetDefault("logger.enableSentry", false)
		viper.SetDefault("logger.sentryDSN", "")
		viper.SetDefault("status.enabled", false)
		viper.SetDefault("status.port", 8043)
		viper.SetDefault("notify.webhookURL", "")
		viper.SetDefault("notify.timeoutSeconds", 10)
		viper.SetDefault("notify.retryCount", 2)

		viper.AutomaticEnv()
		viper.SetEnvPrefix("ZCLONE")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err = viper.ReadInConfig()
		if err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				l.Info("Config file not found, using defaults", "path", configPath)
			} else {
				l.Error("Error reading config file", "err", err)
			}
			var cfg Config
			if err := viper.Unmarshal(&cfg); err != nil {
				l.Error("Failed to unmarshal default configuration", "err", err)
			}
			instance = &cfg
		} else {
			l.Info("Config file loaded", "path", viper.ConfigFileUsed())
			configPath = viper.ConfigFileUsed()

			var cfg Config
			if err := viper.Unmarshal(&cfg); err != nil {
				l.Error("Failed to parse configuration", "err", err)
			} else {
				instance = &cfg
			}
		}
	})

	return instance
}

// Validate checks that required settings are present. It must pass before
// any replication cycle starts.
func (c *Config) Validate() error {
	if c.Master.Host == "" {
		return errors.New(errors.ConfigValidationFailed, "master.host is required")
	}
	if c.Master.Dataset == "" {
		return errors.New(errors.ConfigValidationFailed, "master.dataset is required")
	}
	if c.Retention.KeepMaster < 1 || c.Retention.KeepLocal < 1 {
		return errors.New(errors.ConfigValidationFailed,
			"retention keep counts must be at least 1")
	}
	if c.Retention.PurgeDelay < 0 {
		return errors.New(errors.ConfigValidationFailed, "retention.purgeDelay must be >= 0")
	}
	if (c.Clone.LinkPath == "") != (c.Clone.MountRoot == "") {
		return errors.New(errors.ConfigValidationFailed,
			"clone.linkPath and clone.mountRoot must be set together")
	}
	return nil
}

// LocalDataset returns the local replica dataset, defaulting to the master
// dataset name.
func (c *Config) LocalDataset() string {
	if c.Local.Dataset != "" {
		return c.Local.Dataset
	}
	return c.Master.Dataset
}

// PublishEnabled reports whether linked-clone publishing is configured.
func (c *Config) PublishEnabled() bool {
	return c.Clone.LinkPath != "" && c.Clone.MountRoot != ""
}

// PIDFilePath returns the configured PID file path, or the default
// namespaced by profile.
func (c *Config) PIDFilePath() string {
	if c.PIDFile != "" {
		return c.PIDFile
	}
	if c.Profile != "" {
		return fmt.Sprintf("/var/run/zclone-%s.pid", c.Profile)
	}
	return constants.DefaultPIDFilePath
}

// SaveConfig persists the current configuration to a specified path.
func SaveConfig(path string) error {
	if path == "" {
		path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ConfigWriteFailed)
	}

	configYAML, err := yaml.Marshal(instance)
	if err != nil {
		return errors.Wrap(err, errors.ConfigMarshalFailed)
	}

	if err := os.WriteFile(path, configYAML, 0644); err != nil {
		return errors.Wrap(err, errors.ConfigWriteFailed)
	}

	configPath = path
	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
