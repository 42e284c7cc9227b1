package main

import (
	"os"
	"path/filepath"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"roomsync/internal"
)

const (
	dataDirKey   = "data_dir"
	logLevelKey  = "log_level"
	retentionKey = "message_retention"
)

// loadConfig resolves the engine configuration: environment variables win,
// an optional .roomchat.yaml (home directory or cwd) fills the gaps, and
// sensible defaults cover the rest.
func loadConfig() (internal.Config, error) {
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return config, err
	}

	viper.SetConfigName(".roomchat")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err == nil {
		if config.DataDir == "" {
			config.DataDir = viper.GetString(dataDirKey)
		}
		if viper.IsSet(logLevelKey) && os.Getenv("LOG_LEVEL") == "" {
			config.LogLevel = viper.GetString(logLevelKey)
		}
		if viper.IsSet(retentionKey) && os.Getenv("MESSAGE_RETENTION") == "" {
			config.MessageRetention = viper.GetInt(retentionKey)
		}
	}

	if config.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		config.DataDir = filepath.Join(home, ".roomchat")
	}
	return config, nil
}
