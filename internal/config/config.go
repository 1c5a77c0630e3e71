package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the server configuration. Values come from environment
// variables (KANBAN_ prefix) with an optional config.yaml fallback.
type Config struct {
	Port        string `mapstructure:"port"`
	DBPath      string `mapstructure:"db_path"`
	GinMode     string `mapstructure:"gin_mode"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience"`
}

// Load reads configuration from the environment and, when present, a
// config.yaml in the working directory. A missing config file is not an
// error; env vars and defaults cover everything.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", ":8008")
	v.SetDefault("db_path", "kanban-board.db")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("jwt_secret", "development-insecure-secret-change-me")
	v.SetDefault("jwt_issuer", "kanban-board-api")
	v.SetDefault("jwt_audience", "kanban-board-clients")

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
