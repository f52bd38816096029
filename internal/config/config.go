package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AppConfig struct {
	API        *APIConfig        `mapstructure:"api"`
	Gin        *GinConfig        `mapstructure:"gin"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
	Chat       *ChatConfig       `mapstructure:"chat"`
	Completion *CompletionConfig `mapstructure:"completion"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	BaseURL            string   `mapstructure:"base_url"`
	Port               string   `mapstructure:"port"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	IDTokenSigningKey  string   `mapstructure:"id_token_signing_key"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type ChatConfig struct {
	HistoryLimit        int `mapstructure:"history_limit"`
	StoreTimeoutSeconds int `mapstructure:"store_timeout_seconds"`
}

type CompletionConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Load reads the YAML config at path, with environment variables taking
// precedence (e.g. API_PORT overrides api.port). OPENAI_API_KEY is honored
// as an alias for completion.api_key.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	if err := v.BindEnv("completion.api_key", "OPENAI_API_KEY", "COMPLETION_API_KEY"); err != nil {
		return nil, fmt.Errorf("v.BindEnv -> %w", err)
	}

	var conf AppConfig
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	return &conf, nil
}
