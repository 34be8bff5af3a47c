package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Finvella"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"finvella"`
	}

	Local struct {
		// Path of the device-local store used by guest sessions.
		Path string `envconfig:"LOCAL_STORE_PATH" default:"finvella.db"`
	}

	Auth struct {
		// Required by the API server, unused by the TUI.
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	Chat struct {
		APIURL      string        `envconfig:"CHAT_API_URL" default:"https://api.groq.com/openai/v1/chat/completions"`
		APIKey      string        `envconfig:"CHAT_API_KEY"`
		Model       string        `envconfig:"CHAT_MODEL" default:"llama-3.1-8b-instant"`
		Temperature float64       `envconfig:"CHAT_TEMPERATURE" default:"0.6"`
		MaxTokens   int           `envconfig:"CHAT_MAX_TOKENS" default:"1024"`
		Timeout     time.Duration `envconfig:"CHAT_TIMEOUT" default:"120s"`
	}

	Market struct {
		RefreshInterval time.Duration `envconfig:"MARKET_REFRESH_INTERVAL" default:"5s"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
