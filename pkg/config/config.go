package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration
	DatabaseConnectRetryCount int
	DatabaseConnectRetryDelay time.Duration
	DatabaseDebug             bool
	DatabaseFilePath          string
	DatabaseMaxRetries        int
	Environment               string
	FrontendURL               string
	Hostname                  string
	ImageDir                  string
	JWTSecret                 string
	ServerHost                string
	ServerPort                int
}

const (
	environmentENV = "ENVIRONMENT"
	jwtSecretENV   = "JWT_SECRET"
)

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		Hostname:                  hostname,
		ImageDir:                  "./tmp/images",
		JWTSecret:                 os.Getenv(jwtSecretENV),
		ServerPort:                4000,
	}

	switch os.Getenv(environmentENV) {
	case "development", "":
		cfg.Environment = "development"
		loadDevelopmentConfig(cfg)
	case "test":
		cfg.Environment = "test"
		loadTestConfig(cfg)
	case "production":
		cfg.Environment = "production"
		loadProductionConfig(cfg)
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	return cfg, nil
}
