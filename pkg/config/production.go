package config

import (
	"os"
	"strconv"
)

func loadProductionConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.ServerHost = "0.0.0.0"

	cfg.DatabaseFilePath = os.Getenv("DATABASE_FILE_PATH")
	if cfg.DatabaseFilePath == "" {
		cfg.DatabaseFilePath = "/data/data.sqlite"
	}

	cfg.ImageDir = os.Getenv("IMAGE_DIRECTORY")
	if cfg.ImageDir == "" {
		cfg.ImageDir = "/data/images"
	}

	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
}
