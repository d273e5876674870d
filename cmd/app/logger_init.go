package main

import (
	"github.com/osse101/SmartList_Go/internal/config"
	"github.com/osse101/SmartList_Go/internal/handler"
	"github.com/osse101/SmartList_Go/internal/logger"
)

// initLogger initializes the default slog logger from app configuration
func initLogger(cfg *config.Config) {
	// Source locations only in dev
	addSource := cfg.Environment == "dev" || cfg.Environment == "development"

	version := cfg.Version
	if version == "" || version == "dev" {
		version = handler.ResolveVersion()
	}

	logger.InitLogger(logger.NewConfig(
		cfg.LogLevel,
		cfg.LogFormat,
		cfg.ServiceName,
		version,
		cfg.Environment,
		addSource,
	))
}
