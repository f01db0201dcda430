package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/piquetdestream/piquet/internal/config"
	"github.com/piquetdestream/piquet/internal/logging"
	"github.com/piquetdestream/piquet/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Log.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	app := ui.NewApp(nil, cfg, logger)
	defer func() { _ = app.Close() }()
	return app.Execute()
}
