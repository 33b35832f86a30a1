// Command apiserver runs the SymptomSense HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/SymptomSense/internal/bootstrap"
	"github.com/turtacn/SymptomSense/internal/config"
	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
)

const defaultConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err != nil {
		// Environment and defaults only.
		configPath = ""
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Version: version})
	if err != nil {
		return err
	}
	defer app.Close()

	app.Logger.Info("starting SymptomSense API server",
		logging.String("version", version),
		logging.String("config", configPath),
		logging.Int("port", cfg.Server.Port))

	if err := app.Run(ctx); err != nil {
		return err
	}
	app.Logger.Info("server stopped")
	return nil
}
