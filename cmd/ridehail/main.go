package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/wasselni/ridehail/config"
	"github.com/wasselni/ridehail/internal/app"
	"github.com/wasselni/ridehail/pkg/logger"
)

var (
	helpFlag   = flag.Bool("help", false, "Show help message")
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
)

func main() {
	flag.Parse()
	if *helpFlag {
		config.PrintHelp()
		return
	}

	ctx := context.Background()
	log := logger.New("ridehail", logger.LevelInfo)

	cfg, err := config.New(*configPath)
	if err != nil {
		log.Error(ctx, "failed to configure application", err)
		config.PrintHelp()
		os.Exit(1)
	}

	level := strings.ToUpper(cfg.Log.Level)
	if !logger.ValidateLevel(level) {
		level = logger.LevelInfo
	}
	log = logger.New("ridehail", level)

	application, err := app.New(ctx, *cfg, log)
	if err != nil {
		log.Error(ctx, "failed to init application", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		log.Error(ctx, "failed to run application", err)
		os.Exit(1)
	}
}
