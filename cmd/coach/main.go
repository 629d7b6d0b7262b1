package main

import (
	"context"
	log "log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "github.com/spf13/pflag"

	"coach/internal/config"
	"coach/internal/slot"
	"coach/internal/supervisor"
)

var components = []string{"coach-chat", "coach-listen", "coach-speak"}

func main() {
	cfgPath := cli.StringP("config", "c", "", "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level")
	clearSlots := cli.Bool("clear-slots", false, "Empty the request and response slots before starting")
	cli.Parse()

	cfg, err := config.Boot(*cfgPath, *envFile, *logLevel)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	if *clearSlots {
		for _, path := range []string{cfg.Slots.Request, cfg.Slots.Response} {
			if err := slot.New(path).Reset(); err != nil {
				log.Error("Failed to clear slot", "path", path, "err", err)
				os.Exit(1)
			}
			log.Info("Cleared slot", "path", path)
		}
	}

	binDir := cfg.Supervisor.BinDir
	if binDir == "" {
		if exe, err := os.Executable(); err == nil {
			binDir = filepath.Dir(exe)
		}
	}

	progs, err := supervisor.Resolve(binDir, components...)
	if err != nil {
		log.Error("Failed to find components", "err", err)
		os.Exit(1)
	}
	args := forwardArgs(*cfgPath, *envFile, *logLevel)
	for i := range progs {
		progs[i].Args = args
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Press CTRL+C to stop")
	if err := supervisor.New(progs...).Run(ctx); err != nil {
		log.Error("Supervisor failed", "err", err)
		os.Exit(1)
	}
}

// forwardArgs passes the shared flags on to every component.
func forwardArgs(cfgPath, envFile, logLevel string) []string {
	var args []string
	if cfgPath != "" {
		if abs, err := filepath.Abs(cfgPath); err == nil {
			cfgPath = abs
		}
		args = append(args, "--config", cfgPath)
	}
	args = append(args, "--env", envFile)
	if logLevel != "" {
		args = append(args, "--log", logLevel)
	}
	return args
}
