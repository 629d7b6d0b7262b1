package main

import (
	"context"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"coach/internal/chat"
	"coach/internal/config"
	"coach/internal/proxy"
	"coach/internal/slot"
)

func main() {
	cfgPath := cli.StringP("config", "c", "", "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level")
	cli.Parse()

	cfg, err := config.Boot(*cfgPath, *envFile, *logLevel)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	cc := cfg.Chat

	log.Info("Booting up", "backend", cc.Backend, "model", cc.Model)

	apiKey, err := cc.Credential()
	if err != nil {
		log.Error("Missing API key", "err", err)
		os.Exit(1)
	}
	log.Debug("Loaded API Key", "env", cc.CredentialEnv())

	httpClient, err := proxy.NewHTTPClient(cc.Proxy, 0)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cc.Proxy, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := chat.NewModel(ctx, chat.Options{
		Backend:     cc.Backend,
		Model:       cc.Model,
		Temperature: cc.Temperature,
		APIKey:      apiKey,
		BaseURL:     cc.BaseURL,
		HTTPClient:  httpClient,
	})
	if err != nil {
		log.Error("Failed to open chat", "err", err)
		os.Exit(1)
	}

	gen := chat.NewGenerator(model, slot.New(cfg.Slots.Response, slot.WithTrailingNewline()), cc.Timeout)
	watcher := slot.NewWatcher(slot.New(cfg.Slots.Request), cc.Poll,
		slot.WithProcessExisting(cfg.Slots.ProcessExisting))
	if err := watcher.Prime(); err != nil {
		log.Warn("Failed to read request slot", "err", err)
	}

	log.Info("Boot up - successful")
	if err := gen.Run(ctx, watcher); err != nil {
		log.Error("Generator stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Stopped by user")
}
