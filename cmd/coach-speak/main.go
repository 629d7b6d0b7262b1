package main

import (
	"context"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"coach/internal/audio"
	"coach/internal/config"
	"coach/internal/slot"
	"coach/internal/speak"
	"coach/internal/tts"
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
	sc := cfg.Speak

	log.Info("Booting up", "backend", sc.Backend)

	synth, err := tts.New(tts.Options{Backend: sc.Backend, Server: sc.Server, Voice: sc.Voice})
	if err != nil {
		log.Error("Failed to init tts", "err", err)
		os.Exit(1)
	}

	var opts []speak.Option
	if sc.Duck {
		opts = append(opts, speak.WithDucker(audio.NewDucker("coach-speak")))
	}
	speaker := speak.New(synth, audio.PlayWAV, cfg.Slots.Audio, opts...)

	watcher := slot.NewWatcher(slot.New(cfg.Slots.Response), sc.Poll,
		slot.WithProcessExisting(cfg.Slots.ProcessExisting))
	if err := watcher.Prime(); err != nil {
		log.Warn("Failed to read response slot", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Boot up - successful")
	if err := speaker.Run(ctx, watcher); err != nil {
		log.Error("Speaker stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Stopped by user")
}
