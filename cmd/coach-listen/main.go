package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"coach/internal/audio"
	"coach/internal/config"
	"coach/internal/ipc"
	"coach/internal/listen"
	"coach/internal/notify"
	"coach/internal/slot"
	"coach/internal/uifeed"
	"coach/pkg/audioconv"
	"coach/pkg/stt"
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
	lc := cfg.Listen

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var engine listen.Engine
	tr, err := stt.NewTranscriber(lc.ModelPath)
	if err != nil {
		log.Error("Failed to init whisper, transcription disabled", "err", err)
	} else {
		defer tr.Close()
		engine = stt.Engine{Transcriber: tr, Options: stt.Options{
			Language:    lc.Language,
			BeamSize:    lc.BeamSize,
			Temperature: lc.Temperature,
		}}
		log.Debug("Loaded whisper", "model", lc.ModelPath)
	}

	opts := []listen.Option{
		listen.WithSettle(lc.Chunk),
		listen.WithDecoder(func(ctx context.Context, path string) ([]float32, error) {
			return audioconv.DecodeFile(ctx, path, audioconv.Options{SampleRate: lc.SampleRate})
		}),
	}
	if lc.Chime != "" {
		opts = append(opts, listen.WithCue(func() {
			if err := notify.Chime(lc.Chime); err != nil {
				log.Warn("Failed to play chime", "err", err)
			}
		}))
	}
	if lc.KeepAudio != "" {
		opts = append(opts, listen.WithKeep(func(pcm []float32) error {
			return audio.WriteWAV(lc.KeepAudio, pcm, lc.SampleRate)
		}))
	}

	producer := listen.NewProducer(engine, slot.New(cfg.Slots.Request), opts...)

	capture, err := audio.OpenCapture(lc.SampleRate, lc.Chunk, producer.Sink)
	if err != nil {
		log.Error("Failed to open input stream, recordings will be empty", "err", err)
	} else {
		defer capture.Close()
		log.Debug("Opened input stream", "rate", lc.SampleRate, "chunk", lc.Chunk)
	}

	srv, err := ipc.Listen(lc.Socket, func(ctx context.Context, req ipc.Request) ipc.Response {
		st, err := producer.Do(ctx, listen.Command{
			Cmd:      req.Cmd,
			Rating:   req.Rating,
			Comments: req.Comments,
			Path:     req.Path,
		})
		resp := ipc.Response{Status: string(st.Status), Transcript: st.Transcript}
		if err != nil {
			log.Warn("Command failed", "cmd", req.Cmd, "err", err)
			resp.Error = err.Error()
		}
		return resp
	})
	if err != nil {
		log.Error("Failed ipc server", "socket", lc.Socket, "err", err)
		os.Exit(1)
	}
	defer srv.Close()
	log.Debug("Control socket ready", "socket", lc.Socket)

	uiErr := make(chan error, 1)
	if lc.UIAddr != "" {
		hub := uifeed.NewHub(producer)
		producer.Subscribe(hub.Broadcast)
		go func() { uiErr <- uifeed.Serve(ctx, lc.UIAddr, hub) }()
	}

	log.Info("Boot up - successful", "request", cfg.Slots.Request)

	select {
	case <-ctx.Done():
	case err := <-uiErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("UI feed stopped", "err", err)
		}
	}
	log.Info("Shutting down")
}
