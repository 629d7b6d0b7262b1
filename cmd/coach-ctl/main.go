package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	cli "github.com/spf13/pflag"

	"coach/internal/config"
	"coach/internal/ipc"
	"coach/internal/uifeed"
)

const usage = `usage: coach-ctl [flags] <command>

commands:
  start                     begin recording
  stop                      stop recording and transcribe
  clear                     clear the displayed transcript
  status                    print the current status
  end                       end the interview
  feedback <1-5> [comments] rate the session
  file <path>               transcribe an audio file
  watch                     print UI feed events until interrupted
`

func main() {
	cfgPath := cli.StringP("config", "c", "", "Config file path")
	socket := cli.StringP("socket", "s", "", "Control socket (overrides config)")
	uiAddr := cli.StringP("ui", "u", "", "UI feed address for watch (overrides config)")
	cli.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		cli.PrintDefaults()
	}
	cli.Parse()

	req, err := parse(cli.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cli.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if req.Cmd == "watch" {
		addr := *uiAddr
		if addr == "" {
			addr = cfg.Listen.UIAddr
		}
		if err := watch(addr); err != nil {
			fmt.Fprintln(os.Stderr, "coach-listen:", err)
			os.Exit(1)
		}
		return
	}

	path := *socket
	if path == "" {
		path = cfg.Listen.Socket
	}

	ctx := context.Background()
	if req.Cmd != "stop" && req.Cmd != "file" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ipc.CommandTimeout)
		defer cancel()
	}

	resp, err := ipc.Send(ctx, path, req)
	if resp.Status != "" {
		fmt.Println(resp.Status)
		if resp.Transcript != "" {
			fmt.Println(resp.Transcript)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "coach-listen:", err)
		os.Exit(1)
	}
}

func parse(args []string) (ipc.Request, error) {
	if len(args) == 0 {
		return ipc.Request{}, fmt.Errorf("missing command")
	}

	req := ipc.Request{Cmd: args[0]}
	switch req.Cmd {
	case "start", "stop", "clear", "status", "end", "watch":
		if len(args) != 1 {
			return req, fmt.Errorf("%s takes no arguments", req.Cmd)
		}
	case "feedback":
		if len(args) < 2 {
			return req, fmt.Errorf("feedback needs a rating")
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return req, fmt.Errorf("bad rating %q", args[1])
		}
		req.Rating = rating
		req.Comments = strings.Join(args[2:], " ")
	case "file":
		if len(args) != 2 {
			return req, fmt.Errorf("file needs exactly one path")
		}
		abs, err := filepath.Abs(args[1])
		if err != nil {
			return req, err
		}
		req.Path = abs
	default:
		return req, fmt.Errorf("unknown command %q", req.Cmd)
	}
	return req, nil
}

func watch(addr string) error {
	if addr == "" {
		return errors.New("no UI feed address, set listen.ui_addr or --ui")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := uifeed.Dial(ctx, "ws://"+addr+"/ws")
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	for {
		ev, ok, err := c.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}
		fmt.Println(format(ev))
	}
}

func format(ev uifeed.Event) string {
	line := string(ev.Status)
	if ev.Transcript != "" {
		line += ": " + strings.ReplaceAll(ev.Transcript, "\n", " / ")
	}
	if ev.Error != "" {
		line += " (" + ev.Error + ")"
	}
	return line
}
