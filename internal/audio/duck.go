package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150 // pactl allows boosting past 100%

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

// sinkInput is one PulseAudio playback stream.
type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id       int
	from, to int
}

// Ducker lowers the volume of other applications' playback streams while
// the coach is speaking and restores them afterwards. Streams whose
// application.name is listed in keep are left alone.
type Ducker struct {
	Factor   float64       // target = current * Factor
	Floor    int           // never duck below this percentage
	Duration time.Duration // length of each fade

	keep map[string]bool

	mu       sync.Mutex
	ducked   bool
	restore  map[int]int // sink input id -> volume before ducking
	pactlCmd string
}

// NewDucker returns a Ducker that fades other streams to 30% of their
// volume over 200ms.
func NewDucker(keep ...string) *Ducker {
	k := make(map[string]bool, len(keep))
	for _, name := range keep {
		k[name] = true
	}
	return &Ducker{
		Factor:   0.3,
		Floor:    5,
		Duration: 200 * time.Millisecond,
		keep:     k,
		restore:  make(map[int]int),
		pactlCmd: "pactl",
	}
}

// Duck fades every foreign stream down. Calling it while already ducked
// is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.restore = make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		if d.keep[in.AppName] {
			continue
		}
		d.restore[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: d.target(in.Volume)})
	}

	if err := d.run(ctx, fades); err != nil {
		return err
	}
	d.ducked = true
	return nil
}

// Restore fades the streams touched by Duck back to their volume. Streams
// that appeared after Duck are left as they are.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ducked {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		orig, ok := d.restore[in.ID]
		if !ok || d.keep[in.AppName] {
			continue
		}
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
	}

	if err := d.run(ctx, fades); err != nil {
		return err
	}
	d.restore = make(map[int]int)
	d.ducked = false
	return nil
}

func (d *Ducker) target(volume int) int {
	t := int(math.Round(float64(volume) * d.Factor))
	return clampVolume(min(volume, max(t, d.Floor)))
}

// run steps every fade from its start to its end volume in 10ms steps.
func (d *Ducker) run(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	steps := int(d.Duration / (10 * time.Millisecond))
	if steps < 1 {
		steps = 1
	}
	pause := d.Duration / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := f.from + int(math.Round(float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}
		if i < steps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return nil
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := exec.CommandContext(ctx, d.pactlCmd, "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("duck: pactl list sink-inputs: %w", err)
	}
	return parseSinkInputs(string(out)), nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	if err := exec.CommandContext(ctx, d.pactlCmd, "set-sink-input-volume", strconv.Itoa(id), arg).Run(); err != nil {
		return fmt.Errorf("duck: set volume of sink input %d: %w", id, err)
	}
	return nil
}

// parseSinkInputs extracts id, first volume percentage and application
// name from `pactl list sink-inputs` output.
func parseSinkInputs(out string) []sinkInput {
	var res []sinkInput

	blocks := strings.Split(out, "Sink Input #")
	for _, block := range blocks[1:] {
		header, body, _ := strings.Cut(block, "\n")
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "Volume:") && in.Volume == 0:
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			case strings.HasPrefix(line, "application.name") && in.AppName == "":
				if _, v, ok := strings.Cut(line, "="); ok {
					in.AppName = strings.Trim(strings.TrimSpace(v), `"`)
				}
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}
	return res
}

func clampVolume(v int) int {
	return min(max(v, 0), maxVolume)
}
