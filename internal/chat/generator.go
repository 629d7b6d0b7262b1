package chat

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"coach/internal/sanitize"
	"coach/internal/slot"
)

// Generator answers every new request slot content with a sanitized
// model reply written to the response slot.
type Generator struct {
	model   Model
	out     *slot.Slot
	timeout time.Duration
}

// NewGenerator writes replies to out. A zero timeout lets a model call run
// until it returns.
func NewGenerator(model Model, out *slot.Slot, timeout time.Duration) *Generator {
	return &Generator{model: model, out: out, timeout: timeout}
}

// Handle sends message to the model and persists the reply. A model call
// already in flight is not interrupted by cancellation of ctx.
func (g *Generator) Handle(ctx context.Context, message string) error {
	callCtx := context.WithoutCancel(ctx)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := g.model.Send(callCtx, message)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}

	reply = sanitize.Clean(reply)
	if err := g.out.Write(reply); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	log.Info("Reply written", "slot", g.out.Path(), "took", time.Since(start).Round(time.Millisecond))
	log.Debug("Exchange", "user", message, "model", reply)
	return nil
}

// Run watches the request slot until ctx is done.
func (g *Generator) Run(ctx context.Context, w *slot.Watcher) error {
	return w.Run(ctx, g.Handle)
}
