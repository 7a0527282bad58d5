package command

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/edgestream/linkbot/pkg/logger"
	"github.com/edgestream/linkbot/pkg/notify"
	"github.com/edgestream/linkbot/pkg/ratelimit"
	"github.com/edgestream/linkbot/pkg/render"
)

// Notifier mirrors faults to the log channel without blocking the reply.
type Notifier interface {
	NotifyAsync(text string, severity notify.Severity)
}

// Inbound is a chat message that already passed the transport's sender
// filter.
type Inbound struct {
	Content   string
	ChannelID string
	AuthorID  string
}

type Dispatcher struct {
	env      Env
	limiter  *ratelimit.Limiter
	notifier Notifier
}

// NewDispatcher wires the handlers to api and settings. limiter and notifier
// may be nil.
func NewDispatcher(api ControlPlane, settings Settings, registry *Registry, limiter *ratelimit.Limiter, notifier Notifier) *Dispatcher {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	return &Dispatcher{
		env: Env{
			API:      api,
			Settings: settings,
			Registry: registry,
		},
		limiter:  limiter,
		notifier: notifier,
	}
}

// Dispatch runs msg if it is a known command. handled is false for plain
// chatter and unknown commands, which get no reply. Otherwise reply is the
// one message to send back.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Inbound) (reply render.Message, handled bool) {
	name, args, ok := Parse(d.env.Settings.Prefix(), msg.Content)
	if !ok {
		return render.Message{}, false
	}

	cmd, ok := d.env.Registry.Lookup(name)
	if !ok {
		logger.DebugCF("command", "Ignoring unknown command", map[string]any{
			"command":   name,
			"author_id": msg.AuthorID,
		})
		return render.Message{}, false
	}

	inv := Invocation{
		ID:        uuid.New(),
		Name:      name,
		Args:      args,
		ChannelID: msg.ChannelID,
		AuthorID:  msg.AuthorID,
	}
	return d.Run(ctx, cmd, inv), true
}

// Run executes cmd for inv. It always returns a reply: arity and rate limit
// violations and handler panics are turned into failure messages.
func (d *Dispatcher) Run(ctx context.Context, cmd Command, inv Invocation) (reply render.Message) {
	fields := map[string]any{
		"invocation": inv.ID.String(),
		"command":    inv.Name,
		"channel_id": inv.ChannelID,
		"author_id":  inv.AuthorID,
	}

	if !d.limiter.Allow(inv.AuthorID) {
		logger.WarnCF("command", "Rate limited", fields)
		wait := (d.limiter.RetryAfter(inv.AuthorID) + time.Second - 1).Truncate(time.Second)
		return render.Text(fmt.Sprintf("⏳ Slow down, try again in %s.", wait))
	}

	if len(inv.Args) < cmd.MinArgs {
		logger.DebugCF("command", "Missing arguments", fields)
		return render.Usage(cmd.Missing, d.env.Settings.Prefix(), cmd.Example)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("command", "Handler panicked", map[string]any{
				"invocation": inv.ID.String(),
				"command":    inv.Name,
				"panic":      fmt.Sprint(r),
				"stack":      string(debug.Stack()),
			})
			if d.notifier != nil {
				d.notifier.NotifyAsync(fmt.Sprintf("Unhandled error in %s: %v", inv.Name, r), notify.Error)
			}
			reply = render.Failure("something went wrong while running this command.")
		}
	}()

	start := time.Now()
	reply = cmd.Handler(ctx, &d.env, inv)

	fields["duration_ms"] = time.Since(start).Milliseconds()
	fields["embed"] = reply.IsEmbed()
	logger.InfoCF("command", "Command handled", fields)
	return reply
}
