package command

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"github.com/edgestream/linkbot/pkg/controlplane"
	"github.com/edgestream/linkbot/pkg/logger"
	"github.com/edgestream/linkbot/pkg/render"
)

const (
	defaultLogLines = 10
	minLogLines     = 1
	maxLogLines     = 50
)

// NewDefaultRegistry returns the registry with every bot command, in the
// order help lists them.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, cmd := range []Command{
		{
			Name:        "links",
			Usage:       "links",
			Description: "List all registered links",
			Handler:     handleLinks,
		},
		{
			Name:        "start",
			Usage:       "start [link] [profile_id]",
			Description: "Start a link (in every profile when profile_id is omitted)",
			MinArgs:     1,
			Missing:     "You must give a link id or URL.",
			Example:     "start 1",
			Handler:     handleStart,
		},
		{
			Name:        "stop",
			Usage:       "stop [link] [profile_id]",
			Description: "Stop a link (every link when left empty)",
			Handler:     handleStop,
		},
		{
			Name:        "restart",
			Usage:       "restart",
			Description: "Restart every active link",
			Handler:     ackHandler(ControlPlane.Restart),
		},
		{
			Name:        "reposition",
			Usage:       "reposition",
			Description: "Realign the open windows",
			Handler:     ackHandler(ControlPlane.Reposition),
		},
		{
			Name:        "open",
			Usage:       "open [link] [profile_id]",
			Description: "Open a link in the given profile only",
			MinArgs:     2,
			Missing:     "You must give a link id and a profile id.",
			Example:     "open 1 2",
			Handler:     handleOpen,
		},
		{
			Name:        "addlink",
			Usage:       "addlink [URL] [name]",
			Description: "Register a new link (name is optional)",
			MinArgs:     1,
			Missing:     "You must give a URL.",
			Example:     "addlink https://www.twitch.tv/example",
			Handler:     handleAddLink,
		},
		{
			Name:        "removelink",
			Usage:       "removelink [link]",
			Description: "Remove the given link",
			MinArgs:     1,
			Missing:     "You must give a link id or URL.",
			Example:     "removelink 1",
			Handler:     handleRemoveLink,
		},
		{
			Name:        "profiles",
			Usage:       "profiles",
			Description: "List the defined profiles",
			Handler:     handleProfiles,
		},
		{
			Name:        "status",
			Usage:       "status",
			Description: "Show the system status",
			Handler:     handleStatus,
		},
		{
			Name:        "log",
			Usage:       "log [lines]",
			Description: "Show the latest log lines (default: 10)",
			Handler:     handleLog,
		},
		{
			Name:        "setinterval",
			Usage:       "setinterval [minutes]",
			Description: "Change the check interval",
			MinArgs:     1,
			Missing:     "You must give a number of minutes.",
			Example:     "setinterval 5",
			Handler:     handleSetInterval,
		},
		{
			Name:        "setlogchannel",
			Usage:       "setlogchannel",
			Description: "Use this channel as the log channel",
			Handler:     handleSetLogChannel,
		},
		{
			Name:        "help",
			Usage:       "help",
			Description: "Show this help message",
			Handler:     handleHelp,
		},
	} {
		r.Register(cmd)
	}
	return r
}

// ackHandler adapts an argument-less mutating operation.
func ackHandler(op func(ControlPlane, context.Context) mo.Result[controlplane.Ack]) Handler {
	return func(ctx context.Context, env *Env, _ Invocation) render.Message {
		return ack(op(env.API, ctx))
	}
}

func ack(res mo.Result[controlplane.Ack]) render.Message {
	v, err := res.Get()
	if err != nil {
		return render.FromError(err)
	}
	return render.Ack(v)
}

func handleLinks(ctx context.Context, env *Env, _ Invocation) render.Message {
	links, err := env.API.Links(ctx).Get()
	if err != nil {
		return render.FromError(err)
	}
	return render.Links(links)
}

func handleStart(ctx context.Context, env *Env, inv Invocation) render.Message {
	profile := mo.None[string]()
	if len(inv.Args) > 1 {
		profile = mo.Some(inv.Args[1])
	}
	return ack(env.API.StartLink(ctx, inv.Args[0], profile))
}

func handleStop(ctx context.Context, env *Env, inv Invocation) render.Message {
	link, profile := mo.None[string](), mo.None[string]()
	if len(inv.Args) > 0 {
		link = mo.Some(inv.Args[0])
	}
	if len(inv.Args) > 1 {
		profile = mo.Some(inv.Args[1])
	}
	return ack(env.API.StopLink(ctx, link, profile))
}

func handleOpen(ctx context.Context, env *Env, inv Invocation) render.Message {
	return ack(env.API.OpenLink(ctx, inv.Args[0], inv.Args[1]))
}

func handleAddLink(ctx context.Context, env *Env, inv Invocation) render.Message {
	name := mo.None[string]()
	if len(inv.Args) > 1 {
		name = mo.Some(strings.Join(inv.Args[1:], " "))
	}
	return ack(env.API.AddLink(ctx, inv.Args[0], name))
}

func handleRemoveLink(ctx context.Context, env *Env, inv Invocation) render.Message {
	return ack(env.API.RemoveLink(ctx, inv.Args[0]))
}

func handleProfiles(ctx context.Context, env *Env, _ Invocation) render.Message {
	profiles, err := env.API.Profiles(ctx).Get()
	if err != nil {
		return render.FromError(err)
	}
	return render.Profiles(profiles)
}

func handleStatus(ctx context.Context, env *Env, _ Invocation) render.Message {
	status, err := env.API.Status(ctx).Get()
	if err != nil {
		return render.FromError(err)
	}
	return render.Status(status)
}

var leadingInt = regexp.MustCompile(`^[+-]?[0-9]+`)

// logLineCount resolves the requested count from the leading integer of the
// first argument, so "5abc" and "5.5" both mean 5. A token without one
// falls back to the default; range checks happen afterwards.
func logLineCount(args []string) int {
	if len(args) == 0 {
		return defaultLogLines
	}
	digits := leadingInt.FindString(args[0])
	if digits == "" {
		return defaultLogLines
	}
	// Out of range values come back clamped and fail the range check.
	n, _ := strconv.Atoi(digits)
	return n
}

func handleLog(ctx context.Context, env *Env, inv Invocation) render.Message {
	lines := logLineCount(inv.Args)
	if lines < minLogLines || lines > maxLogLines {
		return render.Failure("Log line count must be between 1 and 50.")
	}

	logs, err := env.API.Logs(ctx, lines).Get()
	if err != nil {
		return render.FromError(err)
	}
	return render.Logs(logs)
}

func handleSetInterval(ctx context.Context, env *Env, inv Invocation) render.Message {
	return ack(env.API.SetCheckInterval(ctx, inv.Args[0]))
}

func handleSetLogChannel(_ context.Context, env *Env, inv Invocation) render.Message {
	if err := env.Settings.SetLogChannelID(inv.ChannelID); err != nil {
		logger.ErrorCF("command", "Failed to persist log channel", map[string]any{
			"invocation": inv.ID.String(),
			"channel_id": inv.ChannelID,
			"error":      err.Error(),
		})
		return render.Failure("could not save the configuration.")
	}
	return render.Success("This channel is now the log channel.")
}

func handleHelp(_ context.Context, env *Env, _ Invocation) render.Message {
	return render.Help(env.Settings.Prefix(), env.Registry.HelpEntries())
}
