package command

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/edgestream/linkbot/pkg/controlplane"
	"github.com/edgestream/linkbot/pkg/render"
)

// Invocation is one parsed command from one inbound message.
type Invocation struct {
	ID        uuid.UUID
	Name      string
	Args      []string
	ChannelID string
	AuthorID  string
}

// ControlPlane is the remote API the handlers drive. *controlplane.Client
// implements it.
type ControlPlane interface {
	Status(ctx context.Context) mo.Result[controlplane.Status]
	Links(ctx context.Context) mo.Result[[]controlplane.Link]
	StartLink(ctx context.Context, link string, profile mo.Option[string]) mo.Result[controlplane.Ack]
	StopLink(ctx context.Context, link, profile mo.Option[string]) mo.Result[controlplane.Ack]
	AddLink(ctx context.Context, url string, name mo.Option[string]) mo.Result[controlplane.Ack]
	RemoveLink(ctx context.Context, link string) mo.Result[controlplane.Ack]
	SetCheckInterval(ctx context.Context, minutes string) mo.Result[controlplane.Ack]
	Restart(ctx context.Context) mo.Result[controlplane.Ack]
	Reposition(ctx context.Context) mo.Result[controlplane.Ack]
	Profiles(ctx context.Context) mo.Result[[]controlplane.Profile]
	Logs(ctx context.Context, lines int) mo.Result[[]string]
	OpenLink(ctx context.Context, link, profile string) mo.Result[controlplane.Ack]
}

// Settings is the part of the config store the handlers read and mutate.
// *config.Store implements it.
type Settings interface {
	Prefix() string
	SetLogChannelID(channelID string) error
}

// Env is what a handler gets to work with.
type Env struct {
	API      ControlPlane
	Settings Settings
	Registry *Registry
}

// Handler runs a command whose arity has already been checked.
type Handler func(ctx context.Context, env *Env, inv Invocation) render.Message

// Command is a registry entry.
type Command struct {
	Name        string
	Usage       string // signature without prefix, e.g. "open [link] [profile_id]"
	Description string
	MinArgs     int
	// Missing and Example make up the reply when fewer than MinArgs are given.
	Missing string
	Example string
	Handler Handler
}
