package command

import (
	"strings"

	"github.com/edgestream/linkbot/pkg/render"
)

// Registry maps command names to commands. It is built once at startup and
// only read afterwards.
type Registry struct {
	commands map[string]Command
	order    []string
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry. Registering a name twice
// replaces the earlier entry but keeps its position.
func (r *Registry) Register(cmd Command) {
	name := strings.ToLower(cmd.Name)
	if _, exists := r.commands[name]; !exists {
		r.order = append(r.order, name)
	}
	r.commands[name] = cmd
}

func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// HelpEntries is the command reference shown by help.
func (r *Registry) HelpEntries() []render.HelpEntry {
	entries := make([]render.HelpEntry, 0, len(r.order))
	for _, cmd := range r.Commands() {
		entries = append(entries, render.HelpEntry{Usage: cmd.Usage, Description: cmd.Description})
	}
	return entries
}

// Parse extracts command and arguments from a message.
// Returns the lower-cased command name, the case-preserved arguments, and
// true if content is a command for prefix.
func Parse(prefix, content string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(parts) == 0 {
		return "", nil, false
	}

	return strings.ToLower(parts[0]), parts[1:], true
}
