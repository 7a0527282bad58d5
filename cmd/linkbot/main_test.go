package main

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkbotCommand(t *testing.T) {
	cmd := NewLinkbotCommand()
	require.NotNil(t, cmd)

	assert.Equal(t, "linkbot", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"run", "status", "config", "version"} {
		assert.True(t, slices.Contains(names, want), "missing subcommand %q", want)
	}
}
