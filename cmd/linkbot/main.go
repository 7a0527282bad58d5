// Linkbot - Discord front end for the stream link control plane
// License: MIT
//
// Copyright (c) 2026 Linkbot contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgestream/linkbot/cmd/linkbot/internal"
	"github.com/edgestream/linkbot/cmd/linkbot/internal/configcmd"
	"github.com/edgestream/linkbot/cmd/linkbot/internal/run"
	"github.com/edgestream/linkbot/cmd/linkbot/internal/status"
	"github.com/edgestream/linkbot/cmd/linkbot/internal/version"
)

func NewLinkbotCommand() *cobra.Command {
	short := fmt.Sprintf("%s linkbot - Discord commands for the stream link control plane", internal.Logo)

	cmd := &cobra.Command{
		Use:           "linkbot",
		Short:         short,
		Example:       "linkbot run --config /etc/linkbot/config.json",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&internal.ConfigFlag, "config", "c", "",
		fmt.Sprintf("Path to the config file (default $%s or ./config.json)", "LINKBOT_CONFIG"))

	cmd.AddCommand(
		run.NewRunCommand(),
		status.NewStatusCommand(),
		configcmd.NewConfigCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewLinkbotCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
