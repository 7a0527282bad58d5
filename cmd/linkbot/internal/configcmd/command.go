package configcmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgestream/linkbot/cmd/linkbot/internal"
	"github.com/edgestream/linkbot/pkg/config"
	"github.com/edgestream/linkbot/pkg/redaction"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file (init, show)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newInitCommand(),
		newShowCommand(),
	)
	return cmd
}

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd.OutOrStdout(), internal.GetConfigPath(), force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}
	return cmd
}

func initConfig(out io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(out, "%s Config written to %s\n", internal.Logo, path)
	fmt.Fprintln(out, "Set \"token\" to your Discord bot token before running linkbot.")
	return nil
}

func showConfig(out io.Writer) error {
	store, err := internal.OpenStore()
	if err != nil && !errors.Is(err, config.ErrConfigCreated) {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := store.Get()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	r := redaction.NewRedactor(redaction.DefaultConfig())
	if cfg.Token != config.PlaceholderToken {
		r.AddSecret(cfg.Token)
	}

	fmt.Fprintf(out, "# %s\n", store.Path())
	fmt.Fprintln(out, r.Redact(string(data)))
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "# invalid: %v\n", err)
	}
	return nil
}
