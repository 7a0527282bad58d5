package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgestream/linkbot/cmd/linkbot/internal"
	"github.com/edgestream/linkbot/pkg/config"
	"github.com/edgestream/linkbot/pkg/controlplane"
)

func NewStatusCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show control plane status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return statusCmd(cmd.Context(), cmd.OutOrStdout(), timeout)
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 10*time.Second, "Give up on the control plane after this long")

	return cmd
}

func statusCmd(ctx context.Context, out io.Writer, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := internal.OpenStore()
	if err != nil && !errors.Is(err, config.ErrConfigCreated) {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := store.Get()
	client := controlplane.NewClient(cfg.APIURL, &http.Client{Timeout: timeout})

	fmt.Fprintf(out, "%s linkbot status\n", internal.Logo)
	fmt.Fprintf(out, "Version: %s\n", internal.FormatVersion())
	fmt.Fprintf(out, "Config: %s\n", store.Path())
	fmt.Fprintf(out, "Control plane: %s\n", client.BaseURL())
	if id, ok := store.LogChannelID(); ok {
		fmt.Fprintf(out, "Log channel: %s\n", id)
	} else {
		fmt.Fprintln(out, "Log channel: not set")
	}
	fmt.Fprintln(out)

	snapshot, err := client.Status(ctx).Get()
	if err != nil {
		fmt.Fprintf(out, "Control plane: ✗ %v\n", err)
		return err
	}

	fmt.Fprintln(out, "Control plane: ✓")
	fmt.Fprintf(out, "  Active links:   %d\n", snapshot.ActiveCount)
	fmt.Fprintf(out, "  Total links:    %d\n", snapshot.TotalCount)
	fmt.Fprintf(out, "  Check interval: %d minutes\n", snapshot.CheckInterval)
	for _, link := range snapshot.ActiveLinks {
		fmt.Fprintf(out, "  - %s. %s in %s (ID: %s)\n", link.ID, link.Name, link.ProfileName, link.ProfileID)
	}
	if snapshot.LastStatusCheck > 0 {
		last := time.Unix(int64(snapshot.LastStatusCheck), 0).Local()
		fmt.Fprintf(out, "  Last check:     %s\n", last.Format("2006-01-02 15:04:05"))
	}
	return nil
}
