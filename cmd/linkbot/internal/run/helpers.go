package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/edgestream/linkbot/cmd/linkbot/internal"
	"github.com/edgestream/linkbot/pkg/channels"
	"github.com/edgestream/linkbot/pkg/command"
	"github.com/edgestream/linkbot/pkg/config"
	"github.com/edgestream/linkbot/pkg/controlplane"
	"github.com/edgestream/linkbot/pkg/health"
	"github.com/edgestream/linkbot/pkg/logger"
	"github.com/edgestream/linkbot/pkg/notify"
	"github.com/edgestream/linkbot/pkg/ratelimit"
	"github.com/edgestream/linkbot/pkg/redaction"
)

const shutdownTimeout = 15 * time.Second

// loadRuntimeConfig opens the config store and rejects configurations the
// bot cannot start with. A freshly created file is an error too: the
// operator has to fill in the token first.
func loadRuntimeConfig(out io.Writer) (*config.Store, error) {
	store, err := internal.OpenStore()
	if errors.Is(err, config.ErrConfigCreated) {
		fmt.Fprintf(out, "Default config written to %s\n", store.Path())
		fmt.Fprintln(out, "Add your Discord bot token to it and start linkbot again.")
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := store.Get()
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			fmt.Fprintf(out, "Set \"token\" in %s or LINKBOT_TOKEN.\n", store.Path())
		}
		return nil, fmt.Errorf("invalid config %s: %w", store.Path(), err)
	}
	return store, nil
}

// configureLogging sends console logs to errOut at the configured level.
// --debug takes precedence over logLevel.
func configureLogging(cfg config.Config, errOut io.Writer, debug bool) {
	logger.SetOutput(errOut)
	if cfg.LogLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
}

func runCmd(ctx context.Context, out, errOut io.Writer, debug bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := loadRuntimeConfig(out)
	if err != nil {
		return err
	}
	cfg := store.Get()

	configureLogging(cfg, errOut, debug)
	if debug {
		fmt.Fprintln(out, "🔍 Debug mode enabled")
	}

	redaction.AddSecret(cfg.Token)
	if cfg.LogFile != "" {
		if err := logger.EnableFileLogging(cfg.LogFile); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logger.DisableFileLogging()
	}

	session, err := channels.NewSession(cfg.Token, cfg.Proxy)
	if err != nil {
		return err
	}
	session.LogLevel = discordgo.LogWarning
	if debug {
		session.LogLevel = discordgo.LogInformational
	}

	api := controlplane.NewClient(cfg.APIURL, nil)
	notifier := notify.New(session, store)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	dispatcher := command.NewDispatcher(api, store, command.NewDefaultRegistry(), limiter, notifier)
	discord := channels.NewDiscordChannel(session, dispatcher, notifier)
	monitor := health.NewMonitor(api, notifier, cfg.HealthCheckSchedule)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := discord.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s linkbot %s running\n", internal.Logo, internal.FormatVersion())
	fmt.Fprintf(out, "  Prefix: %s\n", cfg.Prefix)
	fmt.Fprintf(out, "  Control plane: %s\n", api.BaseURL())
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	if err := monitor.Start(ctx); err != nil {
		logger.ErrorCF("run", "Health monitor not started", map[string]any{
			"error": err.Error(),
		})
	}

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down...")

	monitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := discord.Stop(shutdownCtx); err != nil {
		logger.ErrorCF("run", "Discord shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	fmt.Fprintln(out, "✓ linkbot stopped")
	return nil
}
