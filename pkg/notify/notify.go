// Package notify mirrors operational events into the configured Discord log
// channel. Delivery is best effort: failures are logged locally and never
// reach the user that triggered the event.
package notify

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/edgestream/linkbot/pkg/logger"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Success
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Success:
		return "success"
	default:
		return "info"
	}
}

// Title is the embed heading for the severity.
func (s Severity) Title() string {
	switch s {
	case Warning:
		return "🟡 Warning"
	case Error:
		return "🔴 Error"
	case Success:
		return "🟢 Success"
	default:
		return "ℹ️ Info"
	}
}

func (s Severity) Color() int {
	switch s {
	case Warning:
		return 0xffaa00
	case Error:
		return 0xff0000
	case Success:
		return 0x00ff00
	default:
		return 0x0099ff
	}
}

// Sender is the slice of *discordgo.Session the notifier needs.
type Sender interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelSource yields the current log channel. *config.Store implements it.
type ChannelSource interface {
	LogChannelID() (string, bool)
}

type Notifier struct {
	sender  Sender
	channel ChannelSource
	now     func() time.Time
}

func New(sender Sender, channel ChannelSource) *Notifier {
	return &Notifier{
		sender:  sender,
		channel: channel,
		now:     time.Now,
	}
}

// Notify posts text to the log channel. It is a no-op when no channel is
// configured.
func (n *Notifier) Notify(ctx context.Context, text string, severity Severity) {
	if n == nil || n.sender == nil || n.channel == nil {
		return
	}

	channelID, ok := n.channel.LogChannelID()
	if !ok {
		return
	}

	if _, err := n.sender.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		logger.WarnCF("notify", "Log channel unavailable", map[string]any{
			"channel_id": channelID,
			"error":      err.Error(),
		})
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       severity.Title(),
		Description: text,
		Color:       severity.Color(),
		Timestamp:   n.now().Format(time.RFC3339),
	}

	if _, err := n.sender.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		logger.WarnCF("notify", "Failed to send log message", map[string]any{
			"channel_id": channelID,
			"severity":   severity.String(),
			"error":      err.Error(),
		})
		return
	}

	logger.DebugCF("notify", "Log message sent", map[string]any{
		"channel_id": channelID,
		"severity":   severity.String(),
	})
}

// NotifyAsync runs Notify on its own goroutine with a bounded deadline.
func (n *Notifier) NotifyAsync(text string, severity Severity) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n.Notify(ctx, text, severity)
	}()
}
