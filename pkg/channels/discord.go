// Package channels connects the command dispatcher to Discord.
package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/edgestream/linkbot/pkg/command"
	"github.com/edgestream/linkbot/pkg/logger"
	"github.com/edgestream/linkbot/pkg/notify"
	"github.com/edgestream/linkbot/pkg/render"
	"github.com/edgestream/linkbot/pkg/utils"
)

const (
	sendTimeout = 10 * time.Second

	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsDirectMessages
)

// Dispatcher turns an inbound message into at most one reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg command.Inbound) (render.Message, bool)
}

type Notifier interface {
	NotifyAsync(text string, severity notify.Severity)
}

type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// NewSession creates a bot session with the gateway intents the bot needs.
// proxy may be empty, in which case the environment proxy settings apply.
func NewSession(token, proxy string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = intents

	if err := applyDiscordProxy(session, proxy); err != nil {
		return nil, err
	}
	return session, nil
}

// applyDiscordProxy routes both REST and gateway traffic through proxyURL,
// or through the HTTP(S)_PROXY environment when proxyURL is empty.
func applyDiscordProxy(session *discordgo.Session, proxyURL string) error {
	proxy := http.ProxyFromEnvironment
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid discord proxy %q", proxyURL)
		}
		proxy = http.ProxyURL(u)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy
	session.Client = &http.Client{Timeout: 20 * time.Second, Transport: transport}

	dialer := *websocket.DefaultDialer
	dialer.Proxy = proxy
	session.Dialer = &dialer
	return nil
}

type DiscordChannel struct {
	session    *discordgo.Session
	sender     messageSender
	dispatcher Dispatcher
	notifier   Notifier

	ctx context.Context
	// mu orders the running check in handleMessage against Stop, so no
	// invocation is added to inflight once Stop waits on it.
	mu       sync.Mutex
	running  atomic.Bool
	inflight sync.WaitGroup

	// errorMirror throttles discordgo errors forwarded to the log channel so
	// a failing notification cannot feed itself.
	errorMirror *rate.Limiter
	prevLogger  func(msgL, caller int, format string, a ...any)
}

func NewDiscordChannel(session *discordgo.Session, dispatcher Dispatcher, notifier Notifier) *DiscordChannel {
	c := &DiscordChannel{
		session:     session,
		dispatcher:  dispatcher,
		notifier:    notifier,
		ctx:         context.Background(),
		errorMirror: rate.NewLimiter(rate.Every(time.Minute), 1),
	}
	if session != nil {
		c.sender = session
	}
	return c
}

func (c *DiscordChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord bot")

	c.ctx = ctx
	c.installLogBridge()

	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleDisconnect)
	c.session.AddHandler(c.handleMessage)

	c.running.Store(true)
	if err := c.session.Open(); err != nil {
		c.running.Store(false)
		c.restoreLogger()
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Stop closes the gateway connection after in-flight invocations have
// replied or ctx expires.
func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord bot")
	c.mu.Lock()
	c.running.Store(false)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.WarnC("discord", "Shutting down with commands still in flight")
	}

	defer c.restoreLogger()
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r == nil || r.User == nil {
		return
	}
	logger.InfoCF("discord", "Discord bot connected", map[string]any{
		"username": r.User.Username,
		"user_id":  r.User.ID,
		"guilds":   len(r.Guilds),
	})
}

func (c *DiscordChannel) handleDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	logger.WarnC("discord", "Disconnected from the Discord gateway")
	if c.notifier != nil && c.IsRunning() {
		c.notifier.NotifyAsync("Disconnected from the Discord gateway, reconnecting", notify.Warning)
	}
}

func (c *DiscordChannel) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}

	logger.DebugCF("discord", "Received message", map[string]any{
		"sender_id":  m.Author.ID,
		"channel_id": m.ChannelID,
		"is_dm":      m.GuildID == "",
		"preview":    utils.Truncate(m.Content, 50),
	})

	if !c.track() {
		return
	}
	go func(msg *discordgo.Message) {
		defer c.inflight.Done()
		c.process(c.ctx, msg)
	}(m.Message)
}

// track registers one in-flight invocation unless the channel is stopping.
func (c *DiscordChannel) track() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return false
	}
	c.inflight.Add(1)
	return true
}

// process dispatches one message and sends its reply, if any.
func (c *DiscordChannel) process(ctx context.Context, msg *discordgo.Message) {
	reply, handled := c.dispatcher.Dispatch(ctx, command.Inbound{
		Content:   msg.Content,
		ChannelID: msg.ChannelID,
		AuthorID:  msg.Author.ID,
	})
	if !handled {
		return
	}

	if err := c.reply(ctx, msg, reply); err != nil {
		logger.ErrorCF("discord", "Failed to send reply", map[string]any{
			"channel_id": msg.ChannelID,
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}
}

// reply answers msg. Long text replies go out as several chunks, the first
// one referencing msg.
func (c *DiscordChannel) reply(ctx context.Context, msg *discordgo.Message, reply render.Message) error {
	if c.sender == nil {
		return errors.New("discord session not initialized")
	}

	if reply.IsEmbed() {
		return c.send(ctx, msg.ChannelID, &discordgo.MessageSend{
			Embeds:    []*discordgo.MessageEmbed{reply.Embed},
			Reference: msg.SoftReference(),
		})
	}

	if strings.TrimSpace(reply.Content) == "" {
		return nil
	}

	for i, chunk := range splitMessage(reply.Content, chunkLimit) {
		data := &discordgo.MessageSend{Content: chunk}
		if i == 0 {
			data.Reference = msg.SoftReference()
		}
		if err := c.send(ctx, msg.ChannelID, data); err != nil {
			return err
		}
	}
	return nil
}

func (c *DiscordChannel) send(ctx context.Context, channelID string, data *discordgo.MessageSend) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := c.sender.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(sendCtx)); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

// installLogBridge routes discordgo's package logger into ours. Errors are
// also mirrored to the log channel, at most once a minute.
func (c *DiscordChannel) installLogBridge() {
	c.prevLogger = discordgo.Logger
	discordgo.Logger = c.bridgeLog
}

func (c *DiscordChannel) restoreLogger() {
	discordgo.Logger = c.prevLogger
}

func (c *DiscordChannel) bridgeLog(msgL, _ int, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	fields := map[string]any{"source": "discordgo"}

	switch msgL {
	case discordgo.LogError:
		logger.ErrorCF("discord", msg, fields)
		if c.notifier != nil && c.errorMirror.Allow() {
			c.notifier.NotifyAsync("Discord bot error: "+msg, notify.Error)
		}
	case discordgo.LogWarning:
		logger.WarnCF("discord", msg, fields)
	case discordgo.LogInformational:
		logger.InfoCF("discord", msg, fields)
	default:
		logger.DebugCF("discord", msg, fields)
	}
}
