// Package render turns control plane payloads into Discord replies.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/edgestream/linkbot/pkg/controlplane"
	"github.com/edgestream/linkbot/pkg/utils"
)

const (
	// ColorDefault is the accent of every reply embed.
	ColorDefault = 0x0099ff

	// Discord embed limits, in characters.
	maxDescriptionLen = 4096
	maxFieldNameLen   = 256
	maxFieldValueLen  = 1024
	maxEmbedLen       = 6000
	// Discord allows at most this many fields per embed.
	maxFields = 25

	// Stands in for an empty field name or value, which Discord rejects.
	blank = "\u200b"
)

// now is swapped in tests.
var now = time.Now

// Message is a single reply. Exactly one of Content or Embed is set.
type Message struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

// IsEmbed reports whether the reply is a structured message.
func (m Message) IsEmbed() bool {
	return m.Embed != nil
}

// Text is a plain reply.
func Text(content string) Message {
	return Message{Content: content}
}

func Success(message string) Message {
	return Text("✅ " + message)
}

func Failure(message string) Message {
	return Text("❌ Error: " + message)
}

// FromError renders err as a failure reply.
func FromError(err error) Message {
	return Failure(err.Error())
}

// Usage tells the user what is missing and shows an example invocation.
func Usage(problem, prefix, example string) Message {
	return Failure(fmt.Sprintf("%s\nExample: `%s%s`", problem, prefix, example))
}

// Ack renders the outcome of a mutating operation.
func Ack(ack controlplane.Ack) Message {
	return Success(ack.Message)
}

func newEmbed(title string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     title,
		Color:     ColorDefault,
		Timestamp: now().Format(time.RFC3339),
	}
}

func field(name, value string, inline bool) *discordgo.MessageEmbedField {
	if name == "" {
		name = blank
	}
	if value == "" {
		value = blank
	}
	return &discordgo.MessageEmbedField{
		Name:   utils.Truncate(name, maxFieldNameLen),
		Value:  utils.Truncate(value, maxFieldValueLen),
		Inline: inline,
	}
}

func fieldLen(f *discordgo.MessageEmbedField) int {
	return utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
}

func moreField(n int) *discordgo.MessageEmbedField {
	return field("More", fmt.Sprintf("…and %d more", n), false)
}

// fill sets the embed fields to head, as many entries as fit and then tail.
// head and tail are always kept. When entries are cut, a field saying how
// many were left out goes between the entries and tail, so the embed stays
// within Discord's field count and total size limits.
func fill(embed *discordgo.MessageEmbed, head, entries, tail []*discordgo.MessageEmbedField) {
	slots := maxFields - len(head) - len(tail)
	budget := maxEmbedLen - utf8.RuneCountInString(embed.Title) - utf8.RuneCountInString(embed.Description)
	for _, f := range head {
		budget -= fieldLen(f)
	}
	for _, f := range tail {
		budget -= fieldLen(f)
	}
	reserve := fieldLen(moreField(len(entries)))

	fields := append([]*discordgo.MessageEmbedField{}, head...)
	shown := 0
	for i, f := range entries {
		needSlots, needLen := 1, fieldLen(f)
		if i < len(entries)-1 {
			needSlots++
			needLen += reserve
		}
		if needSlots > slots || needLen > budget {
			break
		}
		fields = append(fields, f)
		slots--
		budget -= fieldLen(f)
		shown++
	}
	if shown < len(entries) && slots > 0 {
		fields = append(fields, moreField(len(entries)-shown))
	}
	embed.Fields = append(fields, tail...)
}

func StatusIcon(status controlplane.LinkStatus) string {
	switch status {
	case controlplane.LinkActive:
		return "🟢 Active"
	case controlplane.LinkError:
		return "🔴 Error"
	default:
		return "⚪ Inactive"
	}
}

func Links(links []controlplane.Link) Message {
	if len(links) == 0 {
		return Text("📋 No links registered.")
	}

	embed := newEmbed("📋 Registered Links")
	entries := make([]*discordgo.MessageEmbedField, 0, len(links))
	for _, link := range links {
		entries = append(entries, field(
			fmt.Sprintf("%s. %s", link.ID, link.Name),
			StatusIcon(link.Status)+"\n"+link.URL,
			false))
	}
	fill(embed, nil, entries, nil)
	return Message{Embed: embed}
}

// Status renders the scheduler snapshot. The last check time is shown in
// the host's local time zone and left out when no check has run. It is
// kept even when the active links do not all fit.
func Status(status controlplane.Status) Message {
	embed := newEmbed("📊 System Status")
	embed.Description = "Control plane status:"

	head := []*discordgo.MessageEmbedField{
		field("Active Links", fmt.Sprintf("%d", status.ActiveCount), true),
		field("Total Links", fmt.Sprintf("%d", status.TotalCount), true),
		field("Check Interval", fmt.Sprintf("%d minutes", status.CheckInterval), true),
	}

	var entries []*discordgo.MessageEmbedField
	if status.ActiveCount > 0 {
		head = append(head, field("Active Links", "---", false))
		for _, link := range status.ActiveLinks {
			entries = append(entries, field(
				fmt.Sprintf("%s. %s", link.ID, link.Name),
				fmt.Sprintf("Profile: %s (ID: %s)\n%s", link.ProfileName, link.ProfileID, link.URL),
				false))
		}
	}

	var tail []*discordgo.MessageEmbedField
	if status.LastStatusCheck > 0 {
		tail = append(tail, field("Last Check", formatEpoch(status.LastStatusCheck), false))
	}

	fill(embed, head, entries, tail)
	return Message{Embed: embed}
}

func formatEpoch(seconds float64) string {
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).Local().Format("2006-01-02 15:04:05")
}

func Profiles(profiles []controlplane.Profile) Message {
	if len(profiles) == 0 {
		return Text("📋 No profiles defined.")
	}

	embed := newEmbed("📋 Defined Profiles")
	entries := make([]*discordgo.MessageEmbedField, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, field(fmt.Sprintf("%s. %s", p.ID, p.Name), p.Path, false))
	}
	fill(embed, nil, entries, nil)
	return Message{Embed: embed}
}

// Logs renders the returned lines in a code block. The title carries the
// number of lines the control plane actually sent, which can be fewer than
// requested. When the block would not fit in an embed the oldest lines are
// dropped.
func Logs(lines []string) Message {
	if len(lines) == 0 {
		return Text("📋 No log entries.")
	}

	embed := newEmbed(fmt.Sprintf("📋 Last %d Log Lines", len(lines)))
	embed.Description = codeBlock(lines)
	return Message{Embed: embed}
}

func codeBlock(lines []string) string {
	const fence = "```\n"
	const closing = "\n```"
	budget := maxDescriptionLen - len([]rune(fence)) - len([]rune(closing))

	body := strings.Join(lines, "\n")
	if runes := []rune(body); len(runes) > budget {
		body = string(runes[len(runes)-budget:])
		// Start on a line boundary when one is available.
		if idx := strings.IndexByte(body, '\n'); idx >= 0 && idx < len(body)-1 {
			body = body[idx+1:]
		}
	}
	return fence + body + closing
}

// HelpEntry is one line of the command reference.
type HelpEntry struct {
	Usage       string
	Description string
}

// Help lists entries with prefix prepended to each usage.
func Help(prefix string, entries []HelpEntry) Message {
	embed := newEmbed("🔍 Help")
	embed.Description = "Available commands:"
	fields := make([]*discordgo.MessageEmbedField, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, field(prefix+e.Usage, e.Description, false))
	}
	fill(embed, nil, fields, nil)
	return Message{Embed: embed}
}
