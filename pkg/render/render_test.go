package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgestream/linkbot/pkg/controlplane"
)

func fixedNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestLinks(t *testing.T) {
	fixedNow(t)

	t.Run("empty list is plain text", func(t *testing.T) {
		msg := Links(nil)
		assert.False(t, msg.IsEmbed())
		assert.Equal(t, "📋 No links registered.", msg.Content)
	})

	t.Run("one field per link", func(t *testing.T) {
		msg := Links([]controlplane.Link{
			{ID: "1", Name: "Main", URL: "https://a", Status: controlplane.LinkActive},
			{ID: "2", Name: "Backup", URL: "https://b", Status: controlplane.LinkError},
			{ID: "3", Name: "Old", URL: "https://c", Status: "paused"},
		})
		require.True(t, msg.IsEmbed())
		assert.Empty(t, msg.Content)
		assert.Equal(t, "📋 Registered Links", msg.Embed.Title)
		assert.Equal(t, ColorDefault, msg.Embed.Color)
		assert.Equal(t, "2026-01-02T03:04:05Z", msg.Embed.Timestamp)

		require.Len(t, msg.Embed.Fields, 3)
		assert.Equal(t, "1. Main", msg.Embed.Fields[0].Name)
		assert.Equal(t, "🟢 Active\nhttps://a", msg.Embed.Fields[0].Value)
		assert.Equal(t, "🔴 Error\nhttps://b", msg.Embed.Fields[1].Value)
		assert.Equal(t, "⚪ Inactive\nhttps://c", msg.Embed.Fields[2].Value)
	})
}

func TestStatus(t *testing.T) {
	fixedNow(t)

	t.Run("idle without last check", func(t *testing.T) {
		msg := Status(controlplane.Status{ActiveCount: 0, TotalCount: 3, CheckInterval: 5})
		require.True(t, msg.IsEmbed())

		fields := msg.Embed.Fields
		require.Len(t, fields, 3)
		assert.Equal(t, "Active Links", fields[0].Name)
		assert.Equal(t, "0", fields[0].Value)
		assert.True(t, fields[0].Inline)
		assert.Equal(t, "Total Links", fields[1].Name)
		assert.Equal(t, "3", fields[1].Value)
		assert.Equal(t, "Check Interval", fields[2].Name)
		assert.Equal(t, "5 minutes", fields[2].Value)
	})

	t.Run("active links and last check", func(t *testing.T) {
		check := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
		msg := Status(controlplane.Status{
			ActiveCount:   1,
			TotalCount:    2,
			CheckInterval: 1,
			ActiveLinks: []controlplane.ActiveLink{
				{ID: "2", Name: "Main", URL: "https://a", ProfileID: "0", ProfileName: "Default"},
			},
			LastStatusCheck: float64(check.Unix()),
		})

		fields := msg.Embed.Fields
		require.Len(t, fields, 6)
		assert.Equal(t, "Active Links", fields[3].Name)
		assert.Equal(t, "---", fields[3].Value)
		assert.False(t, fields[3].Inline)
		assert.Equal(t, "2. Main", fields[4].Name)
		assert.Equal(t, "Profile: Default (ID: 0)\nhttps://a", fields[4].Value)
		assert.Equal(t, "Last Check", fields[5].Name)
		assert.Equal(t, "2026-03-04 05:06:07", fields[5].Value)
	})
}

// embedLen counts the characters Discord charges against an embed.
func embedLen(t *testing.T, msg Message) int {
	t.Helper()
	require.True(t, msg.IsEmbed())
	n := utf8.RuneCountInString(msg.Embed.Title) + utf8.RuneCountInString(msg.Embed.Description)
	for _, f := range msg.Embed.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

func manyLinks(n int, url string) []controlplane.Link {
	links := make([]controlplane.Link, n)
	for i := range links {
		links[i] = controlplane.Link{
			ID:     controlplane.ID(strconv.Itoa(i + 1)),
			Name:   "n",
			URL:    url,
			Status: controlplane.LinkActive,
		}
	}
	return links
}

func TestLinks_Overflow(t *testing.T) {
	fixedNow(t)

	t.Run("more than 25 links", func(t *testing.T) {
		msg := Links(manyLinks(30, "https://a"))

		fields := msg.Embed.Fields
		require.Len(t, fields, maxFields)
		assert.Equal(t, "24. n", fields[23].Name)
		assert.Equal(t, "More", fields[24].Name)
		assert.Equal(t, "…and 6 more", fields[24].Value)
	})

	t.Run("long urls stay within the embed size limit", func(t *testing.T) {
		msg := Links(manyLinks(30, "https://example.com/"+strings.Repeat("x", 230)))

		assert.LessOrEqual(t, embedLen(t, msg), maxEmbedLen)

		fields := msg.Embed.Fields
		require.LessOrEqual(t, len(fields), maxFields)
		shown := len(fields) - 1
		assert.Less(t, shown, 30)
		assert.Equal(t, "More", fields[shown].Name)
		assert.Equal(t, fmt.Sprintf("…and %d more", 30-shown), fields[shown].Value)
	})

	t.Run("field value is capped", func(t *testing.T) {
		msg := Links(manyLinks(1, "https://example.com/"+strings.Repeat("x", 2000)))

		require.Len(t, msg.Embed.Fields, 1)
		value := msg.Embed.Fields[0].Value
		assert.Equal(t, maxFieldValueLen, utf8.RuneCountInString(value))
		assert.True(t, strings.HasSuffix(value, "..."))
	})
}

func TestStatus_KeepsLastCheckWhenLinksOverflow(t *testing.T) {
	fixedNow(t)

	active := make([]controlplane.ActiveLink, 22)
	for i := range active {
		active[i] = controlplane.ActiveLink{
			ID:          controlplane.ID(strconv.Itoa(i + 1)),
			Name:        "n",
			URL:         "https://a",
			ProfileID:   "0",
			ProfileName: "Default",
		}
	}

	msg := Status(controlplane.Status{
		ActiveCount:     22,
		TotalCount:      22,
		CheckInterval:   5,
		ActiveLinks:     active,
		LastStatusCheck: 1700000000,
	})

	fields := msg.Embed.Fields
	require.Len(t, fields, maxFields)
	assert.Equal(t, "Active Links", fields[3].Name)
	assert.Equal(t, "19. n", fields[22].Name)
	assert.Equal(t, "…and 3 more", fields[23].Value)
	assert.Equal(t, "Last Check", fields[24].Name)
	assert.LessOrEqual(t, embedLen(t, msg), maxEmbedLen)
}

func TestProfiles_EmptyPathIsNotBlank(t *testing.T) {
	msg := Profiles([]controlplane.Profile{{ID: "0", Name: "Main"}})

	require.Len(t, msg.Embed.Fields, 1)
	assert.NotEmpty(t, msg.Embed.Fields[0].Value)
}

func TestProfiles(t *testing.T) {
	assert.Equal(t, "📋 No profiles defined.", Profiles(nil).Content)

	msg := Profiles([]controlplane.Profile{{ID: "0", Name: "Main", Path: "/profiles/main"}})
	require.True(t, msg.IsEmbed())
	require.Len(t, msg.Embed.Fields, 1)
	assert.Equal(t, "0. Main", msg.Embed.Fields[0].Name)
	assert.Equal(t, "/profiles/main", msg.Embed.Fields[0].Value)
}

func TestLogs(t *testing.T) {
	assert.Equal(t, "📋 No log entries.", Logs([]string{}).Content)

	msg := Logs([]string{"first", "second"})
	require.True(t, msg.IsEmbed())
	assert.Equal(t, "📋 Last 2 Log Lines", msg.Embed.Title)
	assert.Equal(t, "```\nfirst\nsecond\n```", msg.Embed.Description)
}

func TestLogs_TruncatesOldestLines(t *testing.T) {
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = strings.Repeat(string(rune('a'+i%26)), 199)
	}

	msg := Logs(lines)
	desc := msg.Embed.Description
	assert.LessOrEqual(t, len([]rune(desc)), maxDescriptionLen)
	assert.True(t, strings.HasPrefix(desc, "```\n"))
	assert.True(t, strings.HasSuffix(desc, lines[49]+"\n```"))
	assert.NotContains(t, desc, lines[0])
	assert.Equal(t, "📋 Last 50 Log Lines", msg.Embed.Title)
}

func TestHelp_UsesPrefix(t *testing.T) {
	entries := []HelpEntry{{Usage: "links", Description: "List links"}, {Usage: "log [lines]", Description: "Show logs"}}

	msg := Help("?", entries)
	require.Len(t, msg.Embed.Fields, 2)
	assert.Equal(t, "?links", msg.Embed.Fields[0].Name)
	assert.Equal(t, "List links", msg.Embed.Fields[0].Value)
	assert.Equal(t, "?log [lines]", msg.Embed.Fields[1].Name)
}

func TestPlainReplies(t *testing.T) {
	assert.Equal(t, "✅ Link added", Ack(controlplane.Ack{Message: "Link added"}).Content)
	assert.Equal(t, "❌ Error: boom", FromError(errors.New("boom")).Content)
	assert.Equal(t, "❌ Error: You must give a URL.\nExample: `!addlink https://x`",
		Usage("You must give a URL.", "!", "addlink https://x").Content)
}
