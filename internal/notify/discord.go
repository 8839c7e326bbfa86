// Package notify pushes journal events to Discord. It is optional:
// without a token every method is a no-op.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/vault"
)

const maxMessageLen = 2000 // Discord hard limit

// Discord sends journal notifications to a single channel
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord opens a Discord session. An empty token returns a disabled
// notifier rather than an error so callers can wire it unconditionally.
func NewDiscord(token, channelID string) (*Discord, error) {
	if token == "" || channelID == "" {
		return &Discord{}, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord connect: %w", err)
	}

	logging.Info("notify", "Discord notifier connected (channel %s)", channelID)
	return &Discord{session: session, channelID: channelID}, nil
}

// Enabled reports whether a live session is attached
func (d *Discord) Enabled() bool {
	return d.session != nil
}

// Close shuts down the session
func (d *Discord) Close() error {
	if d.session == nil {
		return nil
	}
	return d.session.Close()
}

// PromptsReady announces freshly generated reflection prompts
func (d *Discord) PromptsReady(date time.Time, prompts []string) error {
	if !d.Enabled() {
		return nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Reflection prompts for %s**\n", date.Format(vault.DateFormat)))
	for i, p := range prompts {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
	}
	return d.send(b.String())
}

// TodosAdded announces todos captured from an entry
func (d *Discord) TodosAdded(date time.Time, added int) error {
	if !d.Enabled() || added == 0 {
		return nil
	}
	return d.send(fmt.Sprintf("Captured %d new todo(s) from the %s entry.", added, date.Format(vault.DateFormat)))
}

// TraceReport sends a rendered memory trace digest
func (d *Discord) TraceReport(report string) error {
	if !d.Enabled() {
		return nil
	}
	return d.send(report)
}

func (d *Discord) send(content string) error {
	for _, chunk := range splitMessage(content) {
		if _, err := d.session.ChannelMessageSend(d.channelID, chunk); err != nil {
			return fmt.Errorf("discord send: %w", err)
		}
	}
	return nil
}

// splitMessage breaks content on line boundaries to fit the message limit
func splitMessage(content string) []string {
	if len(content) <= maxMessageLen {
		return []string{content}
	}

	var chunks []string
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		if b.Len()+len(line)+1 > maxMessageLen && b.Len() > 0 {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
