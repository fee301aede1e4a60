// Package digest formats fetched server activity: the message dump handed
// to the LLM, the final digest document, and output file naming.
package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"discord-digest/internal/discord"
)

const timestampLayout = "2006-01-02 15:04 MST"

// FormatMessages renders a ServerDigestData as the channel-organized text
// block handed to the LLM.
func FormatMessages(data *discord.ServerDigestData) string {
	var b strings.Builder

	for i, ch := range data.Channels {
		if i > 0 {
			b.WriteString("\n")
		}

		fmt.Fprintf(&b, "## #%s (%d messages)\n\n", ch.ChannelName, len(ch.Messages))

		for _, msg := range ch.Messages {
			fmt.Fprintf(&b, "[%s] %s: %s\n",
				msg.Timestamp.UTC().Format("15:04"), msg.Author, msg.Content)

			if len(msg.Attachments) > 0 {
				fmt.Fprintf(&b, "  (attachments: %s)\n", strings.Join(msg.Attachments, ", "))
			}

			if len(msg.Reactions) > 0 {
				parts := make([]string, len(msg.Reactions))
				for j, r := range msg.Reactions {
					parts[j] = fmt.Sprintf("%s x%d", r.Emoji, r.Count)
				}

				fmt.Fprintf(&b, "  (reactions: %s)\n", strings.Join(parts, ", "))
			}
		}
	}

	return b.String()
}

// FormatTimeRange renders the fetch window as a human-readable range.
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s to %s",
		start.UTC().Format(timestampLayout),
		end.UTC().Format(timestampLayout))
}

// CreateDocument assembles the full digest document around the LLM-generated
// body.
func CreateDocument(data *discord.ServerDigestData, body, providerName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s - Activity Digest\n\n", data.ServerName)
	fmt.Fprintf(&b, "**Time period:** %s\n", FormatTimeRange(data.StartTime, data.EndTime))
	fmt.Fprintf(&b, "**Channels with activity:** %d\n", len(data.Channels))
	fmt.Fprintf(&b, "**Total messages:** %d\n\n", data.TotalMessages)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "*Generated by %s at %s*\n",
		providerName, time.Now().UTC().Format(timestampLayout))

	return b.String()
}

// WriteDocument writes a digest document into dir, creating the directory
// when it does not exist. The file is owner-readable only; it may contain
// private channel content. Returns the written path.
func WriteDocument(dir, filename, document string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(document), 0o600); err != nil {
		return "", fmt.Errorf("failed to write digest file: %w", err)
	}

	return path, nil
}

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// DefaultFilename returns the output filename for a server's digest, using
// a slug of the server name and a UTC timestamp.
func DefaultFilename(serverName string, now time.Time) string {
	slug := filenameUnsafe.ReplaceAllString(strings.ToLower(serverName), "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		slug = "server"
	}

	return fmt.Sprintf("digest-%s-%s.md", slug, now.UTC().Format("2006-01-02_150405"))
}
