package discord

import "fmt"

// Hard caps applied to every message before it enters a digest. They bound
// how much content a single hostile or noisy message can contribute.
const (
	MaxContentLength    = 100_000
	MaxAuthorNameLength = 100
	MaxAttachments      = 10
	MaxReactions        = 20
	MaxEmojiLength      = 20

	truncationSuffix = "...[truncated]"
)

// limitContent caps message content at MaxContentLength characters,
// appending a truncation marker when content was cut.
func limitContent(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxContentLength {
		return content
	}

	return string(runes[:MaxContentLength]) + truncationSuffix
}

// limitAuthorName caps an author display name at MaxAuthorNameLength
// characters, without a marker.
func limitAuthorName(name string) string {
	runes := []rune(name)
	if len(runes) <= MaxAuthorNameLength {
		return name
	}

	return string(runes[:MaxAuthorNameLength])
}

// limitAttachments caps the attachment list at MaxAttachments filenames.
// When the list overflows, the entry after the last kept filename states how
// many were dropped.
func limitAttachments(filenames []string) []string {
	if len(filenames) <= MaxAttachments {
		return filenames
	}

	limited := make([]string, 0, MaxAttachments+1)
	limited = append(limited, filenames[:MaxAttachments]...)
	limited = append(limited, fmt.Sprintf("...and %d more", len(filenames)-MaxAttachments))

	return limited
}

// limitReactions caps the reaction list at MaxReactions entries and each
// emoji at MaxEmojiLength characters. Overflowing reactions are dropped
// without a marker.
func limitReactions(reactions []Reaction) []Reaction {
	if len(reactions) > MaxReactions {
		reactions = reactions[:MaxReactions]
	}

	limited := make([]Reaction, 0, len(reactions))
	for _, r := range reactions {
		if runes := []rune(r.Emoji); len(runes) > MaxEmojiLength {
			r.Emoji = string(runes[:MaxEmojiLength])
		}

		limited = append(limited, r)
	}

	return limited
}
