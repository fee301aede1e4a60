package discord

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Reaction is an emoji reaction attached to a message.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Message is one qualifying message after filtering and content limits.
// Messages are constructed once during a fetch and never mutated afterwards.
type Message struct {
	ID          snowflake.ID `json:"id"`
	Author      string       `json:"author"`
	AuthorID    snowflake.ID `json:"author_id"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []string     `json:"attachments,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
}

// ChannelMessages holds the qualifying messages of a single channel,
// sorted ascending by timestamp.
type ChannelMessages struct {
	ChannelName string       `json:"channel_name"`
	ChannelID   snowflake.ID `json:"channel_id"`
	Messages    []Message    `json:"messages"`
}

// ServerDigestData is the aggregate result of one fetch operation.
// Channels appear in discovery order and only contain channels with at
// least one message. TotalMessages always equals the sum of per-channel
// message counts.
type ServerDigestData struct {
	ServerName    string            `json:"server_name"`
	ServerID      snowflake.ID      `json:"server_id"`
	Channels      []ChannelMessages `json:"channels"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	TotalMessages int               `json:"total_messages"`
}

// FilterChannel returns a copy of the digest data narrowed to the named
// channel, with the message total recomputed. Channel name matching is
// exact. The receiver is left untouched.
func (d *ServerDigestData) FilterChannel(channelName string) *ServerDigestData {
	filtered := &ServerDigestData{
		ServerName: d.ServerName,
		ServerID:   d.ServerID,
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
	}

	for _, ch := range d.Channels {
		if ch.ChannelName == channelName {
			filtered.Channels = append(filtered.Channels, ch)
			filtered.TotalMessages += len(ch.Messages)
		}
	}

	return filtered
}

// Guild is a server visible to the connected account.
type Guild struct {
	ID   snowflake.ID
	Name string
}

// Channel is a text channel within a guild.
type Channel struct {
	ID   snowflake.ID
	Name string
}

// RawMessage is a message as returned by the remote service, before
// filtering and content limits are applied.
type RawMessage struct {
	ID          snowflake.ID
	AuthorName  string
	AuthorID    snowflake.ID
	AuthorBot   bool
	Content     string
	Timestamp   time.Time
	Attachments []string
	Reactions   []Reaction
}
