package discord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerDigestData_FilterChannel(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	data := &ServerDigestData{
		ServerName: "Gaming Hub",
		ServerID:   42,
		StartTime:  now.Add(-6 * time.Hour),
		EndTime:    now,
		Channels: []ChannelMessages{
			{ChannelName: "general", ChannelID: 1, Messages: make([]Message, 5)},
			{ChannelName: "random", ChannelID: 2, Messages: make([]Message, 3)},
		},
		TotalMessages: 8,
	}

	filtered := data.FilterChannel("random")

	require.Len(t, filtered.Channels, 1)
	assert.Equal(t, "random", filtered.Channels[0].ChannelName)
	assert.Equal(t, 3, filtered.TotalMessages)
	assert.Equal(t, data.ServerName, filtered.ServerName)
	assert.Equal(t, data.StartTime, filtered.StartTime)
	assert.Equal(t, data.EndTime, filtered.EndTime)

	// The original is untouched.
	assert.Len(t, data.Channels, 2)
	assert.Equal(t, 8, data.TotalMessages)
}

func TestServerDigestData_FilterChannel_NoMatch(t *testing.T) {
	t.Parallel()

	data := &ServerDigestData{
		ServerName: "Gaming Hub",
		Channels: []ChannelMessages{
			{ChannelName: "general", Messages: make([]Message, 5)},
		},
		TotalMessages: 5,
	}

	filtered := data.FilterChannel("does-not-exist")

	assert.Empty(t, filtered.Channels)
	assert.Zero(t, filtered.TotalMessages)
}
