package discord

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchChannelMessages_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	end := time.Now().UTC()
	start := end.Add(-time.Hour)
	ch := Channel{ID: 10, Name: "general"}

	// Newest first, the remote order.
	history := []RawMessage{
		{
			ID: snowflake.New(end.Add(-time.Minute)), AuthorName: "bot", AuthorID: 1,
			AuthorBot: true, Content: "automated", Timestamp: end.Add(-time.Minute),
		},
		{
			ID: snowflake.New(end.Add(-2 * time.Minute)), AuthorName: "alice", AuthorID: 2,
			Content: "newest human message", Timestamp: end.Add(-2 * time.Minute),
		},
		{
			ID: snowflake.New(end.Add(-3 * time.Minute)), AuthorName: "bob", AuthorID: 3,
			Content: "", Timestamp: end.Add(-3 * time.Minute),
		},
		{
			ID: snowflake.New(end.Add(-4 * time.Minute)), AuthorName: "carol", AuthorID: 4,
			Content: "", Attachments: []string{"photo.png"}, Timestamp: end.Add(-4 * time.Minute),
		},
		{
			ID: snowflake.New(end.Add(-5 * time.Minute)), AuthorName: "alice", AuthorID: 2,
			Content: "oldest human message", Timestamp: end.Add(-5 * time.Minute),
		},
	}

	svc := &fakeChatService{history: map[snowflake.ID][]RawMessage{ch.ID: history}}
	f := newTestFetcher(testFetchConfig(), &fakeAudit{}, nil)

	result, ok, err := f.fetchChannelMessages(t.Context(), svc, ch, start, end)

	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, result.Messages, 3)

	// Bot and contentless messages are dropped; attachment-only messages stay.
	assert.Equal(t, "oldest human message", result.Messages[0].Content)
	assert.Equal(t, "carol", result.Messages[1].Author)
	assert.Equal(t, "newest human message", result.Messages[2].Content)

	assert.True(t, sort.SliceIsSorted(result.Messages, func(i, j int) bool {
		return result.Messages[i].Timestamp.Before(result.Messages[j].Timestamp)
	}))
}

func TestFetchChannelMessages_WindowBounds(t *testing.T) {
	t.Parallel()

	end := time.Now().UTC()
	start := end.Add(-time.Hour)
	ch := Channel{ID: 10, Name: "general"}

	history := []RawMessage{
		{
			ID: snowflake.New(end.Add(-time.Minute)), AuthorName: "alice", AuthorID: 2,
			Content: "inside window", Timestamp: end.Add(-time.Minute),
		},
		{
			ID: snowflake.New(start), AuthorName: "alice", AuthorID: 2,
			Content: "exactly at window start", Timestamp: start,
		},
		{
			ID: snowflake.New(start.Add(-time.Minute)), AuthorName: "alice", AuthorID: 2,
			Content: "before window", Timestamp: start.Add(-time.Minute),
		},
		{
			ID: snowflake.New(start.Add(-2 * time.Minute)), AuthorName: "alice", AuthorID: 2,
			Content: "far before window", Timestamp: start.Add(-2 * time.Minute),
		},
	}

	svc := &fakeChatService{history: map[snowflake.ID][]RawMessage{ch.ID: history}}
	f := newTestFetcher(testFetchConfig(), &fakeAudit{}, nil)

	result, ok, err := f.fetchChannelMessages(t.Context(), svc, ch, start, end)

	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "exactly at window start", result.Messages[0].Content)
	assert.Equal(t, "inside window", result.Messages[1].Content)
}

func TestFetchChannelMessages_Pagination(t *testing.T) {
	t.Parallel()

	end := time.Now().UTC()
	start := end.Add(-time.Hour)
	ch := Channel{ID: 10, Name: "busy"}

	// More than one page; every message is inside the window.
	svc := &fakeChatService{history: map[snowflake.ID][]RawMessage{
		ch.ID: historyFor(historyPageSize+50, end.Add(-time.Minute)),
	}}
	f := newTestFetcher(testFetchConfig(), &fakeAudit{}, nil)

	result, ok, err := f.fetchChannelMessages(t.Context(), svc, ch, start, end)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, result.Messages, historyPageSize+50)
}

func TestFetchChannelMessages_PerChannelCap(t *testing.T) {
	t.Parallel()

	end := time.Now().UTC()
	start := end.Add(-time.Hour)
	ch := Channel{ID: 10, Name: "busy"}

	cfg := testFetchConfig()
	cfg.MaxMessagesPerChannel = 120

	svc := &fakeChatService{history: map[snowflake.ID][]RawMessage{
		ch.ID: historyFor(500, end.Add(-time.Minute)),
	}}
	f := newTestFetcher(cfg, &fakeAudit{}, nil)

	result, ok, err := f.fetchChannelMessages(t.Context(), svc, ch, start, end)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, result.Messages, cfg.MaxMessagesPerChannel)
}

func TestFetchChannelMessages_PermissionDenied(t *testing.T) {
	t.Parallel()

	end := time.Now().UTC()
	ch := Channel{ID: 10, Name: "private"}

	svc := &fakeChatService{
		history: map[snowflake.ID][]RawMessage{ch.ID: historyFor(5, end.Add(-time.Minute))},
		historyErr: map[snowflake.ID]error{
			ch.ID: fmt.Errorf("%w: missing access", &StatusError{Status: 403}),
		},
	}
	f := newTestFetcher(testFetchConfig(), &fakeAudit{}, nil)

	result, ok, err := f.fetchChannelMessages(t.Context(), svc, ch, end.Add(-time.Hour), end)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, result.Messages)
	assert.Equal(t, "private", result.ChannelName)
}

func TestFetchChannelMessages_RemoteErrorAbsorbed(t *testing.T) {
	t.Parallel()

	end := time.Now().UTC()
	ch := Channel{ID: 10, Name: "flaky"}

	svc := &fakeChatService{
		historyErr: map[snowflake.ID]error{
			ch.ID: fmt.Errorf("%w: boom", &StatusError{Status: 500}),
		},
	}
	f := newTestFetcher(testFetchConfig(), &fakeAudit{}, nil)

	result, ok, err := f.fetchChannelMessages(t.Context(), svc, ch, end.Add(-time.Hour), end)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, result.Messages)
}

func TestFetchChannelMessages_ContextExpiryNotAbsorbed(t *testing.T) {
	t.Parallel()

	end := time.Now().UTC()
	ch := Channel{ID: 10, Name: "general"}

	svc := &fakeChatService{historyBlock: true}
	f := newTestFetcher(testFetchConfig(), &fakeAudit{}, nil)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := f.fetchChannelMessages(ctx, svc, ch, end.Add(-time.Hour), end)

	assert.False(t, ok)
	require.ErrorIs(t, err, context.DeadlineExceeded,
		"an expired context must surface, not be absorbed as an empty channel")
}

func TestBuildMessage_AppliesLimits(t *testing.T) {
	t.Parallel()

	attachments := make([]string, MaxAttachments+3)
	for i := range attachments {
		attachments[i] = fmt.Sprintf("file%d.png", i)
	}

	reactions := make([]Reaction, MaxReactions+2)
	for i := range reactions {
		reactions[i] = Reaction{Emoji: "👍", Count: 1}
	}

	msg := buildMessage(RawMessage{
		ID:          123,
		AuthorName:  "alice",
		AuthorID:    2,
		Content:     "hello",
		Attachments: attachments,
		Reactions:   reactions,
	})

	assert.Len(t, msg.Attachments, MaxAttachments+1)
	assert.Equal(t, "...and 3 more", msg.Attachments[MaxAttachments])
	assert.Len(t, msg.Reactions, MaxReactions)
}
