package discord

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// ChatService is the remote-service capability the pipeline consumes:
// enumerate guilds and their text channels, and page through message
// history. The production implementation is backed by the gateway session's
// REST client; tests substitute in-memory fakes.
type ChatService interface {
	// Guilds lists the guilds visible to the connected account.
	Guilds(ctx context.Context) ([]Guild, error)

	// TextChannels lists the text channels of a guild in discovery order.
	TextChannels(ctx context.Context, guildID snowflake.ID) ([]Channel, error)

	// MessagesBefore returns up to limit messages older than the before
	// cursor, newest first, matching the remote service's pagination order.
	MessagesBefore(ctx context.Context, channelID, before snowflake.ID, limit int) ([]RawMessage, error)
}

// Session manages one authenticate-operate-disconnect lifecycle against the
// remote service. A session is single-use: one fetch call, one session. It
// must not be reused across fetch calls.
type Session interface {
	// Start begins the login process in the background and returns
	// immediately. Readiness is observed through WaitUntilReady.
	Start(ctx context.Context)

	// WaitUntilReady blocks until the session is ready to serve requests,
	// the timeout elapses, or ctx is done.
	WaitUntilReady(ctx context.Context, timeout time.Duration) error

	// Service returns the remote API capability of this session. Only valid
	// after WaitUntilReady succeeds.
	Service() ChatService

	// Close shuts the session down and cancels a still-running login.
	// It is idempotent and safe to call on every exit path.
	Close()
}

// SessionFactory constructs a fresh session for one fetch call.
type SessionFactory func() (Session, error)
