package discord

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"discord-digest/internal/discord/rate"
	"discord-digest/internal/setup/config"
)

// fakeAudit records audit events for assertions.
type fakeAudit struct {
	mu           sync.Mutex
	authAttempts []fakeAuthAttempt
	apiCalls     []fakeAPICall
	rateLimits   []int
	errors       []string
}

type fakeAuthAttempt struct {
	success bool
	reason  string
}

type fakeAPICall struct {
	operation string
	success   bool
}

func (a *fakeAudit) LogAuthAttempt(success bool, _, reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.authAttempts = append(a.authAttempts, fakeAuthAttempt{success: success, reason: reason})
}

func (a *fakeAudit) LogAPICall(_, operation string, _ time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.apiCalls = append(a.apiCalls, fakeAPICall{operation: operation, success: success})
}

func (a *fakeAudit) LogRateLimit(_ string, concurrentLimit int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.rateLimits = append(a.rateLimits, concurrentLimit)
}

func (a *fakeAudit) LogInputValidationFailure(_, _, _ string) {}

func (a *fakeAudit) LogError(errorType, _ string, _ map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errors = append(a.errors, errorType)
}

// fakeChatService serves canned guilds, channels, and message history.
// History is stored newest first per channel, matching remote pagination
// order.
type fakeChatService struct {
	guilds      []Guild
	channels    []Channel
	history     map[snowflake.ID][]RawMessage
	historyErr  map[snowflake.ID]error
	guildsErr   error
	channelsErr error

	// guildsBlock makes Guilds block until ctx is done.
	guildsBlock bool

	// historyBlock makes MessagesBefore block until ctx is done.
	historyBlock bool

	// fetchDelay is applied inside MessagesBefore so concurrent fetches
	// overlap observably.
	fetchDelay time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (s *fakeChatService) Guilds(ctx context.Context) ([]Guild, error) {
	if s.guildsBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if s.guildsErr != nil {
		return nil, s.guildsErr
	}

	return s.guilds, nil
}

func (s *fakeChatService) TextChannels(_ context.Context, _ snowflake.ID) ([]Channel, error) {
	if s.channelsErr != nil {
		return nil, s.channelsErr
	}

	return s.channels, nil
}

func (s *fakeChatService) MessagesBefore(
	ctx context.Context, channelID, before snowflake.ID, limit int,
) ([]RawMessage, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.historyBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if s.fetchDelay > 0 {
		time.Sleep(s.fetchDelay)
	}

	if err := s.historyErr[channelID]; err != nil {
		return nil, err
	}

	var page []RawMessage

	for _, raw := range s.history[channelID] {
		if raw.ID >= before {
			continue
		}

		page = append(page, raw)
		if len(page) >= limit {
			break
		}
	}

	return page, nil
}

// fakeSession wires a fakeChatService into the Session lifecycle.
type fakeSession struct {
	svc      ChatService
	readyErr error
	closes   atomic.Int32
}

func (s *fakeSession) Start(context.Context) {}

func (s *fakeSession) WaitUntilReady(_ context.Context, _ time.Duration) error {
	return s.readyErr
}

func (s *fakeSession) Service() ChatService { return s.svc }

func (s *fakeSession) Close() { s.closes.Add(1) }

// newTestFetcher builds a fetcher around canned dependencies, bypassing
// credential validation. The pacer is effectively unlimited so tests never
// wait on it.
func newTestFetcher(cfg config.Fetch, audit *fakeAudit, factory SessionFactory) *Fetcher {
	return &Fetcher{
		token:      strings.Repeat("x", minTokenLength),
		cfg:        cfg,
		audit:      audit,
		logger:     zap.NewNop(),
		pacer:      rate.New(100_000, 1000),
		newSession: factory,
	}
}

// testFetchConfig returns fetch tunables suited to fast tests.
func testFetchConfig() config.Fetch {
	return config.Fetch{
		MaxMessagesPerChannel: 1000,
		MaxConcurrentChannels: 5,
		OperationTimeout:      10 * time.Second,
	}
}

// historyFor generates n qualifying messages newest first, spaced one second
// apart ending at newest.
func historyFor(n int, newest time.Time) []RawMessage {
	messages := make([]RawMessage, n)
	for i := range messages {
		ts := newest.Add(-time.Duration(i) * time.Second)
		messages[i] = RawMessage{
			ID:         snowflake.New(ts),
			AuthorName: "alice",
			AuthorID:   100,
			Content:    "message",
			Timestamp:  ts,
		}
	}

	return messages
}
