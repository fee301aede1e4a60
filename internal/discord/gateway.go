package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	dgo "github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// gatewaySession is the disgo-backed Session. The gateway is opened in a
// background goroutine; a Ready listener resolves the ready signal exactly
// once. Close cancels a still-running login and is idempotent.
type gatewaySession struct {
	client    bot.Client
	ready     chan struct{}
	loginErr  chan error
	readyOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	logger    *zap.Logger
}

func newGatewaySession(token string, logger *zap.Logger) (Session, error) {
	s := &gatewaySession{
		ready:    make(chan struct{}),
		loginErr: make(chan error, 1),
		logger:   logger.Named("session"),
	}

	client, err := disgo.New(token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentMessageContent,
			),
		),
		bot.WithEventListenerFunc(func(_ *events.Ready) {
			s.readyOnce.Do(func() { close(s.ready) })
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	s.client = client

	return s, nil
}

// Start implements Session.
func (s *gatewaySession) Start(ctx context.Context) {
	loginCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		s.loginErr <- s.client.OpenGateway(loginCtx)
	}()
}

// WaitUntilReady implements Session. A login failure is surfaced as soon as
// it happens rather than waiting for the full timeout.
func (s *gatewaySession) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	loginErr := s.loginErr

	for {
		select {
		case <-s.ready:
			return nil
		case err := <-loginErr:
			if err != nil {
				return fmt.Errorf("discord login failed: %w", err)
			}
			// Gateway opened; keep waiting for the ready event.
			loginErr = nil
		case <-timer.C:
			return fmt.Errorf("%w: gateway not ready within %s", ErrConnectionTimeout, timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Service implements Session.
func (s *gatewaySession) Service() ChatService {
	return &restService{rest: s.client.Rest()}
}

// Close implements Session.
func (s *gatewaySession) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}

		s.client.Close(context.Background())
		s.logger.Debug("Session closed")
	})
}

// restService adapts the disgo REST client to the ChatService interface.
// Every error is wrapped so the pipeline sees a StatusError instead of a
// transport-specific type.
type restService struct {
	rest rest.Rest
}

func (r *restService) Guilds(ctx context.Context) ([]Guild, error) {
	const guildPageSize = 200

	// Empty bearer token selects the client's bot token.
	raw, err := r.rest.GetCurrentUserGuilds("", 0, 0, guildPageSize, false, rest.WithCtx(ctx))
	if err != nil {
		return nil, wrapAPIError(err)
	}

	guilds := make([]Guild, 0, len(raw))
	for _, g := range raw {
		guilds = append(guilds, Guild{ID: g.ID, Name: g.Name})
	}

	return guilds, nil
}

func (r *restService) TextChannels(ctx context.Context, guildID snowflake.ID) ([]Channel, error) {
	raw, err := r.rest.GetGuildChannels(guildID, rest.WithCtx(ctx))
	if err != nil {
		return nil, wrapAPIError(err)
	}

	channels := make([]Channel, 0, len(raw))

	for _, ch := range raw {
		if ch.Type() != dgo.ChannelTypeGuildText {
			continue
		}

		channels = append(channels, Channel{ID: ch.ID(), Name: ch.Name()})
	}

	return channels, nil
}

func (r *restService) MessagesBefore(
	ctx context.Context, channelID, before snowflake.ID, limit int,
) ([]RawMessage, error) {
	raw, err := r.rest.GetMessages(channelID, 0, before, 0, limit, rest.WithCtx(ctx))
	if err != nil {
		return nil, wrapAPIError(err)
	}

	messages := make([]RawMessage, 0, len(raw))
	for _, msg := range raw {
		messages = append(messages, convertMessage(msg))
	}

	return messages, nil
}

func convertMessage(msg dgo.Message) RawMessage {
	attachments := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, a.Filename)
	}

	reactions := make([]Reaction, 0, len(msg.Reactions))
	for _, re := range msg.Reactions {
		reactions = append(reactions, Reaction{Emoji: emojiString(re.Emoji), Count: re.Count})
	}

	return RawMessage{
		ID:          msg.ID,
		AuthorName:  msg.Author.EffectiveName(),
		AuthorID:    msg.Author.ID,
		AuthorBot:   msg.Author.Bot,
		Content:     msg.Content,
		Timestamp:   msg.ID.Time().UTC(),
		Attachments: attachments,
		Reactions:   reactions,
	}
}

func emojiString(e dgo.Emoji) string {
	if e.Name != "" {
		return e.Name
	}

	if e.ID != 0 {
		return e.ID.String()
	}

	return ""
}

// wrapAPIError converts a disgo REST failure into a StatusError so the rest
// of the pipeline never inspects transport-specific error types.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *rest.Error
	if errors.As(err, &restErr) && restErr.Response != nil {
		return fmt.Errorf("%w: %w", &StatusError{Status: restErr.Response.StatusCode}, err)
	}

	return fmt.Errorf("%w: %w", &StatusError{}, err)
}
