// Package discord implements the concurrent, rate-limited, timeout-bounded
// pipeline that collects recent message activity from a Discord server's
// text channels.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"discord-digest/internal/discord/rate"
	"discord-digest/internal/security"
	"discord-digest/internal/setup/config"
)

const (
	serviceDiscord = "Discord"

	// minTokenLength is the shortest credential worth sending to the remote
	// service; anything shorter fails fast without a connection attempt.
	minTokenLength = 50

	// readyTimeout bounds the wait for the gateway ready signal. Not
	// configurable; session establishment either works quickly or not at all.
	readyTimeout = 30 * time.Second

	// History pagination pacing across all concurrent channel fetches.
	historyRequestsPerSecond = 25
	historyRequestBurst      = 5
)

// Fetcher fetches messages from Discord servers. A fetcher is reusable
// across calls; each FetchServerMessages call constructs its own single-use
// session so concurrent calls never share connection state.
type Fetcher struct {
	token      string
	cfg        config.Fetch
	audit      security.AuditLogger
	logger     *zap.Logger
	pacer      *rate.Pacer
	newSession SessionFactory
}

// NewFetcher validates the credential and creates a fetcher. The token is
// only checked for shape here; it is never included in errors or logs.
func NewFetcher(token string, cfg config.Fetch, audit security.AuditLogger, logger *zap.Logger) (*Fetcher, error) {
	if token == "" {
		audit.LogAuthAttempt(false, serviceDiscord, "token not provided")

		return nil, fmt.Errorf(
			"%w: discord bot token not provided, set %s or the config file token",
			ErrConfiguration, config.EnvBotToken)
	}

	if len(token) < minTokenLength {
		audit.LogAuthAttempt(false, serviceDiscord, "token too short")

		return nil, fmt.Errorf("%w: discord bot token is too short", ErrConfiguration)
	}

	f := &Fetcher{
		token:  token,
		cfg:    cfg,
		audit:  audit,
		logger: logger.Named("discord_fetcher"),
		pacer:  rate.New(historyRequestsPerSecond, historyRequestBurst),
	}
	f.newSession = func() (Session, error) {
		return newGatewaySession(f.token, f.logger)
	}

	return f, nil
}

// FetchServerMessages fetches the qualifying messages of every text channel
// in the named server over the last hours hours. It returns either a
// complete ServerDigestData or a typed error, never both; the session is
// closed on every exit path including timeout.
func (f *Fetcher) FetchServerMessages(ctx context.Context, serverName string, hours int) (*ServerDigestData, error) {
	endTime := time.Now().UTC()
	startTime := endTime.Add(-time.Duration(hours) * time.Hour)

	opCtx, cancel := context.WithTimeout(ctx, f.cfg.OperationTimeout)
	defer cancel()

	session, err := f.newSession()
	if err != nil {
		return nil, Translate(err)
	}
	defer session.Close()

	fetchID := uuid.New().String()
	f.logger.Info("Starting server fetch",
		zap.String("fetch_id", fetchID),
		zap.String("server", serverName),
		zap.Int("hours", hours))

	session.Start(opCtx)

	data, err := f.fetch(opCtx, session, serverName, startTime, endTime)
	if err != nil {
		// An expired overall deadline surfaces as OperationTimeout with the
		// configured bound; cancellation by the caller passes through.
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			f.audit.LogError("operation_timeout", "fetch operation timed out", map[string]any{
				"server":  serverName,
				"timeout": f.cfg.OperationTimeout.String(),
			})

			return nil, fmt.Errorf("%w: operation exceeded %s", ErrOperationTimeout, f.cfg.OperationTimeout)
		}

		return nil, Translate(err)
	}

	f.logger.Info("Server fetch complete",
		zap.String("fetch_id", fetchID),
		zap.String("server", data.ServerName),
		zap.Int("channels", len(data.Channels)),
		zap.Int("total_messages", data.TotalMessages))

	return data, nil
}

// fetch runs the ready-resolve-enumerate-collect sequence under ctx.
func (f *Fetcher) fetch(
	ctx context.Context, session Session, serverName string, startTime, endTime time.Time,
) (*ServerDigestData, error) {
	if err := session.WaitUntilReady(ctx, readyTimeout); err != nil {
		f.audit.LogAuthAttempt(false, serviceDiscord, "gateway not ready")
		return nil, err
	}

	f.audit.LogAuthAttempt(true, serviceDiscord, "")

	svc := session.Service()

	guilds, err := svc.Guilds(ctx)
	if err != nil {
		return nil, err
	}

	guild, err := ResolveServer(guilds, serverName)
	if err != nil {
		f.audit.LogInputValidationFailure("server_name", serverName, "no matching server")
		return nil, err
	}

	channels, err := svc.TextChannels(ctx, guild.ID)
	if err != nil {
		return nil, err
	}

	results, err := f.fetchChannels(ctx, svc, channels, startTime, endTime)
	if err != nil {
		return nil, err
	}

	// Drop channels without qualifying messages, keeping discovery order.
	data := &ServerDigestData{
		ServerName: guild.Name,
		ServerID:   guild.ID,
		StartTime:  startTime,
		EndTime:    endTime,
	}

	for _, ch := range results {
		if len(ch.Messages) == 0 {
			continue
		}

		data.Channels = append(data.Channels, ch)
		data.TotalMessages += len(ch.Messages)
	}

	return data, nil
}
