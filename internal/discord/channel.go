package discord

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
)

// historyPageSize is the remote service's maximum page size.
const historyPageSize = 100

// fetchChannelMessages collects the qualifying messages of one channel
// within [after, before), applying content limits and the per-channel cap.
// Per-channel failures are absorbed: a permission-denied channel and a
// channel with a transient API error both yield an empty result so one bad
// channel never aborts the whole fetch. Context expiry is NOT absorbed; it
// is returned so the overall fetch fails instead of producing a partial
// result. The bool reports whether the channel was read without a remote
// error.
func (f *Fetcher) fetchChannelMessages(
	ctx context.Context, svc ChatService, ch Channel, after, before time.Time,
) (ChannelMessages, bool, error) {
	result := ChannelMessages{
		ChannelName: ch.Name,
		ChannelID:   ch.ID,
		Messages:    []Message{},
	}

	// Page backwards from the window end until we leave the window or hit
	// the per-channel cap.
	cursor := snowflake.New(before)

	for len(result.Messages) < f.cfg.MaxMessagesPerChannel {
		if err := f.pacer.Wait(ctx); err != nil {
			return result, false, err
		}

		page, err := svc.MessagesBefore(ctx, ch.ID, cursor, historyPageSize)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, false, err
			}

			if isPermissionDenied(err) {
				// Expected for channels the account cannot read.
				f.logger.Debug("No permission to read channel",
					zap.String("channel", ch.Name))
			} else {
				f.logger.Warn("Could not fetch messages from channel",
					zap.String("channel", ch.Name),
					zap.Error(err))
			}

			result.Messages = result.Messages[:0]

			return result, false, nil
		}

		if len(page) == 0 {
			break
		}

		reachedWindowStart := false

		for _, raw := range page {
			cursor = raw.ID

			if raw.Timestamp.Before(after) {
				reachedWindowStart = true
				break
			}

			if !raw.Timestamp.Before(before) {
				continue
			}

			if raw.AuthorBot {
				continue
			}

			if raw.Content == "" && len(raw.Attachments) == 0 {
				continue
			}

			result.Messages = append(result.Messages, buildMessage(raw))

			if len(result.Messages) >= f.cfg.MaxMessagesPerChannel {
				break
			}
		}

		if reachedWindowStart || len(page) < historyPageSize {
			break
		}
	}

	// Remote pagination order is newest first and not guaranteed strictly
	// chronological; always return ascending by timestamp.
	sort.SliceStable(result.Messages, func(i, j int) bool {
		return result.Messages[i].Timestamp.Before(result.Messages[j].Timestamp)
	})

	return result, true, nil
}

// buildMessage converts a raw remote message into a digest message with all
// content limits applied.
func buildMessage(raw RawMessage) Message {
	return Message{
		ID:          raw.ID,
		Author:      limitAuthorName(raw.AuthorName),
		AuthorID:    raw.AuthorID,
		Content:     limitContent(raw.Content),
		Timestamp:   raw.Timestamp,
		Attachments: limitAttachments(raw.Attachments),
		Reactions:   limitReactions(raw.Reactions),
	}
}
