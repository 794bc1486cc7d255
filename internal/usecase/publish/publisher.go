package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// publishPace is the fixed delay between consecutive sends within one
// feed's batch. Discord tolerates short bursts, but a backfill of 20 posts
// fired back-to-back trips channel rate limits.
const publishPace = 2 * time.Second

// ErrChannelUnavailable reports that the target channel could not be
// resolved (deleted, or the bot lacks access). Callers skip the feed's tick;
// nothing was sent.
var ErrChannelUnavailable = errors.New("channel unavailable")

// Channel is a resolved Discord channel.
type Channel struct {
	ID   string
	Name string
}

// ChannelResolver checks that a channel exists and is reachable by the bot.
// A nil channel with nil error means the channel is gone or inaccessible.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, channelID string) (*Channel, error)
}

// MessageSender delivers one rendered message to a channel.
type MessageSender interface {
	SendMessage(ctx context.Context, channelID string, msg Message) error
}

// Post pairs a ledger id with its rendered message.
type Post struct {
	ID      string
	Message Message
}

// Publisher sends a feed's batch of posts to its channel, in order, with a
// fixed pacing delay between sends.
type Publisher struct {
	resolver ChannelResolver
	sender   MessageSender
	pace     time.Duration
}

// NewPublisher creates a Publisher with the default pacing delay.
func NewPublisher(resolver ChannelResolver, sender MessageSender) *Publisher {
	return &Publisher{
		resolver: resolver,
		sender:   sender,
		pace:     publishPace,
	}
}

// PublishBatch resolves the channel and sends each post in order. It returns
// the ids of posts actually delivered; callers record only those in the
// dedup ledger. A send failure stops the batch and returns the ids sent so
// far along with the error. An unresolvable channel returns
// ErrChannelUnavailable with no posts sent.
func (p *Publisher) PublishBatch(ctx context.Context, channelID string, posts []Post) ([]string, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	channel, err := p.resolver.ResolveChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	if channel == nil {
		slog.Warn("channel unavailable, skipping feed tick",
			slog.String("channel_id", channelID))
		return nil, ErrChannelUnavailable
	}

	sent := make([]string, 0, len(posts))
	for i, post := range posts {
		if i > 0 {
			select {
			case <-time.After(p.pace):
			case <-ctx.Done():
				return sent, ctx.Err()
			}
		}

		if err := p.sender.SendMessage(ctx, channel.ID, post.Message); err != nil {
			return sent, fmt.Errorf("send post %s: %w", post.ID, err)
		}
		sent = append(sent, post.ID)
	}
	return sent, nil
}
