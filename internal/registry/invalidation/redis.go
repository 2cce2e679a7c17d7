// Package invalidation fans registry invalidations out to every running
// instance over a Redis pub/sub channel.
package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"intake/internal/registry/ports"
)

// SourceRedis is the invalidation source recorded for messages received from
// the channel.
const SourceRedis = "redis"

// Message is the payload published on the invalidation channel.
type Message struct {
	Origin string    `json:"origin"`
	Source string    `json:"source"`
	SentAt time.Time `json:"sent_at"`
}

// publisher is the subset of the go-redis client used to publish.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Publisher announces invalidations on a channel.
type Publisher struct {
	client  publisher
	channel string
	origin  string
	now     func() time.Time
}

// NewPublisher creates a publisher for channel. origin identifies this
// instance so its own subscriber can ignore the echo.
func NewPublisher(client publisher, channel, origin string) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		origin:  origin,
		now:     time.Now,
	}
}

// Publish sends one invalidation message and returns the number of
// subscribers that received it.
func (p *Publisher) Publish(ctx context.Context, source string) (int64, error) {
	payload, err := json.Marshal(Message{
		Origin: p.origin,
		Source: source,
		SentAt: p.now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("encode invalidation message: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish invalidation on %s: %w", p.channel, err)
	}
	return receivers, nil
}

// Subscriber invalidates the local index whenever another instance publishes
// on the channel.
type Subscriber struct {
	client  *redis.Client
	channel string
	origin  string
	target  ports.Invalidator
	logger  *slog.Logger
}

// NewSubscriber creates a subscriber that forwards channel messages to target.
// Messages carrying origin are skipped.
func NewSubscriber(client *redis.Client, channel, origin string, target ports.Invalidator, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Subscriber{
		client:  client,
		channel: channel,
		origin:  origin,
		target:  target,
		logger:  logger,
	}
}

// Run subscribes and blocks until ctx is done or the subscription fails. It
// returns nil on context cancellation.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so publishes made after Run
	// starts are not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}
	s.logger.InfoContext(ctx, "registry invalidation subscriber started", "channel", s.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", s.channel)
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

// handle applies one payload. Undecodable payloads still invalidate since a
// spurious rebuild is harmless and a missed one serves stale data.
func (s *Subscriber) handle(ctx context.Context, payload string) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		s.logger.WarnContext(ctx, "malformed registry invalidation message", "error", err)
	} else if msg.Origin == s.origin {
		return
	}
	s.logger.DebugContext(ctx, "registry invalidation received",
		"origin", msg.Origin,
		"requested_by", msg.Source,
	)
	s.target.Invalidate(ctx, SourceRedis)
}

// Broadcaster invalidates locally and then announces the invalidation to
// other instances. A failed publish is logged; the local invalidation stands.
type Broadcaster struct {
	local     ports.Invalidator
	publisher *Publisher
	logger    *slog.Logger
}

// NewBroadcaster wraps local with publisher.
func NewBroadcaster(local ports.Invalidator, publisher *Publisher, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broadcaster{local: local, publisher: publisher, logger: logger}
}

func (b *Broadcaster) Invalidate(ctx context.Context, source string) {
	b.local.Invalidate(ctx, source)
	if _, err := b.publisher.Publish(ctx, source); err != nil {
		b.logger.WarnContext(ctx, "failed to broadcast registry invalidation",
			"source", source,
			"error", err,
		)
	}
}

// NewOrigin returns a random instance identifier.
func NewOrigin() string {
	return uuid.NewString()
}
