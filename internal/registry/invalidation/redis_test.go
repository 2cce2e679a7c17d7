package invalidation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	channel   string
	payload   []byte
	receivers int64
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(f.receivers, f.err)
}

type recordingInvalidator struct {
	mu      sync.Mutex
	sources []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *recordingInvalidator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sources...)
}

func TestPublisherPublish(t *testing.T) {
	fake := &fakePublisher{receivers: 3}
	p := NewPublisher(fake, "intake:registry:invalidate", "instance-a")
	sentAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return sentAt }

	n, err := p.Publish(context.Background(), "http")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "intake:registry:invalidate", fake.channel)

	var msg Message
	require.NoError(t, json.Unmarshal(fake.payload, &msg))
	assert.Equal(t, Message{Origin: "instance-a", Source: "http", SentAt: sentAt}, msg)
}

func TestPublisherPublishError(t *testing.T) {
	fake := &fakePublisher{err: errors.New("connection refused")}
	p := NewPublisher(fake, "chan", "instance-a")

	_, err := p.Publish(context.Background(), "cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chan")
	assert.ErrorIs(t, err, fake.err)
}

func TestSubscriberHandle(t *testing.T) {
	encode := func(origin string) string {
		b, err := json.Marshal(Message{Origin: origin, Source: "http"})
		require.NoError(t, err)
		return string(b)
	}

	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{name: "message from another instance", payload: encode("instance-b"), want: []string{SourceRedis}},
		{name: "own echo is ignored", payload: encode("instance-a"), want: nil},
		{name: "malformed payload still invalidates", payload: "not json", want: []string{SourceRedis}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &recordingInvalidator{}
			s := NewSubscriber(nil, "chan", "instance-a", target, nil)

			s.handle(context.Background(), tt.payload)

			assert.Equal(t, tt.want, target.calls())
		})
	}
}

func TestBroadcasterInvalidate(t *testing.T) {
	t.Run("invalidates locally and publishes", func(t *testing.T) {
		local := &recordingInvalidator{}
		fake := &fakePublisher{receivers: 1}
		b := NewBroadcaster(local, NewPublisher(fake, "chan", "instance-a"), nil)

		b.Invalidate(context.Background(), "http")

		assert.Equal(t, []string{"http"}, local.calls())
		assert.Equal(t, "chan", fake.channel)
	})

	t.Run("publish failure keeps the local invalidation", func(t *testing.T) {
		local := &recordingInvalidator{}
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		fake := &fakePublisher{err: errors.New("redis down")}
		b := NewBroadcaster(local, NewPublisher(fake, "chan", "instance-a"), logger)

		b.Invalidate(context.Background(), "http")

		assert.Equal(t, []string{"http"}, local.calls())
		assert.Contains(t, logs.String(), "failed to broadcast registry invalidation")
		assert.Contains(t, logs.String(), "redis down")
	})
}

func TestNewOriginIsUnique(t *testing.T) {
	assert.NotEqual(t, NewOrigin(), NewOrigin())
}
