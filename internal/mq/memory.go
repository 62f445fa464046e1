package mq

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// MemoryBackend delivers messages in-process. Messages published before a
// subscriber attaches are buffered per channel.
type MemoryBackend struct {
	mu     sync.Mutex
	queues map[string]chan Message
	closed bool
	size   int
}

// NewMemoryBackend returns a backend whose per-channel buffers hold size
// messages.
func NewMemoryBackend(size int) *MemoryBackend {
	if size <= 0 {
		size = 64
	}
	return &MemoryBackend{queues: make(map[string]chan Message), size: size}
}

func (b *MemoryBackend) queue(channel string) (chan Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("memory backend closed")
	}
	q, ok := b.queues[channel]
	if !ok {
		q = make(chan Message, b.size)
		b.queues[channel] = q
	}
	return q, nil
}

func (b *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if channel == "" {
		return "", errors.New("memory channel is required")
	}
	q, err := b.queue(channel)
	if err != nil {
		return "", err
	}
	msg := Message{ID: uuid.NewString(), Data: data, Attributes: attrs}
	select {
	case q <- msg:
		return msg.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Subscribe drains channel until ctx is done. Handler errors are dropped.
func (b *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if channel == "" {
		return errors.New("memory channel is required")
	}
	q, err := b.queue(channel)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q:
			_ = handler(ctx, msg)
		}
	}
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
