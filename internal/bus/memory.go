package bus

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process broker used when Redis is not
// configured and by tests. Slow subscribers drop messages rather than
// block publishers.
type MemoryBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*memorySubscription]struct{}
}

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[channel] {
		select {
		case sub.out <- Message{Channel: channel, Payload: payload}:
		default:
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, channels ...string) (Subscription, error) {
	sub := &memorySubscription{
		broker:   b,
		channels: channels,
		out:      make(chan Message, 16),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range channels {
		if b.subs[ch] == nil {
			b.subs[ch] = make(map[*memorySubscription]struct{})
		}
		b.subs[ch][sub] = struct{}{}
	}
	return sub, nil
}

func (b *MemoryBroker) Close() error {
	return nil
}

type memorySubscription struct {
	broker   *MemoryBroker
	channels []string
	out      chan Message
	once     sync.Once
}

func (s *memorySubscription) Messages() <-chan Message {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		for _, ch := range s.channels {
			delete(s.broker.subs[ch], s)
		}
		s.broker.mu.Unlock()
		close(s.out)
	})
	return nil
}
