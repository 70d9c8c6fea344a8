// Package realtime keeps live chat panels in step with the messages table.
package realtime

import (
	"context"
	"sync"

	"swiftfactureBack/internal/models"
)

// Logger provides minimal logging required by the realtime module.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Subscription delivers change events until it is closed.
type Subscription interface {
	Events() <-chan models.ChangeEvent
	Close() error
}

// Feed is a fan-out of row change events.
type Feed interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
	Subscribe(ctx context.Context) (Subscription, error)
}

const subscriptionBuffer = 16

// MemoryFeed is an in-process Feed for single-instance deployments and tests.
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[*memorySubscription]struct{}
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[*memorySubscription]struct{})}
}

// Publish never blocks. A subscriber whose buffer is full already has events
// pending, so dropping one loses nothing a re-fetch would not pick up.
func (f *MemoryFeed) Publish(ctx context.Context, event models.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context) (Subscription, error) {
	sub := &memorySubscription{feed: f, ch: make(chan models.ChangeEvent, subscriptionBuffer)}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub, nil
}

// Subscribers returns the number of open subscriptions.
func (f *MemoryFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type memorySubscription struct {
	feed *MemoryFeed
	ch   chan models.ChangeEvent
	once sync.Once
}

func (s *memorySubscription) Events() <-chan models.ChangeEvent { return s.ch }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		close(s.ch)
		s.feed.mu.Unlock()
	})
	return nil
}
