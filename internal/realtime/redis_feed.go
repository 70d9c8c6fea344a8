package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"swiftfactureBack/internal/models"
)

// MessagesChannel is the pub/sub channel carrying message table changes.
const MessagesChannel = "changes:messages"

// RedisFeed fans change events out across instances over Redis pub/sub.
type RedisFeed struct {
	client  *redis.Client
	channel string
	logger  Logger
}

func NewRedisFeed(client *redis.Client, channel string, logger Logger) *RedisFeed {
	if channel == "" {
		channel = MessagesChannel
	}
	return &RedisFeed{client: client, channel: channel, logger: logger}
}

func (f *RedisFeed) Publish(ctx context.Context, event models.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel, payload).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context) (Subscription, error) {
	ps := f.client.Subscribe(ctx, f.channel)
	// wait for the subscription confirmation so no event published after
	// Subscribe returns is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	sub := &redisSubscription{ps: ps, ch: make(chan models.ChangeEvent, subscriptionBuffer)}
	go sub.pump(f.logger)
	return sub, nil
}

type redisSubscription struct {
	ps *redis.PubSub
	ch chan models.ChangeEvent
}

func (s *redisSubscription) pump(logger Logger) {
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		var ev models.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			if logger != nil {
				logger.Errorf("realtime: bad change event on %s: %v", msg.Channel, err)
			}
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

func (s *redisSubscription) Events() <-chan models.ChangeEvent { return s.ch }

func (s *redisSubscription) Close() error { return s.ps.Close() }
