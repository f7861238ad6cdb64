package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBus bridges the verification channel across API instances using
// redis pub/sub, so a session verified against one instance still reaches a
// tab whose long-poll landed on another. Messages are JSON-encoded Signals.
type RedisBus struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

// NewRedisBus wraps client as a Bus on the given channel name; ChannelName
// is used when channel is empty.
func NewRedisBus(client *redis.Client, channel string, log zerolog.Logger) *RedisBus {
	if channel == "" {
		channel = ChannelName
	}
	return &RedisBus{client: client, channel: channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, s Signal) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("signal marshal: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("signal publish: %w", err)
	}
	return nil
}

// Subscribe consumes the channel on a background goroutine until the cancel
// function is called or ctx is done. Undecodable payloads are logged and
// dropped; they never stop the subscription.
func (b *RedisBus) Subscribe(ctx context.Context, h Handler) (func(), error) {
	sub := b.client.Subscribe(ctx, b.channel)

	// Force the subscription onto the wire before returning so a publish
	// immediately after Subscribe is not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("signal subscribe: %w", err)
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var s Signal
				if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
					b.log.Warn().Err(err).Msg("dropping undecodable signal")
					continue
				}
				h(s)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return cancel, nil
}
