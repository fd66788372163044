package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/models"
)

const channelAll = "depth:all"

// PublishSnapshot publishes a completed snapshot to the firehose channel and
// a pair-specific channel
func (r *RedisCache) PublishSnapshot(ctx context.Context, snap *models.DepthSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	channels := []string{
		channelAll,
		fmt.Sprintf("depth:pair:%s", snap.Pair),
	}

	pipe := r.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// SubscribeSnapshots subscribes to the firehose channel. The returned channel
// closes when ctx is cancelled.
func (r *RedisCache) SubscribeSnapshots(ctx context.Context) (<-chan *models.DepthSnapshot, error) {
	pubsub := r.client.Subscribe(ctx, channelAll)

	// Confirm the subscription before handing back the channel
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", channelAll, err)
	}

	out := make(chan *models.DepthSnapshot)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var snap models.DepthSnapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					r.logger.WithError(err).Warn("dropping malformed snapshot message")
					continue
				}
				select {
				case out <- &snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
