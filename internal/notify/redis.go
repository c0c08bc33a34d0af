package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/pkg/contracts/events"
)

// RedisBroadcaster publica as notificações no canal Redis Pub/Sub
// para que qualquer instância do servidor repasse aos seus clientes WebSocket
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, n events.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// StartRedisSubscriber escuta o canal e repassa cada notificação para dst (normalmente o Hub).
// Encerra quando ctx é cancelado.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, dst Notifier, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg == nil {
					continue
				}
				n, _, err := Decode([]byte(msg.Payload))
				if err != nil {
					log.Warn("redis subscriber decode failed", zap.Error(err))
					continue
				}
				if err := dst.Publish(ctx, n); err != nil {
					log.Warn("redis subscriber relay failed", zap.String("type", n.Type), zap.Error(err))
				}
			}
		}
	}()
}
