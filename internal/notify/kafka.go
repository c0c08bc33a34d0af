package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	sharedkafka "github.com/radieske/auraflow/internal/shared/kafka"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

// KafkaPublisher grava as notificações no tópico de notificações.
// A chave da mensagem é o prefixo do tipo ("bet", "session"...), mantendo ordem por assunto.
type KafkaPublisher struct {
	w    sharedkafka.MessageWriter
	log  *zap.Logger
	skip map[string]struct{}
}

// NewKafkaPublisher cria o publisher; skipTypes não vão para o Kafka (ex: timer:tick)
func NewKafkaPublisher(w sharedkafka.MessageWriter, log *zap.Logger, skipTypes ...string) *KafkaPublisher {
	skip := make(map[string]struct{}, len(skipTypes))
	for _, t := range skipTypes {
		skip[t] = struct{}{}
	}
	return &KafkaPublisher{w: w, log: log, skip: skip}
}

func (p *KafkaPublisher) Publish(ctx context.Context, n events.Notification) error {
	if _, ok := p.skip[n.Type]; ok {
		return nil
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := sharedkafka.WriteJSON(ctx, p.w, n.Topic(), b); err != nil {
		p.log.Warn("kafka publish failed", zap.String("type", n.Type), zap.Error(err))
		return fmt.Errorf("kafka publish %s: %w", n.Type, err)
	}
	return nil
}

// Decode lê um envelope gravado pelo KafkaPublisher; o payload fica como JSON cru
func Decode(value []byte) (events.Notification, json.RawMessage, error) {
	var env struct {
		events.Notification
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(value, &env); err != nil {
		return events.Notification{}, nil, fmt.Errorf("decode notification: %w", err)
	}
	n := env.Notification
	n.Payload = env.Payload
	return n, env.Payload, nil
}
