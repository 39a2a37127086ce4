// Package notify fans committed approval events out to SSE subscribers,
// either directly into the local hub or through a redis channel that every
// instance relays into its own hub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/engine"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/sse"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HubPublisher 单实例部署：事件直接进入本地 SSE hub
type HubPublisher struct {
	hub *sse.Hub
}

func NewHubPublisher(hub *sse.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, evt engine.Event) error {
	msg, err := toSSE(evt)
	if err != nil {
		return err
	}
	p.hub.Broadcast(msg)
	return nil
}

// RedisPublisher 多实例部署：事件发布到 redis 频道
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt engine.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode approval event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish approval event: %w", err)
	}
	return nil
}

// Relay 订阅 redis 频道并转发到本地 hub
type Relay struct {
	rdb     *redis.Client
	channel string
	hub     *sse.Hub
	logger  *zap.Logger
}

func NewRelay(rdb *redis.Client, channel string, hub *sse.Hub, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{rdb: rdb, channel: channel, hub: hub, logger: logger}
}

// Run 阻塞直到 ctx 取消
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("Approval event relay subscribed", zap.String("channel", r.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(msg.Payload)
		}
	}
}

func (r *Relay) deliver(payload string) {
	var evt engine.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		r.logger.Warn("Drop malformed approval event", zap.Error(err))
		return
	}
	msg, err := toSSE(evt)
	if err != nil {
		r.logger.Warn("Drop approval event", zap.Error(err))
		return
	}
	r.hub.Broadcast(msg)
}

func toSSE(evt engine.Event) (sse.Event, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return sse.Event{}, fmt.Errorf("encode approval event: %w", err)
	}
	return sse.Event{EventType: evt.Type, SubmissionID: evt.SubmissionID, Data: string(data)}, nil
}
