package mq

// Redis Pub/Sub 后端：轻量部署用，不保证投递，事件丢失可接受
// 的场景（统计、通知）适用；需要持久化时选 NATS JetStream.

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/photovault/pkg/configs"
)

// redisChannelBuffer 订阅通道的缓冲大小.
const redisChannelBuffer = 100

type redisPublisher struct {
	client *redis.Client
}

type redisSubscriber struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	_ watermill.LoggerAdapter,
) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	pub := &redisPublisher{client: rdb}
	sub := &redisSubscriber{client: rdb, closeCh: make(chan struct{})}

	return pub, sub, nil
}

func (p *redisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if err := p.client.Publish(context.Background(), topic, msg.Payload).Err(); err != nil {
			return err
		}

		msg.Ack()
	}

	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}

func (s *redisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil
	}

	ch := make(chan *message.Message, redisChannelBuffer)
	s.pubsub = s.client.Subscribe(ctx, topic)

	go func() {
		defer close(ch)

		for {
			msg, err := s.pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}

			wm := message.NewMessage(watermill.NewUUID(), []byte(msg.Payload))

			select {
			case ch <- wm:
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (s *redisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)

	if s.pubsub != nil {
		_ = s.pubsub.Close()
	}

	return s.client.Close()
}
