package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"focus-feed/internal/domain"
)

// RedisWarmupQueue реализует очередь прогрева на базе Redis lists.
// Подтверждение у списка условное: сообщение снимается при чтении,
// поэтому ack с неуспехом возвращает задачу в хвост очереди.
type RedisWarmupQueue struct {
	client *redis.Client
	key    string
}

// NewRedisWarmupQueue создаёт очередь по указанному ключу.
func NewRedisWarmupQueue(client *redis.Client, key string) *RedisWarmupQueue {
	return &RedisWarmupQueue{client: client, key: key}
}

var _ domain.WarmupQueue = (*RedisWarmupQueue)(nil)

// Enqueue публикует задачу в очередь.
func (q *RedisWarmupQueue) Enqueue(ctx context.Context, job domain.WarmupJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди.
func (q *RedisWarmupQueue) Receive(ctx context.Context) (domain.WarmupJob, domain.WarmupAckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.WarmupJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.WarmupJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.WarmupJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.WarmupJob{}, nil, errors.New("redis queue: unexpected response")
		}

		payload := res[1]
		var job domain.WarmupJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return domain.WarmupJob{}, nil, fmt.Errorf("decode job: %w", err)
		}

		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.client.LPush(context.Background(), q.key, payload).Err()
		}
		return job, ack, nil
	}
}
