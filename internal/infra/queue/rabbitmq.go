package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"focus-feed/internal/domain"
)

// AMQPWarmupQueue реализует очередь прогрева поверх RabbitMQ.
// Очередь durable, подтверждение ручное: неуспешный ack возвращает
// сообщение брокеру на повторную доставку.
type AMQPWarmupQueue struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queue     string
	deliverCh <-chan amqp.Delivery
}

// NewAMQPWarmupQueue подключается к брокеру и объявляет очередь.
func NewAMQPWarmupQueue(amqpURL, queue string) (*AMQPWarmupQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := channel.Qos(1, 0, false); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &AMQPWarmupQueue{conn: conn, channel: channel, queue: queue}, nil
}

var _ domain.WarmupQueue = (*AMQPWarmupQueue)(nil)

// Enqueue публикует задачу в очередь.
func (q *AMQPWarmupQueue) Enqueue(ctx context.Context, job domain.WarmupJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди.
func (q *AMQPWarmupQueue) Receive(ctx context.Context) (domain.WarmupJob, domain.WarmupAckFunc, error) {
	if q.deliverCh == nil {
		ch, err := q.channel.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return domain.WarmupJob{}, nil, fmt.Errorf("consume: %w", err)
		}
		q.deliverCh = ch
	}

	select {
	case <-ctx.Done():
		return domain.WarmupJob{}, nil, ctx.Err()
	case delivery, ok := <-q.deliverCh:
		if !ok {
			return domain.WarmupJob{}, nil, errors.New("amqp queue: канал доставки закрыт")
		}
		var job domain.WarmupJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			// Нечитаемое сообщение отбрасывается, иначе оно будет
			// доставляться бесконечно.
			_ = delivery.Nack(false, false)
			return domain.WarmupJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return delivery.Ack(false)
			}
			return delivery.Nack(false, true)
		}
		return job, ack, nil
	}
}

// Close закрывает канал и подключение.
func (q *AMQPWarmupQueue) Close() error {
	if err := q.channel.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
