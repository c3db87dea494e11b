package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"trivia-room-service/internal/domain"
)

// DefaultQueue receives finished matches when no queue is configured.
const DefaultQueue = "trivia_results"

// ResultPublisher pushes finished matches onto a durable queue.
type ResultPublisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects, opens a channel and declares the durable queue.
func Dial(url, queue string) (*ResultPublisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &ResultPublisher{conn: conn, queue: queue, ch: ch}, nil
}

func (p *ResultPublisher) SaveResult(ctx context.Context, result domain.MatchResult) error {
	msg, err := NewPublishing(result)
	if err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}
	return nil
}

// NewPublishing encodes a result as a persistent JSON message.
func NewPublishing(result domain.MatchResult) (amqp.Publishing, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal result: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         "match_result",
		Timestamp:    result.FinishedAt,
		Body:         body,
	}, nil
}

func (p *ResultPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
