package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"salestrack/internal/bus"
)

// Bus broadcasts messages through a fanout exchange named after the sync
// channel. Every subscriber gets its own exclusive queue bound to the
// exchange, so all consumers see every message.
type Bus struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

// NewBus connects to RabbitMQ and declares the broadcast exchange.
func NewBus(url string, logger *zap.Logger) (*Bus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		bus.ChannelSync,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Bus{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

func (b *Bus) Publish(ctx context.Context, msg bus.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode bus message: %w", err)
	}

	return b.channel.PublishWithContext(
		ctx,
		bus.ChannelSync,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

func (b *Bus) Subscribe(msgType string, fn func(bus.Message)) (func(), error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(
		"",
		false,
		true,
		true,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, err
	}

	if err := ch.QueueBind(q.Name, "", bus.ChannelSync, false, nil); err != nil {
		ch.Close()
		return nil, err
	}

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}

	go func() {
		for d := range deliveries {
			var msg bus.Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				b.logger.Warn("dropping malformed bus message", zap.Error(err))
				continue
			}
			if msgType == "" || msgType == msg.Type {
				fn(msg)
			}
		}
	}()

	return func() {
		if err := ch.Close(); err != nil {
			b.logger.Warn("closing subscription channel", zap.Error(err))
		}
	}, nil
}

func (b *Bus) Close() error {
	if err := b.channel.Close(); err != nil {
		_ = b.conn.Close()
		return err
	}
	return b.conn.Close()
}
