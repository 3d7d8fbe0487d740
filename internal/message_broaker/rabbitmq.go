package message_broaker

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQ struct {
	conn        *amqp.Connection
	channel     amqpChannel
	exchange    string
	routingKey  string
	contentType string

	mu sync.Mutex
}

// NewRabbitMQ dials the broker and declares a durable direct exchange with one bound queue.
func NewRabbitMQ(url, exchange, queue, routingKey, contentType string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrapf(err, "declare queue %s", queue)
	}

	if err := ch.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrapf(err, "bind queue %s", queue)
	}

	return newRabbitMQ(conn, ch, exchange, routingKey, contentType), nil
}

func newRabbitMQ(conn *amqp.Connection, ch amqpChannel, exchange, routingKey, contentType string) *RabbitMQ {
	if contentType == "" {
		contentType = "application/json"
	}
	return &RabbitMQ{
		conn:        conn,
		channel:     ch,
		exchange:    exchange,
		routingKey:  routingKey,
		contentType: contentType,
	}
}

// Publish sends a persistent message. An empty routingKey uses the configured default.
func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, message Message) error {
	if routingKey == "" {
		routingKey = r.routingKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.channel.PublishWithContext(
		ctx,
		r.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  r.contentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    message.ID,
			Timestamp:    time.Now().UTC(),
			Headers:      amqp.Table(message.Headers),
			Body:         message.Body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "publish to %s/%s", r.exchange, routingKey)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		if r.conn != nil {
			_ = r.conn.Close()
		}
		return err
	}
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
