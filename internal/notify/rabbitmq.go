package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// RabbitDispatcher publishes JSON envelopes to a fanout exchange.
type RabbitDispatcher struct {
	ch       amqpPublisher
	exchange string
	closers  []func() error
}

// DialRabbit connects to url and declares exchange as a durable fanout.
func DialRabbit(url, exchange string) (*RabbitDispatcher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare %s: %w", exchange, err)
	}
	d := NewRabbitDispatcher(ch, exchange)
	d.closers = []func() error{ch.Close, conn.Close}
	return d, nil
}

func NewRabbitDispatcher(ch amqpPublisher, exchange string) *RabbitDispatcher {
	return &RabbitDispatcher{ch: ch, exchange: exchange}
}

func (d *RabbitDispatcher) Send(ctx context.Context, templateID string, vars map[string]any) error {
	env, err := newEnvelope(templateID, vars)
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return d.ch.PublishWithContext(ctx, d.exchange, templateID, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    env.SentAt,
		Type:         templateID,
		Body:         body,
	})
}

func (d *RabbitDispatcher) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
