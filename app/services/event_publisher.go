package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/amirphl/partyline/config"
	"github.com/amirphl/partyline/utils"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys of published domain events
const (
	RoutingKeyDeliveryStatusChanged = "delivery.status_changed"
	RoutingKeyDispatchCompleted     = "dispatch.completed"
	RoutingKeyRecipientOptChanged   = "recipient.opt_changed"
	RoutingKeyReplyForwarded        = "reply.forwarded"
)

// EventPublisher emits domain events for downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// AMQPPublisher publishes persistent JSON messages to a durable topic exchange
type AMQPPublisher struct {
	mu         sync.Mutex
	exchange   string
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the exchange
func NewAMQPPublisher(cfg config.EventsConfig) (*AMQPPublisher, error) {
	connection, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		connection.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	return &AMQPPublisher{exchange: cfg.Exchange, connection: connection, channel: channel}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return fmt.Errorf("publisher is closed")
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    utils.UTCNow(),
			Type:         routingKey,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			return fmt.Errorf("failed to close channel: %w", err)
		}
		p.channel = nil
	}
	if p.connection != nil {
		if err := p.connection.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
		p.connection = nil
	}
	return nil
}

// PublishedEvent is an event captured by MemoryPublisher
type PublishedEvent struct {
	RoutingKey string
	Payload    any
	At         time.Time
}

// MemoryPublisher keeps published events in memory
type MemoryPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{RoutingKey: routingKey, Payload: payload, At: utils.UTCNow()})
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

// Events returns the captured events with the given routing key, or all when key is empty
func (p *MemoryPublisher) Events(routingKey string) []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []PublishedEvent
	for _, e := range p.events {
		if routingKey == "" || e.RoutingKey == routingKey {
			out = append(out, e)
		}
	}
	return out
}
