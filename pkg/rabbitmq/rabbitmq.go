package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

const (
	// Exchange is the topic exchange all domain events go through.
	Exchange = "storefront.events"
	// Queue receives every event published to Exchange.
	Queue = "storefront_events"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the event exchange and queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("exchange", Exchange).Str("queue", Queue).Msg("RabbitMQ client connected")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}

	if _, err := ch.QueueDeclare(
		Queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", Queue, err)
	}

	if err := ch.QueueBind(Queue, "#", Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", Queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends payload as JSON to the event exchange under routingKey.
func (c *Client) Publish(routingKey string, payload interface{}) error {
	body, err := Encode(routingKey, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	err = c.channel.Publish(
		Exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         routingKey,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// Event is the JSON envelope of every published message.
type Event struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Encode wraps payload in an Event.
func Encode(routingKey string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}
	return json.Marshal(Event{Type: routingKey, OccurredAt: time.Now().UTC(), Data: data})
}

// Decode parses a message body produced by Publish.
func Decode(body []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if evt.Type == "" {
		return nil, fmt.Errorf("event has no type")
	}
	return &evt, nil
}

// ConsumeEvents starts a goroutine that hands every delivery on Queue to
// handler. Deliveries are acked on success; failures are nacked without
// requeue so a poison message cannot loop forever.
func (c *Client) ConsumeEvents(handler func(evt *Event) error) error {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}
	msgs, err := c.channel.Consume(
		Queue, // queue
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info().Str("queue", Queue).Msg("waiting for events")

	go func() {
		for msg := range msgs {
			handleDelivery(msg, handler)
		}
		log.Info().Str("queue", Queue).Msg("event consumer stopped")
	}()
	return nil
}

// acknowledger is the part of amqp.Delivery handleDelivery needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(msg amqp.Delivery, handler func(evt *Event) error) {
	process(&msg, msg.DeliveryTag, msg.Body, handler)
}

func process(ack acknowledger, tag uint64, body []byte, handler func(evt *Event) error) {
	evt, err := Decode(body)
	if err == nil {
		err = handler(evt)
	}
	if err != nil {
		log.Error().Err(err).Uint64("delivery_tag", tag).Msg("failed to process event")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Uint64("delivery_tag", tag).Msg("failed to nack event")
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error().Err(ackErr).Uint64("delivery_tag", tag).Msg("failed to ack event")
	}
}

// LogEvent is a consumer handler that records each event in the log.
func LogEvent(evt *Event) error {
	log.Info().Str("event", evt.Type).Time("occurred_at", evt.OccurredAt).RawJSON("data", evt.Data).Msg("event received")
	return nil
}
