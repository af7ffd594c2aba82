package services

import (
	"github.com/rs/zerolog/log"
)

// Routing keys of the domain events.
const (
	EventProductCreated     = "product.created"
	EventProductDeleted     = "product.deleted"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher sends domain events to a broker.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// publishEvent is fire-and-forget: a broker outage never fails the request.
func publishEvent(p EventPublisher, routingKey string, payload interface{}) {
	if p == nil {
		log.Debug().Str("event", routingKey).Msg("event publisher not configured, skipping")
		return
	}
	if err := p.Publish(routingKey, payload); err != nil {
		log.Warn().Err(err).Str("event", routingKey).Msg("failed to publish event")
		return
	}
	log.Debug().Str("event", routingKey).Msg("event published")
}
