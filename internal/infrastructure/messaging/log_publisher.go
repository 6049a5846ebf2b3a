// Package messaging publicadores de eventos de dominio: Kafka, RabbitMQ o log estructurado.
package messaging

import (
	"context"

	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/pkg/logger"
)

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher escribe los eventos en el log (EVENTS_BROKER=none).
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.Component("events")}
}

// Publish registra el evento con nivel debug.
func (p *LogPublisher) Publish(_ context.Context, event entity.Event) error {
	p.log.Debug().
		Str("event_id", event.ID).
		Str("event", event.Type).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("evento de dominio")
	return nil
}

// Close no-op.
func (p *LogPublisher) Close() error { return nil }
