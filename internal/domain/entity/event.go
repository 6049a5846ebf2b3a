package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tipos de evento de dominio publicados después de confirmar una unidad de trabajo.
const (
	EventSaleCommitted    = "sale.committed"
	EventStockLow         = "stock.low"
	EventRestockFulfilled = "restock.fulfilled"
	EventRestockRejected  = "restock.rejected"
)

// Event evento de dominio serializado (sobre JSON común para Kafka y RabbitMQ).
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEvent construye un evento con ID aleatorio y el payload serializado en JSON.
func NewEvent(eventType, aggregateID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("serializar evento %s: %w", eventType, err)
	}
	return Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     raw,
	}, nil
}
