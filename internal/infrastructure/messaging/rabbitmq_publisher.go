package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/pkg/logger"
)

var _ ports.EventPublisher = (*RabbitPublisher)(nil)

const exchangeType = "topic"

// Channel subconjunto de *amqp.Channel usado por el publicador.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publica eventos en un exchange topic; la routing key es el tipo del
// evento (sale.committed, stock.low, restock.fulfilled, ...).
type RabbitPublisher struct {
	ch       Channel
	exchange string
}

// NewRabbitPublisher construye el publicador sobre un canal ya configurado.
func NewRabbitPublisher(ch Channel, exchange string) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, exchange: exchange}
}

// SetupRabbit abre la conexión (con reintentos de arranque) y declara el exchange.
func SetupRabbit(url, exchange string, log *logger.Logger) (*amqp.Connection, *amqp.Channel, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("conectar a RabbitMQ")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declarar exchange: %w", err)
	}
	return conn, ch, nil
}

// Publish serializa el evento y lo publica como mensaje persistente.
func (p *RabbitPublisher) Publish(ctx context.Context, event entity.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	return p.ch.PublishWithContext(ctx,
		p.exchange,
		event.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Type:         event.Type,
			Body:         body,
		},
	)
}

// Close cierra el canal.
func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}
