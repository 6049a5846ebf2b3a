package ports

import (
	"context"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// EventPublisher define el puerto de salida para publicar eventos de dominio.
// Adaptadores: Kafka, RabbitMQ o un publicador que solo registra en el log.
// Se invoca siempre después de confirmar la unidad de trabajo; un error aquí
// no deshace ni invalida la operación.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}
