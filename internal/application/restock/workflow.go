// Package restock implementa el flujo de solicitudes de reposición:
// PENDING → FULFILLED | REJECTED, ambos terminales. Cumplir una solicitud incrementa el
// stock del producto en la misma unidad de trabajo que el cambio de estado.
package restock

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/ports"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/pkg/logger"
)

var tracer = otel.Tracer("github.com/jhoicas/pos-api/internal/application/restock")

const defaultPendingLimit = 200

// Workflow casos de uso de reposición.
type Workflow struct {
	txRunner  RestockTxRunner
	products  repository.ProductRepository
	requests  repository.RestockRepository
	publisher ports.EventPublisher
	cache     ProductCacheInvalidator
	log       *logger.Logger
	now       func() time.Time
}

// NewWorkflow construye el flujo. publisher y cache pueden ser nil.
func NewWorkflow(
	txRunner RestockTxRunner,
	products repository.ProductRepository,
	requests repository.RestockRepository,
	publisher ports.EventPublisher,
	cache ProductCacheInvalidator,
	log *logger.Logger,
) *Workflow {
	return &Workflow{
		txRunner:  txRunner,
		products:  products,
		requests:  requests,
		publisher: publisher,
		cache:     cache,
		log:       log.Component("restock.workflow"),
		now:       time.Now,
	}
}

// Create registra una solicitud PENDING para el producto.
func (w *Workflow) Create(ctx context.Context, productID string, quantity int64, requestedBy string) (*entity.RestockRequest, error) {
	if quantity <= 0 {
		return nil, domain.NewInvalidQuantity(quantity)
	}
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := w.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	req := &entity.RestockRequest{
		ProductID:         productID,
		QuantityRequested: quantity,
		Status:            entity.RestockStatusPending,
		RequestedBy:       requestedBy,
	}
	if err := w.requests.Create(ctx, req); err != nil {
		return nil, domain.NewTransactionFailed("crear solicitud de reposición", err)
	}
	w.log.Info().
		Str("request_id", req.ID).
		Str("product_id", productID).
		Int64("quantity", quantity).
		Msg("solicitud de reposición creada")
	return req, nil
}

// SetStatus aplica la transición de estado.
//   - mismo estado: no-op, devuelve el estado actual;
//   - desde un estado terminal: InvalidTransitionError;
//   - a FULFILLED: incrementa el stock y cambia el estado en una sola unidad de trabajo;
//   - a REJECTED: solo cambia el estado.
func (w *Workflow) SetStatus(ctx context.Context, id string, status entity.RestockStatus) (*entity.RestockRequest, error) {
	ctx, span := tracer.Start(ctx, "restock.SetStatus", trace.WithAttributes(
		attribute.String("restock.id", id),
		attribute.String("restock.to", string(status)),
	))
	defer span.End()

	if id == "" || !status.IsValid() {
		span.SetStatus(codes.Error, domain.ErrInvalidInput.Error())
		return nil, domain.ErrInvalidInput
	}

	var (
		result  *entity.RestockRequest
		changed bool
	)
	err := w.txRunner.RunRestock(ctx, func(ledger repository.StockLedger, requests repository.RestockRepository) error {
		result, changed = nil, false

		req, err := requests.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.Status == status {
			result = req
			return nil
		}
		if req.Status.IsTerminal() || status == entity.RestockStatusPending {
			return &domain.InvalidTransitionError{
				RequestID: id,
				From:      string(req.Status),
				To:        string(status),
			}
		}

		if status == entity.RestockStatusFulfilled {
			if err := ledger.Increment(ctx, req.ProductID, req.QuantityRequested); err != nil {
				return err
			}
		}
		at := w.now()
		if err := requests.UpdateStatus(ctx, id, status, at); err != nil {
			return err
		}
		req.Status = status
		req.UpdatedAt = at
		req.ResolvedAt = &at
		result, changed = req, true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if domain.IsBusinessError(err) {
			w.log.Ctx(ctx).Info().Err(err).Str("request_id", id).Msg("transición de reposición rechazada")
			return nil, err
		}
		w.log.Ctx(ctx).Error().Err(err).Str("request_id", id).Msg("transición de reposición revertida")
		return nil, domain.NewTransactionFailed("cambiar estado de reposición", err)
	}

	span.SetAttributes(attribute.Bool("restock.changed", changed))
	if changed {
		w.log.Ctx(ctx).Info().
			Str("request_id", id).
			Str("product_id", result.ProductID).
			Str("status", string(status)).
			Msg("solicitud de reposición resuelta")
		w.afterCommit(ctx, result)
	}
	return result, nil
}

// ListPending solicitudes PENDING, más antiguas primero.
func (w *Workflow) ListPending(ctx context.Context) ([]*entity.RestockRequest, error) {
	return w.requests.ListByStatus(ctx, entity.RestockStatusPending, defaultPendingLimit)
}

// Get devuelve una solicitud por ID.
func (w *Workflow) Get(ctx context.Context, id string) (*entity.RestockRequest, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	return w.requests.GetByID(ctx, id)
}

func (w *Workflow) afterCommit(ctx context.Context, req *entity.RestockRequest) {
	if req.Status == entity.RestockStatusFulfilled && w.cache != nil {
		if err := w.cache.Invalidate(ctx, req.ProductID); err != nil {
			w.log.Warn().Err(err).Str("product_id", req.ProductID).Msg("invalidar caché de productos")
		}
	}
	if w.publisher == nil {
		return
	}
	eventType := entity.EventRestockRejected
	if req.Status == entity.RestockStatusFulfilled {
		eventType = entity.EventRestockFulfilled
	}
	ev, err := entity.NewEvent(eventType, req.ID, dto.ToRestockResponse(req))
	if err == nil {
		err = w.publisher.Publish(ctx, ev)
	}
	if err != nil {
		w.log.Warn().Err(err).Str("event", eventType).Str("request_id", req.ID).Msg("publicar evento")
	}
}
