package sales

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
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

var tracer = otel.Tracer("github.com/jhoicas/pos-api/internal/application/sales")

// CommitLine línea a confirmar: producto, cantidad y precio unitario capturado en el carrito.
type CommitLine struct {
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// CommitInput entrada de Coordinator.Commit.
// IdempotencyKey es opcional: si ya existe una venta con esa clave se devuelve sin mover stock.
type CommitInput struct {
	Lines          []CommitLine
	CashierID      string
	IdempotencyKey string
}

// Coordinator convierte un carrito en una venta durable: cabecera, N líneas y N descuentos
// de stock en una sola unidad de trabajo (todo o nada). No toca el carrito.
type Coordinator struct {
	txRunner  SaleTxRunner
	ledger    repository.StockLedger
	publisher ports.EventPublisher
	cache     ProductCacheInvalidator
	log       *logger.Logger
}

// NewCoordinator construye el coordinador. ledger se usa solo para lecturas posteriores
// al commit (alertas de stock bajo); cache puede ser nil.
func NewCoordinator(
	txRunner SaleTxRunner,
	ledger repository.StockLedger,
	publisher ports.EventPublisher,
	cache ProductCacheInvalidator,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		txRunner:  txRunner,
		ledger:    ledger,
		publisher: publisher,
		cache:     cache,
		log:       log.Component("sales.coordinator"),
	}
}

// Commit confirma la venta:
//  1. rechaza entrada vacía (ErrEmptyCart) o cantidades <= 0;
//  2. calcula el total como Σ UnitPrice × Quantity;
//  3. abre la unidad de trabajo e inserta la cabecera;
//  4. por cada línea, en orden de entrada, TryDecrement y luego inserta el SaleItem;
//     si el stock no alcanza se revierte todo y se devuelve InsufficientStockError;
//  5. confirma y devuelve la venta completa.
//
// Cualquier falla inesperada se devuelve como TransactionFailedError: la venta no ocurrió.
func (c *Coordinator) Commit(ctx context.Context, in CommitInput) (*entity.Sale, error) {
	ctx, span := tracer.Start(ctx, "sales.Commit", trace.WithAttributes(
		attribute.Int("sale.lines", len(in.Lines)),
		attribute.Bool("sale.idempotent", in.IdempotencyKey != ""),
	))
	defer span.End()

	total, err := validateLines(in.Lines)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var (
		sale     *entity.Sale
		replayed bool
	)
	err = c.txRunner.RunSale(ctx, func(ledger repository.StockLedger, sales repository.SaleRepository) error {
		// El runner puede reejecutar fn ante deadlock/serialización: reiniciar el estado.
		sale, replayed = nil, false

		if in.IdempotencyKey != "" {
			existing, err := sales.GetByIdempotencyKey(ctx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if !sameLines(existing, in.Lines) {
					return domain.ErrIdempotencyConflict
				}
				sale, replayed = existing, true
				return nil
			}
		}

		header := &entity.Sale{
			CashierID:      in.CashierID,
			IdempotencyKey: in.IdempotencyKey,
			TotalPrice:     total,
		}
		if err := sales.Create(ctx, header); err != nil {
			return err
		}

		items := make([]entity.SaleItem, 0, len(in.Lines))
		for _, line := range in.Lines {
			ok, err := ledger.TryDecrement(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &domain.InsufficientStockError{
					ProductID: line.ProductID,
					Requested: line.Quantity,
					Available: -1,
				}
			}
			item := entity.NewSaleItem(line.ProductID, line.Quantity, line.UnitPrice)
			item.SaleID = header.ID
			if err := sales.CreateItem(ctx, &item); err != nil {
				return err
			}
			items = append(items, item)
		}
		header.Items = items
		sale = header
		return nil
	})

	if err != nil && errors.Is(err, domain.ErrDuplicate) && in.IdempotencyKey != "" {
		// Otra confirmación con la misma clave ganó la carrera: devolver esa venta.
		if existing, lookupErr := c.findByKey(ctx, in.IdempotencyKey); lookupErr == nil && existing != nil {
			if sameLines(existing, in.Lines) {
				sale, replayed, err = existing, true, nil
			} else {
				err = domain.ErrIdempotencyConflict
			}
		}
	}

	log := c.log.Ctx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if domain.IsBusinessError(err) {
			log.Info().Err(err).Int("lines", len(in.Lines)).Msg("venta rechazada")
			return nil, err
		}
		log.Error().Err(err).Int("lines", len(in.Lines)).Msg("venta revertida por falla de infraestructura")
		return nil, domain.NewTransactionFailed("confirmar venta", err)
	}

	span.SetAttributes(
		attribute.String("sale.id", sale.ID),
		attribute.Bool("sale.replayed", replayed),
	)
	if replayed {
		log.Info().Str("sale_id", sale.ID).Str("idempotency_key", in.IdempotencyKey).Msg("venta ya confirmada con esta clave")
		return sale, nil
	}

	log.Info().
		Str("sale_id", sale.ID).
		Str("total", sale.TotalPrice.String()).
		Int("items", len(sale.Items)).
		Msg("venta confirmada")
	c.afterCommit(ctx, sale)
	return sale, nil
}

// FindByIdempotencyKey venta ya confirmada con esa clave, o nil si no existe.
func (c *Coordinator) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Sale, error) {
	if key == "" {
		return nil, nil
	}
	sale, err := c.findByKey(ctx, key)
	if err != nil {
		return nil, domain.NewTransactionFailed("consultar venta por clave", err)
	}
	return sale, nil
}

func (c *Coordinator) findByKey(ctx context.Context, key string) (*entity.Sale, error) {
	var found *entity.Sale
	err := c.txRunner.RunSale(ctx, func(_ repository.StockLedger, sales repository.SaleRepository) error {
		s, err := sales.GetByIdempotencyKey(ctx, key)
		found = s
		return err
	})
	return found, err
}

// afterCommit efectos posteriores a una venta ya durable: invalidar caché y publicar eventos.
// Ninguna falla aquí afecta el resultado de Commit.
func (c *Coordinator) afterCommit(ctx context.Context, sale *entity.Sale) {
	productIDs := distinctProducts(sale.Items)

	if c.cache != nil {
		if err := c.cache.Invalidate(ctx, productIDs...); err != nil {
			c.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("invalidar caché de productos")
		}
	}
	if c.publisher == nil {
		return
	}

	c.publish(ctx, entity.EventSaleCommitted, sale.ID, dto.ToSaleResponse(sale))
	for _, id := range productIDs {
		low, err := c.ledger.NeedsRestock(ctx, id)
		if err != nil {
			c.log.Warn().Err(err).Str("product_id", id).Msg("consultar umbral de reposición")
			continue
		}
		if low {
			c.publish(ctx, entity.EventStockLow, id, dto.LowStockEvent{ProductID: id, SaleID: sale.ID})
		}
	}
}

func (c *Coordinator) publish(ctx context.Context, eventType, aggregateID string, payload any) {
	ev, err := entity.NewEvent(eventType, aggregateID, payload)
	if err == nil {
		err = c.publisher.Publish(ctx, ev)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("event", eventType).Str("aggregate_id", aggregateID).Msg("publicar evento")
	}
}

// validateLines verifica la entrada y devuelve el total Σ UnitPrice × Quantity.
func validateLines(lines []CommitLine) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, domain.ErrEmptyCart
	}
	total := decimal.Zero
	for _, l := range lines {
		if l.ProductID == "" || l.UnitPrice.IsNegative() {
			return decimal.Zero, domain.ErrInvalidInput
		}
		// Los importes se persisten con dos decimales.
		if !l.UnitPrice.Equal(l.UnitPrice.Round(2)) {
			return decimal.Zero, domain.ErrInvalidInput
		}
		if l.Quantity <= 0 {
			return decimal.Zero, domain.NewInvalidQuantity(l.Quantity)
		}
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total, nil
}

// sameLines compara por producto cantidades e importes de una venta guardada y una entrada.
func sameLines(sale *entity.Sale, lines []CommitLine) bool {
	type amount struct {
		qty   int64
		total decimal.Decimal
	}
	want := make(map[string]amount, len(lines))
	for _, l := range lines {
		a := want[l.ProductID]
		a.qty += l.Quantity
		a.total = a.total.Add(l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
		want[l.ProductID] = a
	}
	got := make(map[string]amount, len(sale.Items))
	for _, it := range sale.Items {
		a := got[it.ProductID]
		a.qty += it.Quantity
		a.total = a.total.Add(it.LineTotal)
		got[it.ProductID] = a
	}
	if len(want) != len(got) {
		return false
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok || g.qty != w.qty || !g.total.Equal(w.total) {
			return false
		}
	}
	return true
}

func distinctProducts(items []entity.SaleItem) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it.ProductID)
	}
	return out
}
