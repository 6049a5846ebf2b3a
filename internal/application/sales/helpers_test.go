package sales_test

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-api/internal/application/sales"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
	"github.com/jhoicas/pos-api/internal/infrastructure/memory"
	"github.com/jhoicas/pos-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba compartidos
// ──────────────────────────────────────────────────────────────────────────────

// recordingPublisher guarda los eventos publicados; err simula un broker caído.
type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev entity.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ofType(t string) []entity.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []entity.Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// recordingCache registra las invalidaciones.
type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (c *recordingCache) Invalidate(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ids...)
	return c.err
}

// faultyRunner envuelve el runner del store y hace fallar CreateItem en la llamada failAt
// (1-based), simulando una caída de infraestructura a mitad de la unidad de trabajo.
type faultyRunner struct {
	inner  sales.SaleTxRunner
	failAt int
}

var errStorageDown = errors.New("almacenamiento no disponible")

func (r *faultyRunner) RunSale(ctx context.Context, fn func(repository.StockLedger, repository.SaleRepository) error) error {
	return r.inner.RunSale(ctx, func(ledger repository.StockLedger, repo repository.SaleRepository) error {
		return fn(ledger, &faultySaleRepo{SaleRepository: repo, failAt: r.failAt})
	})
}

type faultySaleRepo struct {
	repository.SaleRepository
	failAt int
	calls  int
}

func (f *faultySaleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	f.calls++
	if f.calls == f.failAt {
		return errStorageDown
	}
	return f.SaleRepository.CreateItem(ctx, item)
}

// fixture store en memoria con dos productos: p1 (stock 10, mín 2) y p2 (stock 5, mín 2).
type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	cache     *recordingCache
	coord     *sales.Coordinator
}

func newFixture(products ...entity.Product) *fixture {
	if len(products) == 0 {
		products = []entity.Product{
			{ID: "p1", Name: "Arroz", Price: decimal.RequireFromString("2500"), Quantity: 10, MinStock: 2},
			{ID: "p2", Name: "Aceite", Price: decimal.RequireFromString("1000"), Quantity: 5, MinStock: 2},
		}
	}
	store := memory.NewStore()
	store.Seed(products...)
	f := &fixture{store: store, publisher: &recordingPublisher{}, cache: &recordingCache{}}
	f.coord = sales.NewCoordinator(store, store.Ledger(), f.publisher, f.cache, logger.Nop())
	return f
}

func (f *fixture) quantity(id string) int64 {
	p, err := f.store.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return p.Quantity
}

func line(productID string, qty int64, price string) sales.CommitLine {
	return sales.CommitLine{ProductID: productID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}
