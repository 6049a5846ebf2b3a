// Package memory implementa los puertos de persistencia en memoria con la misma semántica
// transaccional que el driver postgres: cada unidad de trabajo se serializa bajo el mutex
// del store y sus escrituras se aplican solo si fn termina sin error.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/domain/repository"
)

// Store almacenamiento en memoria de productos, ventas y solicitudes de reposición.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	sales     map[string]*entity.Sale
	saleByKey map[string]string
	restocks  map[string]*entity.RestockRequest
	now       func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]*entity.Product),
		sales:     make(map[string]*entity.Sale),
		saleByKey: make(map[string]string),
		restocks:  make(map[string]*entity.RestockRequest),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj usado para created_at/updated_at.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Seed inserta productos (ID generado si viene vacío). Devuelve los IDs en el mismo orden.
func (s *Store) Seed(products ...entity.Product) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(products))
	for i := range products {
		p := products[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		ts := s.now()
		p.CreatedAt, p.UpdatedAt = ts, ts
		s.products[p.ID] = &p
		ids = append(ids, p.ID)
	}
	return ids
}

// Counts número de ventas y solicitudes persistidas (aserciones en tests).
func (s *Store) Counts() (sales, items, restocks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sale := range s.sales {
		items += len(sale.Items)
	}
	return len(s.sales), items, len(s.restocks)
}

// RunSale ejecuta fn en una unidad de trabajo de venta.
func (s *Store) RunSale(ctx context.Context, fn func(repository.StockLedger, repository.SaleRepository) error) error {
	return s.run(ctx, func(u *unitOfWork) error {
		return fn(u, saleRepo{u})
	})
}

// RunRestock ejecuta fn en una unidad de trabajo de reposición.
func (s *Store) RunRestock(ctx context.Context, fn func(repository.StockLedger, repository.RestockRepository) error) error {
	return s.run(ctx, func(u *unitOfWork) error {
		return fn(u, restockRepo{u})
	})
}

// run serializa la unidad de trabajo; un panic en fn libera el lock sin aplicar cambios.
func (s *Store) run(ctx context.Context, fn func(u *unitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := newUnitOfWork(s)
	if err := fn(u); err != nil {
		return err
	}
	u.apply()
	return nil
}

// ── ProductRepository ────────────────────────────────────────────────────────

// GetByID devuelve una copia del producto.
func (s *Store) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.NewNotFound("producto", id)
	}
	cp := *p
	return &cp, nil
}

// Create inserta un producto.
func (s *Store) Create(ctx context.Context, product *entity.Product) error {
	if product.Quantity < 0 || product.Price.IsNegative() {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if _, ok := s.products[product.ID]; ok {
		return domain.ErrDuplicate
	}
	ts := s.now()
	product.CreatedAt, product.UpdatedAt = ts, ts
	cp := *product
	s.products[product.ID] = &cp
	return nil
}

// ListBelowMinStock productos con quantity <= min_stock, mayor déficit primero.
func (s *Store) ListBelowMinStock(ctx context.Context, limit int) ([]*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Product, 0)
	for _, p := range s.products {
		if p.NeedsRestock() {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].MinStock-out[i].Quantity, out[j].MinStock-out[j].Quantity
		if di != dj {
			return di > dj
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── StockLedger (fuera de transacción: una unidad de trabajo por llamada) ────

// Ledger vista del store como StockLedger.
func (s *Store) Ledger() repository.StockLedger { return ledgerView{s} }

type ledgerView struct{ s *Store }

func (l ledgerView) TryDecrement(ctx context.Context, productID string, amount int64) (bool, error) {
	var ok bool
	err := l.s.run(ctx, func(u *unitOfWork) error {
		var err error
		ok, err = u.TryDecrement(ctx, productID, amount)
		return err
	})
	return ok, err
}

func (l ledgerView) Increment(ctx context.Context, productID string, amount int64) error {
	return l.s.run(ctx, func(u *unitOfWork) error {
		return u.Increment(ctx, productID, amount)
	})
}

func (l ledgerView) NeedsRestock(ctx context.Context, productID string) (bool, error) {
	p, err := l.s.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	return p.NeedsRestock(), nil
}

// ── Ventas y reposiciones fuera de transacción ───────────────────────────────

// Sales vista del store como SaleRepository (cada llamada es su propia unidad de trabajo).
func (s *Store) Sales() repository.SaleRepository { return salesView{s} }

// Restocks vista del store como RestockRepository.
func (s *Store) Restocks() repository.RestockRepository { return restocksView{s} }

type salesView struct{ s *Store }

func (v salesView) Create(ctx context.Context, sale *entity.Sale) error {
	return v.s.run(ctx, func(u *unitOfWork) error { return saleRepo{u}.Create(ctx, sale) })
}

func (v salesView) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	return v.s.run(ctx, func(u *unitOfWork) error { return saleRepo{u}.CreateItem(ctx, item) })
}

func (v salesView) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	sale, ok := v.s.sales[id]
	if !ok {
		return nil, domain.NewNotFound("venta", id)
	}
	return copySale(sale), nil
}

func (v salesView) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Sale, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	id, ok := v.s.saleByKey[key]
	if !ok {
		return nil, nil
	}
	return copySale(v.s.sales[id]), nil
}

type restocksView struct{ s *Store }

func (v restocksView) Create(ctx context.Context, req *entity.RestockRequest) error {
	return v.s.run(ctx, func(u *unitOfWork) error { return restockRepo{u}.Create(ctx, req) })
}

func (v restocksView) GetByID(ctx context.Context, id string) (*entity.RestockRequest, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	req, ok := v.s.restocks[id]
	if !ok {
		return nil, domain.NewNotFound("solicitud de reposición", id)
	}
	return copyRestock(req), nil
}

func (v restocksView) GetForUpdate(ctx context.Context, id string) (*entity.RestockRequest, error) {
	return v.GetByID(ctx, id)
}

func (v restocksView) UpdateStatus(ctx context.Context, id string, status entity.RestockStatus, at time.Time) error {
	return v.s.run(ctx, func(u *unitOfWork) error { return restockRepo{u}.UpdateStatus(ctx, id, status, at) })
}

func (v restocksView) ListByStatus(ctx context.Context, status entity.RestockStatus, limit int) ([]*entity.RestockRequest, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	return listRestocks(v.s.restocks, status, limit), nil
}

func listRestocks(all map[string]*entity.RestockRequest, status entity.RestockStatus, limit int) []*entity.RestockRequest {
	out := make([]*entity.RestockRequest, 0)
	for _, r := range all {
		if r.Status == status {
			out = append(out, copyRestock(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copySale(s *entity.Sale) *entity.Sale {
	cp := *s
	cp.Items = append([]entity.SaleItem(nil), s.Items...)
	return &cp
}

func copyRestock(r *entity.RestockRequest) *entity.RestockRequest {
	cp := *r
	if r.ResolvedAt != nil {
		at := *r.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}
