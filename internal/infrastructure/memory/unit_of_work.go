package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// unitOfWork escrituras pendientes sobre el estado confirmado del store. Se usa siempre
// con s.mu tomado en escritura.
type unitOfWork struct {
	s        *Store
	now      time.Time
	qty      map[string]int64
	sales    map[string]*entity.Sale
	items    []entity.SaleItem
	keys     map[string]string
	restocks map[string]*entity.RestockRequest
}

func newUnitOfWork(s *Store) *unitOfWork {
	return &unitOfWork{
		s:        s,
		now:      s.now(),
		qty:      make(map[string]int64),
		sales:    make(map[string]*entity.Sale),
		keys:     make(map[string]string),
		restocks: make(map[string]*entity.RestockRequest),
	}
}

// quantity stock visible dentro de la unidad de trabajo (incluye sus propios descuentos).
func (u *unitOfWork) quantity(productID string) (int64, bool) {
	if q, ok := u.qty[productID]; ok {
		return q, true
	}
	p, ok := u.s.products[productID]
	if !ok {
		return 0, false
	}
	return p.Quantity, true
}

// apply confirma las escrituras pendientes en el store.
func (u *unitOfWork) apply() {
	for id, q := range u.qty {
		p := u.s.products[id]
		p.Quantity = q
		p.UpdatedAt = u.now
	}
	for id, sale := range u.sales {
		u.s.sales[id] = sale
	}
	for _, it := range u.items {
		sale := u.s.sales[it.SaleID]
		sale.Items = append(sale.Items, it)
	}
	for key, id := range u.keys {
		u.s.saleByKey[key] = id
	}
	for id, r := range u.restocks {
		u.s.restocks[id] = r
	}
}

// ── StockLedger ──────────────────────────────────────────────────────────────

func (u *unitOfWork) TryDecrement(ctx context.Context, productID string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, domain.NewInvalidQuantity(amount)
	}
	q, ok := u.quantity(productID)
	if !ok {
		return false, domain.NewNotFound("producto", productID)
	}
	if q < amount {
		return false, nil
	}
	u.qty[productID] = q - amount
	return true, nil
}

func (u *unitOfWork) Increment(ctx context.Context, productID string, amount int64) error {
	if amount <= 0 {
		return domain.NewInvalidQuantity(amount)
	}
	q, ok := u.quantity(productID)
	if !ok {
		return domain.NewNotFound("producto", productID)
	}
	u.qty[productID] = q + amount
	return nil
}

func (u *unitOfWork) NeedsRestock(ctx context.Context, productID string) (bool, error) {
	q, ok := u.quantity(productID)
	if !ok {
		return false, domain.NewNotFound("producto", productID)
	}
	return q <= u.s.products[productID].MinStock, nil
}

// ── SaleRepository ───────────────────────────────────────────────────────────

type saleRepo struct{ u *unitOfWork }

func (r saleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if sale.IdempotencyKey != "" {
		if _, ok := r.u.s.saleByKey[sale.IdempotencyKey]; ok {
			return domain.ErrDuplicate
		}
		if _, ok := r.u.keys[sale.IdempotencyKey]; ok {
			return domain.ErrDuplicate
		}
	}
	sale.ID = uuid.NewString()
	sale.CreatedAt = r.u.now
	cp := *sale
	cp.Items = nil
	r.u.sales[sale.ID] = &cp
	if sale.IdempotencyKey != "" {
		r.u.keys[sale.IdempotencyKey] = sale.ID
	}
	return nil
}

func (r saleRepo) CreateItem(ctx context.Context, item *entity.SaleItem) error {
	if _, ok := r.u.sales[item.SaleID]; !ok {
		if _, ok := r.u.s.sales[item.SaleID]; !ok {
			return domain.NewNotFound("venta", item.SaleID)
		}
	}
	if item.Quantity <= 0 {
		return domain.NewInvalidQuantity(item.Quantity)
	}
	item.ID = uuid.NewString()
	r.u.items = append(r.u.items, *item)
	return nil
}

func (r saleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	if sale, ok := r.u.sales[id]; ok {
		cp := copySale(sale)
		for _, it := range r.u.items {
			if it.SaleID == id {
				cp.Items = append(cp.Items, it)
			}
		}
		return cp, nil
	}
	sale, ok := r.u.s.sales[id]
	if !ok {
		return nil, domain.NewNotFound("venta", id)
	}
	return copySale(sale), nil
}

func (r saleRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Sale, error) {
	id, ok := r.u.keys[key]
	if !ok {
		id, ok = r.u.s.saleByKey[key]
	}
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// ── RestockRepository ────────────────────────────────────────────────────────

type restockRepo struct{ u *unitOfWork }

func (r restockRepo) Create(ctx context.Context, req *entity.RestockRequest) error {
	if req.QuantityRequested <= 0 {
		return domain.NewInvalidQuantity(req.QuantityRequested)
	}
	if _, ok := r.u.s.products[req.ProductID]; !ok {
		return domain.NewNotFound("producto", req.ProductID)
	}
	if req.Status == "" {
		req.Status = entity.RestockStatusPending
	}
	req.ID = uuid.NewString()
	req.CreatedAt, req.UpdatedAt = r.u.now, r.u.now
	r.u.restocks[req.ID] = copyRestock(req)
	return nil
}

func (r restockRepo) GetByID(ctx context.Context, id string) (*entity.RestockRequest, error) {
	if req, ok := r.u.restocks[id]; ok {
		return copyRestock(req), nil
	}
	req, ok := r.u.s.restocks[id]
	if !ok {
		return nil, domain.NewNotFound("solicitud de reposición", id)
	}
	return copyRestock(req), nil
}

// GetForUpdate la unidad de trabajo ya tiene acceso exclusivo al store.
func (r restockRepo) GetForUpdate(ctx context.Context, id string) (*entity.RestockRequest, error) {
	return r.GetByID(ctx, id)
}

func (r restockRepo) UpdateStatus(ctx context.Context, id string, status entity.RestockStatus, at time.Time) error {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	req.Status = status
	req.UpdatedAt = at
	if status.IsTerminal() {
		resolved := at
		req.ResolvedAt = &resolved
	}
	r.u.restocks[id] = req
	return nil
}

func (r restockRepo) ListByStatus(ctx context.Context, status entity.RestockStatus, limit int) ([]*entity.RestockRequest, error) {
	merged := make(map[string]*entity.RestockRequest, len(r.u.s.restocks)+len(r.u.restocks))
	for id, req := range r.u.s.restocks {
		merged[id] = req
	}
	for id, req := range r.u.restocks {
		merged[id] = req
	}
	return listRestocks(merged, status, limit), nil
}
