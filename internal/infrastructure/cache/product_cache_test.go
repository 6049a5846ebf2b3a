package cache_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/internal/infrastructure/cache"
	"github.com/jhoicas/pos-api/pkg/logger"
)

// countingSource fuente lenta que cuenta lecturas.
type countingSource struct {
	mu       sync.Mutex
	reads    atomic.Int32
	delay    time.Duration
	products map[string]entity.Product
}

func (s *countingSource) GetByID(_ context.Context, id string) (*entity.Product, error) {
	s.reads.Add(1)
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.NewNotFound("producto", id)
	}
	return &p, nil
}

func (s *countingSource) setQuantity(id string, q int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Quantity = q
	s.products[id] = p
}

func newSource() *countingSource {
	return &countingSource{
		delay: 20 * time.Millisecond,
		products: map[string]entity.Product{
			"p1": {ID: "p1", Name: "Arroz", Price: decimal.NewFromInt(2500), Quantity: 10, MinStock: 2},
		},
	}
}

func TestProductCache_SinRedisColapsaLecturasConcurrentes(t *testing.T) {
	src := newSource()
	c := cache.NewProductCache(src, nil, time.Minute, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.GetByID(context.Background(), "p1")
			assert.NoError(t, err)
			assert.Equal(t, int64(10), p.Quantity)
		}()
	}
	wg.Wait()

	assert.Less(t, src.reads.Load(), int32(10), "los misses simultáneos comparten una lectura")
}

func TestProductCache_SinRedisLeeSiempreLaFuente(t *testing.T) {
	src := newSource()
	src.delay = 0
	c := cache.NewProductCache(src, nil, time.Minute, logger.Nop())
	ctx := context.Background()

	_, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	src.setQuantity("p1", 3)

	p, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Quantity)
	require.NoError(t, c.Invalidate(ctx, "p1"))
	require.NoError(t, c.Invalidate(ctx))
}

func TestProductCache_DevuelveCopias(t *testing.T) {
	src := newSource()
	src.delay = 0
	c := cache.NewProductCache(src, nil, time.Minute, logger.Nop())

	a, err := c.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	a.Quantity = 999
	b, err := c.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.Quantity)
}

func TestProductCache_PropagaNotFound(t *testing.T) {
	c := cache.NewProductCache(newSource(), nil, 0, logger.Nop())
	_, err := c.GetByID(context.Background(), "nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// gatedSource bloquea la lectura hasta release y respeta la cancelación del contexto.
type gatedSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedSource) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.release:
		return &entity.Product{ID: id, Name: "Arroz", Quantity: 4}, nil
	}
}

func TestProductCache_CancelarPrimerLlamadorNoAfectaALosDemas(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	c := cache.NewProductCache(src, nil, time.Minute, logger.Nop())

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetByID(firstCtx, "p1")
		firstErr <- err
	}()
	<-src.started

	type result struct {
		p   *entity.Product
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := c.GetByID(context.Background(), "p1")
		second <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	time.Sleep(10 * time.Millisecond)
	close(src.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, int64(4), got.p.Quantity)
	assert.NoError(t, <-firstErr)
}

func TestNewRedisClient_SinDireccion(t *testing.T) {
	rdb, err := cache.NewRedisClient(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

// Requiere un Redis real: REDIS_ADDR=localhost:6379 go test ./...
func TestProductCache_ConRedisInvalidaTrasCambioDeStock(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR no configurado")
	}
	ctx := context.Background()
	rdb, err := cache.NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer rdb.Close()

	src := newSource()
	src.delay = 0
	c := cache.NewProductCache(src, rdb, time.Minute, logger.Nop())
	require.NoError(t, c.Invalidate(ctx, "p1"))

	_, err = c.GetByID(ctx, "p1")
	require.NoError(t, err)
	src.setQuantity("p1", 4)

	cached, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), cached.Quantity, "sirve desde Redis hasta invalidar")
	assert.Equal(t, int32(1), src.reads.Load())

	require.NoError(t, c.Invalidate(ctx, "p1"))
	fresh, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), fresh.Quantity)
}
