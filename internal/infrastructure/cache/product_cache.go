// Package cache caché de lectura de productos (cache-aside) para los snapshots del carrito.
// Redis es opcional; los misses concurrentes de un mismo producto se colapsan en una sola
// lectura con singleflight.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/pos-api/internal/domain/entity"
	"github.com/jhoicas/pos-api/pkg/logger"
)

const keyPrefix = "pos:product:"

// ProductSource lectura autoritativa de productos.
type ProductSource interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

// ProductCache implementa cart.ProductReader y el invalidador de caché de los casos de uso.
type ProductCache struct {
	source ProductSource
	rdb    *redis.Client // nil = sin Redis
	ttl    time.Duration
	group  singleflight.Group
	log    *logger.Logger
}

// NewProductCache construye la caché. rdb puede ser nil.
func NewProductCache(source ProductSource, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ProductCache{source: source, rdb: rdb, ttl: ttl, log: log.Component("cache.products")}
}

// NewRedisClient cliente Redis; addr vacío devuelve nil (caché deshabilitada).
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func cacheKey(id string) string {
	return keyPrefix + id
}

// GetByID devuelve el producto desde Redis o, en un miss, desde la fuente.
// Las fallas de Redis degradan a la fuente; nunca se devuelven al llamador.
func (c *ProductCache) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if p, ok := c.get(ctx, id); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		// La lectura es compartida: no depende de la cancelación del primer llamador.
		shared := context.WithoutCancel(ctx)
		if p, ok := c.get(shared, id); ok {
			return p, nil
		}
		fresh, err := c.source.GetByID(shared, id)
		if err != nil {
			return nil, err
		}
		c.set(shared, fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	// Copia: los llamadores concurrentes de singleflight comparten el mismo puntero.
	p := *v.(*entity.Product)
	return &p, nil
}

// Invalidate descarta las entradas de los productos indicados.
func (c *ProductCache) Invalidate(ctx context.Context, productIDs ...string) error {
	if len(productIDs) == 0 {
		return nil
	}
	for _, id := range productIDs {
		c.group.Forget(id)
	}
	if c.rdb == nil {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, cacheKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *ProductCache) get(ctx context.Context, id string) (*entity.Product, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("product_id", id).Msg("redis get")
		}
		return nil, false
	}
	var p entity.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.Warn().Err(err).Str("product_id", id).Msg("entrada de caché corrupta")
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) set(ctx context.Context, p *entity.Product) {
	if c.rdb == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(p.ID), payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("product_id", p.ID).Msg("redis set")
	}
}
