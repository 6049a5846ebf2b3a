package sales

import (
	"sync"
	"time"

	"github.com/jhoicas/pos-api/internal/domain/cart"
)

type sessionCart struct {
	cart     *cart.Cart
	lastSeen time.Time
}

// CartSessions registro en memoria de carritos por sesión de caja.
// Los carritos no son durables: un reinicio del proceso los descarta.
type CartSessions struct {
	mu     sync.Mutex
	carts  map[string]*sessionCart
	reader cart.ProductReader
	now    func() time.Time
}

// NewCartSessions crea el registro. reader se inyecta en cada carrito nuevo.
func NewCartSessions(reader cart.ProductReader) *CartSessions {
	return &CartSessions{
		carts:  make(map[string]*sessionCart),
		reader: reader,
		now:    time.Now,
	}
}

// WithClock reemplaza el reloj (tests de expiración).
func (s *CartSessions) WithClock(now func() time.Time) *CartSessions {
	s.now = now
	return s
}

// Get devuelve el carrito de la sesión, creándolo si no existe, y marca la actividad.
func (s *CartSessions) Get(sessionID string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.carts[sessionID]
	if !ok {
		sc = &sessionCart{cart: cart.New(s.reader)}
		s.carts[sessionID] = sc
	}
	sc.lastSeen = s.now()
	return sc.cart
}

// Drop descarta el carrito de la sesión.
func (s *CartSessions) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Sweep descarta los carritos sin actividad durante más de idle. Devuelve cuántos eliminó.
func (s *CartSessions) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sc := range s.carts {
		if sc.lastSeen.Before(cutoff) {
			delete(s.carts, id)
			removed++
		}
	}
	return removed
}

// Len número de sesiones con carrito.
func (s *CartSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
