package entity

import "time"

// RestockStatus estado de una solicitud de reposición.
type RestockStatus string

// Estados de reposición. FULFILLED y REJECTED son terminales.
const (
	RestockStatusPending   RestockStatus = "PENDING"
	RestockStatusFulfilled RestockStatus = "FULFILLED"
	RestockStatusRejected  RestockStatus = "REJECTED"
)

// IsValid indica si el valor es uno de los estados conocidos.
func (s RestockStatus) IsValid() bool {
	switch s {
	case RestockStatusPending, RestockStatusFulfilled, RestockStatusRejected:
		return true
	}
	return false
}

// IsTerminal indica si desde este estado ya no se permiten transiciones.
func (s RestockStatus) IsTerminal() bool {
	return s == RestockStatusFulfilled || s == RestockStatusRejected
}

// RestockRequest solicitud de reposición de stock de un producto.
type RestockRequest struct {
	ID                string
	ProductID         string
	QuantityRequested int64
	Status            RestockStatus
	RequestedBy       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ResolvedAt        *time.Time // momento en que pasó a un estado terminal
}
