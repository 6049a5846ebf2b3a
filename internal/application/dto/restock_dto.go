package dto

import (
	"time"

	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// CreateRestockRequest body para POST /api/restocks.
type CreateRestockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// SetRestockStatusRequest body para PATCH /api/restocks/:id/status.
type SetRestockStatusRequest struct {
	Status string `json:"status"` // PENDING | FULFILLED | REJECTED
}

// RestockResponse salida de una solicitud de reposición.
type RestockResponse struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	QuantityRequested int64      `json:"quantity_requested"`
	Status            string     `json:"status"`
	RequestedBy       string     `json:"requested_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// ToRestockResponse convierte la entidad a DTO.
func ToRestockResponse(r *entity.RestockRequest) RestockResponse {
	return RestockResponse{
		ID:                r.ID,
		ProductID:         r.ProductID,
		QuantityRequested: r.QuantityRequested,
		Status:            string(r.Status),
		RequestedBy:       r.RequestedBy,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		ResolvedAt:        r.ResolvedAt,
	}
}
