package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/application/restock"
	"github.com/jhoicas/pos-api/internal/domain/entity"
)

// RestockHandler solicitudes de reposición (protegido).
type RestockHandler struct {
	wf *restock.Workflow
}

// NewRestockHandler construye el handler.
func NewRestockHandler(wf *restock.Workflow) *RestockHandler {
	return &RestockHandler{wf: wf}
}

// Create godoc
// @Summary      Crear solicitud de reposición
// @Tags         restocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRestockRequest  true  "Producto y cantidad"
// @Success      201   {object}  dto.RestockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/restocks [post]
func (h *RestockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRestockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	req, err := h.wf.Create(c.UserContext(), in.ProductID, in.Quantity, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRestockResponse(req))
}

// ListPending godoc
// @Summary      Solicitudes pendientes (más antiguas primero)
// @Tags         restocks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.RestockResponse]
// @Router       /api/restocks/pending [get]
func (h *RestockHandler) ListPending(c *fiber.Ctx) error {
	list, err := h.wf.ListPending(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.RestockResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.ToRestockResponse(r))
	}
	return c.JSON(dto.NewListResponse(out))
}

// GetByID godoc
// @Summary      Obtener solicitud de reposición
// @Tags         restocks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.RestockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/restocks/{id} [get]
func (h *RestockHandler) GetByID(c *fiber.Ctx) error {
	req, err := h.wf.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToRestockResponse(req))
}

// SetStatus godoc
// @Summary      Cambiar estado (FULFILLED incrementa el stock)
// @Tags         restocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la solicitud"
// @Param        body  body  dto.SetRestockStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.RestockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/restocks/{id}/status [patch]
func (h *RestockHandler) SetStatus(c *fiber.Ctx) error {
	var in dto.SetRestockStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	status := entity.RestockStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	req, err := h.wf.SetStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToRestockResponse(req))
}
