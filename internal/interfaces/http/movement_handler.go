package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

// MovementHandler maneja las peticiones HTTP del ledger de movimientos.
type MovementHandler struct {
	uc *inventory.LedgerUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *inventory.LedgerUseCase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

// Record godoc
// @Summary      Registrar movimiento
// @Description  Sin from_location es una entrada, sin to_location una salida, con ambos un traslado.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "id, product_id, from_location, to_location, qty, timestamp"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Record(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.RecordFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Amend godoc
// @Summary      Enmendar movimiento
// @Description  Reemplaza todos los campos salvo el ID y guarda una revisión con los valores previos.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del movimiento"
// @Param        body  body  dto.AmendMovementRequest  true  "Nuevos valores"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [put]
func (h *MovementHandler) Amend(c *fiber.Ctx) error {
	var in dto.AmendMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.AmendFromRequest(c.UserContext(), GetUserID(c), pathID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Tags         movements
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetMovement(c.UserContext(), pathID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar movimientos
// @Description  Más reciente primero; empates en orden de registro. location_id coincide con origen o destino.
// @Tags         movements
// @Produce      json
// @Param        product_id   query  string  false  "Filtrar por producto"
// @Param        location_id  query  string  false  "Filtrar por ubicación"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	var filter dto.MovementFilter
	if err := c.QueryParser(&filter); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	out, err := h.uc.ListMovements(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Revisions godoc
// @Summary      Historial de enmiendas
// @Tags         movements
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {array}   dto.MovementRevisionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/movements/{id}/revisions [get]
func (h *MovementHandler) Revisions(c *fiber.Ctx) error {
	out, err := h.uc.ListRevisions(c.UserContext(), pathID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
