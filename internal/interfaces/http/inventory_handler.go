package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/application/inventory"
)

// InventoryHandler barrido de revisiones y reportes de stock.
type InventoryHandler struct {
	replenishment *inventory.ReplenishmentUseCase
	policy        *inventory.PolicyUseCase
	loc           *time.Location
}

// NewInventoryHandler construye el handler. loc decide el "día" del barrido.
func NewInventoryHandler(replenishment *inventory.ReplenishmentUseCase, policy *inventory.PolicyUseCase, loc *time.Location) *InventoryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &InventoryHandler{replenishment: replenishment, policy: policy, loc: loc}
}

// RunReviews godoc
// @Summary      Procesar revisiones periódicas vencidas
// @Description  Sin fecha corre el barrido del día bajo el candado entre réplicas. Repetirlo el mismo día no crea necesidades nuevas.
// @Tags         replenishment
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RunReviewsRequest  false  "Fecha opcional (YYYY-MM-DD)"
// @Success      200   {object}  dto.ReplenishmentRunResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/replenishment/reviews [post]
func (h *InventoryHandler) RunReviews(c *fiber.Ctx) error {
	var in dto.RunReviewsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	if in.Date == "" {
		in.Date = c.Query("date")
	}

	if in.Date == "" {
		report, err := h.replenishment.RunDailySweep(c.UserContext(), h.loc)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(report.Response())
	}

	date, err := time.ParseInLocation(time.DateOnly, in.Date, h.loc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "date debe tener formato YYYY-MM-DD"})
	}
	report, err := h.replenishment.ProcessDueReviews(c.UserContext(), date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report.Response())
}

// BelowSafetyStock godoc
// @Summary      Productos bajo stock de seguridad
// @Tags         reports
// @Produce      json
// @Success      200  {array}  dto.ProductAlertResponse
// @Router       /api/reports/below-safety-stock [get]
func (h *InventoryHandler) BelowSafetyStock(c *fiber.Ctx) error {
	out, err := h.policy.BelowSafetyStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// BelowReorderPoint godoc
// @Summary      Productos bajo punto de pedido sin orden activa
// @Tags         reports
// @Produce      json
// @Success      200  {array}  dto.ProductAlertResponse
// @Router       /api/reports/below-reorder-point [get]
func (h *InventoryHandler) BelowReorderPoint(c *fiber.Ctx) error {
	out, err := h.policy.BelowReorderPoint(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
