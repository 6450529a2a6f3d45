package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/application/inventory"
)

// ProviderHandler proveedores y condiciones de compra de cada vínculo.
type ProviderHandler struct {
	uc *inventory.PolicyUseCase
}

// NewProviderHandler construye el handler.
func NewProviderHandler(uc *inventory.PolicyUseCase) *ProviderHandler {
	return &ProviderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear proveedor
// @Tags         providers
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProviderRequest  true  "Proveedor"
// @Success      201   {object}  dto.ProviderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/providers [post]
func (h *ProviderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProviderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name es requerido"})
	}
	out, err := h.uc.CreateProvider(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Deactivate godoc
// @Summary      Dar de baja un proveedor
// @Description  Falla si es predeterminado de algún producto o tiene órdenes pendientes o enviadas.
// @Tags         providers
// @Produce      json
// @Param        id   path  string  true  "ID del proveedor"
// @Success      200  {object}  dto.ProviderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/providers/{id} [delete]
func (h *ProviderHandler) Deactivate(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.DeactivateProvider(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateLink godoc
// @Summary      Actualizar condiciones de compra de un vínculo
// @Description  Si el vínculo es el predeterminado se recalcula la política del producto.
// @Tags         providers
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del vínculo"
// @Param        body  body  dto.UpdateProviderLinkRequest  true  "Condiciones"
// @Success      200   {object}  dto.ProviderLinkResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/provider-links/{id} [put]
func (h *ProviderHandler) UpdateLink(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.UpdateProviderLinkRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateProviderLink(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// DeactivateLink godoc
// @Summary      Dar de baja un vínculo
// @Description  El vínculo predeterminado no se puede dar de baja.
// @Tags         providers
// @Produce      json
// @Param        id   path  string  true  "ID del vínculo"
// @Success      200  {object}  dto.ProviderLinkResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/provider-links/{id} [delete]
func (h *ProviderHandler) DeactivateLink(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.DeactivateProviderLink(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
