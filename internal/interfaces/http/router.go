package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/application/purchasing"
	"github.com/jhoicas/reposicion-api/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PolicyUC        *inventory.PolicyUseCase
	ReplenishmentUC *inventory.ReplenishmentUseCase
	OrderUC         *purchasing.OrderUseCase
	SaleUC          *sales.SaleUseCase
	SweepLocation   *time.Location
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Products, política y vínculos con proveedores
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.PolicyUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Delete("/:id", productHandler.Deactivate)
	products.Put("/:id/policy", productHandler.UpdatePolicy)
	products.Put("/:id/demand", productHandler.UpdateDemand)
	products.Post("/:id/recompute", productHandler.Recompute)
	products.Get("/:id/providers", productHandler.ListProviders)
	products.Post("/:id/providers", productHandler.LinkProvider)
	products.Put("/:id/default-provider", productHandler.SetDefaultProvider)

	// Providers
	providerHandler := NewProviderHandler(deps.PolicyUC)
	providers := api.Group("/providers")
	providers.Post("/", providerHandler.Create)
	providers.Delete("/:id", providerHandler.Deactivate)
	links := api.Group("/provider-links")
	links.Put("/:id", providerHandler.UpdateLink)
	links.Delete("/:id", providerHandler.DeactivateLink)

	// Purchase orders
	orders := api.Group("/purchase-orders")
	orderHandler := NewPurchaseOrderHandler(deps.OrderUC)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Put("/:id", orderHandler.Update)
	orders.Post("/:id/send", orderHandler.Send)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Post("/:id/finalize", orderHandler.Finalize)
	orders.Get("/:id/pdf", orderHandler.PDF)

	// Sales (ruta por evento)
	salesGroup := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC)
	salesGroup.Post("/", saleHandler.Register)
	salesGroup.Get("/:id", saleHandler.GetByID)

	// Replenishment (ruta por tiempo) y reportes
	inventoryHandler := NewInventoryHandler(deps.ReplenishmentUC, deps.PolicyUC, deps.SweepLocation)
	api.Post("/replenishment/reviews", inventoryHandler.RunReviews)
	reports := api.Group("/reports")
	reports.Get("/below-safety-stock", inventoryHandler.BelowSafetyStock)
	reports.Get("/below-reorder-point", inventoryHandler.BelowReorderPoint)
}
