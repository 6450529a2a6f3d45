// Package purchasing implementa el ciclo de vida de las órdenes de compra:
// alta y edición manual, envío, cancelación y recepción con sus ajustes de stock.
package purchasing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

// OrderUseCase máquina de estados de la orden de compra.
type OrderUseCase struct {
	tx        inventory.TxRunner
	publisher inventory.AdjustmentPublisher
	pdf       PDFGenerator
	now       inventory.Clock
	log       *logger.Logger
}

// NewOrderUseCase construye el caso de uso. publisher y pdf pueden ser nil.
func NewOrderUseCase(tx inventory.TxRunner, publisher inventory.AdjustmentPublisher, pdf PDFGenerator, now inventory.Clock, log *logger.Logger) *OrderUseCase {
	if publisher == nil {
		publisher = inventory.NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &OrderUseCase{tx: tx, publisher: publisher, pdf: pdf, now: now, log: log}
}

// Create crea una orden Pending manual. Se rechaza con ErrActiveOrderExists si algún
// producto ya está en otra orden Pending o Sent. El precio de cada línea sale del vínculo
// del proveedor con el producto.
func (uc *OrderUseCase) Create(ctx context.Context, in dto.PurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}

	var out dto.PurchaseOrderResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		if err := repos.Orders.LockProductSlots(ctx, lineProducts(in)); err != nil {
			return err
		}
		if err := repos.Orders.LockPendingSlot(ctx, in.ProviderID); err != nil {
			return err
		}
		if err := requireActiveProvider(ctx, repos, in.ProviderID); err != nil {
			return err
		}

		order := entity.NewPurchaseOrder(in.ProviderID, uc.now())
		for _, line := range in.Lines {
			if err := requireActiveProduct(ctx, repos, line.ProductID); err != nil {
				return err
			}
			active, err := repos.Orders.ExistsActiveWithProduct(ctx, line.ProductID, "")
			if err != nil {
				return err
			}
			if active {
				return fmt.Errorf("producto %s: %w", line.ProductID, domain.ErrActiveOrderExists)
			}
			price, err := linkPrice(ctx, repos, line.ProductID, in.ProviderID)
			if err != nil {
				return err
			}
			if err := order.AppendLine(line.ProductID, line.Quantity, price); err != nil {
				return fmt.Errorf("línea %s: %w", line.ProductID, err)
			}
		}

		if err := repos.Orders.Save(ctx, order); err != nil {
			return err
		}
		out = dto.NewPurchaseOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", out.ID).Str("provider_id", out.ProviderID).Int("lines", len(out.Lines)).Msg("orden de compra creada")
	return &out, nil
}

// Update edita una orden Pending: re-precia todas las líneas con el proveedor pedido (puede
// cambiar) y suma las cantidades de los productos que ya estaban en la orden.
func (uc *OrderUseCase) Update(ctx context.Context, orderID string, in dto.PurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}

	var out dto.PurchaseOrderResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		if err := repos.Orders.LockProductSlots(ctx, lineProducts(in)); err != nil {
			return err
		}
		order, err := lockOrder(ctx, repos, orderID, in.ProviderID)
		if err != nil {
			return err
		}
		if order.State != entity.OrderStatePending {
			return fmt.Errorf("editar orden %s: %w", order.State, domain.ErrInvalidState)
		}
		if err := requireActiveProvider(ctx, repos, in.ProviderID); err != nil {
			return err
		}

		prices := make(map[string]decimal.Decimal, len(in.Lines))
		reqs := make([]entity.LineRequest, 0, len(in.Lines))
		for _, line := range in.Lines {
			if _, seen := prices[line.ProductID]; !seen {
				if err := requireActiveProduct(ctx, repos, line.ProductID); err != nil {
					return err
				}
				if !order.HasProduct(line.ProductID) {
					active, err := repos.Orders.ExistsActiveWithProduct(ctx, line.ProductID, order.ID)
					if err != nil {
						return err
					}
					if active {
						return fmt.Errorf("producto %s: %w", line.ProductID, domain.ErrActiveOrderExists)
					}
				}
				price, err := linkPrice(ctx, repos, line.ProductID, in.ProviderID)
				if err != nil {
					return err
				}
				prices[line.ProductID] = price
			}
			reqs = append(reqs, entity.LineRequest{ProductID: line.ProductID, Quantity: line.Quantity})
		}

		priceOf := func(productID string) decimal.Decimal { return prices[productID] }
		if err := order.ReplaceLines(in.ProviderID, reqs, priceOf); err != nil {
			return err
		}
		if err := repos.Orders.Save(ctx, order); err != nil {
			return err
		}
		out = dto.NewPurchaseOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Send Pending → Sent.
func (uc *OrderUseCase) Send(ctx context.Context, orderID string) (*dto.PurchaseOrderResponse, error) {
	return uc.transition(ctx, orderID, "enviada", true, func(o *entity.PurchaseOrder, _ repository.Repos) error {
		return o.Send(uc.now())
	})
}

// Cancel Pending → Cancelled.
func (uc *OrderUseCase) Cancel(ctx context.Context, orderID string) (*dto.PurchaseOrderResponse, error) {
	return uc.transition(ctx, orderID, "cancelada", true, func(o *entity.PurchaseOrder, _ repository.Repos) error {
		return o.Cancel()
	})
}

// Finalize Sent → Finalized. Suma al stock la cantidad de cada línea en la misma transacción
// y, tras el commit, publica un StockAdjustment positivo por línea. Es el único camino por el
// que una orden afecta el stock.
func (uc *OrderUseCase) Finalize(ctx context.Context, orderID string) (*dto.PurchaseOrderResponse, error) {
	var adjustments []entity.StockAdjustment
	out, err := uc.transition(ctx, orderID, "finalizada", false, func(o *entity.PurchaseOrder, repos repository.Repos) error {
		adj, err := o.Finalize(uc.now())
		if err != nil {
			return err
		}
		for _, a := range adj {
			if _, err := repos.Stock.Adjust(ctx, a.ProductID, a.Delta); err != nil {
				return fmt.Errorf("sumar stock de %s: %w", a.ProductID, err)
			}
		}
		adjustments = adj
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ctx, adjustments); err != nil {
		uc.log.Error().Err(err).Str("order_id", orderID).Int("adjustments", len(adjustments)).Msg("no se pudieron publicar los ajustes de stock")
	}
	return out, nil
}

// Get obtiene una orden por ID.
func (uc *OrderUseCase) Get(ctx context.Context, orderID string) (*dto.PurchaseOrderResponse, error) {
	var out dto.PurchaseOrderResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		order, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		out = dto.NewPurchaseOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// List lista órdenes, opcionalmente por estado y proveedor.
func (uc *OrderUseCase) List(ctx context.Context, state, providerID string, limit, offset int) (*dto.PurchaseOrderListResponse, error) {
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.Normalize()
	filter := repository.PurchaseOrderFilter{
		State:      entity.PurchaseOrderState(state),
		ProviderID: providerID,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if state != "" && !filter.State.Valid() {
		return nil, fmt.Errorf("estado %q: %w", state, domain.ErrInvalidInput)
	}

	out := &dto.PurchaseOrderListResponse{Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		orders, err := repos.Orders.List(ctx, filter)
		if err != nil {
			return err
		}
		out.Items = make([]dto.PurchaseOrderResponse, 0, len(orders))
		for _, o := range orders {
			out.Items = append(out.Items, dto.NewPurchaseOrderResponse(o))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PDF genera el documento de la orden para el proveedor.
func (uc *OrderUseCase) PDF(ctx context.Context, orderID string) ([]byte, error) {
	if uc.pdf == nil {
		return nil, fmt.Errorf("generador de PDF no configurado")
	}
	var doc OrderDocument
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		order, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		provider, err := repos.Providers.GetByID(ctx, order.ProviderID)
		if err != nil {
			return err
		}
		products := make(map[string]*entity.Product, len(order.Lines))
		for _, l := range order.Lines {
			p, err := repos.Products.GetByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			products[p.ID] = p
		}
		doc = OrderDocument{Order: order, Provider: provider, Products: products}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.pdf.PurchaseOrderPDF(ctx, doc)
}

// transition aplica un cambio de estado con la cabecera bloqueada. Las transiciones que
// salen de Pending también toman el hueco Pending del proveedor (pendingSlot).
func (uc *OrderUseCase) transition(ctx context.Context, orderID, verb string, pendingSlot bool, apply func(*entity.PurchaseOrder, repository.Repos) error) (*dto.PurchaseOrderResponse, error) {
	var out dto.PurchaseOrderResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		var (
			order *entity.PurchaseOrder
			err   error
		)
		if pendingSlot {
			order, err = lockOrder(ctx, repos, orderID)
		} else {
			order, err = repos.Orders.GetForUpdate(ctx, orderID)
		}
		if err != nil {
			return err
		}
		if err := apply(order, repos); err != nil {
			return err
		}
		if err := repos.Orders.Save(ctx, order); err != nil {
			return err
		}
		out = dto.NewPurchaseOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", orderID).Str("state", out.State).Msg("orden de compra " + verb)
	return &out, nil
}

// lockOrder toma el hueco Pending del proveedor de la orden (y de extra, si cambia de
// proveedor) en orden fijo y después bloquea la cabecera. Así una edición manual no se
// intercala con una corrida del consolidador sobre la misma orden.
// lineProducts productos de las líneas pedidas.
func lineProducts(in dto.PurchaseOrderRequest) []string {
	ids := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

func lockOrder(ctx context.Context, repos repository.Repos, orderID string, extra ...string) (*entity.PurchaseOrder, error) {
	current, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	providers := append([]string{current.ProviderID}, extra...)
	sort.Strings(providers)
	last := ""
	for _, id := range providers {
		if id == "" || id == last {
			continue
		}
		if err := repos.Orders.LockPendingSlot(ctx, id); err != nil {
			return nil, err
		}
		last = id
	}

	order, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ProviderID != current.ProviderID {
		return nil, fmt.Errorf("la orden %s cambió de proveedor: %w", orderID, domain.ErrConcurrentWrite)
	}
	return order, nil
}

func validateRequest(in dto.PurchaseOrderRequest) error {
	if in.ProviderID == "" || len(in.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	for _, l := range in.Lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return fmt.Errorf("línea %q con cantidad %d: %w", l.ProductID, l.Quantity, domain.ErrInvalidInput)
		}
	}
	return nil
}

func requireActiveProvider(ctx context.Context, repos repository.Repos, providerID string) error {
	provider, err := repos.Providers.GetByID(ctx, providerID)
	if err != nil {
		return err
	}
	if !provider.IsActive() {
		return fmt.Errorf("proveedor %s inactivo: %w", providerID, domain.ErrConflict)
	}
	return nil
}

func requireActiveProduct(ctx context.Context, repos repository.Repos, productID string) error {
	product, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive() {
		return fmt.Errorf("producto %s inactivo: %w", productID, domain.ErrConflict)
	}
	return nil
}

func linkPrice(ctx context.Context, repos repository.Repos, productID, providerID string) (decimal.Decimal, error) {
	link, err := repos.Links.GetByProductAndProvider(ctx, productID, providerID)
	if err != nil {
		return decimal.Zero, err
	}
	if link == nil {
		return decimal.Zero, fmt.Errorf("producto %s, proveedor %s: %w", productID, providerID, domain.ErrProviderLinkAbsent)
	}
	return link.Price(), nil
}
