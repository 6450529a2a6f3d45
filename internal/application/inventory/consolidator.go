package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	domaininv "github.com/jhoicas/reposicion-api/internal/domain/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

// ConsolidationResult resultado de una corrida del consolidador.
type ConsolidationResult struct {
	Orders    []*entity.PurchaseOrder // órdenes escritas (nuevas o modificadas)
	Created   int
	Accepted  int
	Discarded int
}

// Consolidator agrupa necesidades por proveedor en órdenes Pending.
// Se usa dentro de la transacción de la corrida (ruta por evento o barrido).
type Consolidator struct {
	log *logger.Logger
}

// NewConsolidator construye el consolidador.
func NewConsolidator(log *logger.Logger) *Consolidator {
	return &Consolidator{log: log}
}

// Consolidate escribe las necesidades en la orden Pending de cada proveedor (o en una nueva).
// Primero se bloquean los productos de todas las necesidades; después los proveedores se
// procesan en orden y el hueco Pending de cada uno se bloquea antes de leerlo. Dentro de la
// corrida cada producto entra una sola vez por orden; también se descarta la necesidad si el
// producto ya figura en otra orden activa. Todas las órdenes tocadas se persisten al final
// con los repos de la transacción.
func (c *Consolidator) Consolidate(ctx context.Context, repos repository.Repos, now time.Time, needs []domaininv.ReplenishmentNeed) (*ConsolidationResult, error) {
	res := &ConsolidationResult{}
	if len(needs) == 0 {
		return res, nil
	}

	run := domaininv.NewConsolidationRun(now)
	providers, groups := domaininv.GroupByProvider(needs)
	productIDs := make([]string, 0, len(needs))
	for _, need := range needs {
		productIDs = append(productIDs, need.ProductID)
	}
	if err := repos.Orders.LockProductSlots(ctx, productIDs); err != nil {
		return nil, fmt.Errorf("bloquear productos de la corrida: %w", err)
	}
	for _, providerID := range providers {
		if err := repos.Orders.LockPendingSlot(ctx, providerID); err != nil {
			return nil, fmt.Errorf("bloquear orden pendiente del proveedor %s: %w", providerID, err)
		}
		existing, err := repos.Orders.FindPending(ctx, providerID)
		if err != nil {
			return nil, fmt.Errorf("buscar orden pendiente del proveedor %s: %w", providerID, err)
		}
		order := run.Attach(providerID, existing)

		for _, need := range groups[providerID] {
			if !order.HasProduct(need.ProductID) {
				active, err := repos.Orders.ExistsActiveWithProduct(ctx, need.ProductID, order.ID)
				if err != nil {
					return nil, err
				}
				if active {
					c.log.Debug().Str("product_id", need.ProductID).Msg("producto ya en una orden activa; necesidad descartada")
					run.Discard()
					continue
				}
			}

			link, err := repos.Links.GetByProductAndProvider(ctx, need.ProductID, providerID)
			if err != nil {
				return nil, err
			}
			accepted, err := run.Accept(order, need, link.Price())
			if err != nil {
				return nil, fmt.Errorf("agregar línea %s: %w", need.ProductID, err)
			}
			if !accepted {
				c.log.Debug().Str("product_id", need.ProductID).Str("order_id", order.ID).Msg("producto ya en la orden; necesidad descartada")
			}
		}
	}

	for _, order := range run.Touched() {
		if err := repos.Orders.Save(ctx, order); err != nil {
			return nil, fmt.Errorf("guardar orden %s: %w", order.ID, err)
		}
		if run.Created(order.ProviderID) {
			res.Created++
		}
		res.Orders = append(res.Orders, order)
	}
	res.Accepted = run.Accepted
	res.Discarded = run.Discarded
	return res, nil
}
