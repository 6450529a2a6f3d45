package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// ConsolidationRun contexto de una corrida de consolidación. Mantiene la orden Pending
// elegida para cada proveedor durante la corrida; se crea por corrida y no se comparte.
type ConsolidationRun struct {
	now       time.Time
	orders    map[string]*entity.PurchaseOrder
	providers []string
	created   map[string]bool
	dirty     map[string]bool

	Accepted  int
	Discarded int
}

// NewConsolidationRun inicia una corrida con la hora de creación para órdenes nuevas.
func NewConsolidationRun(now time.Time) *ConsolidationRun {
	return &ConsolidationRun{
		now:     now,
		orders:  make(map[string]*entity.PurchaseOrder),
		created: make(map[string]bool),
		dirty:   make(map[string]bool),
	}
}

// Now hora de la corrida.
func (r *ConsolidationRun) Now() time.Time { return r.now }

// Order devuelve la orden ya elegida para el proveedor en esta corrida.
func (r *ConsolidationRun) Order(providerID string) (*entity.PurchaseOrder, bool) {
	o, ok := r.orders[providerID]
	return o, ok
}

// Attach usa una orden Pending existente como destino del proveedor. Si existing es nil
// abre una orden nueva (Pending, total 0, creada en Now).
func (r *ConsolidationRun) Attach(providerID string, existing *entity.PurchaseOrder) *entity.PurchaseOrder {
	if o, ok := r.orders[providerID]; ok {
		return o
	}
	o := existing
	if o == nil {
		o = entity.NewPurchaseOrder(providerID, r.now)
		r.created[providerID] = true
	}
	r.orders[providerID] = o
	r.providers = append(r.providers, providerID)
	return o
}

// Accept agrega la línea de la necesidad a la orden. Si el producto ya está en la orden
// la necesidad se descarta (no se fusiona) y devuelve false.
func (r *ConsolidationRun) Accept(order *entity.PurchaseOrder, need ReplenishmentNeed, price decimal.Decimal) (bool, error) {
	if order.HasProduct(need.ProductID) {
		r.Discarded++
		return false, nil
	}
	if err := order.AppendLine(need.ProductID, need.Quantity, price); err != nil {
		return false, err
	}
	r.dirty[order.ProviderID] = true
	r.Accepted++
	return true, nil
}

// Discard cuenta una necesidad descartada por otra razón (p. ej. orden activa en otro proveedor).
func (r *ConsolidationRun) Discard() { r.Discarded++ }

// Created indica si la orden del proveedor se creó en esta corrida.
func (r *ConsolidationRun) Created(providerID string) bool { return r.created[providerID] }

// Touched órdenes que recibieron al menos una línea en la corrida; son las que se
// persisten al cierre.
func (r *ConsolidationRun) Touched() []*entity.PurchaseOrder {
	out := make([]*entity.PurchaseOrder, 0, len(r.providers))
	for _, id := range r.providers {
		if r.dirty[id] {
			out = append(out, r.orders[id])
		}
	}
	return out
}

// GroupByProvider agrupa necesidades por proveedor conservando el orden de llegada dentro
// de cada grupo. Los proveedores se devuelven ordenados para tomar bloqueos siempre en el
// mismo orden.
func GroupByProvider(needs []ReplenishmentNeed) ([]string, map[string][]ReplenishmentNeed) {
	groups := make(map[string][]ReplenishmentNeed)
	for _, n := range needs {
		groups[n.ProviderID] = append(groups[n.ProviderID], n)
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, groups
}
