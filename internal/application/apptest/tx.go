package apptest

import (
	"context"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/internal/infrastructure/memory"
)

// HookedTx corre las transacciones del almacén en memoria pasando los repositorios por Wrap.
type HookedTx struct {
	Store *memory.Store
	Wrap  func(repository.Repos) repository.Repos
}

// Run delega en el almacén; si fn falla no se confirma nada.
func (h HookedTx) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	return h.Store.Run(ctx, func(repos repository.Repos) error {
		if h.Wrap != nil {
			repos = h.Wrap(repos)
		}
		return fn(repos)
	})
}

// RecordingOrders anota el orden de los candados y consultas sobre órdenes.
// Con SaveErr, Save falla sin escribir.
type RecordingOrders struct {
	repository.PurchaseOrderRepository

	Calls          []string
	LockedProducts []string
	SaveErr        error
}

// Bind envuelve el repositorio de órdenes de r.
func (o *RecordingOrders) Bind(r repository.Repos) repository.Repos {
	o.PurchaseOrderRepository = r.Orders
	r.Orders = o
	return r
}

func (o *RecordingOrders) LockProductSlots(ctx context.Context, productIDs []string) error {
	o.Calls = append(o.Calls, "products")
	o.LockedProducts = append(o.LockedProducts, productIDs...)
	return o.PurchaseOrderRepository.LockProductSlots(ctx, productIDs)
}

func (o *RecordingOrders) LockPendingSlot(ctx context.Context, providerID string) error {
	o.Calls = append(o.Calls, "pending")
	return o.PurchaseOrderRepository.LockPendingSlot(ctx, providerID)
}

func (o *RecordingOrders) ExistsActiveWithProduct(ctx context.Context, productID, excludeOrderID string) (bool, error) {
	o.Calls = append(o.Calls, "exists")
	return o.PurchaseOrderRepository.ExistsActiveWithProduct(ctx, productID, excludeOrderID)
}

func (o *RecordingOrders) Save(ctx context.Context, order *entity.PurchaseOrder) error {
	o.Calls = append(o.Calls, "save")
	if o.SaveErr != nil {
		return o.SaveErr
	}
	return o.PurchaseOrderRepository.Save(ctx, order)
}
