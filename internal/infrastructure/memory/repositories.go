package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*productRepo)(nil)
	_ repository.StockRepository         = (*stockRepo)(nil)
	_ repository.ProviderRepository      = (*providerRepo)(nil)
	_ repository.ProviderLinkRepository  = (*linkRepo)(nil)
	_ repository.PurchaseOrderRepository = (*orderRepo)(nil)
	_ repository.SaleRepository          = (*saleRepo)(nil)
)

// ── Productos ────────────────────────────────────────────────────────────────

type productRepo struct{ st *state }

func (r *productRepo) Create(_ context.Context, p *entity.Product) error {
	if _, ok := r.st.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range r.st.products {
		if other.Code == p.Code {
			return fmt.Errorf("código %s: %w", p.Code, domain.ErrDuplicate)
		}
	}
	r.st.products[p.ID] = p.Clone()
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) Update(_ context.Context, p *entity.Product) error {
	current, ok := r.st.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	c := p.Clone()
	c.CurrentStock = current.CurrentStock
	r.st.products[p.ID] = c
	return nil
}

func (r *productRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	out := r.filter(func(p *entity.Product) bool {
		if f.OnlyActive && !p.IsActive() {
			return false
		}
		return f.Policy == "" || p.PolicyKind() == f.Policy
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *productRepo) ListFixedIntervalForUpdate(_ context.Context) ([]*entity.Product, error) {
	return r.filter(func(p *entity.Product) bool {
		return p.IsActive() && p.PolicyKind() == entity.PolicyFixedInterval
	}), nil
}

func (r *productRepo) ListBelowSafetyStock(_ context.Context) ([]*entity.Product, error) {
	return r.filter(func(p *entity.Product) bool {
		if !p.IsActive() || p.Policy == nil || p.Policy.Safety() == nil {
			return false
		}
		return p.CurrentStock < *p.Policy.Safety()
	}), nil
}

func (r *productRepo) ListBelowReorderPointWithoutActiveOrder(ctx context.Context) ([]*entity.Product, error) {
	orders := &orderRepo{st: r.st}
	var out []*entity.Product
	for _, p := range r.filter(func(p *entity.Product) bool {
		lot, ok := p.FixedLot()
		return ok && p.IsActive() && lot.ReorderPoint != nil && p.CurrentStock < *lot.ReorderPoint
	}) {
		active, err := orders.ExistsActiveWithProduct(ctx, p.ID, "")
		if err != nil {
			return nil, err
		}
		if !active {
			out = append(out, p)
		}
	}
	return out, nil
}

// filter devuelve copias ordenadas por ID.
func (r *productRepo) filter(keep func(*entity.Product) bool) []*entity.Product {
	out := make([]*entity.Product, 0)
	for _, p := range r.st.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ── Stock ────────────────────────────────────────────────────────────────────

type stockRepo struct{ st *state }

func (r *stockRepo) Adjust(_ context.Context, productID string, delta int) (int, error) {
	p, ok := r.st.products[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	next := p.CurrentStock + delta
	if next < 0 {
		return p.CurrentStock, domain.ErrInsufficientStock
	}
	p.CurrentStock = next
	return next, nil
}

// ── Proveedores y vínculos ───────────────────────────────────────────────────

type providerRepo struct{ st *state }

func (r *providerRepo) Create(_ context.Context, p *entity.Provider) error {
	if _, ok := r.st.providers[p.ID]; ok {
		return domain.ErrDuplicate
	}
	c := *p
	r.st.providers[p.ID] = &c
	return nil
}

func (r *providerRepo) GetByID(_ context.Context, id string) (*entity.Provider, error) {
	p, ok := r.st.providers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *providerRepo) Update(_ context.Context, p *entity.Provider) error {
	if _, ok := r.st.providers[p.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *p
	r.st.providers[p.ID] = &c
	return nil
}

func (r *providerRepo) IsDefaultForAnyProduct(_ context.Context, providerID string) (bool, error) {
	for _, l := range r.st.links {
		if l.ProviderID == providerID && l.IsDefault && l.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

type linkRepo struct{ st *state }

func (r *linkRepo) Create(_ context.Context, l *entity.ProviderLink) error {
	if _, ok := r.st.links[l.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range r.st.links {
		if other.ProductID == l.ProductID && other.ProviderID == l.ProviderID && other.IsActive() {
			return domain.ErrDuplicate
		}
	}
	r.st.links[l.ID] = l.Clone()
	return nil
}

func (r *linkRepo) GetByID(_ context.Context, id string) (*entity.ProviderLink, error) {
	l, ok := r.st.links[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *linkRepo) GetDefault(_ context.Context, productID string) (*entity.ProviderLink, error) {
	for _, l := range r.st.links {
		if l.ProductID == productID && l.IsDefault && l.IsActive() {
			return l.Clone(), nil
		}
	}
	return nil, nil
}

func (r *linkRepo) GetByProductAndProvider(_ context.Context, productID, providerID string) (*entity.ProviderLink, error) {
	for _, l := range r.st.links {
		if l.ProductID == productID && l.ProviderID == providerID && l.IsActive() {
			return l.Clone(), nil
		}
	}
	return nil, nil
}

func (r *linkRepo) ListByProduct(_ context.Context, productID string) ([]*entity.ProviderLink, error) {
	out := make([]*entity.ProviderLink, 0)
	for _, l := range r.st.links {
		if l.ProductID == productID {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *linkRepo) Update(_ context.Context, l *entity.ProviderLink) error {
	if _, ok := r.st.links[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.st.links[l.ID] = l.Clone()
	return nil
}

func (r *linkRepo) SetDefault(_ context.Context, productID, linkID string) error {
	target, ok := r.st.links[linkID]
	if !ok || target.ProductID != productID {
		return domain.ErrNotFound
	}
	for _, l := range r.st.links {
		if l.ProductID == productID {
			l.IsDefault = l.ID == linkID
		}
	}
	return nil
}

// ── Órdenes de compra ────────────────────────────────────────────────────────

type orderRepo struct{ st *state }

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) FindPending(_ context.Context, providerID string) (*entity.PurchaseOrder, error) {
	for _, o := range r.st.sortedOrders() {
		if o.ProviderID == providerID && o.State == entity.OrderStatePending {
			return o.Clone(), nil
		}
	}
	return nil, nil
}

// LockPendingSlot no hace nada: la transacción ya tiene el almacén completo.
func (r *orderRepo) LockPendingSlot(context.Context, string) error { return nil }

// LockProductSlots no hace nada por la misma razón.
func (r *orderRepo) LockProductSlots(context.Context, []string) error { return nil }

func (r *orderRepo) Save(_ context.Context, o *entity.PurchaseOrder) error {
	if _, ok := r.st.orders[o.ID]; !ok {
		r.st.seq++
		r.st.orderSeq[o.ID] = r.st.seq
	}
	r.st.orders[o.ID] = o.Clone()
	return nil
}

// ExistsActiveWithProduct falla si ctx ya se canceló, como la consulta en PostgreSQL.
func (r *orderRepo) ExistsActiveWithProduct(ctx context.Context, productID, excludeOrderID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, o := range r.st.orders {
		if o.ID == excludeOrderID || !o.State.IsActive() {
			continue
		}
		if o.HasProduct(productID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *orderRepo) HasActiveForProvider(_ context.Context, providerID string) (bool, error) {
	for _, o := range r.st.orders {
		if o.ProviderID == providerID && o.State.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *orderRepo) List(_ context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	out := make([]*entity.PurchaseOrder, 0)
	for _, o := range r.st.sortedOrders() {
		if f.State != "" && o.State != f.State {
			continue
		}
		if f.ProviderID != "" && o.ProviderID != f.ProviderID {
			continue
		}
		out = append(out, o.Clone())
	}
	return page(out, f.Limit, f.Offset), nil
}

// ── Ventas ───────────────────────────────────────────────────────────────────

type saleRepo struct{ st *state }

func (r *saleRepo) Create(_ context.Context, s *entity.Sale) error {
	if _, ok := r.st.sales[s.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.sales[s.ID] = cloneSale(s)
	return nil
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSale(s), nil
}
