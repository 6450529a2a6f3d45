// Package memory implementa los repositorios sobre mapas en memoria. Cada transacción toma
// el candado del almacén completo y trabaja sobre una copia que se descarta si fn falla, de
// modo que las transacciones quedan serializadas. Se usa con APP_STORAGE=memory y en pruebas.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store almacén en memoria.
type Store struct {
	mu   sync.Mutex
	data *state
}

type state struct {
	products  map[string]*entity.Product
	providers map[string]*entity.Provider
	links     map[string]*entity.ProviderLink
	orders    map[string]*entity.PurchaseOrder
	orderSeq  map[string]int64
	sales     map[string]*entity.Sale
	seq       int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newState()}
}

func newState() *state {
	return &state{
		products:  make(map[string]*entity.Product),
		providers: make(map[string]*entity.Provider),
		links:     make(map[string]*entity.ProviderLink),
		orders:    make(map[string]*entity.PurchaseOrder),
		orderSeq:  make(map[string]int64),
		sales:     make(map[string]*entity.Sale),
	}
}

// Run ejecuta fn con repos sobre una copia del estado; si fn no falla la copia reemplaza al estado.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(work.repos()); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (st *state) repos() repository.Repos {
	return repository.Repos{
		Products:  &productRepo{st: st},
		Stock:     &stockRepo{st: st},
		Providers: &providerRepo{st: st},
		Links:     &linkRepo{st: st},
		Orders:    &orderRepo{st: st},
		Sales:     &saleRepo{st: st},
	}
}

func (st *state) clone() *state {
	c := newState()
	for id, p := range st.products {
		c.products[id] = p.Clone()
	}
	for id, p := range st.providers {
		cp := *p
		c.providers[id] = &cp
	}
	for id, l := range st.links {
		c.links[id] = l.Clone()
	}
	for id, o := range st.orders {
		c.orders[id] = o.Clone()
	}
	for id, n := range st.orderSeq {
		c.orderSeq[id] = n
	}
	for id, sale := range st.sales {
		c.sales[id] = cloneSale(sale)
	}
	c.seq = st.seq
	return c
}

func cloneSale(s *entity.Sale) *entity.Sale {
	c := *s
	c.Lines = append([]entity.SaleLine(nil), s.Lines...)
	return &c
}

// sortedOrders órdenes por fecha de creación y orden de inserción.
func (st *state) sortedOrders() []*entity.PurchaseOrder {
	out := make([]*entity.PurchaseOrder, 0, len(st.orders))
	for _, o := range st.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return st.orderSeq[out[i].ID] < st.orderSeq[out[j].ID]
	})
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
