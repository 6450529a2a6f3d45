// Package apptest arma escenarios de prueba sobre el almacén en memoria.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/infrastructure/memory"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

// Fixture almacén en memoria, reloj controlable y el caso de uso de políticas para sembrar datos.
type Fixture struct {
	Store  *memory.Store
	Policy *inventory.PolicyUseCase
	Log    *logger.Logger

	mu  sync.Mutex
	now time.Time
}

// New crea un escenario vacío con el reloj en now.
func New(now time.Time) *Fixture {
	f := &Fixture{Store: memory.NewStore(), Log: logger.Nop(), now: now}
	f.Policy = inventory.NewPolicyUseCase(f.Store, f.Now, f.Log)
	return f
}

// Now hora actual del escenario.
func (f *Fixture) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance mueve el reloj.
func (f *Fixture) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Int puntero a v.
func Int(v int) *int { return &v }

// Dec puntero al decimal s.
func Dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// Provider da de alta un proveedor y devuelve su ID.
func (f *Fixture) Provider(t *testing.T, name string) string {
	t.Helper()
	out, err := f.Policy.CreateProvider(context.Background(), dto.CreateProviderRequest{Name: name})
	require.NoError(t, err)
	return out.ID
}

// Link vincula providerID al producto con C=unitCost, L=10, S=50.
func (f *Fixture) Link(t *testing.T, productID, providerID, unitCost string, isDefault bool) string {
	t.Helper()
	out, err := f.Policy.LinkProvider(context.Background(), productID, dto.CreateProviderLinkRequest{
		ProviderID:   providerID,
		UnitCost:     Dec(unitCost),
		LeadTimeDays: Int(10),
		ShippingCost: Dec("50"),
		IsDefault:    isDefault,
	})
	require.NoError(t, err)
	return out.ID
}

// FixedLot producto de lote fijo D=3650, H=2, SS=20 con el stock indicado. Con el vínculo
// predeterminado de Link queda lote óptimo 427 y punto de pedido 120.
func (f *Fixture) FixedLot(t *testing.T, code string, stock int) string {
	t.Helper()
	out, err := f.Policy.CreateProduct(context.Background(), dto.CreateProductRequest{
		Code:         code,
		CurrentStock: stock,
		AnnualDemand: Dec("3650"),
		StorageCost:  Dec("2"),
		Policy:       dto.PolicyRequest{Kind: string(entity.PolicyFixedLot), SafetyStock: Int(20)},
	})
	require.NoError(t, err)
	return out.Product.ID
}

// FixedInterval producto de intervalo fijo D=3650, SS=20 y revisión cada intervalDays.
func (f *Fixture) FixedInterval(t *testing.T, code string, stock, intervalDays int) string {
	t.Helper()
	out, err := f.Policy.CreateProduct(context.Background(), dto.CreateProductRequest{
		Code:         code,
		CurrentStock: stock,
		AnnualDemand: Dec("3650"),
		StorageCost:  Dec("2"),
		Policy: dto.PolicyRequest{
			Kind:               string(entity.PolicyFixedInterval),
			SafetyStock:        Int(20),
			ReviewIntervalDays: Int(intervalDays),
		},
	})
	require.NoError(t, err)
	return out.Product.ID
}

// Product lee el producto.
func (f *Fixture) Product(t *testing.T, id string) *dto.ProductResponse {
	t.Helper()
	out, err := f.Policy.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return out
}

// Publisher guarda los ajustes publicados.
type Publisher struct {
	mu          sync.Mutex
	Adjustments []entity.StockAdjustment
	Err         error
}

func (p *Publisher) Publish(_ context.Context, adjustments []entity.StockAdjustment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Adjustments = append(p.Adjustments, adjustments...)
	return p.Err
}
