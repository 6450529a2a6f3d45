package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/internal/application/apptest"
	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newReplenishment(f *apptest.Fixture, locker inventory.SweepLocker) *inventory.ReplenishmentUseCase {
	return inventory.NewReplenishmentUseCase(f.Store, locker, time.Minute, f.Now, f.Log)
}

func reduction(ids ...string) entity.StockReductionBatch {
	items := make([]entity.StockReduction, 0, len(ids))
	for _, id := range ids {
		items = append(items, entity.StockReduction{ProductID: id, Quantity: 1})
	}
	return entity.StockReductionBatch{SaleID: "sale-1", Items: items, OccurredAt: t0}
}

func TestHandleStockReduction_BajoPuntoDePedidoCreaOrden(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 90)
	f.Link(t, p, prov, "10", true)

	report, err := newReplenishment(f, nil).HandleStockReduction(context.Background(), reduction(p))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Needs)
	assert.Equal(t, 1, report.Created)
	assert.Empty(t, report.Failed)
	require.Len(t, report.Orders, 1)

	order := report.Orders[0]
	assert.Equal(t, prov, order.ProviderID)
	assert.Equal(t, entity.OrderStatePending, order.State)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 427, order.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(4270).Equal(order.Total))
}

func TestHandleStockReduction_ConsolidaEnLaPendienteDelProveedor(t *testing.T) {
	f := apptest.New(t0)
	uc := newReplenishment(f, nil)
	prov := f.Provider(t, "Acme")
	a := f.FixedLot(t, "SKU-A", 90)
	b := f.FixedLot(t, "SKU-B", 10)
	f.Link(t, a, prov, "10", true)
	f.Link(t, b, prov, "3", true)

	first, err := uc.HandleStockReduction(context.Background(), reduction(a))
	require.NoError(t, err)
	require.Len(t, first.Orders, 1)

	second, err := uc.HandleStockReduction(context.Background(), reduction(b))
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, first.Orders[0].ID, second.Orders[0].ID, "una sola orden Pending por proveedor")
	assert.Len(t, second.Orders[0].Lines, 2)
	assert.True(t, decimal.NewFromInt(427*10+427*3).Equal(second.Orders[0].Total))

	// el mismo producto otra vez no agrega otra línea
	third, err := uc.HandleStockReduction(context.Background(), reduction(a))
	require.NoError(t, err)
	assert.Equal(t, 1, third.Discarded)
	assert.Empty(t, third.Orders)
}

func TestHandleStockReduction_ProductoEnOrdenEnviadaSeDescarta(t *testing.T) {
	f := apptest.New(t0)
	uc := newReplenishment(f, nil)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 90)
	f.Link(t, p, prov, "10", true)

	first, err := uc.HandleStockReduction(context.Background(), reduction(p))
	require.NoError(t, err)
	require.NoError(t, f.Store.Run(context.Background(), func(repos repository.Repos) error {
		o, err := repos.Orders.GetForUpdate(context.Background(), first.Orders[0].ID)
		if err != nil {
			return err
		}
		if err := o.Send(t0); err != nil {
			return err
		}
		return repos.Orders.Save(context.Background(), o)
	}))

	again, err := uc.HandleStockReduction(context.Background(), reduction(p))
	require.NoError(t, err)
	assert.Equal(t, 1, again.Needs)
	assert.Equal(t, 1, again.Discarded)
	assert.Equal(t, 0, again.Created, "no se abre otra orden mientras la enviada siga activa")
}

func TestHandleStockReduction_ErroresPorProductoNoDetienenElLote(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	ok := f.FixedLot(t, "SKU-OK", 50)
	f.Link(t, ok, prov, "10", true)

	// producto con punto de pedido calculado pero sin proveedor predeterminado
	orphan := &entity.Product{
		ID:           "orphan",
		Code:         "SKU-ORPHAN",
		CurrentStock: 5,
		Policy: &entity.FixedLotPolicy{
			SafetyStock: apptest.Int(20), OptimalLotSize: apptest.Int(100), ReorderPoint: apptest.Int(50),
		},
		State: entity.ProductStateActive,
	}
	require.NoError(t, f.Store.Run(context.Background(), func(repos repository.Repos) error {
		return repos.Products.Create(context.Background(), orphan)
	}))

	report, err := newReplenishment(f, nil).HandleStockReduction(context.Background(), reduction(orphan.ID, "missing", ok))
	require.NoError(t, err)

	require.Len(t, report.Failed, 2)
	assert.ErrorIs(t, report.Failed[orphan.ID], domain.ErrNoDefaultProvider)
	assert.ErrorIs(t, report.Failed["missing"], domain.ErrNotFound)
	require.Len(t, report.Orders, 1)
	assert.True(t, report.Orders[0].HasProduct(ok))
}

func TestHandleStockReduction_SinLoteOptimoSeOmite(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 5)
	f.Link(t, p, prov, "10", true)
	require.NoError(t, f.Store.Run(context.Background(), func(repos repository.Repos) error {
		product, err := repos.Products.GetForUpdate(context.Background(), p)
		if err != nil {
			return err
		}
		lot, _ := product.FixedLot()
		lot.OptimalLotSize = nil
		return repos.Products.Update(context.Background(), product)
	}))

	report, err := newReplenishment(f, nil).HandleStockReduction(context.Background(), reduction(p))
	require.NoError(t, err)
	assert.Empty(t, report.Failed, "un dato de política faltante no es error")
	assert.Equal(t, 0, report.Needs)
}

func TestProcessDueReviews_EsIdempotenteElMismoDia(t *testing.T) {
	f := apptest.New(t0)
	uc := newReplenishment(f, nil)
	prov := f.Provider(t, "Acme")
	p := f.FixedInterval(t, "SKU-IV", 50, 7)
	f.Link(t, p, prov, "2", true)

	report, err := uc.ProcessDueReviews(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, []string{p}, report.Reviewed)
	require.Len(t, report.Orders, 1)
	line, ok := report.Orders[0].Line(p)
	require.True(t, ok)
	assert.Equal(t, 140, line.Quantity, "ceil(10·(7+10) + 20 − 50)")

	product := f.Product(t, p)
	require.NotNil(t, product.Policy.LastReviewDate)
	assert.Equal(t, "2026-03-10", *product.Policy.LastReviewDate)

	again, err := uc.ProcessDueReviews(context.Background(), t0.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Needs)
	assert.Empty(t, again.Reviewed)
	assert.Empty(t, again.Orders)
}

func TestProcessDueReviews_RespetaElIntervalo(t *testing.T) {
	f := apptest.New(t0)
	uc := newReplenishment(f, nil)
	prov := f.Provider(t, "Acme")
	p := f.FixedInterval(t, "SKU-IV", 50, 7)
	f.Link(t, p, prov, "2", true)

	_, err := uc.ProcessDueReviews(context.Background(), t0)
	require.NoError(t, err)

	early, err := uc.ProcessDueReviews(context.Background(), t0.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, early.Reviewed)

	due, err := uc.ProcessDueReviews(context.Background(), t0.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, []string{p}, due.Reviewed)
	assert.Equal(t, 1, due.Discarded, "el producto sigue en la orden Pending")
}

func TestProcessDueReviews_SinProveedorQuedaEnFailed(t *testing.T) {
	f := apptest.New(t0)
	p := f.FixedInterval(t, "SKU-IV", 0, 7)

	report, err := newReplenishment(f, nil).ProcessDueReviews(context.Background(), t0)
	require.NoError(t, err)
	assert.ErrorIs(t, report.Failed[p], domain.ErrNoDefaultProvider)
	assert.Nil(t, f.Product(t, p).Policy.LastReviewDate, "sin necesidad emitida no se fija la fecha")
}

func TestProcessDueReviews_RechazaFechaFutura(t *testing.T) {
	f := apptest.New(t0)
	uc := newReplenishment(f, nil)
	prov := f.Provider(t, "Acme")
	p := f.FixedInterval(t, "SKU-IV", 50, 7)
	f.Link(t, p, prov, "2", true)

	_, err := uc.ProcessDueReviews(context.Background(), t0.AddDate(0, 0, 30))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, f.Product(t, p).Policy.LastReviewDate, "la fecha futura no adelanta la revisión")

	report, err := uc.ProcessDueReviews(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, []string{p}, report.Reviewed)
	assert.Equal(t, 1, report.Created)
}

func TestProcessDueReviews_FechaFuturaSegunLaZona(t *testing.T) {
	// 23:00 del 10 en Bogotá ya es el 11 en UTC; el 10 es válido y el 11 todavía no
	f := apptest.New(time.Date(2026, 3, 11, 4, 0, 0, 0, time.UTC))
	bogota := time.FixedZone("COT", -5*3600)
	uc := newReplenishment(f, nil)

	_, err := uc.ProcessDueReviews(context.Background(), time.Date(2026, 3, 10, 12, 0, 0, 0, bogota))
	require.NoError(t, err)

	_, err = uc.ProcessDueReviews(context.Background(), time.Date(2026, 3, 11, 12, 0, 0, 0, bogota))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcessDueReviews_FallaAlGuardarNoDejaRastro(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedInterval(t, "SKU-IV", 50, 7)
	f.Link(t, p, prov, "2", true)
	rec := &apptest.RecordingOrders{SaveErr: errors.New("disco lleno")}
	tx := apptest.HookedTx{Store: f.Store, Wrap: rec.Bind}
	uc := inventory.NewReplenishmentUseCase(tx, nil, time.Minute, f.Now, f.Log)

	_, err := uc.ProcessDueReviews(context.Background(), t0)
	require.Error(t, err)
	assert.Contains(t, rec.Calls, "save")
	assert.Nil(t, f.Product(t, p).Policy.LastReviewDate, "la revisión se revierte con la orden")
	require.NoError(t, f.Store.Run(context.Background(), func(repos repository.Repos) error {
		orders, err := repos.Orders.List(context.Background(), repository.PurchaseOrderFilter{})
		require.NoError(t, err)
		assert.Empty(t, orders, "ninguna orden queda confirmada")
		return nil
	}))

	report, err := newReplenishment(f, nil).ProcessDueReviews(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Needs)
	assert.Equal(t, 1, report.Created)
}

func TestProcessDueReviews_BloqueaProductosAntesQueProveedores(t *testing.T) {
	f := apptest.New(t0)
	acme := f.Provider(t, "Acme")
	beta := f.Provider(t, "Beta")
	a := f.FixedInterval(t, "SKU-A", 50, 7)
	b := f.FixedInterval(t, "SKU-B", 50, 7)
	f.Link(t, a, acme, "2", true)
	f.Link(t, b, beta, "3", true)
	rec := &apptest.RecordingOrders{}
	tx := apptest.HookedTx{Store: f.Store, Wrap: rec.Bind}

	report, err := inventory.NewReplenishmentUseCase(tx, nil, time.Minute, f.Now, f.Log).ProcessDueReviews(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)

	require.NotEmpty(t, rec.Calls)
	assert.Equal(t, "products", rec.Calls[0])
	assert.Equal(t, 1, countCalls(rec.Calls, "products"), "un solo bloqueo para toda la corrida")
	assert.Equal(t, 2, countCalls(rec.Calls, "pending"))
	assert.ElementsMatch(t, []string{a, b}, rec.LockedProducts)
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

type fakeLocker struct {
	ok       bool
	err      error
	acquired int
	released int
}

func (l *fakeLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if !l.ok {
		return nil, false, nil
	}
	l.acquired++
	return func(context.Context) error { l.released++; return nil }, true, nil
}

func TestRunDailySweep_OtraInstanciaTieneElCandado(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedInterval(t, "SKU-IV", 50, 7)
	f.Link(t, p, prov, "2", true)

	report, err := newReplenishment(f, &fakeLocker{ok: false}).RunDailySweep(context.Background(), time.UTC)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Nil(t, f.Product(t, p).Policy.LastReviewDate)
}

func TestRunDailySweep_ConCandado(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedInterval(t, "SKU-IV", 50, 7)
	f.Link(t, p, prov, "2", true)
	locker := &fakeLocker{ok: true}

	report, err := newReplenishment(f, locker).RunDailySweep(context.Background(), time.UTC)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, []string{p}, report.Reviewed)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
}

func TestRunDailySweep_ErrorDelCandado(t *testing.T) {
	f := apptest.New(t0)
	_, err := newReplenishment(f, &fakeLocker{err: errors.New("redis caído")}).RunDailySweep(context.Background(), time.UTC)
	require.Error(t, err)
}

func TestRunDailySweep_UsaElDiaDeLaZona(t *testing.T) {
	// 02:00 UTC del 11 es todavía el 10 en Bogotá
	f := apptest.New(time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC))
	bogota := time.FixedZone("COT", -5*3600)

	report, err := newReplenishment(f, nil).RunDailySweep(context.Background(), bogota)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), report.Date)
}
