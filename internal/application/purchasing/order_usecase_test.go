package purchasing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/internal/application/apptest"
	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/application/purchasing"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type scenario struct {
	*apptest.Fixture
	uc        *purchasing.OrderUseCase
	publisher *apptest.Publisher
	prov      string
	a, b      string
}

// newScenario proveedor con dos productos vinculados: a a $2 y b a $1.5.
func newScenario(t *testing.T) *scenario {
	f := apptest.New(t0)
	pub := &apptest.Publisher{}
	s := &scenario{Fixture: f, publisher: pub}
	s.uc = purchasing.NewOrderUseCase(f.Store, pub, fakePDF{}, f.Now, f.Log)
	s.prov = f.Provider(t, "Acme")
	s.a = f.FixedLot(t, "SKU-A", 0)
	s.b = f.FixedLot(t, "SKU-B", 0)
	f.Link(t, s.a, s.prov, "2", true)
	f.Link(t, s.b, s.prov, "1.5", true)
	return s
}

func (s *scenario) create(t *testing.T, lines ...dto.PurchaseOrderLineRequest) *dto.PurchaseOrderResponse {
	t.Helper()
	out, err := s.uc.Create(context.Background(), dto.PurchaseOrderRequest{ProviderID: s.prov, Lines: lines})
	require.NoError(t, err)
	return out
}

type fakePDF struct{}

func (fakePDF) PurchaseOrderPDF(_ context.Context, doc purchasing.OrderDocument) ([]byte, error) {
	return []byte("%PDF " + doc.Order.ID + " " + doc.Provider.Name), nil
}

func TestCreate_PreciaConElVinculo(t *testing.T) {
	s := newScenario(t)

	out := s.create(t,
		dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 50},
		dto.PurchaseOrderLineRequest{ProductID: s.b, Quantity: 30},
	)
	assert.Equal(t, string(entity.OrderStatePending), out.State)
	require.Len(t, out.Lines, 2)
	assert.True(t, decimal.NewFromInt(2).Equal(out.Lines[0].Price))
	assert.True(t, decimal.NewFromInt(145).Equal(out.Total), "50·2 + 30·1.5")
}

func TestCreate_ProductoEnOrdenActiva(t *testing.T) {
	s := newScenario(t)
	s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 5})

	_, err := s.uc.Create(context.Background(), dto.PurchaseOrderRequest{
		ProviderID: s.prov,
		Lines:      []dto.PurchaseOrderLineRequest{{ProductID: s.a, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrActiveOrderExists)
}

func TestCreate_BloqueaProductosAntesQueElProveedor(t *testing.T) {
	s := newScenario(t)
	rec := &apptest.RecordingOrders{}
	uc := purchasing.NewOrderUseCase(apptest.HookedTx{Store: s.Store, Wrap: rec.Bind}, s.publisher, fakePDF{}, s.Now, s.Log)

	_, err := uc.Create(context.Background(), dto.PurchaseOrderRequest{
		ProviderID: s.prov,
		Lines: []dto.PurchaseOrderLineRequest{
			{ProductID: s.b, Quantity: 2},
			{ProductID: s.a, Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(rec.Calls), 3)
	assert.Equal(t, []string{"products", "pending", "exists"}, rec.Calls[:3])
	assert.ElementsMatch(t, []string{s.a, s.b}, rec.LockedProducts)
}

func TestUpdate_BloqueaProductosAntesQueLaOrden(t *testing.T) {
	s := newScenario(t)
	order := s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 5})
	rec := &apptest.RecordingOrders{}
	uc := purchasing.NewOrderUseCase(apptest.HookedTx{Store: s.Store, Wrap: rec.Bind}, s.publisher, fakePDF{}, s.Now, s.Log)

	_, err := uc.Update(context.Background(), order.ID, dto.PurchaseOrderRequest{
		ProviderID: s.prov,
		Lines:      []dto.PurchaseOrderLineRequest{{ProductID: s.b, Quantity: 3}},
	})
	require.NoError(t, err)

	require.NotEmpty(t, rec.Calls)
	assert.Equal(t, "products", rec.Calls[0])
	assert.Equal(t, []string{s.b}, rec.LockedProducts)
}

func TestCreate_SinVinculo(t *testing.T) {
	s := newScenario(t)
	other := s.Provider(t, "Otro")

	_, err := s.uc.Create(context.Background(), dto.PurchaseOrderRequest{
		ProviderID: other,
		Lines:      []dto.PurchaseOrderLineRequest{{ProductID: s.a, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrProviderLinkAbsent)
}

func TestCreate_Validaciones(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()

	_, err := s.uc.Create(ctx, dto.PurchaseOrderRequest{ProviderID: s.prov})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.uc.Create(ctx, dto.PurchaseOrderRequest{
		ProviderID: s.prov, Lines: []dto.PurchaseOrderLineRequest{{ProductID: s.a, Quantity: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.uc.Create(ctx, dto.PurchaseOrderRequest{
		ProviderID: "nope", Lines: []dto.PurchaseOrderLineRequest{{ProductID: s.a, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_SumaCantidadesYReprecia(t *testing.T) {
	s := newScenario(t)
	order := s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 10})

	// el vínculo sube de precio antes de la edición
	links, err := s.Policy.ListProviderLinks(context.Background(), s.a)
	require.NoError(t, err)
	_, err = s.Policy.UpdateProviderLink(context.Background(), links[0].ID, dto.UpdateProviderLinkRequest{UnitCost: apptest.Dec("3")})
	require.NoError(t, err)

	out, err := s.uc.Update(context.Background(), order.ID, dto.PurchaseOrderRequest{
		ProviderID: s.prov,
		Lines: []dto.PurchaseOrderLineRequest{
			{ProductID: s.a, Quantity: 5},
			{ProductID: s.b, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, 15, out.Lines[0].Quantity, "10 + 5")
	assert.True(t, decimal.NewFromInt(3).Equal(out.Lines[0].Price))
	assert.True(t, decimal.NewFromInt(48).Equal(out.Total), "15·3 + 2·1.5")
}

func TestUpdate_SoloPending(t *testing.T) {
	s := newScenario(t)
	order := s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 10})
	_, err := s.uc.Send(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = s.uc.Update(context.Background(), order.ID, dto.PurchaseOrderRequest{
		ProviderID: s.prov, Lines: []dto.PurchaseOrderLineRequest{{ProductID: s.a, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFinalize_SumaStockYPublicaAjustes(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	order := s.create(t,
		dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 50},
		dto.PurchaseOrderLineRequest{ProductID: s.b, Quantity: 30},
	)

	_, err := s.uc.Finalize(ctx, order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState, "Pending no se finaliza")
	assert.Empty(t, s.publisher.Adjustments)

	sent, err := s.uc.Send(ctx, order.ID)
	require.NoError(t, err)
	assert.NotNil(t, sent.SentAt)

	s.Advance(48 * time.Hour)
	done, err := s.uc.Finalize(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.OrderStateFinalized), done.State)
	require.NotNil(t, done.ReceivedAt)
	assert.Equal(t, t0.Add(48*time.Hour), *done.ReceivedAt)

	assert.Equal(t, 50, s.Product(t, s.a).CurrentStock)
	assert.Equal(t, 30, s.Product(t, s.b).CurrentStock)

	require.Len(t, s.publisher.Adjustments, 2)
	assert.Equal(t, entity.StockAdjustment{
		ProductID: s.a, Delta: 50, Reason: entity.AdjustmentPurchaseOrder, Reference: order.ID, OccurredAt: t0.Add(48 * time.Hour),
	}, s.publisher.Adjustments[0])
	assert.Equal(t, 30, s.publisher.Adjustments[1].Delta)

	_, err = s.uc.Finalize(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "Finalized es terminal")
	assert.Equal(t, 50, s.Product(t, s.a).CurrentStock, "no se suma dos veces")
}

func TestCancel(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	order := s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 5})

	out, err := s.uc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.OrderStateCancelled), out.State)

	_, err = s.uc.Send(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// una orden cancelada libera el producto
	s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 5})
}

func TestGetYList(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	first := s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 5})
	s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.b, Quantity: 5})
	_, err := s.uc.Send(ctx, first.ID)
	require.NoError(t, err)

	got, err := s.uc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.OrderStateSent), got.State)

	_, err = s.uc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending, err := s.uc.List(ctx, string(entity.OrderStatePending), "", 0, 0)
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)

	all, err := s.uc.List(ctx, "", s.prov, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = s.uc.List(ctx, "DRAFT", "", 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPDF(t *testing.T) {
	s := newScenario(t)
	order := s.create(t, dto.PurchaseOrderLineRequest{ProductID: s.a, Quantity: 5})

	doc, err := s.uc.PDF(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF "+order.ID+" Acme", string(doc))
}
