package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/internal/application/apptest"
	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

func TestCreateProduct_SinProveedorOmiteDerivados(t *testing.T) {
	f := apptest.New(t0)

	out, err := f.Policy.CreateProduct(context.Background(), dto.CreateProductRequest{
		Code:         "SKU-1",
		AnnualDemand: apptest.Dec("3650"),
		StorageCost:  apptest.Dec("2"),
		Policy:       dto.PolicyRequest{Kind: string(entity.PolicyFixedLot), SafetyStock: apptest.Int(20)},
	})
	require.NoError(t, err)

	assert.Empty(t, out.Updated)
	require.NotEmpty(t, out.Skipped)
	for _, s := range out.Skipped {
		assert.Equal(t, "default_provider", s.Missing)
	}
	assert.Nil(t, out.Product.Policy.OptimalLotSize)
	assert.Equal(t, string(entity.ProductStateActive), out.Product.State)
}

func TestCreateProduct_Validaciones(t *testing.T) {
	f := apptest.New(t0)
	ctx := context.Background()

	_, err := f.Policy.CreateProduct(ctx, dto.CreateProductRequest{Policy: dto.PolicyRequest{Kind: "FIXED_LOT"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin código")

	_, err = f.Policy.CreateProduct(ctx, dto.CreateProductRequest{Code: "X", Policy: dto.PolicyRequest{Kind: "EOQ"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "política desconocida")

	_, err = f.Policy.CreateProduct(ctx, dto.CreateProductRequest{
		Code: "X", Policy: dto.PolicyRequest{Kind: "FIXED_INTERVAL", ReviewIntervalDays: apptest.Int(0)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "intervalo cero")

	_, err = f.Policy.CreateProduct(ctx, dto.CreateProductRequest{
		Code: "X", StorageCost: apptest.Dec("0"), Policy: dto.PolicyRequest{Kind: "FIXED_LOT"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "costo de almacenamiento cero")

	f.FixedLot(t, "DUP", 0)
	_, err = f.Policy.CreateProduct(ctx, dto.CreateProductRequest{Code: "DUP", Policy: dto.PolicyRequest{Kind: "FIXED_LOT"}})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLinkProvider_PredeterminadoRecalcula(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 90)

	f.Link(t, p, prov, "10", true)

	product := f.Product(t, p)
	require.NotNil(t, product.Policy.OptimalLotSize)
	require.NotNil(t, product.Policy.ReorderPoint)
	assert.Equal(t, 427, *product.Policy.OptimalLotSize)
	assert.Equal(t, 120, *product.Policy.ReorderPoint)
	require.NotNil(t, product.TotalCost)
}

func TestLinkProvider_Duplicado(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 0)
	f.Link(t, p, prov, "10", false)

	_, err := f.Policy.LinkProvider(context.Background(), p, dto.CreateProviderLinkRequest{ProviderID: prov})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestSetDefaultProvider_UnSoloPredeterminado(t *testing.T) {
	f := apptest.New(t0)
	ctx := context.Background()
	a := f.Provider(t, "A")
	b := f.Provider(t, "B")
	p := f.FixedLot(t, "SKU-1", 0)
	f.Link(t, p, a, "10", true)
	f.Link(t, p, b, "8", false)

	_, err := f.Policy.SetDefaultProvider(ctx, p, b)
	require.NoError(t, err)

	links, err := f.Policy.ListProviderLinks(ctx, p)
	require.NoError(t, err)
	defaults := 0
	for _, l := range links {
		if l.IsDefault {
			defaults++
			assert.Equal(t, b, l.ProviderID)
		}
	}
	assert.Equal(t, 1, defaults)

	other := f.Provider(t, "C")
	_, err = f.Policy.SetDefaultProvider(ctx, p, other)
	assert.ErrorIs(t, err, domain.ErrProviderLinkAbsent)
}

func TestUpdateProviderLink_RecalculaSiEsPredeterminado(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 0)
	link := f.Link(t, p, prov, "10", true)

	_, err := f.Policy.UpdateProviderLink(context.Background(), link, dto.UpdateProviderLinkRequest{LeadTimeDays: apptest.Int(20)})
	require.NoError(t, err)

	assert.Equal(t, 220, *f.Product(t, p).Policy.ReorderPoint, "10·20 + 20")
}

func TestDeactivateProviderLink_PredeterminadoNoSeDaDeBaja(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 0)
	link := f.Link(t, p, prov, "10", true)

	_, err := f.Policy.DeactivateProviderLink(context.Background(), link)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeactivateProvider_PredeterminadoEsConflicto(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 0)
	f.Link(t, p, prov, "10", true)

	_, err := f.Policy.DeactivateProvider(context.Background(), prov)
	assert.ErrorIs(t, err, domain.ErrConflict)

	idle := f.Provider(t, "Idle")
	out, err := f.Policy.DeactivateProvider(context.Background(), idle)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ProviderStateInactive), out.State)
}

func TestDeactivateProduct(t *testing.T) {
	f := apptest.New(t0)
	ctx := context.Background()

	withStock := f.FixedLot(t, "SKU-STOCK", 5)
	_, err := f.Policy.DeactivateProduct(ctx, withStock)
	assert.ErrorIs(t, err, domain.ErrConflict)

	empty := f.FixedLot(t, "SKU-EMPTY", 0)
	out, err := f.Policy.DeactivateProduct(ctx, empty)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ProductStateInactive), out.State)
	assert.NotNil(t, out.DeactivatedAt)
}

func TestUpdatePolicy_CambioDeVarianteReiniciaDerivados(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 0)
	f.Link(t, p, prov, "10", true)

	out, err := f.Policy.UpdatePolicy(context.Background(), p, dto.PolicyRequest{
		Kind: string(entity.PolicyFixedInterval), SafetyStock: apptest.Int(20), ReviewIntervalDays: apptest.Int(7),
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.PolicyFixedInterval), out.Product.Policy.Kind)
	assert.Nil(t, out.Product.Policy.OptimalLotSize)
	require.NotNil(t, out.Product.Policy.MaxInventoryLevel)
	assert.Equal(t, 190, *out.Product.Policy.MaxInventoryLevel)
}

func TestUpdateDemand_Recalcula(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 0)
	f.Link(t, p, prov, "10", true)

	out, err := f.Policy.UpdateDemand(context.Background(), p, dto.UpdateDemandRequest{AnnualDemand: apptest.Dec("7300")})
	require.NoError(t, err)
	assert.Equal(t, 220, *out.Product.Policy.ReorderPoint, "20·10 + 20")
	assert.Equal(t, 604, *out.Product.Policy.OptimalLotSize, "round(sqrt(2·7300·50/2))")

	_, err = f.Policy.UpdateDemand(context.Background(), p, dto.UpdateDemandRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecomputeAll(t *testing.T) {
	f := apptest.New(t0)
	prov := f.Provider(t, "Acme")
	a := f.FixedLot(t, "SKU-A", 0)
	f.FixedLot(t, "SKU-B", 0)
	f.Link(t, a, prov, "10", true)

	out, err := f.Policy.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Processed)
	assert.Equal(t, 1, out.Updated, "el producto sin proveedor no tiene qué recalcular")
	assert.Empty(t, out.Errors)
}

func TestReportes(t *testing.T) {
	f := apptest.New(t0)
	ctx := context.Background()
	prov := f.Provider(t, "Acme")
	low := f.FixedLot(t, "SKU-LOW", 10)
	f.Link(t, low, prov, "10", true)
	ok := f.FixedLot(t, "SKU-OK", 500)
	f.Link(t, ok, prov, "10", true)

	safety, err := f.Policy.BelowSafetyStock(ctx)
	require.NoError(t, err)
	require.Len(t, safety, 1)
	assert.Equal(t, low, safety[0].ProductID)

	reorder, err := f.Policy.BelowReorderPoint(ctx)
	require.NoError(t, err)
	require.Len(t, reorder, 1)
	assert.Equal(t, low, reorder[0].ProductID)
	assert.Equal(t, 120, *reorder[0].ReorderPoint)

	_, err = newReplenishment(f, nil).HandleStockReduction(ctx, reduction(low))
	require.NoError(t, err)

	reorder, err = f.Policy.BelowReorderPoint(ctx)
	require.NoError(t, err)
	assert.Empty(t, reorder, "con orden activa ya no aparece")
}

func TestListProducts_FiltraPorPolitica(t *testing.T) {
	f := apptest.New(t0)
	f.FixedLot(t, "SKU-LOT", 0)
	f.FixedInterval(t, "SKU-IV", 0, 7)

	out, err := f.Policy.ListProducts(context.Background(), string(entity.PolicyFixedInterval), 0, 0)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "SKU-IV", out.Items[0].Code)
	assert.Equal(t, 20, out.Page.Limit)

	_, err = f.Policy.ListProducts(context.Background(), "OTHER", 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
