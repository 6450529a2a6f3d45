package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/internal/application/apptest"
	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/application/purchasing"
	"github.com/jhoicas/reposicion-api/internal/application/sales"
	apphttp "github.com/jhoicas/reposicion-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakePDF struct{}

func (fakePDF) PurchaseOrderPDF(_ context.Context, doc purchasing.OrderDocument) ([]byte, error) {
	return []byte("%PDF-1.3 " + doc.Order.ID), nil
}

// buildTestApp monta el router completo sobre el almacén en memoria.
func buildTestApp(t *testing.T) (*fiber.App, *apptest.Fixture) {
	t.Helper()
	f := apptest.New(t0)
	pub := &apptest.Publisher{}
	repl := inventory.NewReplenishmentUseCase(f.Store, nil, time.Minute, f.Now, f.Log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		PolicyUC:        f.Policy,
		ReplenishmentUC: repl,
		OrderUC:         purchasing.NewOrderUseCase(f.Store, pub, fakePDF{}, f.Now, f.Log),
		SaleUC:          sales.NewSaleUseCase(f.Store, pub, repl, f.Now, f.Log),
		SweepLocation:   time.UTC,
	})
	return app, f
}

// do ejecuta la petición y decodifica el cuerpo JSON en out (si no es nil).
func do(t *testing.T, app *fiber.App, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestProducts_CreateAndGet(t *testing.T) {
	app, _ := buildTestApp(t)

	var created dto.RecomputeResponse
	status := do(t, app, http.MethodPost, "/api/products", dto.CreateProductRequest{
		Code:         "SKU-1",
		CurrentStock: 10,
		AnnualDemand: apptest.Dec("3650"),
		StorageCost:  apptest.Dec("2"),
		Policy:       dto.PolicyRequest{Kind: "FIXED_LOT", SafetyStock: apptest.Int(20)},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.Product.ID)

	var got dto.ProductResponse
	status = do(t, app, http.MethodGet, "/api/products/"+created.Product.ID, nil, &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "SKU-1", got.Code)

	var dup dto.ErrorResponse
	status = do(t, app, http.MethodPost, "/api/products", dto.CreateProductRequest{
		Code:   "SKU-1",
		Policy: dto.PolicyRequest{Kind: "FIXED_LOT"},
	}, &dup)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE", dup.Code)
}

func TestProducts_Validation(t *testing.T) {
	app, _ := buildTestApp(t)

	var e dto.ErrorResponse
	status := do(t, app, http.MethodPost, "/api/products", dto.CreateProductRequest{Description: "sin código"}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status = do(t, app, http.MethodGet, "/api/products/missing", nil, &e)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestSale_TriggersOrderAndLifecycle(t *testing.T) {
	app, f := buildTestApp(t)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 130)
	f.Link(t, p, prov, "10", true)

	var sale dto.SaleResponse
	status := do(t, app, http.MethodPost, "/api/sales", dto.RegisterSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: p, Quantity: 40, UnitPrice: decimal.NewFromInt(25)}},
	}, &sale)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, sale.Replenishment)
	require.Len(t, sale.Replenishment.Orders, 1)
	orderID := sale.Replenishment.Orders[0].ID

	var list dto.PurchaseOrderListResponse
	status = do(t, app, http.MethodGet, "/api/purchase-orders?state=PENDING", nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Items, 1)
	assert.True(t, decimal.NewFromInt(4270).Equal(list.Items[0].Total))

	var e dto.ErrorResponse
	status = do(t, app, http.MethodPost, "/api/purchase-orders/"+orderID+"/finalize", nil, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE", e.Code)

	var order dto.PurchaseOrderResponse
	status = do(t, app, http.MethodPost, "/api/purchase-orders/"+orderID+"/send", nil, &order)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "SENT", order.State)

	status = do(t, app, http.MethodPost, "/api/purchase-orders/"+orderID+"/finalize", nil, &order)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "FINALIZED", order.State)
	assert.Equal(t, 90+427, f.Product(t, p).CurrentStock)
}

func TestSale_InsufficientStock(t *testing.T) {
	app, f := buildTestApp(t)
	p := f.FixedLot(t, "SKU-1", 3)

	var e dto.ErrorResponse
	status := do(t, app, http.MethodPost, "/api/sales", dto.RegisterSaleRequest{
		Lines: []dto.SaleLineRequest{{ProductID: p, Quantity: 4, UnitPrice: decimal.NewFromInt(1)}},
	}, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
}

func TestPurchaseOrder_PDF(t *testing.T) {
	app, f := buildTestApp(t)
	prov := f.Provider(t, "Acme")
	p := f.FixedLot(t, "SKU-1", 0)
	f.Link(t, p, prov, "2", true)

	var order dto.PurchaseOrderResponse
	status := do(t, app, http.MethodPost, "/api/purchase-orders", dto.PurchaseOrderRequest{
		ProviderID: prov,
		Lines:      []dto.PurchaseOrderLineRequest{{ProductID: p, Quantity: 5}},
	}, &order)
	require.Equal(t, http.StatusCreated, status)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/purchase-orders/"+order.ID+"/pdf", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestRunReviews(t *testing.T) {
	app, f := buildTestApp(t)
	prov := f.Provider(t, "Acme")
	p := f.FixedInterval(t, "SKU-FI", 60, 7)
	f.Link(t, p, prov, "10", true)

	var e dto.ErrorResponse
	status := do(t, app, http.MethodPost, "/api/replenishment/reviews", dto.RunReviewsRequest{Date: "10/03/2026"}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)

	// Una fecha posterior a hoy no adelanta la revisión.
	e = dto.ErrorResponse{}
	status = do(t, app, http.MethodPost, "/api/replenishment/reviews", dto.RunReviewsRequest{Date: "2026-04-09"}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)

	var report dto.ReplenishmentRunResponse
	status = do(t, app, http.MethodPost, "/api/replenishment/reviews", dto.RunReviewsRequest{Date: "2026-03-10"}, &report)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-03-10", report.Date)
	assert.Equal(t, 1, report.Needs)
	assert.Equal(t, 1, report.Created)

	// Mismo día, sin cuerpo: el barrido ya no encuentra revisiones vencidas.
	status = do(t, app, http.MethodPost, "/api/replenishment/reviews", nil, &report)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, report.Needs)
}

func TestReports_BelowReorderPoint(t *testing.T) {
	app, f := buildTestApp(t)
	prov := f.Provider(t, "Acme")
	low := f.FixedLot(t, "SKU-LOW", 50)
	f.Link(t, low, prov, "10", true)
	high := f.FixedLot(t, "SKU-HIGH", 500)
	f.Link(t, high, prov, "10", true)

	var alerts []dto.ProductAlertResponse
	status := do(t, app, http.MethodGet, "/api/reports/below-reorder-point", nil, &alerts)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, alerts, 1)
	assert.Equal(t, low, alerts[0].ProductID)
}
