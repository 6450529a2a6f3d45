package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/internal/application/purchasing"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/infrastructure/pdf"
)

func TestPurchaseOrderPDF(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	order := entity.NewPurchaseOrder("prov-1", now)
	order.ID = "0b5f3c2e-1111-2222-3333-444455556666"
	require.NoError(t, order.AppendLine("p-1", 427, decimal.NewFromInt(10)))
	require.NoError(t, order.AppendLine("p-2", 30, decimal.RequireFromString("1.5")))
	require.NoError(t, order.Send(now))

	doc := purchasing.OrderDocument{
		Order:    order,
		Provider: &entity.Provider{ID: "prov-1", Name: "Distribuidora Acme", Email: "compras@acme.co"},
		Products: map[string]*entity.Product{
			"p-1": {ID: "p-1", Code: "SKU-1", Description: "Tornillo 3/8"},
		},
	}

	out, err := pdf.NewMarotoPDFGenerator("es-CO").PurchaseOrderPDF(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPurchaseOrderPDF_SinProveedor(t *testing.T) {
	order := entity.NewPurchaseOrder("prov-1", time.Now())
	_, err := pdf.NewMarotoPDFGenerator("xx-invalid-").PurchaseOrderPDF(context.Background(), purchasing.OrderDocument{Order: order})
	assert.Error(t, err)
}
