package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/domain"
)

// Estados de la orden de compra. Pending y Sent son los únicos no terminales.
type PurchaseOrderState string

const (
	OrderStatePending   PurchaseOrderState = "PENDING"
	OrderStateSent      PurchaseOrderState = "SENT"
	OrderStateCancelled PurchaseOrderState = "CANCELLED"
	OrderStateFinalized PurchaseOrderState = "FINALIZED"
)

// transitions transiciones legales de la máquina de estados.
var transitions = map[PurchaseOrderState][]PurchaseOrderState{
	OrderStatePending: {OrderStateSent, OrderStateCancelled},
	OrderStateSent:    {OrderStateFinalized},
}

// CanTransition indica si from → to es una transición permitida.
func CanTransition(from, to PurchaseOrderState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsActive Pending o Sent.
func (s PurchaseOrderState) IsActive() bool {
	return s == OrderStatePending || s == OrderStateSent
}

// Valid indica si el estado es uno de los cuatro conocidos.
func (s PurchaseOrderState) Valid() bool {
	switch s {
	case OrderStatePending, OrderStateSent, OrderStateCancelled, OrderStateFinalized:
		return true
	}
	return false
}

// PurchaseOrderLine línea de la orden. Subtotal = Quantity × Price.
type PurchaseOrderLine struct {
	ID        string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal
}

// PurchaseOrder orden de compra a un proveedor. Total = Σ Subtotal de las líneas.
type PurchaseOrder struct {
	ID         string
	ProviderID string
	State      PurchaseOrderState
	CreatedAt  time.Time
	SentAt     *time.Time
	ReceivedAt *time.Time
	Total      decimal.Decimal
	Lines      []PurchaseOrderLine
}

// NewPurchaseOrder crea una orden Pending vacía (total = 0).
func NewPurchaseOrder(providerID string, now time.Time) *PurchaseOrder {
	return &PurchaseOrder{
		ID:         uuid.New().String(),
		ProviderID: providerID,
		State:      OrderStatePending,
		CreatedAt:  now,
		Total:      decimal.Zero,
		Lines:      []PurchaseOrderLine{},
	}
}

// HasProduct indica si la orden ya tiene una línea para el producto.
func (o *PurchaseOrder) HasProduct(productID string) bool {
	return o.lineIndex(productID) >= 0
}

// Line devuelve la línea del producto, si existe.
func (o *PurchaseOrder) Line(productID string) (PurchaseOrderLine, bool) {
	if i := o.lineIndex(productID); i >= 0 {
		return o.Lines[i], true
	}
	return PurchaseOrderLine{}, false
}

func (o *PurchaseOrder) lineIndex(productID string) int {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AppendLine agrega una línea nueva y suma su subtotal al total.
// No fusiona: si el producto ya está en la orden devuelve ErrDuplicate.
func (o *PurchaseOrder) AppendLine(productID string, quantity int, price decimal.Decimal) error {
	if quantity <= 0 || productID == "" {
		return domain.ErrInvalidInput
	}
	if o.HasProduct(productID) {
		return domain.ErrDuplicate
	}
	subtotal := price.Mul(decimal.NewFromInt(int64(quantity)))
	o.Lines = append(o.Lines, PurchaseOrderLine{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		Subtotal:  subtotal,
	})
	o.Total = o.Total.Add(subtotal)
	return nil
}

// LineRequest cantidad solicitada para un producto en una edición manual.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// ReplaceLines reemplaza el conjunto de líneas (edición manual, solo Pending).
// Cada línea se re-precia con priceOf; si el producto ya tenía línea las cantidades se suman.
// Las líneas previas que no vienen en la petición se descartan.
func (o *PurchaseOrder) ReplaceLines(providerID string, reqs []LineRequest, priceOf func(productID string) decimal.Decimal) error {
	if o.State != OrderStatePending {
		return fmt.Errorf("editar orden en estado %s: %w", o.State, domain.ErrInvalidState)
	}
	if len(reqs) == 0 {
		return domain.ErrInvalidInput
	}
	existing := make(map[string]PurchaseOrderLine, len(o.Lines))
	for _, l := range o.Lines {
		existing[l.ProductID] = l
	}

	updated := make([]PurchaseOrderLine, 0, len(reqs))
	pos := make(map[string]int, len(reqs))
	for _, r := range reqs {
		if r.ProductID == "" || r.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
		price := priceOf(r.ProductID)
		if i, ok := pos[r.ProductID]; ok {
			updated[i].Quantity += r.Quantity
			updated[i].Price = price
			updated[i].Subtotal = price.Mul(decimal.NewFromInt(int64(updated[i].Quantity)))
			continue
		}
		line := PurchaseOrderLine{ID: uuid.New().String(), ProductID: r.ProductID, Quantity: r.Quantity}
		if prev, ok := existing[r.ProductID]; ok {
			line.ID = prev.ID
			line.Quantity = prev.Quantity + r.Quantity
		}
		line.Price = price
		line.Subtotal = price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		pos[r.ProductID] = len(updated)
		updated = append(updated, line)
	}

	o.ProviderID = providerID
	o.Lines = updated
	o.RecomputeTotal()
	return nil
}

// RecomputeTotal recalcula el total desde los subtotales.
func (o *PurchaseOrder) RecomputeTotal() {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal)
	}
	o.Total = total
}

func (o *PurchaseOrder) transition(to PurchaseOrderState) error {
	if !CanTransition(o.State, to) {
		return fmt.Errorf("%s → %s: %w", o.State, to, domain.ErrInvalidState)
	}
	o.State = to
	return nil
}

// Send Pending → Sent, registra SentAt.
func (o *PurchaseOrder) Send(now time.Time) error {
	if err := o.transition(OrderStateSent); err != nil {
		return err
	}
	o.SentAt = &now
	return nil
}

// Cancel Pending → Cancelled.
func (o *PurchaseOrder) Cancel() error {
	return o.transition(OrderStateCancelled)
}

// Finalize Sent → Finalized, registra ReceivedAt y devuelve un ajuste de stock positivo por línea.
func (o *PurchaseOrder) Finalize(now time.Time) ([]StockAdjustment, error) {
	if err := o.transition(OrderStateFinalized); err != nil {
		return nil, err
	}
	o.ReceivedAt = &now
	adjustments := make([]StockAdjustment, 0, len(o.Lines))
	for _, l := range o.Lines {
		adjustments = append(adjustments, StockAdjustment{
			ProductID:  l.ProductID,
			Delta:      l.Quantity,
			Reason:     AdjustmentPurchaseOrder,
			Reference:  o.ID,
			OccurredAt: now,
		})
	}
	return adjustments, nil
}

// Clone copia profunda.
func (o *PurchaseOrder) Clone() *PurchaseOrder {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = append([]PurchaseOrderLine(nil), o.Lines...)
	if o.SentAt != nil {
		t := *o.SentAt
		c.SentAt = &t
	}
	if o.ReceivedAt != nil {
		t := *o.ReceivedAt
		c.ReceivedAt = &t
	}
	return &c
}
