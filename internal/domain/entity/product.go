package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PolicyKind identifica la variante de política de inventario de un producto.
type PolicyKind string

const (
	PolicyFixedLot      PolicyKind = "FIXED_LOT"      // revisión continua, lote fijo (EOQ)
	PolicyFixedInterval PolicyKind = "FIXED_INTERVAL" // revisión periódica, intervalo fijo
)

// ProductState ciclo de vida del producto en el catálogo.
type ProductState string

const (
	ProductStateActive   ProductState = "ACTIVE"
	ProductStateInactive ProductState = "INACTIVE"
)

// InventoryPolicy es la variante etiquetada FixedLot | FixedInterval.
// Solo los tipos de este paquete la implementan.
type InventoryPolicy interface {
	Kind() PolicyKind
	Safety() *int
	clonePolicy() InventoryPolicy
}

// FixedLotPolicy política de lote fijo. OptimalLotSize y ReorderPoint son derivados
// y quedan en nil hasta el primer cálculo exitoso.
type FixedLotPolicy struct {
	SafetyStock    *int
	OptimalLotSize *int
	ReorderPoint   *int
}

func (p *FixedLotPolicy) Kind() PolicyKind { return PolicyFixedLot }
func (p *FixedLotPolicy) Safety() *int     { return p.SafetyStock }

func (p *FixedLotPolicy) clonePolicy() InventoryPolicy {
	return &FixedLotPolicy{
		SafetyStock:    cloneInt(p.SafetyStock),
		OptimalLotSize: cloneInt(p.OptimalLotSize),
		ReorderPoint:   cloneInt(p.ReorderPoint),
	}
}

// FixedIntervalPolicy política de intervalo fijo. MaxInventoryLevel es derivado;
// LastReviewDate lo fija el barrido diario al emitir una necesidad.
type FixedIntervalPolicy struct {
	SafetyStock        *int
	ReviewIntervalDays *int
	MaxInventoryLevel  *int
	LastReviewDate     *time.Time
}

func (p *FixedIntervalPolicy) Kind() PolicyKind { return PolicyFixedInterval }
func (p *FixedIntervalPolicy) Safety() *int     { return p.SafetyStock }

func (p *FixedIntervalPolicy) clonePolicy() InventoryPolicy {
	c := &FixedIntervalPolicy{
		SafetyStock:        cloneInt(p.SafetyStock),
		ReviewIntervalDays: cloneInt(p.ReviewIntervalDays),
		MaxInventoryLevel:  cloneInt(p.MaxInventoryLevel),
	}
	if p.LastReviewDate != nil {
		d := *p.LastReviewDate
		c.LastReviewDate = &d
	}
	return c
}

// Product producto del catálogo con su política de reposición.
// AnnualDemand y StorageCost pueden faltar; en ese caso los campos derivados no se calculan.
type Product struct {
	ID            string
	Code          string
	Description   string
	CurrentStock  int
	AnnualDemand  *decimal.Decimal
	StorageCost   *decimal.Decimal // costo anual de almacenamiento por unidad
	TotalCost     *decimal.Decimal // derivado, depende de la política
	Policy        InventoryPolicy
	State         ProductState
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FixedLot devuelve la política si el producto es de lote fijo.
func (p *Product) FixedLot() (*FixedLotPolicy, bool) {
	lot, ok := p.Policy.(*FixedLotPolicy)
	return lot, ok && lot != nil
}

// FixedInterval devuelve la política si el producto es de intervalo fijo.
func (p *Product) FixedInterval() (*FixedIntervalPolicy, bool) {
	iv, ok := p.Policy.(*FixedIntervalPolicy)
	return iv, ok && iv != nil
}

// PolicyKind devuelve el tipo de política o "" si no tiene.
func (p *Product) PolicyKind() PolicyKind {
	if p.Policy == nil {
		return ""
	}
	return p.Policy.Kind()
}

// IsActive indica si el producto está dado de alta.
func (p *Product) IsActive() bool {
	return p.State == "" || p.State == ProductStateActive
}

// Clone copia profunda (los punteros no se comparten).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.AnnualDemand = cloneDecimal(p.AnnualDemand)
	c.StorageCost = cloneDecimal(p.StorageCost)
	c.TotalCost = cloneDecimal(p.TotalCost)
	if p.Policy != nil {
		c.Policy = p.Policy.clonePolicy()
	}
	if p.DeactivatedAt != nil {
		t := *p.DeactivatedAt
		c.DeactivatedAt = &t
	}
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := *v
	return &d
}
