package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// NeedSource ruta del disparador que originó la necesidad.
type NeedSource string

const (
	SourceSale   NeedSource = "SALE"   // ruta por evento: una venta bajó el stock
	SourceReview NeedSource = "REVIEW" // ruta por tiempo: barrido diario
)

// ReplenishmentNeed necesidad de reposición de un producto hacia su proveedor predeterminado.
type ReplenishmentNeed struct {
	ProductID  string
	Quantity   int
	ProviderID string
	Source     NeedSource
}

// EvaluateReorder ruta por evento (lote fijo): emite una necesidad de OptimalLotSize
// si el stock actual quedó por debajo del punto de pedido.
// Devuelve (nil, nil) cuando no corresponde reponer.
func EvaluateReorder(p *entity.Product, link *entity.ProviderLink) (*ReplenishmentNeed, error) {
	policy, ok := p.FixedLot()
	if !ok || policy.ReorderPoint == nil {
		return nil, nil
	}
	if p.CurrentStock >= *policy.ReorderPoint {
		return nil, nil
	}
	if link == nil {
		return nil, fmt.Errorf("producto %s: %w", p.ID, domain.ErrNoDefaultProvider)
	}
	if policy.OptimalLotSize == nil || *policy.OptimalLotSize <= 0 {
		return nil, fmt.Errorf("producto %s sin lote óptimo: %w", p.ID, domain.ErrMissingPolicyData)
	}
	return &ReplenishmentNeed{
		ProductID:  p.ID,
		Quantity:   *policy.OptimalLotSize,
		ProviderID: link.ProviderID,
		Source:     SourceSale,
	}, nil
}

// ReviewDue indica si a la fecha today le toca revisión al producto de intervalo fijo:
// sin revisión previa siempre; si no, cuando today ≥ LastReviewDate + ReviewIntervalDays.
func ReviewDue(policy *entity.FixedIntervalPolicy, today time.Time) bool {
	if policy == nil || policy.ReviewIntervalDays == nil {
		return false
	}
	if policy.LastReviewDate == nil {
		return true
	}
	next := DateOf(*policy.LastReviewDate).AddDate(0, 0, *policy.ReviewIntervalDays)
	return !DateOf(today).Before(next)
}

// EvaluateReview ruta por tiempo (intervalo fijo):
//
//	cantidad = ceil(d·(T + L) + SS − stock)
//
// Plazo de entrega, stock de seguridad y demanda ausentes cuentan como cero.
// Devuelve (nil, nil) si no toca revisión o la cantidad no es positiva.
func EvaluateReview(p *entity.Product, link *entity.ProviderLink, today time.Time) (*ReplenishmentNeed, error) {
	policy, ok := p.FixedInterval()
	if !ok || !ReviewDue(policy, today) {
		return nil, nil
	}
	if link == nil {
		return nil, fmt.Errorf("producto %s: %w", p.ID, domain.ErrNoDefaultProvider)
	}

	leadTime := 0
	if link.LeadTimeDays != nil {
		leadTime = *link.LeadTimeDays
	}
	safety := 0
	if policy.SafetyStock != nil {
		safety = *policy.SafetyStock
	}
	demand := decimal.Zero
	if p.AnnualDemand != nil {
		demand = *p.AnnualDemand
	}

	qty := dailyDemandTimes(demand, *policy.ReviewIntervalDays+leadTime).
		Add(decimal.NewFromInt(int64(safety - p.CurrentStock))).
		Ceil().IntPart()
	if qty <= 0 {
		return nil, nil
	}
	return &ReplenishmentNeed{
		ProductID:  p.ID,
		Quantity:   int(qty),
		ProviderID: link.ProviderID,
		Source:     SourceReview,
	}, nil
}

// DateOf devuelve la fecha calendario de t (en su zona horaria) como medianoche UTC,
// de modo que fechas de distintas zonas se comparen por día civil.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
