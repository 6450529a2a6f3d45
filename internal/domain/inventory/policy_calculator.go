// Package inventory contiene los servicios de dominio puros del motor de reposición:
// calculadora de políticas, evaluación de disparadores y consolidación de órdenes.
package inventory

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

// Campos derivados que calcula la calculadora.
const (
	FieldOptimalLotSize    = "optimal_lot_size"
	FieldReorderPoint      = "reorder_point"
	FieldMaxInventoryLevel = "max_inventory_level"
	FieldTotalCost         = "total_cost"
)

var daysPerYear = decimal.NewFromInt(365)

// SkippedField campo que no se recalculó por falta de un prerrequisito.
type SkippedField struct {
	Field   string
	Missing string
}

// RecomputeResult resumen de un recálculo: campos actualizados y campos omitidos.
type RecomputeResult struct {
	Updated []string
	Skipped []SkippedField
}

// Recompute recalcula los campos derivados del producto a partir de su política y del vínculo
// con el proveedor predeterminado (puede ser nil). Es idempotente.
//
// Cada campo se calcula solo si están todos sus prerrequisitos; si falta alguno se omite
// sin error. Una división por cero en una cantidad derivada devuelve ErrInvalidPolicyData y
// el producto no se modifica.
func Recompute(p *entity.Product, link *entity.ProviderLink) (RecomputeResult, error) {
	var res RecomputeResult
	if p == nil || p.Policy == nil {
		return res, fmt.Errorf("producto sin política: %w", domain.ErrMissingPolicyData)
	}
	work := p.Clone()

	skip := func(field, missing string) {
		res.Skipped = append(res.Skipped, SkippedField{Field: field, Missing: missing})
	}

	switch policy := work.Policy.(type) {
	case *entity.FixedLotPolicy:
		// Lote óptimo = sqrt(2·D·S / H)
		if missing := missingLotSizeInputs(work, link); missing != "" {
			skip(FieldOptimalLotSize, missing)
		} else {
			q, err := optimalLotSize(*work.AnnualDemand, *link.ShippingCost, *work.StorageCost)
			if err != nil {
				return RecomputeResult{}, err
			}
			policy.OptimalLotSize = &q
			res.Updated = append(res.Updated, FieldOptimalLotSize)
		}

		// Punto de pedido = d·L + SS
		if missing := missingReorderPointInputs(work, policy, link); missing != "" {
			skip(FieldReorderPoint, missing)
		} else {
			rp := roundQty(dailyDemandTimes(*work.AnnualDemand, *link.LeadTimeDays).
				Add(decimal.NewFromInt(int64(*policy.SafetyStock))))
			policy.ReorderPoint = &rp
			res.Updated = append(res.Updated, FieldReorderPoint)
		}

	case *entity.FixedIntervalPolicy:
		// Inventario máximo = d·(L + T) + SS
		if missing := missingMaxInventoryInputs(work, policy, link); missing != "" {
			skip(FieldMaxInventoryLevel, missing)
		} else {
			days := *link.LeadTimeDays + *policy.ReviewIntervalDays
			level := roundQty(dailyDemandTimes(*work.AnnualDemand, days).
				Add(decimal.NewFromInt(int64(*policy.SafetyStock))))
			policy.MaxInventoryLevel = &level
			res.Updated = append(res.Updated, FieldMaxInventoryLevel)
		}

	default:
		return RecomputeResult{}, fmt.Errorf("política desconocida %T: %w", p.Policy, domain.ErrInvalidPolicyData)
	}

	if missing := missingTotalCostInputs(work, link); missing != "" {
		skip(FieldTotalCost, missing)
	} else {
		cost, err := totalCost(work, link)
		if err != nil {
			return RecomputeResult{}, err
		}
		work.TotalCost = &cost
		res.Updated = append(res.Updated, FieldTotalCost)
	}

	p.Policy = work.Policy
	p.TotalCost = work.TotalCost
	return res, nil
}

// DailyDemand demanda diaria d = D / 365.
func DailyDemand(annualDemand decimal.Decimal) decimal.Decimal {
	return annualDemand.Div(daysPerYear)
}

// dailyDemandTimes calcula d·days como D·days/365 para no arrastrar el redondeo de d.
func dailyDemandTimes(annualDemand decimal.Decimal, days int) decimal.Decimal {
	return annualDemand.Mul(decimal.NewFromInt(int64(days))).Div(daysPerYear)
}

func roundQty(v decimal.Decimal) int {
	return int(v.Round(0).IntPart())
}

func optimalLotSize(demand, shipping, storage decimal.Decimal) (int, error) {
	if !storage.IsPositive() {
		return 0, fmt.Errorf("costo de almacenamiento %s: %w", storage, domain.ErrInvalidPolicyData)
	}
	ratio := decimal.NewFromInt(2).Mul(demand).Mul(shipping).Div(storage).InexactFloat64()
	if ratio < 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, fmt.Errorf("lote óptimo con radicando %v: %w", ratio, domain.ErrInvalidPolicyData)
	}
	return int(math.Round(math.Sqrt(ratio))), nil
}

func totalCost(p *entity.Product, link *entity.ProviderLink) (decimal.Decimal, error) {
	d := *p.AnnualDemand
	h := *p.StorageCost
	s := *link.ShippingCost
	c := *link.UnitCost
	two := decimal.NewFromInt(2)

	switch policy := p.Policy.(type) {
	case *entity.FixedLotPolicy:
		// CT = (D/Q)·S + (Q/2)·H + D·C
		q := decimal.NewFromInt(int64(*policy.OptimalLotSize))
		if q.IsZero() {
			return decimal.Zero, fmt.Errorf("lote óptimo cero: %w", domain.ErrInvalidPolicyData)
		}
		return d.Div(q).Mul(s).Add(q.Div(two).Mul(h)).Add(d.Mul(c)), nil

	case *entity.FixedIntervalPolicy:
		// CT = D·C + (D/(d·T))·S + ((Imax − d·L)/2)·H
		orderQty := dailyDemandTimes(d, *policy.ReviewIntervalDays)
		if orderQty.IsZero() {
			return decimal.Zero, fmt.Errorf("cantidad por revisión d·T cero: %w", domain.ErrInvalidPolicyData)
		}
		imax := decimal.NewFromInt(int64(*policy.MaxInventoryLevel))
		holding := imax.Sub(dailyDemandTimes(d, *link.LeadTimeDays)).Div(two).Mul(h)
		return d.Mul(c).Add(d.Div(orderQty).Mul(s)).Add(holding), nil
	}
	return decimal.Zero, fmt.Errorf("política desconocida: %w", domain.ErrInvalidPolicyData)
}

func missingLotSizeInputs(p *entity.Product, link *entity.ProviderLink) string {
	switch {
	case p.AnnualDemand == nil:
		return "annual_demand"
	case p.StorageCost == nil:
		return "storage_cost"
	case link == nil:
		return "default_provider"
	case link.ShippingCost == nil:
		return "shipping_cost"
	}
	return ""
}

func missingReorderPointInputs(p *entity.Product, policy *entity.FixedLotPolicy, link *entity.ProviderLink) string {
	switch {
	case p.AnnualDemand == nil:
		return "annual_demand"
	case policy.SafetyStock == nil:
		return "safety_stock"
	case link == nil:
		return "default_provider"
	case link.LeadTimeDays == nil:
		return "lead_time"
	}
	return ""
}

func missingMaxInventoryInputs(p *entity.Product, policy *entity.FixedIntervalPolicy, link *entity.ProviderLink) string {
	switch {
	case p.AnnualDemand == nil:
		return "annual_demand"
	case policy.ReviewIntervalDays == nil:
		return "review_interval_days"
	case policy.SafetyStock == nil:
		return "safety_stock"
	case link == nil:
		return "default_provider"
	case link.LeadTimeDays == nil:
		return "lead_time"
	}
	return ""
}

func missingTotalCostInputs(p *entity.Product, link *entity.ProviderLink) string {
	switch {
	case p.AnnualDemand == nil:
		return "annual_demand"
	case p.StorageCost == nil:
		return "storage_cost"
	case link == nil:
		return "default_provider"
	case link.UnitCost == nil:
		return "unit_cost"
	case link.ShippingCost == nil:
		return "shipping_cost"
	}
	switch policy := p.Policy.(type) {
	case *entity.FixedLotPolicy:
		if policy.OptimalLotSize == nil {
			return FieldOptimalLotSize
		}
	case *entity.FixedIntervalPolicy:
		switch {
		case policy.ReviewIntervalDays == nil:
			return "review_interval_days"
		case policy.MaxInventoryLevel == nil:
			return FieldMaxInventoryLevel
		case link.LeadTimeDays == nil:
			return "lead_time"
		}
	}
	return ""
}
