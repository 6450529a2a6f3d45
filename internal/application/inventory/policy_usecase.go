package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	domaininv "github.com/jhoicas/reposicion-api/internal/domain/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

// PolicyUseCase ruta de escritura de la política de inventario. Toda escritura que cambia un
// insumo de la calculadora (política, demanda, costo de almacenamiento, vínculo predeterminado)
// recalcula los campos derivados en la misma transacción.
type PolicyUseCase struct {
	tx  TxRunner
	now Clock
	log *logger.Logger
}

// NewPolicyUseCase construye el caso de uso.
func NewPolicyUseCase(tx TxRunner, now Clock, log *logger.Logger) *PolicyUseCase {
	if now == nil {
		now = time.Now
	}
	return &PolicyUseCase{tx: tx, now: now, log: log}
}

// CreateProduct da de alta un producto con su política y calcula lo que se pueda.
func (uc *PolicyUseCase) CreateProduct(ctx context.Context, in dto.CreateProductRequest) (*dto.RecomputeResponse, error) {
	if in.Code == "" || in.CurrentStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := validateDemand(in.AnnualDemand, in.StorageCost); err != nil {
		return nil, err
	}
	policy, err := buildPolicy(in.Policy, nil)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		Code:         in.Code,
		Description:  in.Description,
		CurrentStock: in.CurrentStock,
		AnnualDemand: in.AnnualDemand,
		StorageCost:  in.StorageCost,
		Policy:       policy,
		State:        entity.ProductStateActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var res domaininv.RecomputeResult
	err = uc.tx.Run(ctx, func(repos repository.Repos) error {
		var rerr error
		if res, rerr = domaininv.Recompute(product, nil); rerr != nil {
			return rerr
		}
		uc.logSkipped(product.ID, res)
		return repos.Products.Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return toRecomputeResponse(product, res), nil
}

// GetProduct obtiene un producto por ID.
func (uc *PolicyUseCase) GetProduct(ctx context.Context, id string) (*dto.ProductResponse, error) {
	var out dto.ProductResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		p, err := repos.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = dto.NewProductResponse(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts lista productos, opcionalmente por tipo de política.
func (uc *PolicyUseCase) ListProducts(ctx context.Context, kind string, limit, offset int) (*dto.ProductListResponse, error) {
	page := dto.PageRequest{Limit: limit, Offset: offset}
	page.Normalize()
	filter := repository.ProductFilter{Policy: entity.PolicyKind(kind), Limit: page.Limit, Offset: page.Offset}
	if kind != "" && filter.Policy != entity.PolicyFixedLot && filter.Policy != entity.PolicyFixedInterval {
		return nil, domain.ErrInvalidInput
	}

	out := &dto.ProductListResponse{Items: []dto.ProductResponse{}, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		list, err := repos.Products.List(ctx, filter)
		if err != nil {
			return err
		}
		out.Items = out.Items[:0]
		for _, p := range list {
			out.Items = append(out.Items, dto.NewProductResponse(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePolicy cambia la política del producto. Si cambia la variante los campos derivados
// y la fecha de revisión se reinician; si no, se conservan hasta el recálculo.
func (uc *PolicyUseCase) UpdatePolicy(ctx context.Context, productID string, in dto.PolicyRequest) (*dto.RecomputeResponse, error) {
	var out *dto.RecomputeResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		product, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		policy, err := buildPolicy(in, product.Policy)
		if err != nil {
			return err
		}
		product.Policy = policy
		out, err = uc.recomputeAndSave(ctx, repos, product)
		return err
	})
	return out, err
}

// UpdateDemand cambia la demanda anual y/o el costo de almacenamiento.
func (uc *PolicyUseCase) UpdateDemand(ctx context.Context, productID string, in dto.UpdateDemandRequest) (*dto.RecomputeResponse, error) {
	if in.AnnualDemand == nil && in.StorageCost == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := validateDemand(in.AnnualDemand, in.StorageCost); err != nil {
		return nil, err
	}

	var out *dto.RecomputeResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		product, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if in.AnnualDemand != nil {
			d := *in.AnnualDemand
			product.AnnualDemand = &d
		}
		if in.StorageCost != nil {
			h := *in.StorageCost
			product.StorageCost = &h
		}
		out, err = uc.recomputeAndSave(ctx, repos, product)
		return err
	})
	return out, err
}

// Recompute vuelve a calcular los campos derivados de un producto sin cambiar sus insumos.
func (uc *PolicyUseCase) Recompute(ctx context.Context, productID string) (*dto.RecomputeResponse, error) {
	var out *dto.RecomputeResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		product, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		out, err = uc.recomputeAndSave(ctx, repos, product)
		return err
	})
	return out, err
}

// RecomputeAll recalcula todos los productos activos, cada uno en su propia transacción.
// Un producto con datos inválidos no detiene al resto.
func (uc *PolicyUseCase) RecomputeAll(ctx context.Context) (*dto.RecomputeAllResponse, error) {
	var ids []string
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		ids = ids[:0]
		offset := 0
		for {
			page, err := repos.Products.List(ctx, repository.ProductFilter{OnlyActive: true, Limit: 500, Offset: offset})
			if err != nil {
				return err
			}
			for _, p := range page {
				ids = append(ids, p.ID)
			}
			if len(page) < 500 {
				return nil
			}
			offset += len(page)
		}
	})
	if err != nil {
		return nil, err
	}

	out := &dto.RecomputeAllResponse{}
	failed := domain.ProductErrors{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Processed++
		res, err := uc.Recompute(ctx, id)
		if err != nil {
			uc.log.Warn().Str("product_id", id).Err(err).Msg("recálculo fallido")
			failed.Add(id, err)
			continue
		}
		if len(res.Updated) > 0 {
			out.Updated++
		}
	}
	if len(failed) > 0 {
		out.Errors = make(map[string]string, len(failed))
		for id, err := range failed {
			out.Errors[id] = err.Error()
		}
	}
	uc.log.Info().Int("processed", out.Processed).Int("updated", out.Updated).Int("failed", len(failed)).Msg("recálculo masivo terminado")
	return out, nil
}

// DeactivateProduct da de baja un producto. Se rechaza si tiene stock o si figura en una
// orden Pending o Sent.
func (uc *PolicyUseCase) DeactivateProduct(ctx context.Context, productID string) (*dto.ProductResponse, error) {
	var out dto.ProductResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		product, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if !product.IsActive() {
			out = dto.NewProductResponse(product)
			return nil
		}
		if product.CurrentStock > 0 {
			return fmt.Errorf("producto con %d unidades en stock: %w", product.CurrentStock, domain.ErrConflict)
		}
		active, err := repos.Orders.ExistsActiveWithProduct(ctx, productID, "")
		if err != nil {
			return err
		}
		if active {
			return domain.ErrActiveOrderExists
		}
		now := uc.now()
		product.State = entity.ProductStateInactive
		product.DeactivatedAt = &now
		product.UpdatedAt = now
		if err := repos.Products.Update(ctx, product); err != nil {
			return err
		}
		out = dto.NewProductResponse(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BelowSafetyStock reporte de productos activos con stock bajo su stock de seguridad.
func (uc *PolicyUseCase) BelowSafetyStock(ctx context.Context) ([]dto.ProductAlertResponse, error) {
	return uc.alerts(ctx, func(repos repository.Repos) ([]*entity.Product, error) {
		return repos.Products.ListBelowSafetyStock(ctx)
	})
}

// BelowReorderPoint reporte de productos de lote fijo bajo su punto de pedido que no están
// en ninguna orden activa.
func (uc *PolicyUseCase) BelowReorderPoint(ctx context.Context) ([]dto.ProductAlertResponse, error) {
	return uc.alerts(ctx, func(repos repository.Repos) ([]*entity.Product, error) {
		return repos.Products.ListBelowReorderPointWithoutActiveOrder(ctx)
	})
}

func (uc *PolicyUseCase) alerts(ctx context.Context, list func(repository.Repos) ([]*entity.Product, error)) ([]dto.ProductAlertResponse, error) {
	out := []dto.ProductAlertResponse{}
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		products, err := list(repos)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, p := range products {
			out = append(out, dto.NewProductAlertResponse(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recomputeAndSave corre la calculadora con el vínculo predeterminado y persiste el producto.
// ErrInvalidPolicyData aborta la escritura completa.
func (uc *PolicyUseCase) recomputeAndSave(ctx context.Context, repos repository.Repos, product *entity.Product) (*dto.RecomputeResponse, error) {
	link, err := repos.Links.GetDefault(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	res, err := domaininv.Recompute(product, link)
	if err != nil {
		return nil, fmt.Errorf("recalcular producto %s: %w", product.ID, err)
	}
	uc.logSkipped(product.ID, res)
	product.UpdatedAt = uc.now()
	if err := repos.Products.Update(ctx, product); err != nil {
		return nil, err
	}
	return toRecomputeResponse(product, res), nil
}

func (uc *PolicyUseCase) logSkipped(productID string, res domaininv.RecomputeResult) {
	for _, s := range res.Skipped {
		uc.log.Debug().Str("product_id", productID).Str("field", s.Field).Str("missing", s.Missing).Msg("campo derivado omitido")
	}
}

func toRecomputeResponse(p *entity.Product, res domaininv.RecomputeResult) *dto.RecomputeResponse {
	out := &dto.RecomputeResponse{
		Product: dto.NewProductResponse(p),
		Updated: append([]string{}, res.Updated...),
		Skipped: make([]dto.SkippedFieldResponse, 0, len(res.Skipped)),
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, dto.SkippedFieldResponse{Field: s.Field, Missing: s.Missing})
	}
	return out
}

// buildPolicy arma la política pedida. Si current es de la misma variante conserva sus
// campos derivados y la fecha de revisión.
func buildPolicy(in dto.PolicyRequest, current entity.InventoryPolicy) (entity.InventoryPolicy, error) {
	if in.SafetyStock != nil && *in.SafetyStock < 0 {
		return nil, fmt.Errorf("stock de seguridad negativo: %w", domain.ErrInvalidInput)
	}
	switch entity.PolicyKind(in.Kind) {
	case entity.PolicyFixedLot:
		policy := &entity.FixedLotPolicy{SafetyStock: in.SafetyStock}
		if prev, ok := current.(*entity.FixedLotPolicy); ok {
			policy.OptimalLotSize = prev.OptimalLotSize
			policy.ReorderPoint = prev.ReorderPoint
		}
		return policy, nil
	case entity.PolicyFixedInterval:
		if in.ReviewIntervalDays != nil && *in.ReviewIntervalDays <= 0 {
			return nil, fmt.Errorf("intervalo de revisión debe ser positivo: %w", domain.ErrInvalidInput)
		}
		policy := &entity.FixedIntervalPolicy{SafetyStock: in.SafetyStock, ReviewIntervalDays: in.ReviewIntervalDays}
		if prev, ok := current.(*entity.FixedIntervalPolicy); ok {
			policy.MaxInventoryLevel = prev.MaxInventoryLevel
			policy.LastReviewDate = prev.LastReviewDate
		}
		return policy, nil
	}
	return nil, fmt.Errorf("política %q: %w", in.Kind, domain.ErrInvalidInput)
}

func validateDemand(demand, storage *decimal.Decimal) error {
	if demand != nil && !demand.IsPositive() {
		return fmt.Errorf("demanda anual debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if storage != nil && !storage.IsPositive() {
		return fmt.Errorf("costo de almacenamiento debe ser positivo: %w", domain.ErrInvalidInput)
	}
	return nil
}
