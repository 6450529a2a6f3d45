package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

// CreateProvider da de alta un proveedor.
func (uc *PolicyUseCase) CreateProvider(ctx context.Context, in dto.CreateProviderRequest) (*dto.ProviderResponse, error) {
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	provider := &entity.Provider{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		State:     entity.ProviderStateActive,
		CreatedAt: uc.now(),
	}
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		return repos.Providers.Create(ctx, provider)
	})
	if err != nil {
		return nil, err
	}
	out := dto.NewProviderResponse(provider)
	return &out, nil
}

// DeactivateProvider da de baja un proveedor. Se rechaza si es el predeterminado de algún
// producto o si tiene órdenes Pending o Sent.
func (uc *PolicyUseCase) DeactivateProvider(ctx context.Context, providerID string) (*dto.ProviderResponse, error) {
	var out dto.ProviderResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		provider, err := repos.Providers.GetByID(ctx, providerID)
		if err != nil {
			return err
		}
		if !provider.IsActive() {
			out = dto.NewProviderResponse(provider)
			return nil
		}
		isDefault, err := repos.Providers.IsDefaultForAnyProduct(ctx, providerID)
		if err != nil {
			return err
		}
		if isDefault {
			return fmt.Errorf("proveedor predeterminado de al menos un producto: %w", domain.ErrConflict)
		}
		active, err := repos.Orders.HasActiveForProvider(ctx, providerID)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("proveedor con órdenes pendientes o enviadas: %w", domain.ErrConflict)
		}
		now := uc.now()
		provider.State = entity.ProviderStateInactive
		provider.DeactivatedAt = &now
		if err := repos.Providers.Update(ctx, provider); err != nil {
			return err
		}
		out = dto.NewProviderResponse(provider)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LinkProvider vincula un proveedor a un producto. Si el vínculo nace predeterminado se
// desmarca el anterior y se recalcula el producto en la misma transacción.
func (uc *PolicyUseCase) LinkProvider(ctx context.Context, productID string, in dto.CreateProviderLinkRequest) (*dto.ProviderLinkResponse, error) {
	if err := validateLinkTerms(in.UnitCost, in.LeadTimeDays, in.ShippingCost); err != nil {
		return nil, err
	}
	link := &entity.ProviderLink{
		ID:           uuid.New().String(),
		ProductID:    productID,
		ProviderID:   in.ProviderID,
		UnitCost:     in.UnitCost,
		LeadTimeDays: in.LeadTimeDays,
		ShippingCost: in.ShippingCost,
		State:        entity.ProviderStateActive,
	}

	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		product, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		provider, err := repos.Providers.GetByID(ctx, in.ProviderID)
		if err != nil {
			return err
		}
		if !provider.IsActive() {
			return fmt.Errorf("proveedor %s inactivo: %w", provider.ID, domain.ErrConflict)
		}
		existing, err := repos.Links.GetByProductAndProvider(ctx, productID, in.ProviderID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}

		link.IsDefault = false
		if err := repos.Links.Create(ctx, link); err != nil {
			return err
		}
		if !in.IsDefault {
			return nil
		}
		if err := repos.Links.SetDefault(ctx, productID, link.ID); err != nil {
			return err
		}
		link.IsDefault = true
		_, err = uc.recomputeAndSave(ctx, repos, product)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := dto.NewProviderLinkResponse(link)
	return &out, nil
}

// ListProviderLinks vínculos de un producto.
func (uc *PolicyUseCase) ListProviderLinks(ctx context.Context, productID string) ([]dto.ProviderLinkResponse, error) {
	out := []dto.ProviderLinkResponse{}
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		if _, err := repos.Products.GetByID(ctx, productID); err != nil {
			return err
		}
		links, err := repos.Links.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		out = out[:0]
		for _, l := range links {
			out = append(out, dto.NewProviderLinkResponse(l))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetDefaultProvider fija el proveedor predeterminado del producto (a lo sumo uno) y
// recalcula sus campos derivados.
func (uc *PolicyUseCase) SetDefaultProvider(ctx context.Context, productID, providerID string) (*dto.RecomputeResponse, error) {
	if providerID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.RecomputeResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		product, err := repos.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		link, err := repos.Links.GetByProductAndProvider(ctx, productID, providerID)
		if err != nil {
			return err
		}
		if link == nil {
			return domain.ErrProviderLinkAbsent
		}
		provider, err := repos.Providers.GetByID(ctx, providerID)
		if err != nil {
			return err
		}
		if !provider.IsActive() {
			return fmt.Errorf("proveedor %s inactivo: %w", providerID, domain.ErrConflict)
		}
		if err := repos.Links.SetDefault(ctx, productID, link.ID); err != nil {
			return err
		}
		out, err = uc.recomputeAndSave(ctx, repos, product)
		return err
	})
	return out, err
}

// UpdateProviderLink cambia las condiciones de compra de un vínculo. Si es el predeterminado
// el producto se recalcula en la misma transacción.
func (uc *PolicyUseCase) UpdateProviderLink(ctx context.Context, linkID string, in dto.UpdateProviderLinkRequest) (*dto.ProviderLinkResponse, error) {
	if in.UnitCost == nil && in.LeadTimeDays == nil && in.ShippingCost == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := validateLinkTerms(in.UnitCost, in.LeadTimeDays, in.ShippingCost); err != nil {
		return nil, err
	}

	var out dto.ProviderLinkResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		link, err := repos.Links.GetByID(ctx, linkID)
		if err != nil {
			return err
		}
		product, err := repos.Products.GetForUpdate(ctx, link.ProductID)
		if err != nil {
			return err
		}
		if in.UnitCost != nil {
			c := *in.UnitCost
			link.UnitCost = &c
		}
		if in.LeadTimeDays != nil {
			l := *in.LeadTimeDays
			link.LeadTimeDays = &l
		}
		if in.ShippingCost != nil {
			s := *in.ShippingCost
			link.ShippingCost = &s
		}
		if err := repos.Links.Update(ctx, link); err != nil {
			return err
		}
		if link.IsDefault && link.IsActive() {
			if _, err := uc.recomputeAndSave(ctx, repos, product); err != nil {
				return err
			}
		}
		out = dto.NewProviderLinkResponse(link)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateProviderLink da de baja un vínculo. El vínculo predeterminado no se puede dar
// de baja; primero hay que elegir otro predeterminado.
func (uc *PolicyUseCase) DeactivateProviderLink(ctx context.Context, linkID string) (*dto.ProviderLinkResponse, error) {
	var out dto.ProviderLinkResponse
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		link, err := repos.Links.GetByID(ctx, linkID)
		if err != nil {
			return err
		}
		if link.IsDefault {
			return fmt.Errorf("vínculo predeterminado: %w", domain.ErrConflict)
		}
		if link.IsActive() {
			now := uc.now()
			link.State = entity.ProviderStateInactive
			link.DeactivatedAt = &now
			if err := repos.Links.Update(ctx, link); err != nil {
				return err
			}
		}
		out = dto.NewProviderLinkResponse(link)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func validateLinkTerms(unitCost *decimal.Decimal, leadTime *int, shipping *decimal.Decimal) error {
	if unitCost != nil && unitCost.IsNegative() {
		return fmt.Errorf("costo unitario negativo: %w", domain.ErrInvalidInput)
	}
	if leadTime != nil && *leadTime <= 0 {
		return fmt.Errorf("plazo de entrega debe ser positivo: %w", domain.ErrInvalidInput)
	}
	if shipping != nil && !shipping.IsPositive() {
		return fmt.Errorf("costo de envío debe ser positivo: %w", domain.ErrInvalidInput)
	}
	return nil
}
