package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

var (
	_ repository.ProviderRepository     = (*ProviderRepo)(nil)
	_ repository.ProviderLinkRepository = (*ProviderLinkRepo)(nil)
)

// ProviderRepo persistencia de proveedores.
type ProviderRepo struct {
	q Querier
}

// NewProviderRepository construye el adaptador. Acepta pool o tx (Querier).
func NewProviderRepository(q Querier) *ProviderRepo {
	return &ProviderRepo{q: q}
}

func (r *ProviderRepo) Create(ctx context.Context, p *entity.Provider) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO providers (id, name, email, phone, state, deactivated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Email, p.Phone, providerState(p.State), p.DeactivatedAt, p.CreatedAt,
	)
	return mapWriteError("insert provider", err)
}

func (r *ProviderRepo) GetByID(ctx context.Context, id string) (*entity.Provider, error) {
	var p entity.Provider
	err := r.q.QueryRow(ctx, `
		SELECT id, name, email, phone, state, deactivated_at, created_at
		FROM providers WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.Phone, &p.State, &p.DeactivatedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, mapError("get provider", err)
	}
	return &p, nil
}

func (r *ProviderRepo) Update(ctx context.Context, p *entity.Provider) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE providers SET name = $2, email = $3, phone = $4, state = $5, deactivated_at = $6
		WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Phone, providerState(p.State), p.DeactivatedAt,
	)
	if err != nil {
		return mapError("update provider", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IsDefaultForAnyProduct indica si algún vínculo activo del proveedor es el predeterminado.
func (r *ProviderRepo) IsDefaultForAnyProduct(ctx context.Context, providerID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM provider_links
			WHERE provider_id = $1 AND is_default AND state = 'ACTIVE')`, providerID).Scan(&exists)
	if err != nil {
		return false, mapError("check default provider", err)
	}
	return exists, nil
}

// ProviderLinkRepo persistencia de vínculos producto-proveedor.
type ProviderLinkRepo struct {
	q Querier
}

// NewProviderLinkRepository construye el adaptador. Acepta pool o tx (Querier).
func NewProviderLinkRepository(q Querier) *ProviderLinkRepo {
	return &ProviderLinkRepo{q: q}
}

const linkColumns = `id, product_id, provider_id, unit_cost, lead_time_days, shipping_cost, is_default, state, deactivated_at`

func scanLink(row pgx.Row) (*entity.ProviderLink, error) {
	var l entity.ProviderLink
	if err := row.Scan(
		&l.ID, &l.ProductID, &l.ProviderID, &l.UnitCost, &l.LeadTimeDays, &l.ShippingCost,
		&l.IsDefault, &l.State, &l.DeactivatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

// getOptional como QueryRow + scanLink pero sin fila devuelve (nil, nil).
func (r *ProviderLinkRepo) getOptional(ctx context.Context, op, query string, args ...any) (*entity.ProviderLink, error) {
	l, err := scanLink(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(op, err)
	}
	return l, nil
}

func (r *ProviderLinkRepo) Create(ctx context.Context, l *entity.ProviderLink) error {
	_, err := r.q.Exec(ctx, `INSERT INTO provider_links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.ProductID, l.ProviderID, l.UnitCost, l.LeadTimeDays, l.ShippingCost,
		l.IsDefault, providerState(l.State), l.DeactivatedAt,
	)
	return mapWriteError("insert provider link", err)
}

func (r *ProviderLinkRepo) GetByID(ctx context.Context, id string) (*entity.ProviderLink, error) {
	l, err := scanLink(r.q.QueryRow(ctx, `SELECT `+linkColumns+` FROM provider_links WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get provider link", err)
	}
	return l, nil
}

// GetDefault vínculo predeterminado activo del producto; (nil, nil) si no tiene.
func (r *ProviderLinkRepo) GetDefault(ctx context.Context, productID string) (*entity.ProviderLink, error) {
	return r.getOptional(ctx, "get default provider link", `
		SELECT `+linkColumns+` FROM provider_links
		WHERE product_id = $1 AND is_default AND state = 'ACTIVE'`, productID)
}

// GetByProductAndProvider vínculo activo del par; (nil, nil) si no existe.
func (r *ProviderLinkRepo) GetByProductAndProvider(ctx context.Context, productID, providerID string) (*entity.ProviderLink, error) {
	return r.getOptional(ctx, "get provider link", `
		SELECT `+linkColumns+` FROM provider_links
		WHERE product_id = $1 AND provider_id = $2 AND state = 'ACTIVE'`, productID, providerID)
}

func (r *ProviderLinkRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.ProviderLink, error) {
	rows, err := r.q.Query(ctx, `SELECT `+linkColumns+` FROM provider_links WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, mapError("list provider links", err)
	}
	defer rows.Close()
	list := make([]*entity.ProviderLink, 0)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider link: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *ProviderLinkRepo) Update(ctx context.Context, l *entity.ProviderLink) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE provider_links SET unit_cost = $2, lead_time_days = $3, shipping_cost = $4,
			is_default = $5, state = $6, deactivated_at = $7
		WHERE id = $1`,
		l.ID, l.UnitCost, l.LeadTimeDays, l.ShippingCost, l.IsDefault, providerState(l.State), l.DeactivatedAt,
	)
	if err != nil {
		return mapRaceError("update provider link", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetDefault desmarca el predeterminado anterior y marca linkID, en ese orden para no
// violar el índice único parcial.
func (r *ProviderLinkRepo) SetDefault(ctx context.Context, productID, linkID string) error {
	if _, err := r.q.Exec(ctx, `
		UPDATE provider_links SET is_default = false
		WHERE product_id = $1 AND is_default AND id <> $2`, productID, linkID); err != nil {
		return mapRaceError("unset default provider link", err)
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE provider_links SET is_default = true
		WHERE id = $1 AND product_id = $2`, linkID, productID)
	if err != nil {
		return mapRaceError("set default provider link", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func providerState(s entity.ProviderState) entity.ProviderState {
	if s == "" {
		return entity.ProviderStateActive
	}
	return s
}
