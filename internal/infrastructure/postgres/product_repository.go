package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
// La política se guarda aplanada en columnas; policy_kind decide qué columnas aplican.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, code, description, current_stock, annual_demand, storage_cost, total_cost,
	policy_kind, safety_stock, optimal_lot_size, reorder_point, review_interval_days, max_inventory_level,
	last_review_date, state, deactivated_at, created_at, updated_at`

// policyRow columnas de la política aplanada.
type policyRow struct {
	kind               entity.PolicyKind
	safetyStock        *int
	optimalLotSize     *int
	reorderPoint       *int
	reviewIntervalDays *int
	maxInventoryLevel  *int
	lastReviewDate     *time.Time
}

func flattenPolicy(p entity.InventoryPolicy) policyRow {
	switch pol := p.(type) {
	case *entity.FixedLotPolicy:
		return policyRow{
			kind:           entity.PolicyFixedLot,
			safetyStock:    pol.SafetyStock,
			optimalLotSize: pol.OptimalLotSize,
			reorderPoint:   pol.ReorderPoint,
		}
	case *entity.FixedIntervalPolicy:
		return policyRow{
			kind:               entity.PolicyFixedInterval,
			safetyStock:        pol.SafetyStock,
			reviewIntervalDays: pol.ReviewIntervalDays,
			maxInventoryLevel:  pol.MaxInventoryLevel,
			lastReviewDate:     pol.LastReviewDate,
		}
	}
	return policyRow{}
}

func (r policyRow) policy() entity.InventoryPolicy {
	switch r.kind {
	case entity.PolicyFixedLot:
		return &entity.FixedLotPolicy{
			SafetyStock:    r.safetyStock,
			OptimalLotSize: r.optimalLotSize,
			ReorderPoint:   r.reorderPoint,
		}
	case entity.PolicyFixedInterval:
		var last *time.Time
		if r.lastReviewDate != nil {
			d := time.Date(r.lastReviewDate.Year(), r.lastReviewDate.Month(), r.lastReviewDate.Day(), 0, 0, 0, 0, time.UTC)
			last = &d
		}
		return &entity.FixedIntervalPolicy{
			SafetyStock:        r.safetyStock,
			ReviewIntervalDays: r.reviewIntervalDays,
			MaxInventoryLevel:  r.maxInventoryLevel,
			LastReviewDate:     last,
		}
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p   entity.Product
		pol policyRow
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.Description, &p.CurrentStock, &p.AnnualDemand, &p.StorageCost, &p.TotalCost,
		&pol.kind, &pol.safetyStock, &pol.optimalLotSize, &pol.reorderPoint, &pol.reviewIntervalDays,
		&pol.maxInventoryLevel, &pol.lastReviewDate, &p.State, &p.DeactivatedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Policy = pol.policy()
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Create persiste un nuevo producto con su stock inicial.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	pol := flattenPolicy(p.Policy)
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Code, p.Description, p.CurrentStock, p.AnnualDemand, p.StorageCost, p.TotalCost,
		pol.kind, pol.safetyStock, pol.optimalLotSize, pol.reorderPoint, pol.reviewIntervalDays,
		pol.maxInventoryLevel, pol.lastReviewDate, productState(p.State), p.DeactivatedAt, p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteError("insert product", err)
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("get product", err)
	}
	return p, nil
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError("get product for update", err)
	}
	return p, nil
}

// Update actualiza política, demanda, costos y estado. No toca current_stock (ver StockRepo.Adjust).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	pol := flattenPolicy(p.Policy)
	query := `
		UPDATE products SET description = $2, annual_demand = $3, storage_cost = $4, total_cost = $5,
			policy_kind = $6, safety_stock = $7, optimal_lot_size = $8, reorder_point = $9,
			review_interval_days = $10, max_inventory_level = $11, last_review_date = $12,
			state = $13, deactivated_at = $14, updated_at = $15
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.Description, p.AnnualDemand, p.StorageCost, p.TotalCost,
		pol.kind, pol.safetyStock, pol.optimalLotSize, pol.reorderPoint,
		pol.reviewIntervalDays, pol.maxInventoryLevel, pol.lastReviewDate,
		productState(p.State), p.DeactivatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos por ID con filtros opcionales y paginación.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Policy != "" {
		args = append(args, f.Policy)
		where = append(where, fmt.Sprintf("policy_kind = $%d", len(args)))
	}
	if f.OnlyActive {
		where = append(where, "state = 'ACTIVE'")
	}
	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list products", err)
	}
	return collectProducts(rows)
}

// ListFixedIntervalForUpdate bloquea en orden de ID los productos activos de intervalo fijo.
// Dos barridos concurrentes se serializan aquí y el segundo ve la fecha de revisión ya fijada.
func (r *ProductRepo) ListFixedIntervalForUpdate(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE policy_kind = 'FIXED_INTERVAL' AND state = 'ACTIVE'
		ORDER BY id
		FOR UPDATE`)
	if err != nil {
		return nil, mapError("list fixed-interval products", err)
	}
	return collectProducts(rows)
}

// ListBelowSafetyStock productos activos con stock menor a su stock de seguridad.
func (r *ProductRepo) ListBelowSafetyStock(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE state = 'ACTIVE' AND safety_stock IS NOT NULL AND current_stock < safety_stock
		ORDER BY id`)
	if err != nil {
		return nil, mapError("list below safety stock", err)
	}
	return collectProducts(rows)
}

// ListBelowReorderPointWithoutActiveOrder productos de lote fijo bajo su punto de pedido sin
// línea en ninguna orden PENDING o SENT.
func (r *ProductRepo) ListBelowReorderPointWithoutActiveOrder(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products p
		WHERE p.state = 'ACTIVE' AND p.policy_kind = 'FIXED_LOT'
		  AND p.reorder_point IS NOT NULL AND p.current_stock < p.reorder_point
		  AND NOT EXISTS (
			SELECT 1 FROM purchase_order_lines l
			JOIN purchase_orders o ON o.id = l.order_id
			WHERE l.product_id = p.id AND o.state IN ('PENDING', 'SENT'))
		ORDER BY p.id`)
	if err != nil {
		return nil, mapError("list below reorder point", err)
	}
	return collectProducts(rows)
}

func productState(s entity.ProductState) entity.ProductState {
	if s == "" {
		return entity.ProductStateActive
	}
	return s
}

