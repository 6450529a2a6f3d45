package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo persistencia de órdenes de compra y sus líneas.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Acepta pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const orderColumns = `id, provider_id, state, total, created_at, sent_at, received_at`

func scanOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	if err := row.Scan(&o.ID, &o.ProviderID, &o.State, &o.Total, &o.CreatedAt, &o.SentAt, &o.ReceivedAt); err != nil {
		return nil, err
	}
	o.Lines = []entity.PurchaseOrderLine{}
	return &o, nil
}

// getOne lee la cabecera con query y carga sus líneas. Sin fila devuelve ErrNotFound.
func (r *PurchaseOrderRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.PurchaseOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(op, err)
	}
	if err := r.loadLines(ctx, []*entity.PurchaseOrder{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PurchaseOrderRepo) loadLines(ctx context.Context, orders []*entity.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*entity.PurchaseOrder, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT order_id, id, product_id, quantity, price, subtotal
		FROM purchase_order_lines
		WHERE order_id::text = ANY($1)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return mapError("list purchase order lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			l       entity.PurchaseOrderLine
		)
		if err := rows.Scan(&orderID, &l.ID, &l.ProductID, &l.Quantity, &l.Price, &l.Subtotal); err != nil {
			return fmt.Errorf("scan purchase order line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}

func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, "get purchase order", `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera de la orden hasta el fin de la transacción.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.getOne(ctx, "get purchase order for update",
		`SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

// FindPending la orden PENDING más antigua del proveedor, bloqueada; (nil, nil) si no hay.
func (r *PurchaseOrderRepo) FindPending(ctx context.Context, providerID string) (*entity.PurchaseOrder, error) {
	o, err := r.getOne(ctx, "find pending purchase order", `
		SELECT `+orderColumns+` FROM purchase_orders
		WHERE provider_id = $1 AND state = 'PENDING'
		ORDER BY created_at, seq
		LIMIT 1
		FOR UPDATE`, providerID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// LockPendingSlot candado transaccional por proveedor: serializa a quienes buscan o crean
// su orden PENDING. Se libera en el commit o rollback.
func (r *PurchaseOrderRepo) LockPendingSlot(ctx context.Context, providerID string) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('po-pending:' || $1::text))`, providerID)
	return mapError("lock pending slot", err)
}

// LockProductSlots un candado transaccional por producto, en orden de ID y sin repetidos.
func (r *PurchaseOrderRepo) LockProductSlots(ctx context.Context, productIDs []string) error {
	for _, id := range sortedUnique(productIDs) {
		if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('po-product:' || $1::text))`, id); err != nil {
			return mapError("lock product slot "+id, err)
		}
	}
	return nil
}

// Save inserta o actualiza la cabecera y reemplaza las líneas.
func (r *PurchaseOrderRepo) Save(ctx context.Context, o *entity.PurchaseOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			provider_id = EXCLUDED.provider_id, state = EXCLUDED.state, total = EXCLUDED.total,
			sent_at = EXCLUDED.sent_at, received_at = EXCLUDED.received_at`,
		o.ID, o.ProviderID, o.State, o.Total, o.CreatedAt, o.SentAt, o.ReceivedAt,
	)
	if err != nil {
		return mapRaceError("save purchase order", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_lines WHERE order_id = $1`, o.ID); err != nil {
		return mapError("delete purchase order lines", err)
	}
	for i, l := range o.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO purchase_order_lines (id, order_id, position, product_id, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, o.ID, i, l.ProductID, l.Quantity, l.Price, l.Subtotal,
		)
		if err != nil {
			return mapRaceError("insert purchase order line", err)
		}
	}
	return nil
}

// ExistsActiveWithProduct indica si el producto figura en una orden PENDING o SENT distinta de excludeOrderID.
func (r *PurchaseOrderRepo) ExistsActiveWithProduct(ctx context.Context, productID, excludeOrderID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchase_order_lines l
			JOIN purchase_orders o ON o.id = l.order_id
			WHERE l.product_id = $1 AND o.state IN ('PENDING', 'SENT') AND o.id::text <> $2::text)`,
		productID, excludeOrderID).Scan(&exists)
	if err != nil {
		return false, mapError("check active order for product", err)
	}
	return exists, nil
}

func (r *PurchaseOrderRepo) HasActiveForProvider(ctx context.Context, providerID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM purchase_orders
			WHERE provider_id = $1 AND state IN ('PENDING', 'SENT'))`, providerID).Scan(&exists)
	if err != nil {
		return false, mapError("check active order for provider", err)
	}
	return exists, nil
}

// List órdenes por fecha de creación con filtros opcionales de estado y proveedor.
func (r *PurchaseOrderRepo) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var (
		where []string
		args  []any
	)
	if f.State != "" {
		args = append(args, f.State)
		where = append(where, fmt.Sprintf("state = $%d", len(args)))
	}
	if f.ProviderID != "" {
		args = append(args, f.ProviderID)
		where = append(where, fmt.Sprintf("provider_id = $%d", len(args)))
	}
	query := `SELECT ` + orderColumns + ` FROM purchase_orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, seq"
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
		return nil, mapError("list purchase orders", err)
	}
	orders := make([]*entity.PurchaseOrder, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError("list purchase orders", err)
	}
	// Las líneas se leen después de cerrar rows: la conexión de una tx no admite dos consultas abiertas.
	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}
