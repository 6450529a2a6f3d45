package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/pkg/config"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool  *pgxpool.Pool
	retry RetryPolicy
}

// NewTxRunner construye el runner con el pool y la política de reintentos.
func NewTxRunner(pool *pgxpool.Pool, cfg config.RetryConfig, log *logger.Logger) *TxRunner {
	return &TxRunner{
		pool: pool,
		retry: RetryPolicy{
			MaxAttempts:     cfg.MaxAttempts,
			InitialInterval: cfg.InitialInterval,
			OnRetry: func(err error, wait time.Duration) {
				log.Warn().Err(err).Dur("wait", wait).Msg("conflicto concurrente; se repite la transacción")
			},
		},
	}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Si la transacción choca con otra (serialización, deadlock) se repite completa, por eso
// fn no debe tener efectos fuera de repos.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	return WithRetry(ctx, r.retry, func() error {
		return r.runOnce(ctx, fn)
	})
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repos repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// NewRepos ata todos los repositorios a q (pool o tx).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Products:  NewProductRepository(q),
		Stock:     NewStockRepository(q),
		Providers: NewProviderRepository(q),
		Links:     NewProviderLinkRepository(q),
		Orders:    NewPurchaseOrderRepository(q),
		Sales:     NewSaleRepository(q),
	}
}
