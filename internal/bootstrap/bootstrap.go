// Package bootstrap arma los casos de uso sobre el almacenamiento configurado; lo comparten
// el servidor HTTP y la CLI de reposición.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/application/purchasing"
	"github.com/jhoicas/reposicion-api/internal/application/sales"
	"github.com/jhoicas/reposicion-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/reposicion-api/internal/infrastructure/pdf"
	"github.com/jhoicas/reposicion-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/reposicion-api/internal/infrastructure/redis"
	"github.com/jhoicas/reposicion-api/pkg/config"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

// adjustmentStreamMaxLen tope aproximado del stream de ajustes.
const adjustmentStreamMaxLen = 100_000

// Services casos de uso listos para usar.
type Services struct {
	Policy        *inventory.PolicyUseCase
	Replenishment *inventory.ReplenishmentUseCase
	Orders        *purchasing.OrderUseCase
	Sales         *sales.SaleUseCase

	closers []func()
}

// Close libera conexiones en orden inverso.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Open conecta el almacenamiento (y Redis si está configurado) y construye los casos de uso.
// Con Postgres aplica las migraciones pendientes.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Services, error) {
	svc := &Services{}

	tx, err := openStorage(ctx, cfg, log, svc)
	if err != nil {
		svc.Close()
		return nil, err
	}

	var publisher inventory.AdjustmentPublisher = inventory.NopPublisher{}
	var locker inventory.SweepLocker
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, func() { _ = client.Close() })
		publisher = infraredis.NewAdjustmentPublisher(client, cfg.Redis.Stream, adjustmentStreamMaxLen)
		locker = infraredis.NewSweepLocker(goredis.UniversalClient(client))
		log.Info().Str("stream", cfg.Redis.Stream).Msg("redis habilitado")
	} else {
		log.Warn().Msg("redis no configurado: los ajustes de stock no se publican y el barrido no usa candado")
	}

	now := time.Now
	svc.Policy = inventory.NewPolicyUseCase(tx, now, log.Component("policy"))
	svc.Replenishment = inventory.NewReplenishmentUseCase(tx, locker, cfg.Scheduler.LockTTL, now, log.Component("replenishment"))
	svc.Orders = purchasing.NewOrderUseCase(tx, publisher, infrapdf.NewMarotoPDFGenerator(cfg.App.Locale), now, log.Component("purchasing"))
	svc.Sales = sales.NewSaleUseCase(tx, publisher, svc.Replenishment, now, log.Component("sales"))
	return svc, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger, svc *Services) (inventory.TxRunner, error) {
	switch cfg.App.Storage {
	case config.StorageMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return memory.NewStore(), nil
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		svc.closers = append(svc.closers, pool.Close)
		version, err := postgres.Migrate(ctx, cfg.DB.ConnectionString())
		if err != nil {
			return nil, err
		}
		log.Info().Uint("schema_version", version).Msg("esquema al día")
		return postgres.NewTxRunner(pool, cfg.Retry, log.Component("postgres")), nil
	}
	return nil, fmt.Errorf("almacenamiento no soportado: %q", cfg.App.Storage)
}
