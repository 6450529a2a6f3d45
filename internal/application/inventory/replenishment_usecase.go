package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	domaininv "github.com/jhoicas/reposicion-api/internal/domain/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

const sweepLockKey = "replenishment:review-sweep"

// RunReport resumen de una corrida de reposición (lote de ventas o barrido diario).
type RunReport struct {
	Source    domaininv.NeedSource
	Date      time.Time // fecha del barrido; cero en la ruta por evento
	Needs     int
	Reviewed  []string // productos a los que se fijó LastReviewDate
	Orders    []*entity.PurchaseOrder
	Created   int
	Accepted  int
	Discarded int
	Failed    domain.ProductErrors // errores por producto; el resto del lote se confirmó
	Skipped   bool                 // barrido omitido porque otra instancia tiene el candado
}

func newRunReport(source domaininv.NeedSource) *RunReport {
	return &RunReport{Source: source, Failed: domain.ProductErrors{}}
}

// ReplenishmentUseCase disparador dual: ruta por evento (ventas) y ruta por tiempo (barrido diario).
// Cada corrida es una sola transacción que incluye las órdenes y las fechas de revisión.
type ReplenishmentUseCase struct {
	tx           TxRunner
	consolidator *Consolidator
	locker       SweepLocker
	lockTTL      time.Duration
	now          Clock
	log          *logger.Logger
}

// NewReplenishmentUseCase construye el caso de uso de reposición. locker puede ser nil
// (una sola instancia).
func NewReplenishmentUseCase(tx TxRunner, locker SweepLocker, lockTTL time.Duration, now Clock, log *logger.Logger) *ReplenishmentUseCase {
	if now == nil {
		now = time.Now
	}
	return &ReplenishmentUseCase{
		tx:           tx,
		consolidator: NewConsolidator(log),
		locker:       locker,
		lockTTL:      lockTTL,
		now:          now,
		log:          log,
	}
}

// HandleStockReduction ruta por evento. Evalúa cada producto del lote contra su punto de pedido
// y consolida las necesidades. Un producto sin proveedor predeterminado queda en Failed y el
// lote continúa; un producto sin lote óptimo se registra y se omite.
func (uc *ReplenishmentUseCase) HandleStockReduction(ctx context.Context, batch entity.StockReductionBatch) (*RunReport, error) {
	report := newRunReport(domaininv.SourceSale)
	if len(batch.Items) == 0 {
		return report, nil
	}

	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		report = newRunReport(domaininv.SourceSale)
		needs := make([]domaininv.ReplenishmentNeed, 0, len(batch.Items))

		for _, productID := range batch.ProductIDs() {
			product, err := repos.Products.GetByID(ctx, productID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					report.Failed.Add(productID, err)
					continue
				}
				return err
			}
			if !product.IsActive() || product.PolicyKind() != entity.PolicyFixedLot {
				continue
			}
			link, err := repos.Links.GetDefault(ctx, productID)
			if err != nil {
				return err
			}

			need, err := domaininv.EvaluateReorder(product, link)
			switch {
			case errors.Is(err, domain.ErrMissingPolicyData):
				uc.log.Info().Str("product_id", productID).Err(err).Msg("reposición omitida por datos de política faltantes")
				continue
			case err != nil:
				uc.log.Warn().Str("product_id", productID).Err(err).Msg("no se pudo evaluar el punto de pedido")
				report.Failed.Add(productID, err)
				continue
			case need == nil:
				continue
			}
			needs = append(needs, *need)
		}

		report.Needs = len(needs)
		return uc.consolidate(ctx, repos, needs, report)
	})
	if err != nil {
		return nil, err
	}

	uc.logReport(report, batch.SaleID)
	return report, nil
}

// ProcessDueReviews ruta por tiempo para la fecha today. Es idempotente: la compuerta de
// LastReviewDate se lee con los productos bloqueados y se fija en la misma transacción,
// así que repetir el barrido el mismo día no emite necesidades nuevas. Una fecha posterior
// al día actual (en la zona de today) es ErrInvalidInput.
func (uc *ReplenishmentUseCase) ProcessDueReviews(ctx context.Context, today time.Time) (*RunReport, error) {
	date := domaininv.DateOf(today)
	if current := domaininv.DateOf(uc.now().In(today.Location())); date.After(current) {
		return nil, fmt.Errorf("fecha de revisión %s posterior a hoy %s: %w",
			date.Format(time.DateOnly), current.Format(time.DateOnly), domain.ErrInvalidInput)
	}
	var report *RunReport

	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		report = newRunReport(domaininv.SourceReview)
		report.Date = date

		products, err := repos.Products.ListFixedIntervalForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("listar productos de intervalo fijo: %w", err)
		}

		needs := make([]domaininv.ReplenishmentNeed, 0)
		for _, product := range products {
			policy, ok := product.FixedInterval()
			if !ok || !product.IsActive() || !domaininv.ReviewDue(policy, date) {
				continue
			}
			link, err := repos.Links.GetDefault(ctx, product.ID)
			if err != nil {
				return err
			}

			need, err := domaininv.EvaluateReview(product, link, date)
			if err != nil {
				uc.log.Warn().Str("product_id", product.ID).Err(err).Msg("no se pudo evaluar la revisión periódica")
				report.Failed.Add(product.ID, err)
				continue
			}
			if need == nil {
				continue
			}

			reviewed := date
			policy.LastReviewDate = &reviewed
			if err := repos.Products.Update(ctx, product); err != nil {
				return fmt.Errorf("fijar fecha de revisión de %s: %w", product.ID, err)
			}
			report.Reviewed = append(report.Reviewed, product.ID)
			needs = append(needs, *need)
		}

		report.Needs = len(needs)
		return uc.consolidate(ctx, repos, needs, report)
	})
	if err != nil {
		return nil, err
	}

	uc.logReport(report, "")
	return report, nil
}

// RunDailySweep corre ProcessDueReviews para el día actual bajo el candado entre réplicas.
// Si otra instancia tiene el candado devuelve un reporte con Skipped = true.
func (uc *ReplenishmentUseCase) RunDailySweep(ctx context.Context, loc *time.Location) (*RunReport, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := uc.now().In(loc)

	if uc.locker != nil {
		release, ok, err := uc.locker.Acquire(ctx, sweepLockKey, uc.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("obtener candado del barrido: %w", err)
		}
		if !ok {
			uc.log.Info().Str("date", today.Format(time.DateOnly)).Msg("barrido en curso en otra instancia; se omite")
			report := newRunReport(domaininv.SourceReview)
			report.Date = domaininv.DateOf(today)
			report.Skipped = true
			return report, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				uc.log.Warn().Err(err).Msg("no se pudo liberar el candado del barrido")
			}
		}()
	}

	return uc.ProcessDueReviews(ctx, today)
}

func (uc *ReplenishmentUseCase) consolidate(ctx context.Context, repos repository.Repos, needs []domaininv.ReplenishmentNeed, report *RunReport) error {
	res, err := uc.consolidator.Consolidate(ctx, repos, uc.now(), needs)
	if err != nil {
		return err
	}
	report.Orders = res.Orders
	report.Created = res.Created
	report.Accepted = res.Accepted
	report.Discarded = res.Discarded
	return nil
}

func (uc *ReplenishmentUseCase) logReport(report *RunReport, saleID string) {
	ev := uc.log.Info().
		Str("source", string(report.Source)).
		Int("needs", report.Needs).
		Int("orders", len(report.Orders)).
		Int("created", report.Created).
		Int("accepted", report.Accepted).
		Int("discarded", report.Discarded).
		Int("failed", len(report.Failed))
	if saleID != "" {
		ev = ev.Str("sale_id", saleID)
	}
	if !report.Date.IsZero() {
		ev = ev.Str("date", report.Date.Format(time.DateOnly))
	}
	ev.Msg("corrida de reposición confirmada")
}

// Response mapea el reporte a la salida HTTP.
func (r *RunReport) Response() *dto.ReplenishmentRunResponse {
	out := &dto.ReplenishmentRunResponse{
		Source:    string(r.Source),
		Needs:     r.Needs,
		Reviewed:  r.Reviewed,
		Orders:    make([]dto.PurchaseOrderResponse, 0, len(r.Orders)),
		Created:   r.Created,
		Accepted:  r.Accepted,
		Discarded: r.Discarded,
		Skipped:   r.Skipped,
	}
	if !r.Date.IsZero() {
		out.Date = r.Date.Format(time.DateOnly)
	}
	for _, o := range r.Orders {
		out.Orders = append(out.Orders, dto.NewPurchaseOrderResponse(o))
	}
	if len(r.Failed) > 0 {
		out.Errors = make(map[string]string, len(r.Failed))
		for id, err := range r.Failed {
			out.Errors[id] = err.Error()
		}
	}
	return out
}
