// Package sales registra ventas completadas y entrega sus salidas de stock a la ruta de
// reposición por evento.
package sales

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/reposicion-api/internal/application/dto"
	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

// StockReductionHandler consumidor del lote de salidas de una venta (ruta por evento).
type StockReductionHandler interface {
	HandleStockReduction(ctx context.Context, batch entity.StockReductionBatch) (*inventory.RunReport, error)
}

// SaleUseCase registra ventas.
type SaleUseCase struct {
	tx            inventory.TxRunner
	publisher     inventory.AdjustmentPublisher
	replenishment StockReductionHandler
	now           inventory.Clock
	log           *logger.Logger
}

// NewSaleUseCase construye el caso de uso. publisher y replenishment pueden ser nil.
func NewSaleUseCase(tx inventory.TxRunner, publisher inventory.AdjustmentPublisher, replenishment StockReductionHandler, now inventory.Clock, log *logger.Logger) *SaleUseCase {
	if publisher == nil {
		publisher = inventory.NopPublisher{}
	}
	if now == nil {
		now = time.Now
	}
	return &SaleUseCase{tx: tx, publisher: publisher, replenishment: replenishment, now: now, log: log}
}

// RegisterSale registra la venta y descuenta el stock de cada producto con las filas
// bloqueadas. Si alguna línea supera el stock la venta se rechaza completa con
// ErrInsufficientStock. Tras el commit publica los ajustes negativos y entrega el lote a
// la ruta por evento; un fallo de la reposición no deshace la venta.
func (uc *SaleUseCase) RegisterSale(ctx context.Context, in dto.RegisterSaleRequest) (*dto.SaleResponse, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	requested := make(map[string]int, len(in.Lines))
	for _, l := range in.Lines {
		if l.ProductID == "" || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("línea %q: %w", l.ProductID, domain.ErrInvalidInput)
		}
		requested[l.ProductID] += l.Quantity
	}
	// Bloqueos siempre en el mismo orden para no cruzarse con otra venta.
	ids := make([]string, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := uc.now()
	sale := &entity.Sale{ID: uuid.New().String(), Date: now, Total: decimal.Zero}
	for _, l := range in.Lines {
		subtotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		sale.Lines = append(sale.Lines, entity.SaleLine{
			ID:        uuid.New().String(),
			SaleID:    sale.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  subtotal,
		})
		sale.Total = sale.Total.Add(subtotal)
	}

	var adjustments []entity.StockAdjustment
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		adjustments = adjustments[:0]
		for _, id := range ids {
			product, err := repos.Products.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !product.IsActive() {
				return fmt.Errorf("producto %s inactivo: %w", id, domain.ErrConflict)
			}
			if product.CurrentStock < requested[id] {
				return fmt.Errorf("producto %s: stock %d, pedido %d: %w", id, product.CurrentStock, requested[id], domain.ErrInsufficientStock)
			}
		}
		for _, id := range ids {
			if _, err := repos.Stock.Adjust(ctx, id, -requested[id]); err != nil {
				return err
			}
			adjustments = append(adjustments, entity.StockAdjustment{
				ProductID:  id,
				Delta:      -requested[id],
				Reason:     entity.AdjustmentSale,
				Reference:  sale.ID,
				OccurredAt: now,
			})
		}
		return repos.Sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	if err := uc.publisher.Publish(ctx, adjustments); err != nil {
		uc.log.Error().Err(err).Str("sale_id", sale.ID).Msg("no se pudieron publicar los ajustes de stock")
	}

	out := toSaleResponse(sale)
	if uc.replenishment != nil {
		report, err := uc.replenishment.HandleStockReduction(ctx, sale.Reductions())
		if err != nil {
			uc.log.Error().Err(err).Str("sale_id", sale.ID).Msg("reposición por evento fallida")
		} else {
			out.Replenishment = report.Response()
		}
	}
	return out, nil
}

// GetSale obtiene una venta registrada.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	var sale *entity.Sale
	err := uc.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		sale, err = repos.Sales.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSaleResponse(sale), nil
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	out := &dto.SaleResponse{ID: s.ID, Date: s.Date, Total: s.Total, Lines: make([]dto.SaleLineResponse, 0, len(s.Lines))}
	for _, l := range s.Lines {
		out.Lines = append(out.Lines, dto.SaleLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return out
}
