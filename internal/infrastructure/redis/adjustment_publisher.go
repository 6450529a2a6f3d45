package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
)

var _ inventory.AdjustmentPublisher = (*AdjustmentPublisher)(nil)

// AdjustmentPublisher publica cada StockAdjustment como una entrada del stream.
// Campos de la entrada: product_id, delta, reason, reference, occurred_at y payload (JSON).
type AdjustmentPublisher struct {
	client goredis.Cmdable
	stream string
	maxLen int64
}

// NewAdjustmentPublisher construye el publicador. maxLen > 0 recorta el stream de forma aproximada.
func NewAdjustmentPublisher(client goredis.Cmdable, stream string, maxLen int64) *AdjustmentPublisher {
	return &AdjustmentPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish envía los ajustes en un pipeline; se detiene en el primer error.
func (p *AdjustmentPublisher) Publish(ctx context.Context, adjustments []entity.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, adj := range adjustments {
		payload, err := json.Marshal(adj)
		if err != nil {
			return fmt.Errorf("serializar ajuste de %s: %w", adj.ProductID, err)
		}
		args := &goredis.XAddArgs{
			Stream: p.stream,
			Values: map[string]any{
				"product_id":  adj.ProductID,
				"delta":       adj.Delta,
				"reason":      string(adj.Reason),
				"reference":   adj.Reference,
				"occurred_at": adj.OccurredAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
				"payload":     payload,
			},
		}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}
		pipe.XAdd(ctx, args)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publicar %d ajustes en %s: %w", len(adjustments), p.stream, err)
	}
	return nil
}
