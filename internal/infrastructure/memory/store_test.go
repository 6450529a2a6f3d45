package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reposicion-api/internal/domain"
	"github.com/jhoicas/reposicion-api/internal/domain/entity"
	"github.com/jhoicas/reposicion-api/internal/domain/repository"
	"github.com/jhoicas/reposicion-api/internal/infrastructure/memory"
)

func seed(t *testing.T, s *memory.Store, stock int) {
	t.Helper()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	err := s.Run(context.Background(), func(r repository.Repos) error {
		return r.Products.Create(context.Background(), &entity.Product{
			ID: "p-1", Code: "SKU-1", CurrentStock: stock,
			Policy: &entity.FixedLotPolicy{}, State: entity.ProductStateActive,
			CreatedAt: now, UpdatedAt: now,
		})
	})
	require.NoError(t, err)
}

func stockOf(t *testing.T, s *memory.Store) int {
	t.Helper()
	var stock int
	require.NoError(t, s.Run(context.Background(), func(r repository.Repos) error {
		p, err := r.Products.GetByID(context.Background(), "p-1")
		if err != nil {
			return err
		}
		stock = p.CurrentStock
		return nil
	}))
	return stock
}

func TestStore_RollbackOnError(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 10)

	boom := errors.New("boom")
	err := s.Run(context.Background(), func(r repository.Repos) error {
		if _, err := r.Stock.Adjust(context.Background(), "p-1", -4); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 10, stockOf(t, s))
}

func TestStore_CommitAndStockFloor(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 10)

	require.NoError(t, s.Run(context.Background(), func(r repository.Repos) error {
		_, err := r.Stock.Adjust(context.Background(), "p-1", -4)
		return err
	}))
	assert.Equal(t, 6, stockOf(t, s))

	err := s.Run(context.Background(), func(r repository.Repos) error {
		_, err := r.Stock.Adjust(context.Background(), "p-1", -7)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 6, stockOf(t, s))
}

func TestStore_DuplicateCode(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, 0)

	err := s.Run(context.Background(), func(r repository.Repos) error {
		return r.Products.Create(context.Background(), &entity.Product{
			ID: "p-2", Code: "SKU-1", Policy: &entity.FixedLotPolicy{}, State: entity.ProductStateActive,
		})
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := memory.NewStore().Run(ctx, func(repository.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestListBelowReorderPoint_PropagaErrorDeOrdenes(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rop := 10
	s := memory.NewStore()
	require.NoError(t, s.Run(context.Background(), func(r repository.Repos) error {
		return r.Products.Create(context.Background(), &entity.Product{
			ID: "p-1", Code: "SKU-1", CurrentStock: 3,
			Policy: &entity.FixedLotPolicy{ReorderPoint: &rop}, State: entity.ProductStateActive,
			CreatedAt: now, UpdatedAt: now,
		})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	err := s.Run(ctx, func(r repository.Repos) error {
		below, err := r.Products.ListBelowReorderPointWithoutActiveOrder(ctx)
		require.NoError(t, err)
		assert.Len(t, below, 1)

		cancel()
		below, err = r.Products.ListBelowReorderPointWithoutActiveOrder(ctx)
		assert.Nil(t, below)
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)
}
