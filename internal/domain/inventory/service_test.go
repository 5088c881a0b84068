package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/testdb"
)

func TestDecrement(t *testing.T) {
	db := testdb.Open(t)
	svc := inventory.NewService(db, logger.Discard())
	runner := testdb.UoW(db)
	ctx := context.Background()
	v := testdb.Variant(t, db, "V", 1000, 0, 3)
	ref := inventory.Reference{Type: "order", ID: 77, Actor: "user:1"}

	err := runner.Do(ctx, func(tx *gorm.DB) error {
		return svc.Decrement(ctx, tx, v.ID, 2, ref)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, testdb.Stock(t, db, v.ID))

	err = runner.Do(ctx, func(tx *gorm.DB) error {
		return svc.Decrement(ctx, tx, v.ID, 2, ref)
	})
	require.True(t, errors.Is(err, apperr.ErrOutOfStock), "got %v", err)
	assert.Equal(t, 1, testdb.Stock(t, db, v.ID))

	err = runner.Do(ctx, func(tx *gorm.DB) error {
		return svc.Decrement(ctx, tx, v.ID, 0, ref)
	})
	assert.Equal(t, apperr.EINVALID, apperr.Code(err))

	movements, err := svc.Movements(ctx, v.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementTypeOutbound, movements[0].MovementType)
	assert.Equal(t, 3, movements[0].PreviousQuantity)
	assert.Equal(t, 1, movements[0].NewQuantity)
	assert.Equal(t, "order", movements[0].ReferenceType)
	assert.Equal(t, int64(77), movements[0].ReferenceID)
}

func TestRestock(t *testing.T) {
	db := testdb.Open(t)
	svc := inventory.NewService(db, logger.Discard())
	runner := testdb.UoW(db)
	ctx := context.Background()
	v := testdb.Variant(t, db, "V", 1000, 0, 0)
	ref := inventory.Reference{Type: "order", ID: 1, Actor: "admin:1"}

	err := runner.Do(ctx, func(tx *gorm.DB) error {
		return svc.Restock(ctx, tx, v.ID, 4, inventory.ReasonAdjustment, ref)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, testdb.Stock(t, db, v.ID))

	err = runner.Do(ctx, func(tx *gorm.DB) error {
		return svc.Restock(ctx, tx, 9999, 1, inventory.ReasonCancellation, ref)
	})
	assert.NoError(t, err, "restocking a removed variant is skipped")

	movements, err := svc.Movements(ctx, v.ID, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.ReasonAdjustment, movements[0].Reason)
	assert.Equal(t, 0, movements[0].PreviousQuantity)
	assert.Equal(t, 4, movements[0].NewQuantity)
}
