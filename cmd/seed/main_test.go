package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

func TestSeed_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, seed(ctx, store, logger.Nop(), base))
	require.NoError(t, seed(ctx, store, logger.Nop(), base))

	balances := inventory.NewBalanceUseCase(store, inventory.BalanceOptions{})
	got, err := balances.ListBalances(ctx, dto.BalanceFilter{ProductID: "PROD001"})
	require.NoError(t, err)
	assert.Equal(t, []dto.BalanceResponse{
		{ProductID: "PROD001", LocationID: "STORE01", Quantity: 2},
		{ProductID: "PROD001", LocationID: "WH001", Quantity: 33},
		{ProductID: "PROD001", LocationID: "WH002", Quantity: 35},
	}, got)

	verify, err := balances.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, verify.Consistent)
	assert.Equal(t, len(sampleMovements), verify.CheckedMovements)
}
