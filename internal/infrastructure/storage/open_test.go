package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "memory"}}
	b, err := Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "memory", b.Driver)
	assert.IsType(t, &memory.Store{}, b.Runner)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
	_, err := Open(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
