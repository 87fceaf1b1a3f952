package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	decomposed := "Bodega N\u0303"
	composed := "Bodega \u00d1"

	assert.Equal(t, composed, Clean("  "+decomposed+"\t"))
	assert.Equal(t, Clean(decomposed), Clean(composed))
	assert.Equal(t, "", Clean("   "))
	assert.Equal(t, "WH001", ID(" WH001 "))
}
