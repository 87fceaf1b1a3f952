package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
)

func TestFormatQty(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1.000",
		25000:   "25.000",
		1000000: "1.000.000",
		-2500:   "-2.500",
		-100:    "-100",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatQty(in), in)
	}
}

func TestBalanceReportPDF_Export(t *testing.T) {
	g := NewBalanceReportPDF("kardex-api")
	report := &dto.BalanceReport{
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Version:     7,
		Strategy:    "incremental",
		Rows: []dto.BalanceRow{
			{ProductID: "PROD1", ProductName: "Tornillo", LocationID: "LOC_A", LocationName: "Bodega A", Quantity: 70},
			{ProductID: "PROD1", ProductName: "Tornillo", LocationID: "LOC_B", LocationName: "Bodega B", Quantity: -5},
		},
	}

	out, err := g.Export(context.Background(), report)
	require.NoError(t, err)
	require.Greater(t, len(out), 4)
	assert.Equal(t, "%PDF", string(out[:4]))
	assert.Equal(t, "application/pdf", g.ContentType())
}

func TestBalanceReportPDF_EmptyReport(t *testing.T) {
	out, err := NewBalanceReportPDF("kardex-api").Export(context.Background(), &dto.BalanceReport{Rows: []dto.BalanceRow{}})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
