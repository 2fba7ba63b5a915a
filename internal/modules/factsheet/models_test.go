package factsheet

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_MarshalJSONUndefinedStats(t *testing.T) {
	s := &Snapshot{
		ID:          "snap-1",
		Symbol:      "ONE",
		CreatedAt:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		TotalReturn: math.NaN(),
		PAReturn:    math.NaN(),
		Vol:         math.Inf(1),
		EndPrice:    121.0,
	}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"total_return":null`)
	assert.Contains(t, string(raw), `"pa_return":null`)
	assert.Contains(t, string(raw), `"vol":null`)
	assert.Contains(t, string(raw), `"end_price":121`)
	assert.Contains(t, string(raw), `"symbol":"ONE"`)
}

func TestPortfolioSummary_MarshalJSONUndefinedStats(t *testing.T) {
	p := &PortfolioSummary{
		Name:        "basket",
		Symbols:     []string{"A"},
		Weights:     []float64{1.0},
		TotalReturn: math.NaN(),
		NAV1:        1.21,
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"total_return":null`)
	assert.Contains(t, string(raw), `"nav1":1.21`)
}

func TestNAVPoint_MarshalJSONUndefinedValues(t *testing.T) {
	raw, err := json.Marshal(NAVPoint{Date: "2024-01-03", Gross: math.NaN(), Net: 1.0})
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"gross":null`)
	assert.Contains(t, string(raw), `"net":1`)
}
