package game

import (
	"testing"

	"github.com/lucid-arena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLengthAndTiles(t *testing.T) {
	g, err := NewBoardGenerator(DefaultRand(), DefaultBoardWeights)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 44, 500} {
		board := g.Generate(n)
		require.Len(t, board, n)
		for _, tile := range board {
			assert.True(t, tile.Valid(), "unexpected tile %v", tile)
		}
	}
}

func TestGenerateBands(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0, 0.29, 0.30, 0.59, 0.60, 0.849, 0.85, 0.999, 1.0}}
	g, err := NewBoardGenerator(rng, DefaultBoardWeights)
	require.NoError(t, err)

	board := g.Generate(9)

	assert.Equal(t, []domain.TileType{
		domain.TileMulti, domain.TileMulti,
		domain.TileSolo, domain.TileSolo,
		domain.TileBonus, domain.TileBonus,
		domain.TileMalus, domain.TileMalus,
		domain.TileMalus, // out-of-range draw falls back to the last band
	}, board)
}

func TestNewBoardGeneratorRejectsBadTables(t *testing.T) {
	tests := []struct {
		name   string
		bounds []float64
	}{
		{"too few bounds", []float64{0.5, 1.0}},
		{"not increasing", []float64{0.3, 0.3, 0.8, 1.0}},
		{"does not end at one", []float64{0.2, 0.4, 0.6, 0.8}},
		{"zero first bound", []float64{0, 0.4, 0.6, 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoardGenerator(DefaultRand(), tt.bounds)
			assert.ErrorIs(t, err, domain.ErrInvalidBoardWeights)
		})
	}
}
