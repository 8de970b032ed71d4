package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/lucid-arena/internal/domain"
)

// Rand is the random source used for boards, dice and mini-game draws.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand returns a goroutine-safe random source backed by the
// math/rand/v2 top-level generator.
func DefaultRand() Rand {
	return globalRand{}
}

// DefaultBoardWeights are the cumulative bounds for multi, solo, bonus and
// malus tiles: 30% multi, 30% solo, 25% bonus, 15% malus.
var DefaultBoardWeights = []float64{0.30, 0.60, 0.85, 1.0}

// BoardGenerator draws board layouts from a cumulative weight table.
type BoardGenerator struct {
	rng    Rand
	bounds []float64
}

// NewBoardGenerator validates the cumulative table, which must hold one
// strictly increasing bound per tile type and end at 1.0.
func NewBoardGenerator(rng Rand, cumulative []float64) (*BoardGenerator, error) {
	if len(cumulative) != len(domain.TileTypes) {
		return nil, fmt.Errorf("%w: want %d bounds, got %d", domain.ErrInvalidBoardWeights, len(domain.TileTypes), len(cumulative))
	}
	prev := 0.0
	for i, b := range cumulative {
		if b <= prev {
			return nil, fmt.Errorf("%w: bound %d (%v) is not increasing", domain.ErrInvalidBoardWeights, i, b)
		}
		prev = b
	}
	if prev != 1.0 {
		return nil, fmt.Errorf("%w: last bound is %v, want 1.0", domain.ErrInvalidBoardWeights, prev)
	}
	return &BoardGenerator{
		rng:    rng,
		bounds: append([]float64(nil), cumulative...),
	}, nil
}

// Generate returns tileCount tiles.
func (g *BoardGenerator) Generate(tileCount int) []domain.TileType {
	board := make([]domain.TileType, tileCount)
	for i := range board {
		board[i] = g.pick(g.rng.Float64())
	}
	return board
}

func (g *BoardGenerator) pick(r float64) domain.TileType {
	for i, b := range g.bounds {
		if r < b {
			return domain.TileTypes[i]
		}
	}
	// float edge: r can only miss every band through rounding
	return domain.TileTypes[len(domain.TileTypes)-1]
}
