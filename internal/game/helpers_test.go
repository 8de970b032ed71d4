package game

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/lucid-arena/internal/config"
	"github.com/lucid-arena/internal/domain"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed values and returns zero once exhausted.
type scriptedRand struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

func (r *scriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

type recordingPublisher struct {
	mu           sync.Mutex
	players      []domain.LobbyPlayers
	starts       []*domain.GameState
	states       []*domain.GameState
	instructions []domain.MiniGameInstruction
	outcomes     []domain.MiniGameOutcome
}

func (p *recordingPublisher) PublishPlayers(_ context.Context, _ string, players domain.LobbyPlayers) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.players = append(p.players, players)
}

func (p *recordingPublisher) PublishStart(_ context.Context, _ string, state *domain.GameState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts = append(p.starts, state)
}

func (p *recordingPublisher) PublishState(_ context.Context, _ string, state *domain.GameState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func (p *recordingPublisher) PublishInstruction(_ context.Context, _ string, instruction domain.MiniGameInstruction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instructions = append(p.instructions, instruction)
}

func (p *recordingPublisher) PublishOutcome(_ context.Context, _ string, outcome domain.MiniGameOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, outcome)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, rng Rand) (*Engine, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	cfg := config.DefaultConfig()
	e, err := NewEngine(&cfg.Game, rng, pub, discardLogger())
	require.NoError(t, err)
	return e, pub
}

// seedLobby creates a room with players and installs a state on the given board.
func seedLobby(t *testing.T, e *Engine, lobbyID string, board []domain.TileType, players ...string) *domain.GameState {
	t.Helper()
	ctx := context.Background()
	e.CreateRoom(ctx, lobbyID)
	for _, p := range players {
		require.NoError(t, e.JoinRoom(ctx, lobbyID, p))
	}
	state := domain.NewGameState(lobbyID, players, board)
	e.states.Set(lobbyID, state)
	return state
}

func uniformBoard(tile domain.TileType, n int) []domain.TileType {
	board := make([]domain.TileType, n)
	for i := range board {
		board[i] = tile
	}
	return board
}

// lobbyCount reports how many lobbies hold a state slot.
func lobbyCount(s *States) int {
	n := 0
	s.entries.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
