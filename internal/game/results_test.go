package game

import (
	"context"
	"testing"

	"github.com/lucid-arena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultsIsComplete(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seedLobby(t, e, "lobby", uniformBoard(domain.TileBonus, 44), "A", "B", "C")
	r := e.results

	assert.False(t, r.IsComplete("lobby", domain.MiniGameClicker))
	assert.False(t, r.IsComplete("lobby", domain.MiniGameStar))
	assert.False(t, r.IsComplete("nowhere", domain.MiniGameStar))

	r.Submit("lobby", domain.MiniGameClicker, "A", 12)
	assert.True(t, r.IsComplete("lobby", domain.MiniGameClicker))

	r.Submit("lobby", domain.MiniGameStar, "A", 1)
	r.Submit("lobby", domain.MiniGameStar, "B", 1)
	assert.False(t, r.IsComplete("lobby", domain.MiniGameStar))

	r.Submit("lobby", domain.MiniGameStar, "B", 4)
	assert.False(t, r.IsComplete("lobby", domain.MiniGameStar), "resubmission does not count twice")

	r.Submit("lobby", domain.MiniGameStar, "C", 2)
	assert.True(t, r.IsComplete("lobby", domain.MiniGameStar))
}

func TestResultsSoloPassScore(t *testing.T) {
	tests := []struct {
		name      string
		game      domain.MiniGame
		score     int
		awarded   bool
		wantScore int
	}{
		{"clicker below threshold", domain.MiniGameClicker, 79, false, 0},
		{"clicker at threshold", domain.MiniGameClicker, 80, true, 1},
		{"raining below threshold", domain.MiniGameRaining, 9, false, 0},
		{"raining above threshold", domain.MiniGameRaining, 25, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, nil)
			seed := seedLobby(t, e, "lobby", uniformBoard(domain.TileSolo, 44), "A", "B")
			seed.PendingMiniGame = tt.game
			e.states.Set("lobby", seed)

			e.results.Submit("lobby", tt.game, "A", tt.score)
			require.True(t, e.results.IsComplete("lobby", tt.game))

			outcome, state, err := e.results.ComputeOutcome(context.Background(), "lobby", tt.game)
			require.NoError(t, err)
			require.NotNil(t, outcome)

			assert.Equal(t, domain.MiniGameOutcome{
				MiniGameName:   tt.game,
				WinnerNickname: "A",
				WinnerScore:    tt.score,
				Awarded:        tt.awarded,
			}, *outcome)
			assert.Equal(t, []int{tt.wantScore, 0}, state.Scores)
			assert.Equal(t, 1, state.CurrentPlayer, "turn advances either way")
			assert.Empty(t, state.PendingMiniGame)
			assert.False(t, e.results.IsComplete("lobby", tt.game), "pending result cleared")
		})
	}
}

// pendingLobby seeds a lobby whose current player is waiting on game.
func pendingLobby(t *testing.T, e *Engine, game domain.MiniGame, players ...string) *domain.GameState {
	t.Helper()
	seed := seedLobby(t, e, "lobby", uniformBoard(domain.TileMulti, 44), players...)
	seed.PendingMiniGame = game
	e.states.Set("lobby", seed)
	return seed
}

func TestResultsMultiOutcome(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	pendingLobby(t, e, domain.MiniGameMini1, "A", "B", "C")

	e.results.Submit("lobby", domain.MiniGameMini1, "A", 3)
	e.results.Submit("lobby", domain.MiniGameMini1, "B", 7)
	e.results.Submit("lobby", domain.MiniGameMini1, "C", 2)
	require.True(t, e.results.IsComplete("lobby", domain.MiniGameMini1))

	outcome, state, err := e.results.ComputeOutcome(context.Background(), "lobby", domain.MiniGameMini1)
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, "B", outcome.WinnerNickname)
	assert.Equal(t, 7, outcome.WinnerScore)
	assert.True(t, outcome.Awarded)
	assert.Equal(t, []int{0, 1, 0}, state.Scores)
	assert.Equal(t, 1, state.CurrentPlayer)
}

func TestResultsMultiTieBreak(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	pendingLobby(t, e, domain.MiniGameStar, "zoe", "amy", "bob")

	e.results.Submit("lobby", domain.MiniGameStar, "zoe", 5)
	e.results.Submit("lobby", domain.MiniGameStar, "bob", 5)
	e.results.Submit("lobby", domain.MiniGameStar, "amy", 1)

	outcome, _, err := e.results.ComputeOutcome(context.Background(), "lobby", domain.MiniGameStar)
	require.NoError(t, err)
	assert.Equal(t, "bob", outcome.WinnerNickname)
}

func TestResultsComputeWithoutResults(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	pendingLobby(t, e, domain.MiniGameStar, "A")

	outcome, state, err := e.results.ComputeOutcome(context.Background(), "lobby", domain.MiniGameStar)
	assert.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Nil(t, state)

	st, err := e.State("lobby")
	require.NoError(t, err)
	assert.Equal(t, domain.MiniGameStar, st.PendingMiniGame, "still waiting")
}

func TestResultsComputeRequiresPendingGame(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	pendingLobby(t, e, domain.MiniGameMini1, "A", "B")

	e.results.Submit("lobby", domain.MiniGameStar, "A", 5)
	e.results.Submit("lobby", domain.MiniGameStar, "B", 1)
	require.True(t, e.results.IsComplete("lobby", domain.MiniGameStar))

	_, _, err := e.results.ComputeOutcome(context.Background(), "lobby", domain.MiniGameStar)
	assert.ErrorIs(t, err, domain.ErrNoMiniGamePending)

	st, err := e.State("lobby")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, st.Scores)
	assert.Equal(t, 0, st.CurrentPlayer)
	assert.Equal(t, domain.MiniGameMini1, st.PendingMiniGame)
}

func TestResultsComputeAfterWin(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seed := pendingLobby(t, e, domain.MiniGameClicker, "A", "B")
	seed.Scores = []int{0, 5}
	seed.Winner = "B"
	e.states.Set("lobby", seed)

	e.results.Submit("lobby", domain.MiniGameClicker, "A", 100)
	_, _, err := e.results.ComputeOutcome(context.Background(), "lobby", domain.MiniGameClicker)
	assert.ErrorIs(t, err, domain.ErrGameOver)

	st, err := e.State("lobby")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5}, st.Scores)
}

func TestResultsWinnerNotInState(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	pendingLobby(t, e, domain.MiniGameClicker, "A", "B")

	e.results.Submit("lobby", domain.MiniGameClicker, "ghost", 100)

	outcome, state, err := e.results.ComputeOutcome(context.Background(), "lobby", domain.MiniGameClicker)
	require.NoError(t, err)
	assert.Equal(t, "ghost", outcome.WinnerNickname)
	assert.Equal(t, []int{0, 0}, state.Scores, "award skipped")
	assert.Equal(t, 1, state.CurrentPlayer, "processing continues")
}

func TestResultsSettleWinner(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	seed := pendingLobby(t, e, domain.MiniGameMini1, "A", "B")
	seed.Scores = []int{4, 4}
	e.states.Set("lobby", seed)

	e.results.Submit("lobby", domain.MiniGameMini1, "A", 1)
	e.results.Submit("lobby", domain.MiniGameMini1, "B", 9)

	_, state, err := e.results.ComputeOutcome(context.Background(), "lobby", domain.MiniGameMini1)
	require.NoError(t, err)
	assert.Equal(t, "B", state.Winner)
}
