package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/lucid-arena/internal/domain"
)

var errNoResults = errors.New("no results to resolve")

// Results collects mini-game scores per lobby until a mini-game can be
// resolved, then applies the outcome to the lobby's game state.
type Results struct {
	rooms        *Rooms
	states       *States
	passScores   map[domain.MiniGame]int
	winningScore int
	logger       *slog.Logger

	pending sync.Map // lobby id -> *lobbyResults
}

type lobbyResults struct {
	mu    sync.Mutex
	games map[domain.MiniGame]map[string]int
}

// NewResults creates an aggregator. passScores holds the minimum score a
// solo player needs for the win to count.
func NewResults(rooms *Rooms, states *States, passScores map[domain.MiniGame]int, winningScore int, logger *slog.Logger) *Results {
	return &Results{
		rooms:        rooms,
		states:       states,
		passScores:   passScores,
		winningScore: winningScore,
		logger:       logger,
	}
}

func (r *Results) lobby(lobbyID string) *lobbyResults {
	v, _ := r.pending.LoadOrStore(lobbyID, &lobbyResults{games: make(map[domain.MiniGame]map[string]int)})
	return v.(*lobbyResults)
}

// Submit records player's score. A second submission by the same player
// replaces the first.
func (r *Results) Submit(lobbyID string, game domain.MiniGame, player string, score int) {
	lr := r.lobby(lobbyID)
	lr.mu.Lock()
	defer lr.mu.Unlock()

	scores, ok := lr.games[game]
	if !ok {
		scores = make(map[string]int)
		lr.games[game] = scores
	}
	scores[player] = score
}

// IsComplete reports whether enough results arrived to resolve game: one
// result for a solo game, one per room member for a multi game.
func (r *Results) IsComplete(lobbyID string, game domain.MiniGame) bool {
	lr := r.lobby(lobbyID)
	lr.mu.Lock()
	scores := lr.games[game]
	submitted := make(map[string]int, len(scores))
	for p, s := range scores {
		submitted[p] = s
	}
	lr.mu.Unlock()

	if len(submitted) == 0 {
		return false
	}
	if game.IsSolo() {
		return len(submitted) == 1
	}
	return r.rooms.HasAll(lobbyID, submitted)
}

// take removes and returns the pending scores for game.
func (r *Results) take(lobbyID string, game domain.MiniGame) map[string]int {
	lr := r.lobby(lobbyID)
	lr.mu.Lock()
	defer lr.mu.Unlock()

	scores, ok := lr.games[game]
	if !ok || len(scores) == 0 {
		return nil
	}
	delete(lr.games, game)
	return scores
}

// ComputeOutcome resolves game, clears its pending results, awards the
// winner, passes the turn and re-checks the end of the game. The game must be
// the lobby's pending mini-game and the lobby must not have a winner. It
// returns a nil outcome when no results are pending, which happens when a
// concurrent submission already resolved the mini-game.
func (r *Results) ComputeOutcome(ctx context.Context, lobbyID string, game domain.MiniGame) (*domain.MiniGameOutcome, *domain.GameState, error) {
	var outcome *domain.MiniGameOutcome

	state, err := r.states.Update(lobbyID, func(st *domain.GameState) error {
		if st.HasWinner() {
			return domain.ErrGameOver
		}
		if st.PendingMiniGame != game {
			return fmt.Errorf("%w: %s", domain.ErrNoMiniGamePending, game)
		}
		scores := r.take(lobbyID, game)
		if scores == nil {
			return errNoResults
		}

		outcome = r.decide(game, scores)
		if outcome.Awarded {
			if seat := st.IndexOf(outcome.WinnerNickname); seat >= 0 {
				st.Scores[seat]++
			} else {
				r.logger.WarnContext(ctx, "skipping mini-game award",
					"lobby_id", lobbyID,
					"mini_game", game,
					"player", outcome.WinnerNickname,
					"error", domain.ErrPlayerNotInState,
				)
			}
		}
		st.PendingMiniGame = ""
		st.AdvanceTurn()
		st.SettleWinner(r.winningScore)
		return nil
	})
	if errors.Is(err, errNoResults) {
		r.logger.InfoContext(ctx, "no results to resolve", "lobby_id", lobbyID, "mini_game", game)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("applying %s outcome: %w", game, err)
	}

	r.logger.InfoContext(ctx, "mini-game resolved",
		"lobby_id", lobbyID,
		"mini_game", game,
		"winner", outcome.WinnerNickname,
		"score", outcome.WinnerScore,
		"awarded", outcome.Awarded,
	)
	return outcome, state, nil
}

// decide picks the winner. Equal multi scores go to the lexicographically
// smallest identity.
func (r *Results) decide(game domain.MiniGame, scores map[string]int) *domain.MiniGameOutcome {
	players := make([]string, 0, len(scores))
	for p := range scores {
		players = append(players, p)
	}
	sort.Strings(players)

	if game.IsSolo() {
		player := players[0]
		score := scores[player]
		return &domain.MiniGameOutcome{
			MiniGameName:   game,
			WinnerNickname: player,
			WinnerScore:    score,
			Awarded:        score >= r.passScores[game],
		}
	}

	winner := players[0]
	for _, p := range players[1:] {
		if scores[p] > scores[winner] {
			winner = p
		}
	}
	return &domain.MiniGameOutcome{
		MiniGameName:   game,
		WinnerNickname: winner,
		WinnerScore:    scores[winner],
		Awarded:        true,
	}
}
