package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucid-arena/internal/config"
	"github.com/lucid-arena/internal/domain"
)

const diceFaces = 6

// Engine runs the lobby protocol: joining, rolling, resolving tiles and
// mini-games, and declaring the winner. Once a winner is set the game is
// frozen and further rolls or results are rejected with domain.ErrGameOver.
type Engine struct {
	rooms     *Rooms
	states    *States
	results   *Results
	rng       Rand
	publisher Publisher
	logger    *slog.Logger

	winningScore     int
	instructionDelay time.Duration
}

// NewEngine wires the registry, store and aggregator for cfg. A nil rng
// falls back to DefaultRand.
func NewEngine(cfg *config.GameConfig, rng Rand, publisher Publisher, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game rules: %w", err)
	}
	if rng == nil {
		rng = DefaultRand()
	}
	board, err := NewBoardGenerator(rng, DefaultBoardWeights)
	if err != nil {
		return nil, fmt.Errorf("creating board generator: %w", err)
	}

	rooms := NewRooms()
	states := NewStates(rooms, board, cfg.TileCount)
	results := NewResults(rooms, states, cfg.PassScores(), cfg.WinningScore, logger)

	return &Engine{
		rooms:            rooms,
		states:           states,
		results:          results,
		rng:              rng,
		publisher:        publisher,
		logger:           logger,
		winningScore:     cfg.WinningScore,
		instructionDelay: cfg.InstructionDelay,
	}, nil
}

// CreateRoom registers roomID. Creating an existing room is a no-op.
func (e *Engine) CreateRoom(ctx context.Context, roomID string) {
	e.rooms.CreateRoom(roomID)
	e.logger.InfoContext(ctx, "room created", "lobby_id", roomID)
}

// JoinRoom adds identity to roomID and publishes the new player list.
func (e *Engine) JoinRoom(ctx context.Context, roomID, identity string) error {
	if !e.rooms.Exists(roomID) {
		return fmt.Errorf("joining %s: %w", roomID, domain.ErrRoomNotFound)
	}
	if !e.rooms.AddPlayer(roomID, identity) {
		return fmt.Errorf("joining %s: %w", roomID, domain.ErrAlreadyJoined)
	}
	e.logger.InfoContext(ctx, "player joined", "lobby_id", roomID, "player", identity)
	e.publisher.PublishPlayers(ctx, roomID, e.Players(roomID))
	return nil
}

// RoomExists reports whether roomID was created.
func (e *Engine) RoomExists(roomID string) bool {
	return e.rooms.Exists(roomID)
}

// Players lists the room's members in join order.
func (e *Engine) Players(roomID string) domain.LobbyPlayers {
	return domain.LobbyPlayers{RoomID: roomID, Players: e.rooms.Players(roomID)}
}

// State returns the lobby's game state, creating it on first access.
func (e *Engine) State(lobbyID string) (*domain.GameState, error) {
	return e.states.Get(lobbyID)
}

// Start publishes the opening state of the lobby's game.
func (e *Engine) Start(ctx context.Context, lobbyID string) (*domain.GameState, error) {
	state, err := e.states.Get(lobbyID)
	if err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "game started", "lobby_id", lobbyID, "players", len(state.Players))
	e.publisher.PublishStart(ctx, lobbyID, state)
	return state, nil
}

// Ping republishes the current state to the lobby.
func (e *Engine) Ping(ctx context.Context, lobbyID string) (*domain.GameState, error) {
	state, err := e.states.Get(lobbyID)
	if err != nil {
		return nil, err
	}
	e.publisher.PublishState(ctx, lobbyID, state)
	return state, nil
}

// CheckWinner returns the first player in seat order whose score reached
// the winning score.
func (e *Engine) CheckWinner(lobbyID string) (string, bool, error) {
	state, err := e.states.Get(lobbyID)
	if err != nil {
		return "", false, err
	}
	winner, ok := state.CheckWinner(e.winningScore)
	return winner, ok, nil
}

// Roll plays identity's turn: roll the die, move, apply the tile and either
// pass the turn or hold it for a mini-game.
func (e *Engine) Roll(ctx context.Context, lobbyID, identity string) (*domain.RollResult, error) {
	var result domain.RollResult

	state, err := e.states.Update(lobbyID, func(st *domain.GameState) error {
		if st.HasWinner() {
			return domain.ErrGameOver
		}
		if st.CurrentIdentity() != identity {
			return fmt.Errorf("%w: %s is playing", domain.ErrNotYourTurn, st.CurrentIdentity())
		}
		if st.PendingMiniGame != "" {
			return fmt.Errorf("%w: %s", domain.ErrMiniGamePending, st.PendingMiniGame)
		}

		seat := st.CurrentPlayer
		dice := e.rng.IntN(diceFaces) + 1
		st.LastDiceRoll = dice
		pos := st.Move(seat, dice)
		tile := st.BoardTypes[pos]

		switch tile {
		case domain.TileBonus:
			st.Scores[seat]++
			st.AdvanceTurn()
		case domain.TileMalus:
			st.Scores[seat]--
			st.AdvanceTurn()
		case domain.TileMulti, domain.TileSolo:
			games := domain.MiniGamesFor(tile)
			mg := games[e.rng.IntN(len(games))]
			st.PendingMiniGame = mg
			instruction := domain.MiniGameInstruction{MiniGameName: mg}
			if tile == domain.TileSolo {
				target := identity
				instruction.PlayerNickname = &target
			}
			result.Instruction = &instruction
		default:
			return fmt.Errorf("%w: %d at position %d", domain.ErrUnknownTileType, int(tile), pos)
		}

		st.SettleWinner(e.winningScore)
		result.Dice = dice
		result.Position = pos
		result.Tile = tile
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTileType) {
			e.logger.ErrorContext(ctx, "corrupted board", "lobby_id", lobbyID, "error", err)
		}
		return nil, err
	}
	result.State = state

	e.logger.InfoContext(ctx, "player rolled",
		"lobby_id", lobbyID,
		"player", identity,
		"dice", result.Dice,
		"tile", result.Tile.String(),
	)
	if state.HasWinner() {
		e.logger.InfoContext(ctx, "game won", "lobby_id", lobbyID, "winner", state.Winner)
	}

	e.publisher.PublishState(ctx, lobbyID, state)
	if result.Instruction != nil {
		e.publishInstruction(ctx, lobbyID, *result.Instruction)
	}
	return &result, nil
}

func (e *Engine) publishInstruction(ctx context.Context, lobbyID string, instruction domain.MiniGameInstruction) {
	if e.instructionDelay <= 0 {
		e.publisher.PublishInstruction(ctx, lobbyID, instruction)
		return
	}
	// give clients time to animate the move before the mini-game starts
	detached := context.WithoutCancel(ctx)
	time.AfterFunc(e.instructionDelay, func() {
		e.publisher.PublishInstruction(detached, lobbyID, instruction)
	})
}

// SubmitMiniGameResult stores player's score for the named mini-game and
// resolves it once complete. The outcome is nil while results are missing.
// Only the lobby's pending mini-game accepts results: a solo game from the
// player it targets, a multi game from any room member.
func (e *Engine) SubmitMiniGameResult(ctx context.Context, lobbyID, miniGameName, player string, score int) (*domain.MiniGameOutcome, error) {
	mg, err := domain.ParseMiniGame(miniGameName)
	if err != nil {
		return nil, err
	}

	err = e.states.View(lobbyID, func(st *domain.GameState) error {
		if st.HasWinner() {
			return domain.ErrGameOver
		}
		if st.PendingMiniGame != mg {
			return fmt.Errorf("%w: %s", domain.ErrNoMiniGamePending, mg)
		}
		if mg.IsSolo() {
			if player != st.CurrentIdentity() {
				return fmt.Errorf("%w: %s is playing %s", domain.ErrNotYourTurn, st.CurrentIdentity(), mg)
			}
		} else if !e.rooms.IsMember(lobbyID, player) {
			return fmt.Errorf("%w: %s", domain.ErrNotInRoom, player)
		}
		e.results.Submit(lobbyID, mg, player, score)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "mini-game result submitted",
		"lobby_id", lobbyID,
		"mini_game", mg,
		"player", player,
		"score", score,
	)
	if !e.results.IsComplete(lobbyID, mg) {
		return nil, nil
	}

	outcome, state, err := e.results.ComputeOutcome(ctx, lobbyID, mg)
	if errors.Is(err, domain.ErrNoMiniGamePending) {
		// a concurrent submission resolved it with this result counted
		e.logger.DebugContext(ctx, "mini-game already resolved", "lobby_id", lobbyID, "mini_game", mg)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, nil
	}

	e.publisher.PublishState(ctx, lobbyID, state)
	e.publisher.PublishOutcome(ctx, lobbyID, *outcome)
	return outcome, nil
}
