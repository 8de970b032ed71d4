package game

import (
	"fmt"
	"sync"

	"github.com/lucid-arena/internal/domain"
)

// States owns the game state of every lobby. Each lobby has its own lock so
// read-modify-write sequences on one lobby are serialised while different
// lobbies proceed independently.
type States struct {
	rooms     *Rooms
	board     *BoardGenerator
	tileCount int

	entries sync.Map // lobby id -> *stateEntry
}

type stateEntry struct {
	mu    sync.Mutex
	state *domain.GameState
}

// NewStates creates a store that seeds new games from rooms and board.
func NewStates(rooms *Rooms, board *BoardGenerator, tileCount int) *States {
	return &States{
		rooms:     rooms,
		board:     board,
		tileCount: tileCount,
	}
}

// entry returns the lobby's slot. Slots are only allocated for rooms with
// players, so lookups of unknown lobbies leave the store untouched.
func (s *States) entry(lobbyID string) (*stateEntry, error) {
	if v, ok := s.entries.Load(lobbyID); ok {
		return v.(*stateEntry), nil
	}
	if len(s.rooms.Players(lobbyID)) == 0 {
		return nil, fmt.Errorf("lobby %s: %w", lobbyID, domain.ErrEmptyRoom)
	}
	v, _ := s.entries.LoadOrStore(lobbyID, &stateEntry{})
	return v.(*stateEntry), nil
}

// ensure must be called with e.mu held.
func (s *States) ensure(lobbyID string, e *stateEntry) error {
	if e.state != nil {
		return nil
	}
	players := s.rooms.Players(lobbyID)
	if len(players) == 0 {
		return fmt.Errorf("lobby %s: %w", lobbyID, domain.ErrEmptyRoom)
	}
	e.state = domain.NewGameState(lobbyID, players, s.board.Generate(s.tileCount))
	return nil
}

// Get returns a copy of the lobby's state, creating it from the room's
// current players on first access.
func (s *States) Get(lobbyID string) (*domain.GameState, error) {
	e, err := s.entry(lobbyID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.ensure(lobbyID, e); err != nil {
		return nil, err
	}
	return e.state.Clone(), nil
}

// Set overwrites the lobby's state. Last writer wins.
func (s *States) Set(lobbyID string, state *domain.GameState) {
	v, _ := s.entries.LoadOrStore(lobbyID, &stateEntry{})
	e := v.(*stateEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state.Clone()
}

// Update runs fn on a working copy of the lobby's state under the lobby
// lock and commits it only when fn succeeds. The committed state is returned.
func (s *States) Update(lobbyID string, fn func(*domain.GameState) error) (*domain.GameState, error) {
	e, err := s.entry(lobbyID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.ensure(lobbyID, e); err != nil {
		return nil, err
	}
	working := e.state.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.state = working
	return working.Clone(), nil
}

// View runs fn against the lobby's state under the lobby lock without
// committing anything. fn must not modify the state.
func (s *States) View(lobbyID string, fn func(*domain.GameState) error) error {
	e, err := s.entry(lobbyID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.ensure(lobbyID, e); err != nil {
		return err
	}
	return fn(e.state)
}
