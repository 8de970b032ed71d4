package game

import (
	"context"

	"github.com/lucid-arena/internal/domain"
)

// Publisher delivers engine events to a lobby's subscribers. Implementations
// must not block the caller for long; delivery is fire-and-forget.
type Publisher interface {
	PublishPlayers(ctx context.Context, lobbyID string, players domain.LobbyPlayers)
	PublishStart(ctx context.Context, lobbyID string, state *domain.GameState)
	PublishState(ctx context.Context, lobbyID string, state *domain.GameState)
	PublishInstruction(ctx context.Context, lobbyID string, instruction domain.MiniGameInstruction)
	PublishOutcome(ctx context.Context, lobbyID string, outcome domain.MiniGameOutcome)
}

// FanOut forwards every event to each publisher in turn.
type FanOut []Publisher

func (f FanOut) PublishPlayers(ctx context.Context, lobbyID string, players domain.LobbyPlayers) {
	for _, p := range f {
		p.PublishPlayers(ctx, lobbyID, players)
	}
}

func (f FanOut) PublishStart(ctx context.Context, lobbyID string, state *domain.GameState) {
	for _, p := range f {
		p.PublishStart(ctx, lobbyID, state)
	}
}

func (f FanOut) PublishState(ctx context.Context, lobbyID string, state *domain.GameState) {
	for _, p := range f {
		p.PublishState(ctx, lobbyID, state)
	}
}

func (f FanOut) PublishInstruction(ctx context.Context, lobbyID string, instruction domain.MiniGameInstruction) {
	for _, p := range f {
		p.PublishInstruction(ctx, lobbyID, instruction)
	}
}

func (f FanOut) PublishOutcome(ctx context.Context, lobbyID string, outcome domain.MiniGameOutcome) {
	for _, p := range f {
		p.PublishOutcome(ctx, lobbyID, outcome)
	}
}
