package domain

import "errors"

// Domain errors
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrAlreadyJoined       = errors.New("player already joined the room")
	ErrEmptyRoom           = errors.New("no players in the room to initialize game state")
	ErrNotYourTurn         = errors.New("it's not your turn")
	ErrMiniGamePending     = errors.New("mini-game outcome still pending")
	ErrNoMiniGamePending   = errors.New("mini-game is not in progress")
	ErrNotInRoom           = errors.New("player is not in the room")
	ErrGameOver            = errors.New("game already has a winner")
	ErrUnknownTileType     = errors.New("unknown tile type")
	ErrUnknownMiniGame     = errors.New("unknown mini-game")
	ErrPlayerNotInState    = errors.New("player not found in game state")
	ErrUnknownPlayer       = errors.New("unknown player")
	ErrInvalidBoardWeights = errors.New("invalid board weight table")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalError       = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrUnknownPlayer)
}

// IsConflictError reports errors caused by acting against the current game
// state rather than by a malformed request.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrMiniGamePending) ||
		errors.Is(err, ErrNoMiniGamePending) ||
		errors.Is(err, ErrNotInRoom) ||
		errors.Is(err, ErrGameOver) ||
		errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrEmptyRoom)
}
