package domain

// PlayerRef identifies a seat in a game. The index of the ref inside
// GameState.Players is the player's turn order.
type PlayerRef struct {
	Nickname string `json:"nickname"`
}

// GameState is the authoritative turn-based state of one lobby
type GameState struct {
	RoomID          string      `json:"roomId"`
	Players         []PlayerRef `json:"players"`
	CurrentPlayer   int         `json:"currentPlayer"`
	Positions       []int       `json:"positions"`
	Scores          []int       `json:"scores"`
	LastDiceRoll    int         `json:"lastDiceRoll"`
	BoardTypes      []TileType  `json:"boardTypes"`
	PendingMiniGame MiniGame    `json:"pendingMiniGame,omitempty"`
	Winner          string      `json:"winner,omitempty"`
}

// NewGameState seats the given identities in order on a fresh board.
func NewGameState(roomID string, identities []string, board []TileType) *GameState {
	players := make([]PlayerRef, len(identities))
	for i, id := range identities {
		players[i] = PlayerRef{Nickname: id}
	}
	return &GameState{
		RoomID:     roomID,
		Players:    players,
		Positions:  make([]int, len(identities)),
		Scores:     make([]int, len(identities)),
		BoardTypes: board,
	}
}

// Clone returns a deep copy that can be handed out without sharing slices.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = append([]PlayerRef(nil), s.Players...)
	c.Positions = append([]int(nil), s.Positions...)
	c.Scores = append([]int(nil), s.Scores...)
	c.BoardTypes = append([]TileType(nil), s.BoardTypes...)
	return &c
}

// CurrentIdentity returns the identity allowed to roll.
func (s *GameState) CurrentIdentity() string {
	if len(s.Players) == 0 {
		return ""
	}
	return s.Players[s.CurrentPlayer].Nickname
}

// IndexOf returns the seat of identity, or -1.
func (s *GameState) IndexOf(identity string) int {
	for i, p := range s.Players {
		if p.Nickname == identity {
			return i
		}
	}
	return -1
}

// AdvanceTurn hands the turn to the next seat, wrapping around.
func (s *GameState) AdvanceTurn() {
	if len(s.Players) == 0 {
		return
	}
	s.CurrentPlayer = (s.CurrentPlayer + 1) % len(s.Players)
}

// Move advances the seat's pawn by steps, wrapping around the board, and
// returns the new position.
func (s *GameState) Move(seat, steps int) int {
	n := len(s.BoardTypes)
	s.Positions[seat] = (s.Positions[seat] + steps) % n
	return s.Positions[seat]
}

// HasWinner reports whether the game is over.
func (s *GameState) HasWinner() bool {
	return s.Winner != ""
}

// CheckWinner returns the first player, in seat order, whose score reached
// threshold. Ties go to the earlier seat regardless of score.
func (s *GameState) CheckWinner(threshold int) (string, bool) {
	for i, score := range s.Scores {
		if score >= threshold {
			return s.Players[i].Nickname, true
		}
	}
	return "", false
}

// SettleWinner records the winner once; an already settled winner is kept.
func (s *GameState) SettleWinner(threshold int) {
	if s.HasWinner() {
		return
	}
	if winner, ok := s.CheckWinner(threshold); ok {
		s.Winner = winner
	}
}
