package domain

// MiniGameInstruction tells clients which mini-game to launch. PlayerNickname
// is nil for multi mini-games since every player participates.
type MiniGameInstruction struct {
	PlayerNickname *string  `json:"playerNickname"`
	MiniGameName   MiniGame `json:"miniGameName"`
}

// MiniGameOutcome is broadcast once a mini-game has been resolved.
// Awarded is false when a solo player missed the pass score.
type MiniGameOutcome struct {
	MiniGameName   MiniGame `json:"miniGameName"`
	WinnerNickname string   `json:"winnerNickname"`
	WinnerScore    int      `json:"winnerScore"`
	Awarded        bool     `json:"awarded"`
}

// MiniGameSubmission is one player's final score for a mini-game.
type MiniGameSubmission struct {
	LobbyID      string `json:"lobby_id"`
	MiniGameName string `json:"miniGameName"`
	Player       string `json:"player"`
	Score        int    `json:"score"`
}

// RollResult describes what happened during a roll.
type RollResult struct {
	Dice        int                  `json:"dice"`
	Position    int                  `json:"position"`
	Tile        TileType             `json:"tile"`
	State       *GameState           `json:"state"`
	Instruction *MiniGameInstruction `json:"instruction,omitempty"`
}

// LobbyPlayers lists who joined a room.
type LobbyPlayers struct {
	RoomID  string   `json:"roomId"`
	Players []string `json:"players"`
}
