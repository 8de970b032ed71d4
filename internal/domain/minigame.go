package domain

import "fmt"

// MiniGame names an external scoring activity triggered by Multi and Solo tiles.
type MiniGame string

const (
	MiniGameMini1   MiniGame = "mini1"
	MiniGameStar    MiniGame = "StarGame"
	MiniGameClicker MiniGame = "ClickerGame"
	MiniGameRaining MiniGame = "rainingGame"
)

// MiniGameKind tells how many participants a mini-game resolves with.
type MiniGameKind string

const (
	MiniGameKindMulti MiniGameKind = "multi"
	MiniGameKindSolo  MiniGameKind = "solo"
)

// MultiMiniGames are drawn from when a player lands on a Multi tile.
var MultiMiniGames = []MiniGame{MiniGameMini1, MiniGameStar}

// SoloMiniGames are drawn from when a player lands on a Solo tile.
var SoloMiniGames = []MiniGame{MiniGameClicker, MiniGameRaining}

// Default pass scores for the solo mini-games.
const (
	DefaultClickerPassScore = 80
	DefaultRainingPassScore = 10
)

// ParseMiniGame validates a mini-game name received from a client.
func ParseMiniGame(name string) (MiniGame, error) {
	switch g := MiniGame(name); g {
	case MiniGameMini1, MiniGameStar, MiniGameClicker, MiniGameRaining:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMiniGame, name)
	}
}

// Kind returns whether the mini-game is played by one player or by the whole lobby.
func (g MiniGame) Kind() MiniGameKind {
	switch g {
	case MiniGameClicker, MiniGameRaining:
		return MiniGameKindSolo
	default:
		return MiniGameKindMulti
	}
}

// IsSolo is shorthand for Kind() == MiniGameKindSolo
func (g MiniGame) IsSolo() bool {
	return g.Kind() == MiniGameKindSolo
}

// MiniGamesFor returns the fixed set a tile draws its mini-game from.
// Bonus and Malus tiles never trigger a mini-game.
func MiniGamesFor(t TileType) []MiniGame {
	switch t {
	case TileMulti:
		return MultiMiniGames
	case TileSolo:
		return SoloMiniGames
	default:
		return nil
	}
}
