package domain

import "time"

// PlayerProfile is the persisted identity of a player, keyed by the subject
// of their identity-provider token.
type PlayerProfile struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayerInfo is a lightweight player information struct used for caching
type PlayerInfo struct {
	Subject  string `json:"sub"`
	Nickname string `json:"nickname"`
}
