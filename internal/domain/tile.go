package domain

import (
	"encoding/json"
	"fmt"
)

// TileType is the effect carried by one cell of the board.
type TileType int

const (
	TileMulti TileType = iota
	TileSolo
	TileBonus
	TileMalus
)

// TileTypes lists every tile type in weight-table order.
var TileTypes = []TileType{TileMulti, TileSolo, TileBonus, TileMalus}

var tileLabels = map[TileType]string{
	TileMulti: "multi",
	TileSolo:  "solo",
	TileBonus: "bonus",
	TileMalus: "malus",
}

// String returns the wire label of the tile
func (t TileType) String() string {
	if label, ok := tileLabels[t]; ok {
		return label
	}
	return fmt.Sprintf("tile(%d)", int(t))
}

// Valid reports whether t is one of the known tile types
func (t TileType) Valid() bool {
	_, ok := tileLabels[t]
	return ok
}

// ParseTileType converts a wire label back to a TileType.
func ParseTileType(label string) (TileType, error) {
	for t, l := range tileLabels {
		if l == label {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTileType, label)
}

// MarshalJSON encodes the tile as its label so clients see "multi", "solo", ...
func (t TileType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTileType, int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tile label.
func (t *TileType) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, err := ParseTileType(label)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
