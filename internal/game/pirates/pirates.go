// Package pirates registers Pirates of the Lost Seas with the lobby. The
// lobby only seats sailors; voyages, combat and leveling run in the rule engine.
package pirates

import "game-lobby-server/internal/game"

const (
	Type       = "pirates"
	Name       = "Pirates of the Lost Seas"
	MinPlayers = 1
	MaxPlayers = 5
)

// Game is a Pirates of the Lost Seas table.
type Game struct {
	*game.Base
}

// New creates a waiting Pirates of the Lost Seas game.
func New() *Game {
	return &Game{Base: game.NewBase(Type, Name, MinPlayers, MaxPlayers)}
}

// Descriptor returns the registry entry for Pirates of the Lost Seas.
func Descriptor() game.Descriptor {
	return game.NewDescriptor(Type, Name, func() game.Game { return New() })
}
