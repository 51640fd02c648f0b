// Package yahtzee registers Yahtzee with the lobby.
// Five-dice scoring game; may be played solo.
package yahtzee

import "game-lobby-server/internal/game"

const (
	Type       = "yahtzee"
	Name       = "Yahtzee"
	MinPlayers = 1
	MaxPlayers = 4
)

// Game is a Yahtzee table.
type Game struct {
	*game.Base
}

// New creates a waiting Yahtzee game.
func New() *Game {
	return &Game{Base: game.NewBase(Type, Name, MinPlayers, MaxPlayers)}
}

// Descriptor returns the registry entry for Yahtzee.
func Descriptor() game.Descriptor {
	return game.NewDescriptor(Type, Name, func() game.Game { return New() })
}
