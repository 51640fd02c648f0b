// Package milebymile registers Mile by Mile with the lobby.
package milebymile

import "game-lobby-server/internal/game"

const (
	Type       = "milebymile"
	Name       = "Mile by Mile"
	MinPlayers = 2
	MaxPlayers = 6
)

// Game is a Mile by Mile table.
type Game struct {
	*game.Base
}

// New creates a waiting Mile by Mile game.
func New() *Game {
	return &Game{Base: game.NewBase(Type, Name, MinPlayers, MaxPlayers)}
}

// Descriptor returns the registry entry for Mile by Mile.
func Descriptor() game.Descriptor {
	return game.NewDescriptor(Type, Name, func() game.Game { return New() })
}
