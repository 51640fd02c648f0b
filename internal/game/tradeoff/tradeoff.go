// Package tradeoff registers Tradeoff with the lobby.
package tradeoff

import "game-lobby-server/internal/game"

const (
	Type       = "tradeoff"
	Name       = "Tradeoff"
	MinPlayers = 2
	MaxPlayers = 5
)

// Game is a Tradeoff table.
type Game struct {
	*game.Base
}

// New creates a waiting Tradeoff game.
func New() *Game {
	return &Game{Base: game.NewBase(Type, Name, MinPlayers, MaxPlayers)}
}

// Descriptor returns the registry entry for Tradeoff.
func Descriptor() game.Descriptor {
	return game.NewDescriptor(Type, Name, func() game.Game { return New() })
}
