// Package scopa registers Scopa with the lobby.
// Italian fishing card game for two players or two teams.
package scopa

import "game-lobby-server/internal/game"

const (
	Type       = "scopa"
	Name       = "Scopa"
	MinPlayers = 2
	MaxPlayers = 4
)

// Game is a Scopa table.
type Game struct {
	*game.Base
}

// New creates a waiting Scopa game.
func New() *Game {
	return &Game{Base: game.NewBase(Type, Name, MinPlayers, MaxPlayers)}
}

// Descriptor returns the registry entry for Scopa.
func Descriptor() game.Descriptor {
	return game.NewDescriptor(Type, Name, func() game.Game { return New() })
}
