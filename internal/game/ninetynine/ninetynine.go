// Package ninetynine registers Ninety Nine with the lobby.
// Shedding game where the running total must not pass 99.
package ninetynine

import "game-lobby-server/internal/game"

const (
	Type       = "ninetynine"
	Name       = "Ninety Nine"
	MinPlayers = 2
	MaxPlayers = 6
)

type Game struct {
	*game.Base
}

func New() *Game {
	return &Game{Base: game.NewBase(Type, Name, MinPlayers, MaxPlayers)}
}

// Descriptor returns the registry entry for Ninety Nine.
func Descriptor() game.Descriptor {
	return game.NewDescriptor(Type, Name, func() game.Game { return New() })
}
