// Package game defines the lobby-facing game interface and the registry of
// game types. Rule engines live behind ExecuteAction; the lobby only needs
// membership, hosting and status.
package game

import (
	"errors"

	"game-lobby-server/internal/user"
)

// Game statuses.
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Action ids understood by every game.
const (
	ActionLeave = "leave"
	ActionStart = "start"
)

// Errors returned by game operations.
var (
	ErrGameFull         = errors.New("game is full")
	ErrGameStarted      = errors.New("game has already started")
	ErrAlreadyJoined    = errors.New("player already in game")
	ErrNotPlayer        = errors.New("player not in game")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrUnknownAction    = errors.New("unknown action")
)

// Player is a seat in a game.
type Player struct {
	Name string
	User user.User
}

// Game is implemented by every game type. Humans and virtual bots go through
// the same methods.
type Game interface {
	Type() string
	Name() string
	Status() string
	Host() string
	Players() []*Player
	MinPlayers() int
	MaxPlayers() int

	AddPlayer(name string, u user.User) error
	InitializeLobby(hostName string, u user.User) error
	PlayerByName(name string) *Player
	ExecuteAction(p *Player, actionID string) error

	BroadcastL(messageID string, fields map[string]any)
	BroadcastSound(name string)
}

// Descriptor describes a registered game type and builds new instances of it.
type Descriptor interface {
	Type() string
	Name() string
	New() Game
}

type descriptor struct {
	gameType string
	name     string
	factory  func() Game
}

// NewDescriptor creates a Descriptor from a type id, display name and factory.
func NewDescriptor(gameType, name string, factory func() Game) Descriptor {
	return &descriptor{gameType: gameType, name: name, factory: factory}
}

func (d *descriptor) Type() string { return d.gameType }
func (d *descriptor) Name() string { return d.name }
func (d *descriptor) New() Game    { return d.factory() }
