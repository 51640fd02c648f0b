package game

import (
	"fmt"
	"sync"

	"game-lobby-server/internal/user"
)

// Sounds played by the lobby part of every game.
const (
	SoundJoin  = "join.ogg"
	SoundLeave = "leave.ogg"
	SoundStart = "gamestart.ogg"
)

// Base implements the lobby side of Game. Variants embed it.
type Base struct {
	mu         sync.RWMutex
	gameType   string
	name       string
	minPlayers int
	maxPlayers int
	status     string
	host       string
	players    []*Player
}

// NewBase creates an empty waiting game.
func NewBase(gameType, name string, minPlayers, maxPlayers int) *Base {
	return &Base{
		gameType:   gameType,
		name:       name,
		minPlayers: minPlayers,
		maxPlayers: maxPlayers,
		status:     StatusWaiting,
	}
}

func (b *Base) Type() string    { return b.gameType }
func (b *Base) Name() string    { return b.name }
func (b *Base) MinPlayers() int { return b.minPlayers }
func (b *Base) MaxPlayers() int { return b.maxPlayers }

func (b *Base) Status() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *Base) Host() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.host
}

// Players returns a copy of the seated players in join order.
func (b *Base) Players() []*Player {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Player, len(b.players))
	copy(out, b.players)
	return out
}

// PlayerByName returns the seated player with that name, or nil.
func (b *Base) PlayerByName(name string) *Player {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.findLocked(name)
}

func (b *Base) findLocked(name string) *Player {
	for _, p := range b.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// InitializeLobby resets the game to a waiting lobby hosted by hostName.
func (b *Base) InitializeLobby(hostName string, u user.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.host = hostName
	b.status = StatusWaiting
	b.players = []*Player{{Name: hostName, User: u}}
	return nil
}

// AddPlayer seats a player in a waiting game.
func (b *Base) AddPlayer(name string, u user.User) error {
	b.mu.Lock()
	switch {
	case b.status != StatusWaiting:
		b.mu.Unlock()
		return ErrGameStarted
	case b.findLocked(name) != nil:
		b.mu.Unlock()
		return ErrAlreadyJoined
	case b.maxPlayers > 0 && len(b.players) >= b.maxPlayers:
		b.mu.Unlock()
		return ErrGameFull
	}
	b.players = append(b.players, &Player{Name: name, User: u})
	if b.host == "" {
		b.host = name
	}
	b.mu.Unlock()

	b.BroadcastSound(SoundJoin)
	return nil
}

// ExecuteAction runs a lobby action for p.
func (b *Base) ExecuteAction(p *Player, actionID string) error {
	if p == nil {
		return ErrNotPlayer
	}
	switch actionID {
	case ActionLeave:
		return b.leave(p.Name)
	case ActionStart:
		return b.start(p.Name)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, actionID)
	}
}

func (b *Base) leave(name string) error {
	b.mu.Lock()
	idx := -1
	for i, p := range b.players {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return ErrNotPlayer
	}
	b.players = append(b.players[:idx], b.players[idx+1:]...)

	if b.host == name {
		b.host = ""
		if len(b.players) > 0 {
			b.host = b.players[0].Name
		}
	}
	switch {
	case len(b.players) == 0:
		b.status = StatusFinished
	case b.status == StatusPlaying && len(b.players) < b.minPlayers:
		b.status = StatusFinished
	}
	b.mu.Unlock()

	b.BroadcastL("table-left", map[string]any{"player": name})
	b.BroadcastSound(SoundLeave)
	return nil
}

func (b *Base) start(name string) error {
	b.mu.Lock()
	switch {
	case b.host != name:
		b.mu.Unlock()
		return ErrNotHost
	case b.status != StatusWaiting:
		b.mu.Unlock()
		return ErrGameStarted
	case len(b.players) < b.minPlayers:
		b.mu.Unlock()
		return ErrNotEnoughPlayers
	}
	b.status = StatusPlaying
	b.mu.Unlock()

	b.BroadcastL("game-started", map[string]any{"game": b.name})
	b.BroadcastSound(SoundStart)
	return nil
}

// BroadcastL speaks a localized message to every seated player.
func (b *Base) BroadcastL(messageID string, fields map[string]any) {
	for _, p := range b.Players() {
		if p.User != nil {
			p.User.SpeakL(messageID, fields)
		}
	}
}

// BroadcastSound plays a sound for every seated player.
func (b *Base) BroadcastSound(name string) {
	for _, p := range b.Players() {
		if p.User != nil {
			p.User.PlaySound(name)
		}
	}
}
