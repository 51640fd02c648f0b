// Package table holds lobby tables: a game instance plus the users seated or
// watching at it.
package table

import (
	"sync"

	"game-lobby-server/internal/game"
	"game-lobby-server/internal/user"
)

// Member is a user attached to a table.
type Member struct {
	Name      string
	User      user.User
	Spectator bool
}

// Table is one lobby table.
type Table struct {
	mu       sync.RWMutex
	id       string
	gameType string
	hostName string
	game     game.Game
	members  []Member
}

// ID returns the table id.
func (t *Table) ID() string { return t.id }

// GameType returns the type the table was created for.
func (t *Table) GameType() string { return t.gameType }

// HostName returns the name of the user that created the table.
func (t *Table) HostName() string { return t.hostName }

// Game returns the table's game, or nil before one is attached.
func (t *Table) Game() game.Game {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.game
}

// SetGame attaches g to the table.
func (t *Table) SetGame(g game.Game) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.game = g
}

// AddMember attaches a user; re-adding an existing name updates it.
func (t *Table) AddMember(name string, u user.User, asSpectator bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.members {
		if t.members[i].Name == name {
			t.members[i] = Member{Name: name, User: u, Spectator: asSpectator}
			return
		}
	}
	t.members = append(t.members, Member{Name: name, User: u, Spectator: asSpectator})
}

// RemoveMember detaches a user. Unknown names are ignored.
func (t *Table) RemoveMember(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.members {
		if t.members[i].Name == name {
			t.members = append(t.members[:i], t.members[i+1:]...)
			return
		}
	}
}

// HasMember reports whether name is attached to the table.
func (t *Table) HasMember(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.members {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Members returns a copy of the member list.
func (t *Table) Members() []Member {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Member, len(t.members))
	copy(out, t.members)
	return out
}

// IsWaiting reports whether the table accepts new players.
func (t *Table) IsWaiting() bool {
	g := t.Game()
	if g == nil || g.Status() != game.StatusWaiting {
		return false
	}
	return g.MaxPlayers() <= 0 || len(g.Players()) < g.MaxPlayers()
}
