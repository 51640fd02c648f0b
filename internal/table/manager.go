package table

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"game-lobby-server/internal/user"
)

// Errors returned by the table manager.
var (
	ErrUnknownGameType = errors.New("unknown game type")
	ErrTableNotFound   = errors.New("table not found")
)

// GameTypes tells the manager which game types exist.
type GameTypes interface {
	Types() []string
}

type entry struct {
	table   *Table
	created time.Time
}

// Manager owns every live table.
type Manager struct {
	mu     sync.RWMutex
	tables map[string]*entry
	types  GameTypes
}

// NewManager creates an empty table manager. types may be nil to accept any type.
func NewManager(types GameTypes) *Manager {
	return &Manager{
		tables: make(map[string]*entry),
		types:  types,
	}
}

// CreateTable creates a table hosted by hostName with the host as its first
// member. The caller attaches and initializes the game.
func (m *Manager) CreateTable(gameType, hostName string, u user.User) (*Table, error) {
	if !m.knownType(gameType) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGameType, gameType)
	}

	t := &Table{
		id:       uuid.NewString(),
		gameType: gameType,
		hostName: hostName,
	}
	t.AddMember(hostName, u, false)

	m.mu.Lock()
	m.tables[t.id] = &entry{table: t, created: time.Now()}
	m.mu.Unlock()

	log.Info().Str("table_id", t.id).Str("game", gameType).Str("host", hostName).Msg("Table created")
	return t, nil
}

func (m *Manager) knownType(gameType string) bool {
	if gameType == "" {
		return false
	}
	if m.types == nil {
		return true
	}
	for _, t := range m.types.Types() {
		if t == gameType {
			return true
		}
	}
	return false
}

// GetTable returns a table by id, or nil.
func (m *Manager) GetTable(id string) *Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.tables[id]; ok {
		return e.table
	}
	return nil
}

// RemoveTable drops a table. Unknown ids are ignored.
func (m *Manager) RemoveTable(id string) {
	m.mu.Lock()
	_, ok := m.tables[id]
	delete(m.tables, id)
	m.mu.Unlock()

	if ok {
		log.Info().Str("table_id", id).Msg("Table removed")
	}
}

// AllTables returns every table, oldest first.
func (m *Manager) AllTables() []*Table {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.tables))
	for _, e := range m.tables {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].created.Before(entries[j].created)
	})
	out := make([]*Table, len(entries))
	for i, e := range entries {
		out[i] = e.table
	}
	return out
}

// WaitingTables returns tables whose game is waiting and has an open seat.
func (m *Manager) WaitingTables() []*Table {
	var out []*Table
	for _, t := range m.AllTables() {
		if t.IsWaiting() {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of live tables.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}
