package repository

import (
	"context"
	"sort"
	"sync"

	"game-lobby-server/internal/model"
)

// MemoryVirtualBotStore keeps rows in process memory. State is lost on exit.
type MemoryVirtualBotStore struct {
	mu   sync.Mutex
	rows map[string]model.VirtualBotRow
}

// NewMemoryVirtualBotStore creates an empty store.
func NewMemoryVirtualBotStore() *MemoryVirtualBotStore {
	return &MemoryVirtualBotStore{rows: make(map[string]model.VirtualBotRow)}
}

func (s *MemoryVirtualBotStore) SaveVirtualBot(_ context.Context, row model.VirtualBotRow) error {
	if err := validateRow(row); err != nil {
		return err
	}
	if row.TableID != nil {
		id := *row.TableID
		row.TableID = &id
	}
	row.UpdatedAt = now()

	s.mu.Lock()
	s.rows[row.Name] = row
	s.mu.Unlock()
	return nil
}

func (s *MemoryVirtualBotStore) GetVirtualBot(_ context.Context, name string) (*model.VirtualBotRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[name]
	if !ok {
		return nil, ErrVirtualBotNotFound
	}
	return &row, nil
}

func (s *MemoryVirtualBotStore) LoadAllVirtualBots(_ context.Context) ([]model.VirtualBotRow, error) {
	s.mu.Lock()
	out := make([]model.VirtualBotRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryVirtualBotStore) DeleteAllVirtualBots(_ context.Context) error {
	s.mu.Lock()
	s.rows = make(map[string]model.VirtualBotRow)
	s.mu.Unlock()
	return nil
}

func (s *MemoryVirtualBotStore) Close() error { return nil }
