package virtualbot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SaveState upserts a row for every tracked bot. It is meant for startup and
// shutdown, not for use while ticks are running.
func (m *Manager) SaveState(ctx context.Context) error {
	m.mu.Lock()
	names := m.sortedNames()
	bots := make([]*VirtualBot, 0, len(names))
	for _, name := range names {
		b := *m.bots[name]
		bots = append(bots, &b)
	}
	m.mu.Unlock()

	for _, b := range bots {
		if err := m.store.SaveVirtualBot(ctx, b.Row()); err != nil {
			return fmt.Errorf("failed to save virtual bot %s: %w", b.Name, err)
		}
	}

	log.Info().Int("bots", len(bots)).Msg("Virtual bot state saved")
	return nil
}

// LoadState restores every persisted bot that was online and whose name is
// still configured. Offline rows are skipped; those bots come back through
// FillServer. It returns how many bots made it back online.
func (m *Manager) LoadState(ctx context.Context) (int, error) {
	rows, err := m.store.LoadAllVirtualBots(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load virtual bots: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restored := 0
	for _, row := range rows {
		st, err := ParseState(row.State)
		if err != nil {
			log.Warn().Err(err).Str("bot", row.Name).Msg("Skipping stored virtual bot")
			continue
		}
		if st == StateOffline {
			continue
		}
		if !m.cfg.HasName(row.Name) {
			log.Info().Str("bot", row.Name).Msg("Stored virtual bot no longer configured, dropping")
			continue
		}
		if b, ok := m.bots[row.Name]; ok && b.IsOnline() {
			continue
		}

		b := NewVirtualBot(row.Name)
		b.State = st
		b.OnlineTicks = row.OnlineTicks
		b.TargetOnlineTicks = row.TargetOnlineTicks
		b.GameJoinTick = row.GameJoinTick
		if row.TableID != nil {
			b.TableID = *row.TableID
		}

		// keep table_id and state consistent even if the row was not
		switch {
		case b.AtTable() && b.TableID == "":
			b.State = StateOnlineIdle
			b.GameJoinTick = 0
		case !b.AtTable():
			b.TableID = ""
		}

		m.bots[b.Name] = b
		if m.restoreBotUser(b, false) {
			restored++
		}
	}

	log.Info().Int("rows", len(rows)).Int("restored", restored).Msg("Virtual bot state loaded")
	return restored, nil
}

// ClearBots removes every bot from its table and the registry, forgets them
// and purges persisted rows. It returns the bots cleared and the distinct
// tables they were pulled from.
func (m *Manager) ClearBots(ctx context.Context) (cleared, vacated int, err error) {
	m.mu.Lock()
	tables := make(map[string]struct{})
	for _, name := range m.sortedNames() {
		b := m.bots[name]
		if b.TableID != "" {
			if t := m.tables.GetTable(b.TableID); t != nil {
				tables[t.ID()] = struct{}{}
				if g := t.Game(); g != nil {
					g.BroadcastL(MessageBotRemoved, map[string]any{"player": b.Name})
				}
			}
			m.leaveCurrentTable(b)
		}
		m.users.RemoveBot(name)
	}
	cleared = len(m.bots)
	m.bots = make(map[string]*VirtualBot)
	m.mu.Unlock()

	vacated = len(tables)
	if err := m.store.DeleteAllVirtualBots(ctx); err != nil {
		return cleared, vacated, fmt.Errorf("failed to delete virtual bots: %w", err)
	}

	log.Info().Int("bots", cleared).Int("tables", vacated).Msg("Virtual bots cleared")
	return cleared, vacated, nil
}
