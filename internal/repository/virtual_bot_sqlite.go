package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"game-lobby-server/internal/model"
)

// SQLiteVirtualBotStore stores virtual bot rows in a local SQLite file.
type SQLiteVirtualBotStore struct {
	db *sql.DB
}

// NewSQLiteVirtualBotStore wraps db and creates the schema.
func NewSQLiteVirtualBotStore(ctx context.Context, db *sql.DB) (*SQLiteVirtualBotStore, error) {
	s := &SQLiteVirtualBotStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteVirtualBotStore) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS virtual_bots (
    name TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    online_ticks INTEGER NOT NULL DEFAULT 0,
    target_online_ticks INTEGER NOT NULL DEFAULT 0,
    table_id TEXT,
    game_join_tick INTEGER NOT NULL DEFAULT 0,
    updated_at_ms INTEGER NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate virtual_bots: %w", err)
	}
	return nil
}

// SaveVirtualBot inserts or replaces the row for row.Name.
func (s *SQLiteVirtualBotStore) SaveVirtualBot(ctx context.Context, row model.VirtualBotRow) error {
	if err := validateRow(row); err != nil {
		return err
	}

	const query = `
INSERT INTO virtual_bots (name, state, online_ticks, target_online_ticks, table_id, game_join_tick, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    state = excluded.state,
    online_ticks = excluded.online_ticks,
    target_online_ticks = excluded.target_online_ticks,
    table_id = excluded.table_id,
    game_join_tick = excluded.game_join_tick,
    updated_at_ms = excluded.updated_at_ms`

	var tableID sql.NullString
	if row.TableID != nil {
		tableID = sql.NullString{String: *row.TableID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		row.Name,
		row.State,
		row.OnlineTicks,
		row.TargetOnlineTicks,
		tableID,
		row.GameJoinTick,
		now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save virtual bot: %w", err)
	}
	return nil
}

// GetVirtualBot retrieves one row by name.
func (s *SQLiteVirtualBotStore) GetVirtualBot(ctx context.Context, name string) (*model.VirtualBotRow, error) {
	const query = `
SELECT name, state, online_ticks, target_online_ticks, table_id, game_join_tick, updated_at_ms
FROM virtual_bots
WHERE name = ?`

	row, err := scanSQLiteRow(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVirtualBotNotFound
		}
		return nil, fmt.Errorf("failed to get virtual bot: %w", err)
	}
	return &row, nil
}

// LoadAllVirtualBots returns every stored row ordered by name.
func (s *SQLiteVirtualBotStore) LoadAllVirtualBots(ctx context.Context) ([]model.VirtualBotRow, error) {
	const query = `
SELECT name, state, online_ticks, target_online_ticks, table_id, game_join_tick, updated_at_ms
FROM virtual_bots
ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load virtual bots: %w", err)
	}
	defer rows.Close()

	var out []model.VirtualBotRow
	for rows.Next() {
		row, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan virtual bot: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating virtual bots: %w", err)
	}
	return out, nil
}

// DeleteAllVirtualBots removes every stored row.
func (s *SQLiteVirtualBotStore) DeleteAllVirtualBots(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM virtual_bots`); err != nil {
		return fmt.Errorf("failed to delete virtual bots: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteVirtualBotStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRow(sc rowScanner) (model.VirtualBotRow, error) {
	var (
		row       model.VirtualBotRow
		tableID   sql.NullString
		updatedMS int64
	)
	if err := sc.Scan(
		&row.Name,
		&row.State,
		&row.OnlineTicks,
		&row.TargetOnlineTicks,
		&tableID,
		&row.GameJoinTick,
		&updatedMS,
	); err != nil {
		return model.VirtualBotRow{}, err
	}
	if tableID.Valid {
		id := tableID.String
		row.TableID = &id
	}
	row.UpdatedAt = time.UnixMilli(updatedMS).UTC()
	return row, nil
}
