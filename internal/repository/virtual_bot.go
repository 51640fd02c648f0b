// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"game-lobby-server/internal/model"
)

// Common errors for repository operations.
var (
	ErrVirtualBotNotFound = errors.New("virtual bot not found")
	ErrInvalidVirtualBot  = errors.New("invalid virtual bot row")
)

// VirtualBotSchema creates the virtual_bots table in PostgreSQL.
const VirtualBotSchema = `
	CREATE TABLE IF NOT EXISTS virtual_bots (
		name VARCHAR(255) PRIMARY KEY,
		state VARCHAR(32) NOT NULL,
		online_ticks INTEGER NOT NULL DEFAULT 0,
		target_online_ticks INTEGER NOT NULL DEFAULT 0,
		table_id VARCHAR(64),
		game_join_tick BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// VirtualBotRepository stores virtual bot rows in PostgreSQL.
type VirtualBotRepository struct {
	pool *pgxpool.Pool
}

// NewVirtualBotRepository creates a new VirtualBotRepository instance.
func NewVirtualBotRepository(pool *pgxpool.Pool) *VirtualBotRepository {
	return &VirtualBotRepository{pool: pool}
}

// Migrate creates the virtual_bots table if it does not exist.
func (r *VirtualBotRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, VirtualBotSchema); err != nil {
		return fmt.Errorf("failed to migrate virtual_bots: %w", err)
	}
	return nil
}

// SaveVirtualBot inserts or replaces the row for row.Name.
func (r *VirtualBotRepository) SaveVirtualBot(ctx context.Context, row model.VirtualBotRow) error {
	if err := validateRow(row); err != nil {
		return err
	}

	const query = `
		INSERT INTO virtual_bots (name, state, online_ticks, target_online_ticks, table_id, game_join_tick, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (name) DO UPDATE SET
			state = EXCLUDED.state,
			online_ticks = EXCLUDED.online_ticks,
			target_online_ticks = EXCLUDED.target_online_ticks,
			table_id = EXCLUDED.table_id,
			game_join_tick = EXCLUDED.game_join_tick,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		row.Name,
		row.State,
		row.OnlineTicks,
		row.TargetOnlineTicks,
		row.TableID,
		row.GameJoinTick,
	)
	if err != nil {
		return fmt.Errorf("failed to save virtual bot: %w", err)
	}
	return nil
}

// GetVirtualBot retrieves one row by name.
// Returns ErrVirtualBotNotFound if there is no such row.
func (r *VirtualBotRepository) GetVirtualBot(ctx context.Context, name string) (*model.VirtualBotRow, error) {
	const query = `
		SELECT name, state, online_ticks, target_online_ticks, table_id, game_join_tick, updated_at
		FROM virtual_bots
		WHERE name = $1
	`

	var row model.VirtualBotRow
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&row.Name,
		&row.State,
		&row.OnlineTicks,
		&row.TargetOnlineTicks,
		&row.TableID,
		&row.GameJoinTick,
		&row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVirtualBotNotFound
		}
		return nil, fmt.Errorf("failed to get virtual bot: %w", err)
	}
	return &row, nil
}

// LoadAllVirtualBots returns every stored row ordered by name.
func (r *VirtualBotRepository) LoadAllVirtualBots(ctx context.Context) ([]model.VirtualBotRow, error) {
	const query = `
		SELECT name, state, online_ticks, target_online_ticks, table_id, game_join_tick, updated_at
		FROM virtual_bots
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load virtual bots: %w", err)
	}
	defer rows.Close()

	var out []model.VirtualBotRow
	for rows.Next() {
		var row model.VirtualBotRow
		if err := rows.Scan(
			&row.Name,
			&row.State,
			&row.OnlineTicks,
			&row.TargetOnlineTicks,
			&row.TableID,
			&row.GameJoinTick,
			&row.UpdatedAt,
		); err != nil {
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
func (r *VirtualBotRepository) DeleteAllVirtualBots(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM virtual_bots`); err != nil {
		return fmt.Errorf("failed to delete virtual bots: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *VirtualBotRepository) Close() error {
	r.pool.Close()
	return nil
}

func validateRow(row model.VirtualBotRow) error {
	switch {
	case row.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidVirtualBot)
	case !model.ValidBotState(row.State):
		return fmt.Errorf("%w: unknown state %q", ErrInvalidVirtualBot, row.State)
	case row.OnlineTicks < 0 || row.TargetOnlineTicks < 0:
		return fmt.Errorf("%w: negative ticks", ErrInvalidVirtualBot)
	}
	return nil
}
