// Package model defines the persisted data models for the lobby server.
package model

import "time"

// Virtual bot state values as stored in the virtual_bots table.
const (
	BotStateOffline     = "offline"
	BotStateOnlineIdle  = "online_idle"
	BotStateInGame      = "in_game"
	BotStateLeavingGame = "leaving_game"
)

// VirtualBotRow is one persisted virtual bot.
type VirtualBotRow struct {
	Name              string    `db:"name"`
	State             string    `db:"state"`
	OnlineTicks       int       `db:"online_ticks"`
	TargetOnlineTicks int       `db:"target_online_ticks"`
	TableID           *string   `db:"table_id"`
	GameJoinTick      int64     `db:"game_join_tick"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// ValidBotState reports whether s is one of the stored state values.
func ValidBotState(s string) bool {
	switch s {
	case BotStateOffline, BotStateOnlineIdle, BotStateInGame, BotStateLeavingGame:
		return true
	default:
		return false
	}
}
