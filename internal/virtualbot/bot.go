// Package virtualbot simulates a lobby population: named bot identities that
// come online, join or host tables, play, leave and log off on a tick clock.
package virtualbot

import (
	"fmt"

	"game-lobby-server/internal/model"
)

// State is a virtual bot's lifecycle state.
type State int

const (
	StateOffline State = iota
	StateOnlineIdle
	StateInGame
	StateLeavingGame
)

// String returns the persisted value of s.
func (s State) String() string {
	switch s {
	case StateOffline:
		return model.BotStateOffline
	case StateOnlineIdle:
		return model.BotStateOnlineIdle
	case StateInGame:
		return model.BotStateInGame
	case StateLeavingGame:
		return model.BotStateLeavingGame
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState converts a persisted value back into a State.
func ParseState(s string) (State, error) {
	switch s {
	case model.BotStateOffline:
		return StateOffline, nil
	case model.BotStateOnlineIdle:
		return StateOnlineIdle, nil
	case model.BotStateInGame:
		return StateInGame, nil
	case model.BotStateLeavingGame:
		return StateLeavingGame, nil
	default:
		return StateOffline, fmt.Errorf("unknown virtual bot state %q", s)
	}
}

// VirtualBot is one simulated identity. The Manager owns every transition;
// this type only carries data.
type VirtualBot struct {
	Name  string
	State State

	// OnlineTicks counts ticks spent online since the bot last came online.
	OnlineTicks       int
	TargetOnlineTicks int

	// CooldownTicks is how long an offline bot waits before trying to log in.
	CooldownTicks int

	// ThinkTicks counts up to ThinkTarget, at which point the bot decides
	// what to do next.
	ThinkTicks  int
	ThinkTarget int

	// TableID is empty unless the bot is in or leaving a game.
	TableID         string
	GameJoinTick    int64
	LogoutAfterGame bool
}

// NewVirtualBot creates an offline bot.
func NewVirtualBot(name string) *VirtualBot {
	return &VirtualBot{Name: name, State: StateOffline}
}

// IsOnline reports whether the bot is visible in the user registry.
func (b *VirtualBot) IsOnline() bool { return b.State != StateOffline }

// AtTable reports whether the state requires a table.
func (b *VirtualBot) AtTable() bool {
	return b.State == StateInGame || b.State == StateLeavingGame
}

// Row converts the bot into its persisted form.
func (b *VirtualBot) Row() model.VirtualBotRow {
	row := model.VirtualBotRow{
		Name:              b.Name,
		State:             b.State.String(),
		OnlineTicks:       b.OnlineTicks,
		TargetOnlineTicks: b.TargetOnlineTicks,
		GameJoinTick:      b.GameJoinTick,
	}
	if b.TableID != "" {
		id := b.TableID
		row.TableID = &id
	}
	return row
}
