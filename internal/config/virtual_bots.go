package config

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const virtualBotsSection = "virtual_bots"

// Virtual bot defaults, in ticks unless stated otherwise.
const (
	DefaultMinIdleTicks     = 20
	DefaultMaxIdleTicks     = 100
	DefaultMinOnlineTicks   = 1200
	DefaultMaxOnlineTicks   = 6000
	DefaultMinOfflineTicks  = 200
	DefaultMaxOfflineTicks  = 1200
	DefaultMaxTablesPerGame = 0

	DefaultJoinChance      = 0.5
	DefaultCreateChance    = 0.25
	DefaultGoOfflineChance = 0.3
	DefaultLeaveGameChance = 0.05
	DefaultLogoutChance    = 0.33
	DefaultStartGameChance = 0.5
)

// VirtualBotsConfig holds the [virtual_bots] section.
type VirtualBotsConfig struct {
	Names []string

	MinIdleTicks    int
	MaxIdleTicks    int
	MinOnlineTicks  int
	MaxOnlineTicks  int
	MinOfflineTicks int
	MaxOfflineTicks int

	// MaxTablesPerGame caps bot-hosted tables per game type; 0 means unlimited.
	MaxTablesPerGame int

	JoinChance      float64
	CreateChance    float64
	GoOfflineChance float64
	LeaveGameChance float64
	LogoutChance    float64
	StartGameChance float64
}

// DefaultVirtualBots returns the defaults with an empty name pool.
func DefaultVirtualBots() VirtualBotsConfig {
	return VirtualBotsConfig{
		MinIdleTicks:     DefaultMinIdleTicks,
		MaxIdleTicks:     DefaultMaxIdleTicks,
		MinOnlineTicks:   DefaultMinOnlineTicks,
		MaxOnlineTicks:   DefaultMaxOnlineTicks,
		MinOfflineTicks:  DefaultMinOfflineTicks,
		MaxOfflineTicks:  DefaultMaxOfflineTicks,
		MaxTablesPerGame: DefaultMaxTablesPerGame,
		JoinChance:       DefaultJoinChance,
		CreateChance:     DefaultCreateChance,
		GoOfflineChance:  DefaultGoOfflineChance,
		LeaveGameChance:  DefaultLeaveGameChance,
		LogoutChance:     DefaultLogoutChance,
		StartGameChance:  DefaultStartGameChance,
	}
}

// HasName reports whether name is part of the configured pool.
func (c *VirtualBotsConfig) HasName(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

// LoadVirtualBots parses the [virtual_bots] section. A missing section yields
// an empty name pool; malformed fields are replaced by their defaults and
// logged, never returned as errors.
func LoadVirtualBots(v *viper.Viper) VirtualBotsConfig {
	cfg := DefaultVirtualBots()
	if !v.IsSet(virtualBotsSection) {
		log.Debug().Msg("No [virtual_bots] section, virtual bots disabled")
		return cfg
	}

	cfg.Names = stringListField(v, "names")

	cfg.MinIdleTicks = positiveIntField(v, "min_idle_ticks", DefaultMinIdleTicks)
	cfg.MaxIdleTicks = positiveIntField(v, "max_idle_ticks", DefaultMaxIdleTicks)
	cfg.MinOnlineTicks = positiveIntField(v, "min_online_ticks", DefaultMinOnlineTicks)
	cfg.MaxOnlineTicks = positiveIntField(v, "max_online_ticks", DefaultMaxOnlineTicks)
	cfg.MinOfflineTicks = positiveIntField(v, "min_offline_ticks", DefaultMinOfflineTicks)
	cfg.MaxOfflineTicks = positiveIntField(v, "max_offline_ticks", DefaultMaxOfflineTicks)

	cfg.MinIdleTicks, cfg.MaxIdleTicks = validRange("idle", cfg.MinIdleTicks, cfg.MaxIdleTicks,
		DefaultMinIdleTicks, DefaultMaxIdleTicks)
	cfg.MinOnlineTicks, cfg.MaxOnlineTicks = validRange("online", cfg.MinOnlineTicks, cfg.MaxOnlineTicks,
		DefaultMinOnlineTicks, DefaultMaxOnlineTicks)
	cfg.MinOfflineTicks, cfg.MaxOfflineTicks = validRange("offline", cfg.MinOfflineTicks, cfg.MaxOfflineTicks,
		DefaultMinOfflineTicks, DefaultMaxOfflineTicks)

	cfg.MaxTablesPerGame = intField(v, "max_tables_per_game", DefaultMaxTablesPerGame)
	if cfg.MaxTablesPerGame < 0 {
		log.Warn().Int("value", cfg.MaxTablesPerGame).Msg("virtual_bots.max_tables_per_game is negative, using unlimited")
		cfg.MaxTablesPerGame = DefaultMaxTablesPerGame
	}

	cfg.JoinChance = chanceField(v, "join_chance", DefaultJoinChance)
	cfg.CreateChance = chanceField(v, "create_chance", DefaultCreateChance)
	cfg.GoOfflineChance = chanceField(v, "go_offline_chance", DefaultGoOfflineChance)
	cfg.LeaveGameChance = chanceField(v, "leave_game_chance", DefaultLeaveGameChance)
	cfg.LogoutChance = chanceField(v, "logout_chance", DefaultLogoutChance)
	cfg.StartGameChance = chanceField(v, "start_game_chance", DefaultStartGameChance)

	return cfg
}

func key(field string) string {
	return virtualBotsSection + "." + field
}

// stringListField reads names, dropping blanks and duplicates while keeping order.
func stringListField(v *viper.Viper, field string) []string {
	raw := v.Get(key(field))
	if raw == nil {
		return nil
	}
	var list []string
	if s, ok := raw.(string); ok {
		// env overrides arrive as a single string
		list = strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	} else {
		var err error
		list, err = cast.ToStringSliceE(raw)
		if err != nil {
			log.Warn().Err(err).Str("key", key(field)).Msg("Malformed virtual bot names, using empty pool")
			return nil
		}
	}

	seen := make(map[string]bool, len(list))
	names := make([]string, 0, len(list))
	for _, n := range list {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

func intField(v *viper.Viper, field string, def int) int {
	raw := v.Get(key(field))
	if raw == nil {
		return def
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		log.Warn().Err(err).Str("key", key(field)).Int("default", def).Msg("Malformed config value, using default")
		return def
	}
	return n
}

func positiveIntField(v *viper.Viper, field string, def int) int {
	n := intField(v, field, def)
	if n <= 0 {
		log.Warn().Str("key", key(field)).Int("value", n).Int("default", def).Msg("Tick value must be positive, using default")
		return def
	}
	return n
}

func chanceField(v *viper.Viper, field string, def float64) float64 {
	raw := v.Get(key(field))
	if raw == nil {
		return def
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || f < 0 || f > 1 {
		log.Warn().Str("key", key(field)).Interface("value", raw).Float64("default", def).Msg("Chance must be within [0,1], using default")
		return def
	}
	return f
}

func validRange(name string, lo, hi, defLo, defHi int) (int, int) {
	if lo > hi {
		log.Warn().
			Str("range", name).
			Int("min", lo).
			Int("max", hi).
			Msg("virtual_bots min exceeds max, using defaults for this range")
		return defLo, defHi
	}
	return lo, hi
}
