package virtualbot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"game-lobby-server/internal/config"
	"game-lobby-server/internal/game"
	"game-lobby-server/internal/model"
	"game-lobby-server/internal/server"
	"game-lobby-server/internal/table"
	"game-lobby-server/internal/user"
)

// Messages the manager sends through games.
const (
	MessageTableJoined = "table-joined"
	MessageBotRemoved  = "virtual-bot-removed"
)

// Users is the part of the live user registry the manager drives.
type Users interface {
	GetUser(name string) user.User
	ClaimBotName(u user.User) (user.User, bool)
	RemoveBot(name string) bool
	SetUserState(name string, st user.State)
	BroadcastPresence(messageID, username, sound string)
	BroadcastTableCreated(hostName, gameName string)
}

// Tables is the table manager as seen by bots.
type Tables interface {
	GetTable(id string) *table.Table
	RemoveTable(id string)
	WaitingTables() []*table.Table
	AllTables() []*table.Table
	CreateTable(gameType, hostName string, u user.User) (*table.Table, error)
}

// GameTypes lists the registered game types.
type GameTypes interface {
	All() []game.Descriptor
}

// Store persists bot rows across restarts.
type Store interface {
	SaveVirtualBot(ctx context.Context, row model.VirtualBotRow) error
	LoadAllVirtualBots(ctx context.Context) ([]model.VirtualBotRow, error)
	DeleteAllVirtualBots(ctx context.Context) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithRand replaces the random source.
func WithRand(r Rand) Option {
	return func(m *Manager) { m.rng = r }
}

// Manager owns the bot population and every state transition.
type Manager struct {
	mu   sync.Mutex
	cfg  config.VirtualBotsConfig
	bots map[string]*VirtualBot
	tick int64

	users  Users
	tables Tables
	games  GameTypes
	store  Store
	rng    Rand
}

// NewManager creates a manager with no tracked bots.
func NewManager(
	cfg config.VirtualBotsConfig,
	users Users,
	tables Tables,
	games GameTypes,
	store Store,
	opts ...Option,
) *Manager {
	m := &Manager{
		cfg:    cfg,
		bots:   make(map[string]*VirtualBot),
		users:  users,
		tables: tables,
		games:  games,
		store:  store,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = NewRand(0)
	}
	return m
}

// Config returns the active bot configuration.
func (m *Manager) Config() config.VirtualBotsConfig {
	return m.cfg
}

// Tick returns the number of processed ticks.
func (m *Manager) Tick() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tick
}

// Count returns the number of tracked bots.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bots)
}

// Bot returns a copy of the named bot.
func (m *Manager) Bot(name string) (VirtualBot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bots[name]
	if !ok {
		return VirtualBot{}, false
	}
	return *b, true
}

// Bots returns copies of every tracked bot sorted by name.
func (m *Manager) Bots() []VirtualBot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]VirtualBot, 0, len(m.bots))
	for _, name := range m.sortedNames() {
		out = append(out, *m.bots[name])
	}
	return out
}

// Stats counts tracked bots per state.
func (m *Manager) Stats() map[State]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := make(map[State]int, 4)
	for _, b := range m.bots {
		stats[b.State]++
	}
	return stats
}

func (m *Manager) sortedNames() []string {
	names := make([]string, 0, len(m.bots))
	for name := range m.bots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FillServer creates an offline bot for every configured name that is neither
// tracked nor held by a human, then brings half of the new bots online.
func (m *Manager) FillServer() (added, online int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.cfg.Names))
	copy(names, m.cfg.Names)
	m.rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	var fresh []*VirtualBot
	for _, name := range names {
		if _, tracked := m.bots[name]; tracked {
			continue
		}
		if u := m.users.GetUser(name); u != nil && !u.IsBot() {
			log.Debug().Str("bot", name).Msg("Name held by a user, skipping")
			continue
		}
		b := NewVirtualBot(name)
		m.bots[name] = b
		fresh = append(fresh, b)
	}

	half := len(fresh) / 2
	for i, b := range fresh {
		if i < half {
			if m.restoreBotUser(b, true) {
				online++
			}
			continue
		}
		b.CooldownTicks = between(m.rng, m.cfg.MinOfflineTicks, m.cfg.MaxOfflineTicks)
	}

	log.Info().Int("added", len(fresh)).Int("online", online).Msg("Virtual bots filled")
	return len(fresh), online
}

// ProcessTick advances every bot by one tick. A failing bot is rolled back
// and logged; it never stops the others.
func (m *Manager) ProcessTick(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tick++
	for _, name := range m.sortedNames() {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.processBot(m.bots[name])
	}
	return nil
}

func (m *Manager) processBot(b *VirtualBot) {
	snapshot := *b
	defer func() {
		if r := recover(); r != nil {
			*b = snapshot
			log.Error().
				Str("bot", b.Name).
				Str("state", b.State.String()).
				Interface("panic", r).
				Msg("Virtual bot panicked, state rolled back")
		}
	}()

	if err := m.step(b); err != nil {
		*b = snapshot
		log.Error().Err(err).Str("bot", b.Name).Str("state", b.State.String()).Msg("Virtual bot step failed, state rolled back")
	}
}

func (m *Manager) step(b *VirtualBot) error {
	switch b.State {
	case StateOffline:
		return m.processOffline(b)
	case StateOnlineIdle:
		return m.processOnlineIdle(b)
	case StateInGame:
		return m.processInGame(b)
	case StateLeavingGame:
		return m.processLeaving(b)
	default:
		return fmt.Errorf("unknown state %d", int(b.State))
	}
}

func (m *Manager) processOffline(b *VirtualBot) error {
	if b.CooldownTicks > 0 {
		b.CooldownTicks--
	}
	if b.CooldownTicks == 0 {
		m.restoreBotUser(b, true)
	}
	return nil
}

func (m *Manager) processOnlineIdle(b *VirtualBot) error {
	if m.dropIfDisplaced(b) {
		return nil
	}

	b.OnlineTicks++
	if !m.think(b) {
		return nil
	}

	if b.OnlineTicks >= b.TargetOnlineTicks && m.rng.Float64() < m.cfg.GoOfflineChance {
		m.takeBotOffline(b)
		return nil
	}

	r := m.rng.Float64()
	switch {
	case r < m.cfg.JoinChance:
		m.tryJoinGame(b)
	case r < m.cfg.JoinChance+m.cfg.CreateChance:
		m.tryCreateGame(b)
	}
	return nil
}

func (m *Manager) processInGame(b *VirtualBot) error {
	if m.dropIfDisplaced(b) {
		return nil
	}

	b.OnlineTicks++
	if !m.think(b) {
		return nil
	}

	var g game.Game
	if t := m.tables.GetTable(b.TableID); t != nil {
		g = t.Game()
	}
	if g == nil || g.Status() == game.StatusFinished {
		m.startLeaving(b)
		return nil
	}

	if g.Host() == b.Name && g.Status() == game.StatusWaiting && len(g.Players()) >= g.MinPlayers() &&
		m.rng.Float64() < m.cfg.StartGameChance {
		if err := g.ExecuteAction(g.PlayerByName(b.Name), game.ActionStart); err != nil {
			return fmt.Errorf("failed to start game: %w", err)
		}
		log.Info().Str("bot", b.Name).Str("table_id", b.TableID).Str("game", g.Type()).Msg("Virtual bot started game")
		return nil
	}

	if m.rng.Float64() < m.cfg.LeaveGameChance {
		m.startLeaving(b)
	}
	return nil
}

func (m *Manager) processLeaving(b *VirtualBot) error {
	if m.dropIfDisplaced(b) {
		return nil
	}
	if b.CooldownTicks > 0 {
		b.CooldownTicks--
		return nil
	}

	m.leaveCurrentTable(b)
	if b.LogoutAfterGame {
		m.takeBotOffline(b)
		return nil
	}

	b.State = StateOnlineIdle
	b.LogoutAfterGame = false
	m.resetThink(b)
	m.users.SetUserState(b.Name, user.State{Menu: user.MenuMain})
	log.Debug().Str("bot", b.Name).Msg("Virtual bot back in lobby")
	return nil
}

// dropIfDisplaced takes b offline quietly when a human now holds its name.
// The bot still gives up its seat; the human's registry entry and UI state
// are left alone and nobody is told.
func (m *Manager) dropIfDisplaced(b *VirtualBot) bool {
	if m.botUser(b.Name) != nil {
		return false
	}
	log.Warn().Str("bot", b.Name).Str("state", b.State.String()).Msg("Virtual bot displaced, going offline")
	if b.TableID != "" {
		m.leaveCurrentTable(b)
	}
	m.setOffline(b)
	return true
}

// think advances the gate and reports whether the bot may decide this tick.
func (m *Manager) think(b *VirtualBot) bool {
	b.ThinkTicks++
	if b.ThinkTicks < b.ThinkTarget {
		return false
	}
	m.resetThink(b)
	return true
}

func (m *Manager) resetThink(b *VirtualBot) {
	b.ThinkTicks = 0
	b.ThinkTarget = between(m.rng, m.cfg.MinIdleTicks, m.cfg.MaxIdleTicks)
}

// restoreBotUser brings b online unless a human holds its name. fresh starts
// a new online session; otherwise state and counters from storage are kept.
func (m *Manager) restoreBotUser(b *VirtualBot, fresh bool) bool {
	if _, ok := m.users.ClaimBotName(user.NewBot(b.Name)); !ok {
		log.Warn().Str("bot", b.Name).Msg("Name held by a user, virtual bot stays offline")
		m.setOffline(b)
		return false
	}

	if fresh {
		b.State = StateOnlineIdle
		b.OnlineTicks = 0
		b.TargetOnlineTicks = between(m.rng, m.cfg.MinOnlineTicks, m.cfg.MaxOnlineTicks)
		b.TableID = ""
		b.GameJoinTick = 0
		b.LogoutAfterGame = false
	}
	b.CooldownTicks = 0
	b.ThinkTicks = 0
	b.ThinkTarget = 0

	st := user.State{Menu: user.MenuMain}
	if b.AtTable() {
		st = user.State{Menu: user.MenuInGame, TableID: b.TableID}
	}
	m.users.SetUserState(b.Name, st)
	m.users.BroadcastPresence(server.MessageUserOnline, b.Name, server.SoundOnline)

	log.Info().Str("bot", b.Name).Str("state", b.State.String()).Msg("Virtual bot online")
	return true
}

// takeBotOffline logs the bot out and starts its offline cooldown.
func (m *Manager) takeBotOffline(b *VirtualBot) {
	if b.TableID != "" {
		m.leaveCurrentTable(b)
	}
	if m.users.RemoveBot(b.Name) {
		m.users.BroadcastPresence(server.MessageUserOffline, b.Name, server.SoundOffline)
	}
	m.setOffline(b)

	log.Info().Str("bot", b.Name).Int("cooldown", b.CooldownTicks).Msg("Virtual bot offline")
}

// setOffline resets b to a quiet offline record without touching the registry.
func (m *Manager) setOffline(b *VirtualBot) {
	b.State = StateOffline
	b.OnlineTicks = 0
	b.ThinkTicks = 0
	b.ThinkTarget = 0
	b.TableID = ""
	b.GameJoinTick = 0
	b.LogoutAfterGame = false
	b.CooldownTicks = between(m.rng, m.cfg.MinOfflineTicks, m.cfg.MaxOfflineTicks)
}

func (m *Manager) startLeaving(b *VirtualBot) {
	b.LogoutAfterGame = m.rng.Float64() < m.cfg.LogoutChance
	b.State = StateLeavingGame
	b.CooldownTicks = 0
	log.Debug().Str("bot", b.Name).Bool("logout", b.LogoutAfterGame).Msg("Virtual bot leaving game")
}

func (m *Manager) botUser(name string) user.User {
	if u := m.users.GetUser(name); u != nil && u.IsBot() {
		return u
	}
	return nil
}

func (m *Manager) enterTable(b *VirtualBot, t *table.Table) {
	b.State = StateInGame
	b.TableID = t.ID()
	b.GameJoinTick = m.tick
	m.resetThink(b)
	m.users.SetUserState(b.Name, user.State{Menu: user.MenuInGame, TableID: t.ID()})
}

// tryJoinGame seats b at a random waiting table it does not already host.
func (m *Manager) tryJoinGame(b *VirtualBot) bool {
	u := m.botUser(b.Name)
	if u == nil {
		return false
	}

	var candidates []*table.Table
	for _, t := range m.tables.WaitingTables() {
		g := t.Game()
		if g == nil || g.Host() == b.Name || g.PlayerByName(b.Name) != nil {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return false
	}

	t := candidates[m.rng.Intn(len(candidates))]
	g := t.Game()
	if err := g.AddPlayer(b.Name, u); err != nil {
		log.Debug().Err(err).Str("bot", b.Name).Str("table_id", t.ID()).Msg("Virtual bot could not join table")
		return false
	}
	t.AddMember(b.Name, u, false)
	m.enterTable(b, t)
	g.BroadcastL(MessageTableJoined, map[string]any{"player": b.Name})

	log.Info().Str("bot", b.Name).Str("table_id", t.ID()).Str("game", g.Type()).Msg("Virtual bot joined table")
	return true
}

// tryCreateGame hosts a new table of a random type still under the cap, and
// falls back to joining when none qualifies or creation fails.
func (m *Manager) tryCreateGame(b *VirtualBot) bool {
	u := m.botUser(b.Name)
	if u == nil {
		return false
	}

	var eligible []game.Descriptor
	for _, d := range m.games.All() {
		if m.canCreateGameType(d.Type()) {
			eligible = append(eligible, d)
		}
	}
	if len(eligible) == 0 {
		return m.tryJoinGame(b)
	}

	d := eligible[m.rng.Intn(len(eligible))]
	t, err := m.openTable(b.Name, u, d)
	if err != nil {
		log.Warn().Err(err).Str("bot", b.Name).Str("game", d.Type()).Msg("Virtual bot could not create table")
		return m.tryJoinGame(b)
	}

	m.enterTable(b, t)
	m.users.BroadcastTableCreated(b.Name, d.Name())

	log.Info().Str("bot", b.Name).Str("table_id", t.ID()).Str("game", d.Type()).Msg("Virtual bot created table")
	return true
}

// openTable creates a table of d hosted by host and opens its lobby. The
// table is removed again unless the lobby opens, including on panic.
func (m *Manager) openTable(host string, u user.User, d game.Descriptor) (*table.Table, error) {
	g := d.New()
	t, err := m.tables.CreateTable(d.Type(), host, u)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	opened := false
	defer func() {
		if !opened {
			m.tables.RemoveTable(t.ID())
		}
	}()

	t.SetGame(g)
	if err := g.InitializeLobby(host, u); err != nil {
		return nil, fmt.Errorf("failed to open lobby: %w", err)
	}
	opened = true
	return t, nil
}

// canCreateGameType reports whether bots may host another table of gameType.
func (m *Manager) canCreateGameType(gameType string) bool {
	if m.cfg.MaxTablesPerGame == 0 {
		return true
	}
	return m.countBotOwnedTables(gameType) < m.cfg.MaxTablesPerGame
}

// countBotOwnedTables counts live tables of gameType hosted by a tracked bot.
func (m *Manager) countBotOwnedTables(gameType string) int {
	n := 0
	for _, t := range m.tables.AllTables() {
		g := t.Game()
		if g == nil || g.Type() != gameType {
			continue
		}
		if _, ok := m.bots[g.Host()]; ok {
			n++
		}
	}
	return n
}

// leaveCurrentTable walks b out of its table the way a human leaves. Missing
// tables or players are not errors. A table left empty is removed.
func (m *Manager) leaveCurrentTable(b *VirtualBot) {
	tableID := b.TableID
	b.TableID = ""
	b.GameJoinTick = 0

	t := m.tables.GetTable(tableID)
	if t == nil {
		return
	}
	if g := t.Game(); g != nil {
		if p := g.PlayerByName(b.Name); p != nil {
			if err := g.ExecuteAction(p, game.ActionLeave); err != nil {
				log.Warn().Err(err).Str("bot", b.Name).Str("table_id", tableID).Msg("Leave action failed")
			}
		}
	}
	t.RemoveMember(b.Name)
	if len(t.Members()) == 0 {
		m.tables.RemoveTable(tableID)
	}

	log.Debug().Str("bot", b.Name).Str("table_id", tableID).Msg("Virtual bot left table")
}
