package virtualbot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"game-lobby-server/internal/config"
	"game-lobby-server/internal/game"
	"game-lobby-server/internal/repository"
	"game-lobby-server/internal/server"
	"game-lobby-server/internal/table"
	"game-lobby-server/internal/user"
)

// fakeRand pins Intn to zero (lower bound, first element), leaves shuffles in
// order and serves queued floats before falling back to def.
type fakeRand struct {
	floats []float64
	def    float64
}

func (r *fakeRand) Intn(int) int                { return 0 }
func (r *fakeRand) Shuffle(int, func(i, j int)) {}
func (r *fakeRand) queue(fs ...float64)         { r.floats = append(r.floats, fs...) }
func (r *fakeRand) Float64() float64 {
	if len(r.floats) > 0 {
		f := r.floats[0]
		r.floats = r.floats[1:]
		return f
	}
	return r.def
}

type presence struct {
	MessageID string
	Username  string
	Sound     string
}

type tableCreated struct {
	Host string
	Game string
}

// recordingUsers is the real registry with broadcasts captured.
type recordingUsers struct {
	*server.Server
	presence []presence
	created  []tableCreated
}

func (u *recordingUsers) BroadcastPresence(messageID, username, sound string) {
	u.presence = append(u.presence, presence{messageID, username, sound})
	u.Server.BroadcastPresence(messageID, username, sound)
}

func (u *recordingUsers) BroadcastTableCreated(hostName, gameName string) {
	u.created = append(u.created, tableCreated{hostName, gameName})
	u.Server.BroadcastTableCreated(hostName, gameName)
}

// listener is a bot-flavored user that keeps what it was told.
type listener struct {
	*user.Bot
	spoken []string
}

func newListener(name string) *listener {
	return &listener{Bot: user.NewBot(name)}
}

func (l *listener) SpeakL(id string, _ map[string]any) { l.spoken = append(l.spoken, id) }

type harness struct {
	m        *Manager
	users    *recordingUsers
	tables   *table.Manager
	registry *game.Registry
	store    *repository.MemoryVirtualBotStore
	rng      *fakeRand
}

func testConfig(names ...string) config.VirtualBotsConfig {
	cfg := config.DefaultVirtualBots()
	cfg.Names = names
	cfg.MinOfflineTicks, cfg.MaxOfflineTicks = 10, 20
	cfg.MinOnlineTicks, cfg.MaxOnlineTicks = 30, 40
	cfg.MinIdleTicks, cfg.MaxIdleTicks = 50, 60
	return cfg
}

func newHarness(t *testing.T, cfg config.VirtualBotsConfig, descs ...game.Descriptor) *harness {
	t.Helper()
	return newHarnessWithStore(t, cfg, repository.NewMemoryVirtualBotStore(), descs...)
}

func newHarnessWithStore(t *testing.T, cfg config.VirtualBotsConfig, store *repository.MemoryVirtualBotStore, descs ...game.Descriptor) *harness {
	t.Helper()
	registry := game.NewRegistry()
	for _, d := range descs {
		require.NoError(t, registry.Register(d))
	}
	h := &harness{
		users:    &recordingUsers{Server: server.New()},
		tables:   table.NewManager(nil),
		registry: registry,
		store:    store,
		rng:      &fakeRand{def: 0.99},
	}
	h.m = NewManager(cfg, h.users, h.tables, h.registry, h.store, WithRand(h.rng))
	return h
}

// online tracks a bot under name and brings it online through the fresh path.
func (h *harness) online(t *testing.T, name string) *VirtualBot {
	t.Helper()
	b := NewVirtualBot(name)
	h.m.bots[name] = b
	require.True(t, h.m.restoreBotUser(b, true))
	return b
}

// hostTable opens a waiting table of d hosted by host.
func (h *harness) hostTable(t *testing.T, d game.Descriptor, host string, u user.User) *table.Table {
	t.Helper()
	tbl, err := h.tables.CreateTable(d.Type(), host, u)
	require.NoError(t, err)
	g := d.New()
	tbl.SetGame(g)
	require.NoError(t, g.InitializeLobby(host, u))
	return tbl
}

func human(name string) user.User {
	return user.NewNetworkUser(name, "", nil)
}
