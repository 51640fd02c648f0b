package virtualbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-lobby-server/internal/game/scopa"
	"game-lobby-server/internal/model"
	"game-lobby-server/internal/repository"
	"game-lobby-server/internal/user"
)

func TestSaveAndLoadState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryVirtualBotStore()
	cfg := testConfig("Alpha", "Beta", "Gamma")

	first := newHarnessWithStore(t, cfg, store)
	alpha := first.online(t, "Alpha")
	alpha.OnlineTicks, alpha.TargetOnlineTicks = 5, 10
	beta := first.online(t, "Beta")
	beta.State = StateInGame
	beta.TableID = "table-1"
	beta.OnlineTicks, beta.TargetOnlineTicks = 12, 35
	first.m.bots["Gamma"] = NewVirtualBot("Gamma")

	require.NoError(t, first.m.SaveState(ctx))
	rows, err := store.LoadAllVirtualBots(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.BotStateOnlineIdle, rows[0].State)

	second := newHarnessWithStore(t, cfg, store)
	restored, err := second.m.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	for _, want := range []*VirtualBot{alpha, beta} {
		got, ok := second.m.Bot(want.Name)
		require.True(t, ok, want.Name)
		assert.Equal(t, want.State, got.State)
		assert.Equal(t, want.OnlineTicks, got.OnlineTicks)
		assert.Equal(t, want.TargetOnlineTicks, got.TargetOnlineTicks)
		assert.Equal(t, want.TableID, got.TableID)
		assert.True(t, second.users.GetUser(want.Name).IsBot())
	}
	_, ok := second.m.Bot("Gamma")
	assert.False(t, ok, "offline rows are not restored")

	st, _ := second.users.UserState("Alpha")
	assert.Equal(t, user.MenuMain, st.Menu)
	st, _ = second.users.UserState("Beta")
	assert.Equal(t, user.State{Menu: user.MenuInGame, TableID: "table-1"}, st)
}

func TestLoadState_DropsUnconfiguredAndBadRows(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryVirtualBotStore()
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name: "Alpha", State: model.BotStateOnlineIdle, OnlineTicks: 12, TargetOnlineTicks: 25, GameJoinTick: 3,
	}))
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name: "Ignored", State: model.BotStateOffline,
	}))
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name: "Retired", State: model.BotStateOnlineIdle,
	}))
	// in_game without a table comes back idle
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name: "Drifter", State: model.BotStateInGame,
	}))

	h := newHarnessWithStore(t, testConfig("Alpha", "Ignored", "Drifter"), store)
	restored, err := h.m.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	_, ok := h.m.Bot("Retired")
	assert.False(t, ok)
	_, ok = h.m.Bot("Ignored")
	assert.False(t, ok)

	drifter, ok := h.m.Bot("Drifter")
	require.True(t, ok)
	assert.Equal(t, StateOnlineIdle, drifter.State)
	assert.Empty(t, drifter.TableID)

	assert.Equal(t, []presence{
		{"user-online", "Alpha", "online.ogg"},
		{"user-online", "Drifter", "online.ogg"},
	}, h.users.presence)
}

func TestLoadState_HumanKeepsName(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryVirtualBotStore()
	require.NoError(t, store.SaveVirtualBot(ctx, model.VirtualBotRow{
		Name: "Alpha", State: model.BotStateInGame, TableID: strPtr("t1"), OnlineTicks: 3, TargetOnlineTicks: 30,
	}))

	h := newHarnessWithStore(t, testConfig("Alpha"), store)
	taken := human("Alpha")
	require.NoError(t, h.users.Login(taken))

	restored, err := h.m.LoadState(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)

	b, ok := h.m.Bot("Alpha")
	require.True(t, ok)
	assert.Equal(t, StateOffline, b.State)
	assert.Empty(t, b.TableID)
	assert.GreaterOrEqual(t, b.CooldownTicks, h.m.cfg.MinOfflineTicks)
	assert.LessOrEqual(t, b.CooldownTicks, h.m.cfg.MaxOfflineTicks)
	assert.Same(t, taken, h.users.GetUser("Alpha"))
}

func TestClearBots(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig("Cleaner", "Idler"))
	cleaner := h.online(t, "Cleaner")
	h.online(t, "Idler")

	host := newListener("host")
	tbl := h.hostTable(t, scopa.Descriptor(), "host", host)
	require.True(t, h.m.tryJoinGame(cleaner))
	require.NoError(t, h.m.SaveState(ctx))

	cleared, vacated, err := h.m.ClearBots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cleared)
	assert.Equal(t, 1, vacated)

	assert.Zero(t, h.m.Count())
	assert.Nil(t, h.users.GetUser("Cleaner"))
	assert.Nil(t, h.users.GetUser("Idler"))
	assert.False(t, tbl.HasMember("Cleaner"))
	assert.Nil(t, tbl.Game().PlayerByName("Cleaner"))
	assert.Contains(t, host.spoken, MessageBotRemoved)

	rows, err := h.store.LoadAllVirtualBots(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClearBots_RemovesBotOnlyTables(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig("Solo"), scopa.Descriptor())
	b := h.online(t, "Solo")
	require.True(t, h.m.tryCreateGame(b))
	tableID := b.TableID

	cleared, vacated, err := h.m.ClearBots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 1, vacated)
	assert.Nil(t, h.tables.GetTable(tableID))
}

type failingStore struct {
	repository.MemoryVirtualBotStore
	err error
}

func (s *failingStore) SaveVirtualBot(context.Context, model.VirtualBotRow) error { return s.err }
func (s *failingStore) LoadAllVirtualBots(context.Context) ([]model.VirtualBotRow, error) {
	return nil, s.err
}
func (s *failingStore) DeleteAllVirtualBots(context.Context) error { return s.err }

func TestPersistenceErrorsSurface(t *testing.T) {
	ctx := context.Background()
	outage := errors.New("disk on fire")
	h := newHarness(t, testConfig("A"))
	h.m.store = &failingStore{err: outage}
	h.online(t, "A")

	assert.ErrorIs(t, h.m.SaveState(ctx), outage)

	_, err := h.m.LoadState(ctx)
	assert.ErrorIs(t, err, outage)

	cleared, _, err := h.m.ClearBots(ctx)
	assert.ErrorIs(t, err, outage)
	assert.Equal(t, 1, cleared)
}

func strPtr(s string) *string { return &s }
