package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-lobby-server/internal/game"
	"game-lobby-server/internal/game/scopa"
	"game-lobby-server/internal/game/yahtzee"
	"game-lobby-server/internal/user"
)

func newRegistry(t *testing.T) *game.Registry {
	t.Helper()
	r := game.NewRegistry()
	require.NoError(t, r.Register(scopa.Descriptor()))
	require.NoError(t, r.Register(yahtzee.Descriptor()))
	return r
}

func TestManager_CreateTable(t *testing.T) {
	m := NewManager(newRegistry(t))
	host := user.NewBot("Host")

	tbl, err := m.CreateTable(scopa.Type, "Host", host)
	require.NoError(t, err)

	assert.NotEmpty(t, tbl.ID())
	assert.Equal(t, scopa.Type, tbl.GameType())
	assert.Equal(t, "Host", tbl.HostName())
	assert.True(t, tbl.HasMember("Host"))
	assert.Nil(t, tbl.Game())
	assert.Same(t, tbl, m.GetTable(tbl.ID()))
	assert.Equal(t, 1, m.Count())
}

func TestManager_CreateTableUnknownType(t *testing.T) {
	m := NewManager(newRegistry(t))

	_, err := m.CreateTable("chess", "Host", user.NewBot("Host"))
	assert.ErrorIs(t, err, ErrUnknownGameType)
	assert.Equal(t, 0, m.Count())
}

func TestManager_RemoveTable(t *testing.T) {
	m := NewManager(nil)
	tbl, err := m.CreateTable(scopa.Type, "Host", user.NewBot("Host"))
	require.NoError(t, err)

	m.RemoveTable(tbl.ID())
	assert.Nil(t, m.GetTable(tbl.ID()))

	// unknown ids are ignored
	m.RemoveTable("missing")
	assert.Equal(t, 0, m.Count())
}

func TestManager_WaitingTables(t *testing.T) {
	m := NewManager(newRegistry(t))

	withGame := func(host string, g game.Game) *Table {
		tbl, err := m.CreateTable(g.Type(), host, user.NewBot(host))
		require.NoError(t, err)
		tbl.SetGame(g)
		require.NoError(t, g.InitializeLobby(host, user.NewBot(host)))
		return tbl
	}

	open := withGame("A", scopa.New())

	full := withGame("B", scopa.New())
	for _, name := range []string{"B2", "B3", "B4"} {
		require.NoError(t, full.Game().AddPlayer(name, user.NewBot(name)))
	}

	started := withGame("C", yahtzee.New())
	require.NoError(t, started.Game().ExecuteAction(started.Game().PlayerByName("C"), game.ActionStart))

	// no game attached yet
	_, err := m.CreateTable(scopa.Type, "D", user.NewBot("D"))
	require.NoError(t, err)

	waiting := m.WaitingTables()
	require.Len(t, waiting, 1)
	assert.Equal(t, open.ID(), waiting[0].ID())
	assert.Len(t, m.AllTables(), 4)
}

func TestManager_AllTablesOldestFirst(t *testing.T) {
	m := NewManager(nil)
	var ids []string
	for _, host := range []string{"A", "B", "C"} {
		tbl, err := m.CreateTable(scopa.Type, host, user.NewBot(host))
		require.NoError(t, err)
		ids = append(ids, tbl.ID())
	}

	var got []string
	for _, tbl := range m.AllTables() {
		got = append(got, tbl.ID())
	}
	assert.Equal(t, ids, got)
}

func TestTable_Members(t *testing.T) {
	m := NewManager(nil)
	tbl, err := m.CreateTable(scopa.Type, "Host", user.NewBot("Host"))
	require.NoError(t, err)

	tbl.AddMember("Guest", user.NewBot("Guest"), false)
	tbl.AddMember("Watcher", user.NewBot("Watcher"), true)
	tbl.AddMember("Guest", user.NewBot("Guest"), true)

	members := tbl.Members()
	require.Len(t, members, 3)
	assert.True(t, members[1].Spectator)

	tbl.RemoveMember("Guest")
	tbl.RemoveMember("Nobody")
	assert.False(t, tbl.HasMember("Guest"))
	assert.Len(t, tbl.Members(), 2)
}
