package registry

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ratrace/internal/game"
	"github.com/lox/ratrace/internal/refdata"
	"github.com/lox/ratrace/internal/roomid"
)

type nopNotifier struct{}

func (nopNotifier) RoomStateChanged(game.RoomSnapshot)   {}
func (nopNotifier) TimerChanged(string, game.TimerState) {}
func (nopNotifier) GameFinished(game.GameSummary)        {}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestRegistry(t *testing.T, opts Options) (*Registry, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	reg := New(refdata.Default(), clock, nopNotifier{}, testLogger(), opts)
	return reg, clock
}

func TestCreateGetRemove(t *testing.T) {
	reg, _ := newTestRegistry(t, Options{Seed: 1})

	room, err := reg.Create(game.RoomConfig{Name: "friday night"})
	require.NoError(t, err)
	require.NoError(t, roomid.Validate(room.ID))

	got, err := reg.Get(room.ID)
	require.NoError(t, err)
	assert.Same(t, room, got)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get("zzzzzz")
	assert.ErrorIs(t, err, ErrNotFound)

	reg.Remove(room.ID)
	_, err = reg.Get(room.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing twice is a no-op.
	reg.Remove(room.ID)
	assert.Equal(t, 0, reg.Len())
}

func TestCreateCapacity(t *testing.T) {
	reg, _ := newTestRegistry(t, Options{MaxRooms: 1, Seed: 1})

	_, err := reg.Create(game.RoomConfig{Name: "one"})
	require.NoError(t, err)

	_, err = reg.Create(game.RoomConfig{Name: "two"})
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestListSummaries(t *testing.T) {
	reg, _ := newTestRegistry(t, Options{Seed: 1})

	room, err := reg.Create(game.RoomConfig{Name: "lobbytest", MaxPlayers: 4})
	require.NoError(t, err)
	require.NoError(t, room.Join("p1", "alice"))

	list := reg.List()
	require.Len(t, list, 1)
	assert.Equal(t, room.ID, list[0].ID)
	assert.Equal(t, "lobbytest", list[0].Name)
	assert.Equal(t, 1, list[0].Players)
	assert.Equal(t, 4, list[0].MaxPlayers)
	assert.Equal(t, "open", list[0].Phase)
}

// playUntilFinished walks two players through turns until the room's
// win condition fires.
func playUntilFinished(t *testing.T, room *game.Room) {
	t.Helper()
	for i := 0; i < 200 && room.Phase() != game.PhaseFinished; i++ {
		id := room.Snapshot().CurrentTurnPlayerID
		if _, err := room.Roll(id, false); err != nil {
			t.Fatalf("roll for %s: %v", id, err)
		}
		if room.Phase() == game.PhaseFinished {
			return
		}
		if snap := room.Snapshot(); snap.PendingDeal != nil {
			if err := room.BuyDeal(id, true); err != nil {
				require.NoError(t, room.SkipDeal(id))
			}
		}
		if room.Phase() == game.PhaseFinished {
			return
		}
		require.NoError(t, room.EndTurn(id))
	}
	require.Equal(t, game.PhaseFinished, room.Phase(), "game never finished")
}

func TestReaperRemovesFinishedRooms(t *testing.T) {
	reg, clock := newTestRegistry(t, Options{Seed: 1, ReapGrace: 90 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	trap := clock.Trap().TickerFunc("registry", "reaper")
	defer trap.Close()

	reaperDone := make(chan error, 1)
	go func() {
		reaperDone <- reg.StartReaper(ctx)
	}()
	trap.MustWait(ctx).MustRelease(ctx)

	// The first completed deal wins, so the game ends quickly.
	room, err := reg.Create(game.RoomConfig{
		Name:       "shortgame",
		MaxPlayers: 2,
		Win:        func(p *game.Player) bool { return p.DealsCompleted >= 1 },
	})
	require.NoError(t, err)
	require.NoError(t, room.Join("p1", "alice"))
	require.NoError(t, room.Join("p2", "bob"))
	require.NoError(t, room.Ready("p1", "engineer", "island"))
	require.NoError(t, room.Ready("p2", "teacher", "island"))
	playUntilFinished(t, room)

	// One minute in, the grace period has not elapsed.
	clock.Advance(time.Minute).MustWait(ctx)
	_, err = reg.Get(room.ID)
	require.NoError(t, err)

	// Two minutes in, the room is past its 90s grace and gets reaped.
	clock.Advance(time.Minute).MustWait(ctx)
	_, err = reg.Get(room.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	cancel()
	assert.NoError(t, <-reaperDone)
}

func TestRoomsGetDistinctIDs(t *testing.T) {
	reg, _ := newTestRegistry(t, Options{Seed: 1})

	a, err := reg.Create(game.RoomConfig{Name: "a"})
	require.NoError(t, err)
	b, err := reg.Create(game.RoomConfig{Name: "b"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
