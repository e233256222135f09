package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinjudd/bracket/models"
	"github.com/justinjudd/bracket/tournament"
)

type inOrder struct{}

func (inOrder) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCreateAndGetSession(t *testing.T) {
	e := NewStorageEngine()
	id, err := e.CreateSession()
	require.NoError(t, err)

	_, err = xid.FromString(id)
	assert.NoError(t, err, "session IDs are xids")

	s, err := e.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, tournament.NewState(), s)
	assert.Equal(t, 1, e.Len())
}

func TestUnknownSession(t *testing.T) {
	e := NewStorageEngine()

	for _, id := range []string{"", "not-an-xid", xid.New().String()} {
		_, err := e.GetSession(id)
		assert.ErrorIs(t, err, ErrSessionNotFound, "id %q", id)
		_, err = e.Apply(id, tournament.Command{Type: tournament.CmdResetTournament})
		assert.ErrorIs(t, err, ErrSessionNotFound, "id %q", id)
	}
}

func TestApplyStoresResult(t *testing.T) {
	e := NewStorageEngine(WithSource(func() tournament.Source { return inOrder{} }))
	id, err := e.CreateSession()
	require.NoError(t, err)

	for _, cmd := range []tournament.Command{
		{Type: tournament.CmdSetTeamSize, TeamSize: models.TeamSize_SOLO},
		{Type: tournament.CmdAddParticipant, Name: "A"},
		{Type: tournament.CmdAddParticipant, Name: "B"},
		{Type: tournament.CmdStartTournament},
	} {
		_, err := e.Apply(id, cmd)
		require.NoError(t, err)
	}

	_, err = e.Apply(id, tournament.Command{Type: tournament.CmdStartNextRound})
	assert.ErrorIs(t, err, tournament.ErrRoundIncomplete)

	s, err := e.Apply(id, tournament.Command{Type: tournament.CmdSelectWinner, Index: 0, Side: models.Side_AWAY})
	require.NoError(t, err)
	assert.Equal(t, models.Phase_FINISHED, s.Phase())

	s.Winners[0].Players[0] = "mutated"
	stored, err := e.GetSession(id)
	require.NoError(t, err)
	champ, ok := stored.Champion()
	require.True(t, ok)
	assert.Equal(t, []string{"B"}, champ.Players)
}

func TestShortfallIsStored(t *testing.T) {
	e := NewStorageEngine()
	id, err := e.CreateSession()
	require.NoError(t, err)

	_, err = e.Apply(id, tournament.Command{Type: tournament.CmdAddParticipant, Name: "A"})
	require.NoError(t, err)
	_, err = e.Apply(id, tournament.Command{Type: tournament.CmdStartTournament})
	require.Error(t, err)

	s, err := e.GetSession(id)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ErrorMessage)
}

func TestSessionsAreIsolated(t *testing.T) {
	e := NewStorageEngine()
	a, err := e.CreateSession()
	require.NoError(t, err)
	b, err := e.CreateSession()
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = e.Apply(a, tournament.Command{Type: tournament.CmdAddParticipant, Name: "only in a"})
	require.NoError(t, err)

	sb, err := e.GetSession(b)
	require.NoError(t, err)
	assert.Empty(t, sb.Participants)

	e.DeleteSession(a)
	_, err = e.GetSession(a)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, e.Len())
}

func TestConcurrentCommandsAreSerialised(t *testing.T) {
	e := NewStorageEngine()
	id, err := e.CreateSession()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Apply(id, tournament.Command{Type: tournament.CmdAddParticipant, Name: fmt.Sprintf("P%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	s, err := e.GetSession(id)
	require.NoError(t, err)
	assert.Len(t, s.Participants, 50)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	e := NewStorageEngine(WithTTL(time.Hour), WithClock(clock.Now))

	idle, err := e.CreateSession()
	require.NoError(t, err)
	busy, err := e.CreateSession()
	require.NoError(t, err)
	require.Equal(t, 2, e.Len())

	clock.Advance(45 * time.Minute)
	_, err = e.Apply(busy, tournament.Command{Type: tournament.CmdAddParticipant, Name: "A"})
	require.NoError(t, err)
	assert.Zero(t, e.Sweep())

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, e.Sweep())
	assert.Equal(t, 1, e.Len())

	_, err = e.GetSession(idle)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	s, err := e.GetSession(busy)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, s.Participants)

	clock.Advance(61 * time.Minute)
	assert.Equal(t, 1, e.Sweep())
	assert.Zero(t, e.Len())
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	e := NewStorageEngine(WithTTL(0), WithClock(clock.Now))
	_, err := e.CreateSession()
	require.NoError(t, err)

	clock.Advance(365 * 24 * time.Hour)
	assert.Zero(t, e.Sweep())
	assert.Equal(t, 1, e.Len())
}

func TestRunSweeper(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	e := NewStorageEngine(WithTTL(time.Minute), WithClock(clock.Now))
	_, err := e.CreateSession()
	require.NoError(t, err)
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	removed := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.RunSweeper(ctx, time.Millisecond, func(n int) {
			select {
			case removed <- n:
			default:
			}
		})
	}()

	select {
	case n := <-removed:
		assert.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper never ran")
	}
	cancel()
	<-done
	assert.Zero(t, e.Len())
}
