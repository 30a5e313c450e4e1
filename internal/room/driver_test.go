package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"spelling-hive/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriverFixture(t *testing.T, picker WordPicker, hostID string, joiners ...string) (*MemoryRepository, ClientConfig, *Room) {
	t.Helper()
	repo := NewMemoryRepository()
	room := newTestRoom(hostID, joiners...)
	room.GameState.RoundSeq = 4
	require.NoError(t, repo.Create(context.Background(), room))
	cfg := ClientConfig{
		Repo:        repo,
		Machine:     NewMachine(picker, testRules()),
		Profiles:    profile.NewMemoryStore(),
		Definitions: staticDefiner{},
		ChatHistory: 50,
	}
	return repo, cfg, room
}

func TestStaleDriverWriteLeavesDocument(t *testing.T) {
	picker := &lockedPicker{scriptedPicker: scriptedPicker{words: []string{"honey"}}}
	repo, cfg, room := newDriverFixture(t, picker, "H", "A")
	ctx := context.Background()
	before, err := repo.Get(ctx, room.ID)
	require.NoError(t, err)

	c := NewClient(cfg, room.ID, Identity{ID: "H", Name: "H"}, time.Time{}, Handlers{})
	_, err = c.applyStep(ctx, 3, StepPickWord)
	assert.ErrorIs(t, err, ErrStaleRound)

	guest := NewClient(cfg, room.ID, Identity{ID: "A", Name: "A"}, time.Time{}, Handlers{})
	_, err = guest.applyStep(ctx, 4, StepPickWord)
	assert.ErrorIs(t, err, ErrStaleRound)

	after, err := repo.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Zero(t, picker.next)
}

func TestRunStepSkipsWhileSameStepInFlight(t *testing.T) {
	picker := &lockedPicker{scriptedPicker: scriptedPicker{words: []string{"honey"}}}
	repo, cfg, room := newDriverFixture(t, picker, "H", "A")
	ctx := context.Background()
	c := NewClient(cfg, room.ID, Identity{ID: "H", Name: "H"}, time.Time{}, Handlers{})

	key := stepKey(4, StepPickWord)
	require.True(t, c.inflight.tryAcquire(key))
	assert.False(t, c.inflight.tryAcquire(key))

	c.runStep(ctx, 4, StepPickWord)
	c.wg.Wait()
	held, err := repo.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, held.GameState.CurrentWord)
	assert.Equal(t, int64(4), held.GameState.RoundSeq)

	c.inflight.release(key)
	c.runStep(ctx, 4, StepPickWord)
	c.wg.Wait()
	picked, err := repo.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "honey", picked.GameState.CurrentWord)
	assert.Equal(t, int64(5), picked.GameState.RoundSeq)
	assert.True(t, c.inflight.tryAcquire(key))
}

func TestConcurrentDriversConverge(t *testing.T) {
	for i := 0; i < 20; i++ {
		picker := &lockedPicker{scriptedPicker: scriptedPicker{words: []string{"honey", "pollen", "nectar"}}}
		repo, cfg, room := newDriverFixture(t, picker, "H", "A", "B")
		ctx := context.Background()

		// Two tabs of the host race the same pick; the guest never drives.
		drivers := []*Client{
			NewClient(cfg, room.ID, Identity{ID: "H", Name: "H"}, time.Time{}, Handlers{}),
			NewClient(cfg, room.ID, Identity{ID: "H", Name: "H"}, time.Time{}, Handlers{}),
			NewClient(cfg, room.ID, Identity{ID: "A", Name: "A"}, time.Time{}, Handlers{}),
		}
		start := make(chan struct{})
		errs := make([]error, len(drivers))
		var wg sync.WaitGroup
		for n, d := range drivers {
			wg.Add(1)
			go func(n int, d *Client) {
				defer wg.Done()
				<-start
				_, errs[n] = d.applyStep(ctx, 4, StepPickWord)
			}(n, d)
		}
		close(start)
		wg.Wait()

		applied := 0
		for _, err := range errs {
			if err == nil {
				applied++
				continue
			}
			assert.ErrorIs(t, err, ErrStaleRound)
		}
		assert.Equal(t, 1, applied)

		final, err := repo.Get(ctx, room.ID)
		require.NoError(t, err)
		gs := final.GameState
		assert.Equal(t, int64(5), gs.RoundSeq)
		assert.Equal(t, "honey", gs.CurrentWord)
		assert.Equal(t, []string{"H", "A", "B"}, gs.TurnOrder)
		assert.Equal(t, "H", gs.CurrentTurnPlayerID)
		assert.Equal(t, 1, picker.next)
		assert.True(t, Project(final, "B", time.Time{}, gs.StartTime).HasWord)
	}
}

func TestResentAnswerForSupersededWordIsStale(t *testing.T) {
	rules := DefaultRules()
	rules.Intermission = time.Hour
	m, cfg, _ := newClientFixture(t, rules)
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Public)
	require.NoError(t, err)
	host := startClient(t, cfg, room.ID, Identity{ID: "H", Name: "Hana"})

	first := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool { return r.GameState.CurrentWord != "" })
	token := KeyOf(first.GameState).Token()
	require.NotEmpty(t, token)
	require.Eventually(t, func() bool { return host.lastView().TurnToken == token }, time.Second, 5*time.Millisecond)

	res, err := host.client.Submit(ctx, token, first.GameState.CurrentWord)
	require.NoError(t, err)
	assert.True(t, res.Correct)

	second := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool {
		return r.GameState.CurrentWord != "" && KeyOf(r.GameState).Token() != token
	})
	assert.NotEqual(t, first.GameState.CurrentWord, second.GameState.CurrentWord)

	_, err = host.client.Submit(ctx, token, first.GameState.CurrentWord)
	assert.ErrorIs(t, err, ErrStaleRound)
	_, err = host.client.Submit(ctx, "", second.GameState.CurrentWord)
	assert.ErrorIs(t, err, ErrStaleRound)

	after, err := cfg.Repo.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, PhasePlaying, after.Status)
	assert.Equal(t, StatusAlive, statusOf(t, after, "H"))
	assert.Equal(t, KeyOf(second.GameState), KeyOf(after.GameState))
}

func TestDuplicateAnswerInFlight(t *testing.T) {
	rules := DefaultRules()
	rules.Intermission = time.Hour
	m, cfg, _ := newClientFixture(t, rules)
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Public)
	require.NoError(t, err)
	host := startClient(t, cfg, room.ID, Identity{ID: "H", Name: "Hana"})

	current := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool { return r.GameState.CurrentWord != "" })
	token := KeyOf(current.GameState).Token()

	require.True(t, host.client.inflight.tryAcquire("answer/"+token))
	_, err = host.client.Submit(ctx, token, current.GameState.CurrentWord)
	assert.ErrorIs(t, err, ErrInFlight)
	assert.ErrorIs(t, host.client.timeout(ctx, KeyOf(current.GameState)), ErrInFlight)
	host.client.inflight.release("answer/" + token)

	unchanged, err := cfg.Repo.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, KeyOf(current.GameState), KeyOf(unchanged.GameState))
	assert.Equal(t, StatusAlive, statusOf(t, unchanged, "H"))

	res, err := host.client.Submit(ctx, token, current.GameState.CurrentWord)
	require.NoError(t, err)
	assert.True(t, res.Correct)
}

func TestClearedInputSyncs(t *testing.T) {
	rules := DefaultRules()
	rules.Intermission = time.Hour
	m, cfg, _ := newClientFixture(t, rules)
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Public)
	require.NoError(t, err)
	host := startClient(t, cfg, room.ID, Identity{ID: "H", Name: "Hana"}).client
	waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool { return r.GameState.CurrentWord != "" })

	require.NoError(t, host.SetInput(ctx, "hon"))
	typed, err := cfg.Repo.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "hon", typed.GameState.CurrentInput)

	require.NoError(t, host.SetInput(ctx, ""))
	cleared, err := cfg.Repo.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.GameState.CurrentInput)
}
