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

type staticDefiner struct{}

func (staticDefiner) Lookup(ctx context.Context, word string) string {
	return "definition of " + word
}

type lockedPicker struct {
	mu sync.Mutex
	scriptedPicker
}

func (p *lockedPicker) Pick(difficulty, previous string, attempts int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scriptedPicker.Pick(difficulty, previous, attempts)
}

type clientHarness struct {
	client *Client
	mu     sync.Mutex
	views  []View
	cues   []Cue
	done   chan struct{}
}

func (h *clientHarness) lastView() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.views) == 0 {
		return View{}
	}
	return h.views[len(h.views)-1]
}

func (h *clientHarness) cueWords() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.cues))
	for _, c := range h.cues {
		out = append(out, c.Word)
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func startClient(t *testing.T, cfg ClientConfig, roomID string, who Identity) *clientHarness {
	t.Helper()
	h := &clientHarness{done: make(chan struct{})}
	h.client = NewClient(cfg, roomID, who, time.Time{}, Handlers{
		OnView: func(v View) {
			h.mu.Lock()
			h.views = append(h.views, v)
			h.mu.Unlock()
		},
		OnCue: func(c Cue) {
			h.mu.Lock()
			h.cues = append(h.cues, c)
			h.mu.Unlock()
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(h.done)
		_ = h.client.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func newClientFixture(t *testing.T, rules Rules) (*Manager, ClientConfig, *profile.MemoryStore) {
	t.Helper()
	m, repo, profiles := newTestManager(t, time.Hour)
	picker := &lockedPicker{scriptedPicker: scriptedPicker{words: []string{"honey", "pollen", "nectar", "comb"}}}
	cfg := ClientConfig{
		Repo:        repo,
		Machine:     NewMachine(picker, rules),
		Profiles:    profiles,
		Definitions: staticDefiner{},
		ChatHistory: 50,
	}
	return m, cfg, profiles
}

func waitForRoom(t *testing.T, repo Repository, roomID string, cond func(*Room) bool) *Room {
	t.Helper()
	var last *Room
	require.Eventually(t, func() bool {
		room, err := repo.Get(context.Background(), roomID)
		if err != nil {
			return false
		}
		last = room
		return cond(room)
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestClientsPlayARound(t *testing.T) {
	rules := DefaultRules()
	rules.Intermission = 50 * time.Millisecond
	m, cfg, profiles := newClientFixture(t, rules)
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Public)
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, room.ID, Identity{ID: "A", Name: "Ari"})
	require.NoError(t, err)

	host := startClient(t, cfg, room.ID, Identity{ID: "H", Name: "Hana"})
	guest := startClient(t, cfg, room.ID, Identity{ID: "A", Name: "Ari"})

	current := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool {
		return r.GameState.CurrentWord != "" && r.GameState.CurrentTurnPlayerID == "H"
	})
	assert.Equal(t, []string{"H", "A"}, current.GameState.TurnOrder)
	require.Eventually(t, func() bool { return contains(guest.cueWords(), current.GameState.CurrentWord) }, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return host.lastView().IsMyTurn }, time.Second, 5*time.Millisecond)
	token := host.lastView().TurnToken
	require.NotEmpty(t, token)
	_, err = guest.client.Submit(ctx, token, "anything")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	res, err := host.client.Submit(ctx, token, current.GameState.CurrentWord)
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "A", res.NextPlayerID)

	next := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool {
		return r.GameState.CurrentWord != "" && r.GameState.CurrentTurnPlayerID == "A"
	})
	assert.NotEqual(t, current.GameState.CurrentWord, next.GameState.CurrentWord)

	require.Eventually(t, func() bool { return guest.lastView().IsMyTurn }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return contains(guest.cueWords(), next.GameState.CurrentWord) }, time.Second, 5*time.Millisecond)
	res, err = guest.client.Submit(ctx, KeyOf(next.GameState).Token(), "definitely wrong")
	require.NoError(t, err)
	assert.True(t, res.Eliminated)
	assert.True(t, res.RoundOver)
	assert.Equal(t, "H", res.WinnerID)

	revived := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool {
		return r.GameState.RoundNumber == 2 && r.GameState.CurrentWord != ""
	})
	assert.Equal(t, PhasePlaying, revived.Status)
	assert.Equal(t, StatusAlive, statusOf(t, revived, "A"))

	p, err := profiles.Get(ctx, "H")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Corrects)
	assert.Equal(t, 1, p.Wins)
	assert.Equal(t, 6, p.Nectar)

	require.Eventually(t, func() bool { return len(guest.cueWords()) >= 3 }, time.Second, 5*time.Millisecond)
	cued := guest.cueWords()
	assert.Equal(t, current.GameState.CurrentWord, cued[0])
	assert.Equal(t, next.GameState.CurrentWord, cued[1])

	var serverLines int
	for _, msg := range revived.Chat {
		if msg.Kind == ChatServer {
			serverLines++
		}
	}
	assert.GreaterOrEqual(t, serverLines, 3)
}

func TestClientTakesOverWhenHostLeaves(t *testing.T) {
	m, cfg, _ := newClientFixture(t, DefaultRules())
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Public)
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, room.ID, Identity{ID: "A", Name: "Ari"})
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, room.ID, Identity{ID: "B", Name: "Bo"})
	require.NoError(t, err)

	startClient(t, cfg, room.ID, Identity{ID: "A", Name: "Ari"})
	startClient(t, cfg, room.ID, Identity{ID: "B", Name: "Bo"})

	require.NoError(t, m.LeaveRoom(ctx, room.ID, "H"))
	settled := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool {
		return r.GameState.CurrentWord != "" && r.GameState.CurrentTurnPlayerID == "A"
	})
	assert.Equal(t, "A", DriverID(settled))
	assert.Equal(t, []string{"A", "B"}, settled.GameState.TurnOrder)
}

func TestClientReportsOwnTimeout(t *testing.T) {
	rules := DefaultRules()
	rules.Intermission = time.Hour
	m, cfg, _ := newClientFixture(t, rules)
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Public)
	require.NoError(t, err)
	startClient(t, cfg, room.ID, Identity{ID: "H", Name: "Hana"})

	waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool { return r.GameState.CurrentWord != "" })
	_, err = cfg.Repo.Update(ctx, room.ID, func(r *Room) error {
		r.GameState.StartTime = r.GameState.StartTime.Add(-time.Hour)
		return nil
	})
	require.NoError(t, err)

	over := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool { return r.Status == PhaseIntermission })
	assert.Equal(t, StatusEliminated, statusOf(t, over, "H"))
	assert.Empty(t, over.GameState.LastWinnerID)
}

func TestHostSkipsIntermissionInPrivateRoom(t *testing.T) {
	rules := DefaultRules()
	rules.Intermission = time.Hour
	m, cfg, _ := newClientFixture(t, rules)
	ctx := context.Background()

	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Private)
	require.NoError(t, err)
	host := startClient(t, cfg, room.ID, Identity{ID: "H", Name: "Hana"})

	waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool { return r.GameState.CurrentWord != "" })
	require.Eventually(t, func() bool { return host.lastView().IsMyTurn }, time.Second, 5*time.Millisecond)
	require.NoError(t, host.client.QueueDifficulty(ctx, "genius"))
	require.NoError(t, host.client.ReportTimeout(ctx))
	waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool { return r.Status == PhaseIntermission })

	require.NoError(t, host.client.SkipIntermission(ctx))
	next := waitForRoom(t, cfg.Repo, room.ID, func(r *Room) bool {
		return r.Status == PhasePlaying && r.GameState.RoundNumber == 2
	})
	assert.Equal(t, "genius", next.Settings.Difficulty)
}

func TestGuestCannotSkipOrQueue(t *testing.T) {
	m, cfg, _ := newClientFixture(t, DefaultRules())
	ctx := context.Background()
	room, err := m.CreateRoom(ctx, Identity{ID: "H", Name: "Hana"}, Settings{Difficulty: "baby"}, Private)
	require.NoError(t, err)

	guest := NewClient(cfg, room.ID, Identity{ID: "A", Name: "Ari"}, time.Time{}, Handlers{})
	assert.ErrorIs(t, guest.SkipIntermission(ctx), ErrNotHost)
	assert.ErrorIs(t, guest.QueueDifficulty(ctx, "genius"), ErrNotHost)
	assert.Error(t, guest.QueueDifficulty(ctx, "nonsense"))
	assert.ErrorIs(t, guest.SetInput(ctx, "abc"), ErrWrongPhase)
}

func TestWordsPerMinute(t *testing.T) {
	assert.InDelta(t, 12.0, wordsPerMinute("bumblebee!", 10*time.Second), 0.001)
	assert.Zero(t, wordsPerMinute("bee", 0))
}
