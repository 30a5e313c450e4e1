package room

import (
	"context"
	"testing"
	"time"

	"spelling-hive/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerMarkerLifetime(t *testing.T) {
	tr := NewTracker()
	releaseA := tr.Mark("room-1", "a")
	releaseA2 := tr.Mark("room-1", "a")
	releaseB := tr.Mark("room-1", "b")
	assert.Equal(t, []string{"a", "b"}, tr.Markers("room-1"))

	releaseA()
	releaseA()
	assert.Equal(t, []string{"a", "b"}, tr.Markers("room-1"), "second connection keeps the marker")
	releaseA2()
	releaseB()
	assert.Empty(t, tr.Markers("room-1"))
}

func TestTrackerSubscribe(t *testing.T) {
	tr := NewTracker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop := tr.Subscribe(ctx, "lobby:genius")
	defer stop()
	assert.Empty(t, <-ch)

	release := tr.Mark("lobby:genius", "a")
	select {
	case ids := <-ch:
		assert.Equal(t, []string{"a"}, ids)
	case <-time.After(time.Second):
		t.Fatal("no presence update")
	}
	release()
	select {
	case ids := <-ch:
		assert.Empty(t, ids)
	case <-time.After(time.Second):
		t.Fatal("no presence update after release")
	}
}

func TestRosterUsesPlaceholderForMissingProfiles(t *testing.T) {
	store := profile.NewMemoryStore()
	store.Put(profile.Profile{ID: "a", DisplayName: "Ari", Corrects: 3})
	store.Put(profile.Profile{ID: "b", DisplayName: "Bo", Corrects: 9})

	roster := Roster(context.Background(), store, []string{"a", "ghost", "b"})
	require.Len(t, roster, 3)
	assert.Equal(t, "Bo", roster[0].Name)
	assert.Equal(t, "Ari", roster[1].Name)
	assert.Equal(t, "Unknown", roster[2].Name)
	assert.Equal(t, "ghost", roster[2].ID)
}
