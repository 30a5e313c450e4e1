package room

import (
	"context"
	"testing"
	"time"

	"spelling-hive/internal/profile"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) RecordEvent(roomID, playerID, kind string, payload map[string]any) {
	m.Called(roomID, playerID, kind, payload)
}

func TestManagerRecordsLifecycleEvents(t *testing.T) {
	sink := &mockSink{}
	opts := DefaultManagerOptions()
	opts.LeaveGrace = 10 * time.Millisecond
	m := NewManager(NewMemoryRepository(), profile.NewMemoryStore(), sink, opts)
	t.Cleanup(m.Close)
	ctx := context.Background()

	sink.On("RecordEvent", mock.Anything, "host", "room_created", mock.MatchedBy(func(payload map[string]any) bool {
		return payload["difficulty"] == "baby"
	})).Once()
	sink.On("RecordEvent", mock.Anything, "guest", "player_joined", mock.Anything).Once()
	sink.On("RecordEvent", mock.Anything, "guest", "player_left", mock.Anything).Once()
	sink.On("RecordEvent", mock.Anything, "host", "player_left", mock.Anything).Once()
	reaped := make(chan struct{})
	sink.On("RecordEvent", mock.Anything, "", "room_reaped", mock.Anything).Once().Run(func(mock.Arguments) {
		close(reaped)
	})

	room, err := m.CreateRoom(ctx, Identity{ID: "host", Name: "Hana"}, Settings{Difficulty: "baby"}, Public)
	require.NoError(t, err)
	_, err = m.JoinRoom(ctx, room.ID, Identity{ID: "guest", Name: "Gus"})
	require.NoError(t, err)
	require.NoError(t, m.LeaveRoom(ctx, room.ID, "guest"))
	require.NoError(t, m.LeaveRoom(ctx, room.ID, "host"))

	select {
	case <-reaped:
	case <-time.After(2 * time.Second):
		t.Fatal("room was not reaped")
	}
	_, err = m.Repository().Get(ctx, room.ID)
	require.ErrorIs(t, err, ErrRoomNotFound)
	sink.AssertExpectations(t)
}
