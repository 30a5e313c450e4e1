package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectTurnHolderAndSpectator(t *testing.T) {
	m := NewMachine(&scriptedPicker{words: []string{"rhythm"}}, testRules())
	room := newTestRoom("H", "A")
	at := room.CreatedAt
	_, err := m.Apply(room, StepPickWord, at)
	require.NoError(t, err)
	room.GameState.CurrentInput = "rhy"

	mine := Project(room, "H", at, at.Add(4*time.Second))
	assert.True(t, mine.IsMyTurn)
	assert.True(t, mine.IsDriver)
	assert.True(t, mine.HasWord)
	assert.Equal(t, 6, mine.WordLength)
	assert.Empty(t, mine.SpectatorInput)
	assert.InDelta(t, 14.0, mine.RemainingSeconds, 0.001)

	theirs := Project(room, "A", at, at.Add(4*time.Second))
	assert.False(t, theirs.IsMyTurn)
	assert.False(t, theirs.IsDriver)
	assert.Equal(t, "rhy", theirs.SpectatorInput)
	assert.Equal(t, "H", theirs.CurrentTurnName)
	assert.Equal(t, StatusAlive, theirs.SelfStatus)
}

func TestProjectWaitsOnInconsistentDocument(t *testing.T) {
	m := NewMachine(&scriptedPicker{words: []string{"rhythm"}}, testRules())
	room := newTestRoom("H", "A")
	_, err := m.Apply(room, StepPickWord, room.CreatedAt)
	require.NoError(t, err)

	room.GameState.CurrentTurnPlayerID = "ghost"
	v := Project(room, "A", room.CreatedAt, room.CreatedAt)
	assert.True(t, v.Waiting)
	assert.False(t, v.HasWord)

	room.GameState.CurrentTurnPlayerID = "H"
	room.Players[0].Status = StatusEliminated
	v = Project(room, "A", room.CreatedAt, room.CreatedAt)
	assert.True(t, v.Waiting)
}

func TestProjectIntermissionAndDeletedRoom(t *testing.T) {
	room := newTestRoom("H", "A")
	room.Status = PhaseIntermission
	room.GameState.IntermissionEndsAt = room.CreatedAt.Add(10 * time.Second)
	room.GameState.LastWinnerID = "A"

	v := Project(room, "H", room.CreatedAt, room.CreatedAt.Add(4*time.Second))
	assert.InDelta(t, 6.0, v.IntermissionRemaining, 0.001)
	assert.Equal(t, "A", v.WinnerName)

	gone := Project(nil, "H", room.CreatedAt, room.CreatedAt)
	assert.Equal(t, PhaseFinished, gone.Phase)
	assert.True(t, gone.Waiting)
}

func TestProjectChatSinceJoin(t *testing.T) {
	room := newTestRoom("H")
	joined := room.CreatedAt.Add(time.Minute)
	appendChat(room, ChatMessage{Sender: "H", Text: "before", Timestamp: room.CreatedAt}, 10)
	appendChat(room, ChatMessage{Sender: "H", Text: "after", Timestamp: joined.Add(time.Second)}, 10)

	v := Project(room, "H", joined, joined)
	require.Len(t, v.Chat, 1)
	assert.Equal(t, "after", v.Chat[0].Text)
}

func TestRemainingUsesAbsoluteTimes(t *testing.T) {
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	gs := RoundState{CurrentWord: "alpha", StartTime: start, TimerDuration: 10}

	assert.Equal(t, 7*time.Second, Remaining(gs, start.Add(3*time.Second)))
	assert.Zero(t, Remaining(gs, start.Add(time.Hour)))
	assert.Equal(t, start.Add(10*time.Second), Deadline(gs))
	assert.Zero(t, Remaining(RoundState{}, start))
}

func TestChatHistoryIsBounded(t *testing.T) {
	room := newTestRoom("H")
	for i := 0; i < 5; i++ {
		appendChat(room, ChatMessage{Text: string(rune('a' + i))}, 3)
	}
	require.Len(t, room.Chat, 3)
	assert.Equal(t, "c", room.Chat[0].Text)
}
