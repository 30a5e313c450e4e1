package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWordWatcherFiresOncePerWord(t *testing.T) {
	var fired []string
	var contexts []context.Context
	w := NewWordWatcher(func(ctx context.Context, word string) {
		fired = append(fired, word)
		contexts = append(contexts, ctx)
	})
	ctx := context.Background()
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	first := KeyOf(RoundState{CurrentWord: "alpha", StartTime: start})
	assert.True(t, w.Observe(ctx, first))
	assert.False(t, w.Observe(ctx, first))
	assert.False(t, w.Observe(ctx, first))

	again := KeyOf(RoundState{CurrentWord: "alpha", StartTime: start.Add(time.Second)})
	assert.True(t, w.Observe(ctx, again))
	assert.ErrorIs(t, contexts[0].Err(), context.Canceled)

	assert.False(t, w.Observe(ctx, WordKey{}))
	assert.ErrorIs(t, contexts[1].Err(), context.Canceled)

	assert.Equal(t, []string{"alpha", "alpha"}, fired)
	w.Stop()
}
