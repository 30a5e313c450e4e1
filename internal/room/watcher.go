package room

import (
	"context"
	"strconv"
	"sync"
)

// WordKey identifies one drawn word. The same word drawn twice in a row
// has a different start time and counts as a new word.
type WordKey struct {
	Word    string
	Started int64
}

func KeyOf(gs RoundState) WordKey {
	if gs.CurrentWord == "" {
		return WordKey{}
	}
	return WordKey{Word: gs.CurrentWord, Started: gs.StartTime.UnixNano()}
}

// Token names the word to clients without revealing it. It is a string
// so browsers keep every digit of the nanosecond start time.
func (k WordKey) Token() string {
	if k.Word == "" {
		return ""
	}
	return strconv.FormatInt(k.Started, 10)
}

// WordWatcher fires its callback once per distinct word, however many
// snapshots repeat it. Each firing gets a context that is cancelled when
// the next word arrives, so in-flight speech for a stale word stops.
type WordWatcher struct {
	mu     sync.Mutex
	last   WordKey
	cancel context.CancelFunc
	fire   func(ctx context.Context, word string)
}

func NewWordWatcher(fire func(ctx context.Context, word string)) *WordWatcher {
	return &WordWatcher{fire: fire}
}

// Observe reports whether key triggered the callback.
func (w *WordWatcher) Observe(parent context.Context, key WordKey) bool {
	w.mu.Lock()
	if key == w.last {
		w.mu.Unlock()
		return false
	}
	w.last = key
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if key.Word == "" {
		w.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	w.mu.Unlock()

	if w.fire != nil {
		w.fire(ctx, key.Word)
	}
	return true
}

// Stop cancels any in-flight callback context.
func (w *WordWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}
