package room

import (
	"crypto/rand"
	"sync"

	"github.com/google/uuid"
)

func NewRoomID() string {
	return uuid.NewString()
}

// newJoinCode draws six characters from an alphabet without look-alikes.
// Codes are not checked for uniqueness.
func newJoinCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

// latch admits one holder per key at a time.
type latch struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLatch() *latch {
	return &latch{held: make(map[string]struct{})}
}

func (l *latch) tryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *latch) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

// EventSink records lifecycle events outside the shared document.
type EventSink interface {
	RecordEvent(roomID, playerID, kind string, payload map[string]any)
}

type nopSink struct{}

func (nopSink) RecordEvent(string, string, string, map[string]any) {}
