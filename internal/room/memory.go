package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const subscriberBuffer = 8

// MemoryRepository is an in-process Repository. Subscribers receive full
// snapshots; a slow subscriber loses intermediate snapshots but always
// sees the latest one.
type MemoryRepository struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	order   []string
	subs    map[string]map[int]*subscriber
	nextSub int
	hooks   []CommitHook
}

type subscriber struct {
	ch     chan *Room
	closed bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rooms: make(map[string]*Room),
		subs:  make(map[string]map[int]*subscriber),
	}
}

// OnCommit registers a hook run after every committed write, in commit
// order. Hooks run under the repository lock and must not block or call
// back into the repository.
func (m *MemoryRepository) OnCommit(hook CommitHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

func (m *MemoryRepository) Create(ctx context.Context, room *Room) error {
	if room == nil || room.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRoom)
	}
	m.mu.Lock()
	if _, ok := m.rooms[room.ID]; ok {
		m.mu.Unlock()
		return ErrRoomExists
	}
	stored := room.Clone()
	m.rooms[room.ID] = stored
	m.order = append(m.order, room.ID)
	m.runHooksLocked(room.ID, stored)
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (m *MemoryRepository) Update(ctx context.Context, id string, fn func(room *Room) error) (*Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	current, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	working.ID = id
	m.rooms[id] = working
	m.notifyLocked(id, working)
	m.runHooksLocked(id, working)
	out := working.Clone()
	m.mu.Unlock()
	return out, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.rooms[id]; !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.rooms, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	for key, sub := range m.subs[id] {
		deliver(sub, nil)
		sub.closed = true
		close(sub.ch)
		delete(m.subs[id], key)
	}
	delete(m.subs, id)
	m.runHooksLocked(id, nil)
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Room
	for _, id := range m.order {
		room := m.rooms[id]
		if filter.Visibility != "" && room.Visibility != filter.Visibility {
			continue
		}
		if filter.JoinCode != "" && !strings.EqualFold(room.JoinCode, filter.JoinCode) {
			continue
		}
		out = append(out, room.Clone())
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryRepository) Subscribe(ctx context.Context, id string) (*Subscription, error) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	key := m.nextSub
	m.nextSub++
	sub := &subscriber{ch: make(chan *Room, subscriberBuffer)}
	sub.ch <- room.Clone()
	if m.subs[id] == nil {
		m.subs[id] = make(map[int]*subscriber)
	}
	m.subs[id][key] = sub
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub.closed {
				return
			}
			sub.closed = true
			close(sub.ch)
			delete(m.subs[id], key)
			if len(m.subs[id]) == 0 {
				delete(m.subs, id)
			}
		})
	}
	stop := context.AfterFunc(ctx, cancel)
	return &Subscription{
		C: sub.ch,
		cancel: func() {
			stop()
			cancel()
		},
	}, nil
}

func (m *MemoryRepository) notifyLocked(id string, room *Room) {
	for _, sub := range m.subs[id] {
		deliver(sub, room.Clone())
	}
}

// deliver never blocks: when the buffer is full the oldest snapshot is dropped.
func deliver(sub *subscriber, room *Room) {
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- room:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}

func (m *MemoryRepository) runHooksLocked(id string, room *Room) {
	for _, hook := range m.hooks {
		hook(id, room.Clone())
	}
}
