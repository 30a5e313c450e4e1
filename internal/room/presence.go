package room

import (
	"context"
	"sort"
	"sync"

	"spelling-hive/internal/profile"

	"github.com/rs/zerolog/log"
)

// RosterEntry is one resolved presence marker.
type RosterEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Corrects int    `json:"corrects"`
	Wins     int    `json:"wins"`
}

// Tracker holds ephemeral presence markers per scope (a room id or a
// difficulty lobby). A marker lives exactly as long as the connection that
// placed it: the release func returned by Mark is the disconnect hook.
type Tracker struct {
	mu      sync.Mutex
	markers map[string]map[string]int
	subs    map[string]map[int]chan []string
	nextSub int
}

func NewTracker() *Tracker {
	return &Tracker{
		markers: make(map[string]map[string]int),
		subs:    make(map[string]map[int]chan []string),
	}
}

// Mark places a marker for clientID. The same client may hold several
// connections; its marker disappears when the last one is released.
func (t *Tracker) Mark(scope, clientID string) (release func()) {
	t.mu.Lock()
	if t.markers[scope] == nil {
		t.markers[scope] = make(map[string]int)
	}
	t.markers[scope][clientID]++
	t.publishLocked(scope)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			scoped := t.markers[scope]
			if scoped == nil {
				return
			}
			scoped[clientID]--
			if scoped[clientID] <= 0 {
				delete(scoped, clientID)
			}
			if len(scoped) == 0 {
				delete(t.markers, scope)
			}
			t.publishLocked(scope)
		})
	}
}

func (t *Tracker) Markers(scope string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.markersLocked(scope)
}

func (t *Tracker) markersLocked(scope string) []string {
	ids := make([]string, 0, len(t.markers[scope]))
	for id := range t.markers[scope] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Subscribe streams the marker set for scope, starting with the current one.
func (t *Tracker) Subscribe(ctx context.Context, scope string) (<-chan []string, func()) {
	t.mu.Lock()
	key := t.nextSub
	t.nextSub++
	ch := make(chan []string, 1)
	ch <- t.markersLocked(scope)
	if t.subs[scope] == nil {
		t.subs[scope] = make(map[int]chan []string)
	}
	t.subs[scope][key] = ch
	t.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs[scope], key)
			if len(t.subs[scope]) == 0 {
				delete(t.subs, scope)
			}
			close(ch)
		})
	}
	stop := context.AfterFunc(ctx, cancel)
	return ch, func() {
		stop()
		cancel()
	}
}

func (t *Tracker) publishLocked(scope string) {
	snapshot := t.markersLocked(scope)
	for _, ch := range t.subs[scope] {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// Roster resolves markers to profile data, most corrects first. A marker
// whose profile cannot be loaded becomes a placeholder entry.
func Roster(ctx context.Context, profiles profile.Store, ids []string) []RosterEntry {
	entries := make([]RosterEntry, 0, len(ids))
	for _, id := range ids {
		if profiles == nil {
			entries = append(entries, placeholder(id))
			continue
		}
		p, err := profiles.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("player_id", id).Msg("roster profile lookup failed")
			entries = append(entries, placeholder(id))
			continue
		}
		entries = append(entries, RosterEntry{
			ID:       id,
			Name:     p.DisplayName,
			Title:    p.Title,
			Corrects: p.Corrects,
			Wins:     p.Wins,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Corrects != entries[j].Corrects {
			return entries[i].Corrects > entries[j].Corrects
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

func placeholder(id string) RosterEntry {
	return RosterEntry{ID: id, Name: "Unknown", Title: "Newbee"}
}
