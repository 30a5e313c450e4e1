package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"spelling-hive/internal/profile"
	"spelling-hive/internal/words"

	"github.com/rs/zerolog/log"
)

type ManagerOptions struct {
	LeaveGrace        time.Duration
	PublicScanLimit   int
	DefaultMaxPlayers int
	ChatHistory       int
}

func DefaultManagerOptions() ManagerOptions {
	return ManagerOptions{
		LeaveGrace:        3 * time.Second,
		PublicScanLimit:   50,
		DefaultMaxPlayers: 10,
		ChatHistory:       50,
	}
}

// Manager creates rooms, matches players into public rooms and handles
// join, leave and the delayed reaping of abandoned rooms.
type Manager struct {
	repo     Repository
	profiles profile.Store
	events   EventSink
	opts     ManagerOptions
	now      func() time.Time

	reapMu  sync.Mutex
	reapers map[string]*time.Timer
	closed  bool
}

func NewManager(repo Repository, profiles profile.Store, events EventSink, opts ManagerOptions) *Manager {
	if events == nil {
		events = nopSink{}
	}
	if opts.DefaultMaxPlayers <= 0 {
		opts.DefaultMaxPlayers = DefaultManagerOptions().DefaultMaxPlayers
	}
	return &Manager{
		repo:     repo,
		profiles: profiles,
		events:   events,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		reapers:  make(map[string]*time.Timer),
	}
}

func (m *Manager) Repository() Repository {
	return m.repo
}

// CreateRoom stores a new room with the host as its only player. The room
// starts in the playing phase; the first word is drawn lazily by the driver.
func (m *Manager) CreateRoom(ctx context.Context, host Identity, settings Settings, visibility Visibility) (*Room, error) {
	if strings.TrimSpace(host.ID) == "" {
		return nil, fmt.Errorf("%w: host id is required", ErrInvalidRoom)
	}
	if !words.KnownDifficulty(settings.Difficulty) {
		return nil, fmt.Errorf("%w: %q", words.ErrUnknownDifficulty, settings.Difficulty)
	}
	if settings.MaxPlayers <= 0 {
		settings.MaxPlayers = m.opts.DefaultMaxPlayers
	}
	if visibility != Private {
		visibility = Public
	}
	now := m.now()
	room := &Room{
		ID:         NewRoomID(),
		HostID:     host.ID,
		Visibility: visibility,
		Status:     PhasePlaying,
		Settings:   settings,
		CreatedAt:  now,
		Players:    []Player{},
		Chat:       []ChatMessage{},
	}
	if visibility == Private {
		room.JoinCode = newJoinCode()
	}
	admit(room, host, m.lookupStats(ctx, host), now)
	if err := m.repo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	log.Info().Str("room_id", room.ID).Str("host_id", host.ID).Str("difficulty", settings.Difficulty).
		Str("visibility", string(visibility)).Msg("room created")
	m.events.RecordEvent(room.ID, host.ID, "room_created", map[string]any{
		"difficulty": settings.Difficulty,
		"visibility": visibility,
		"join_code":  room.JoinCode,
	})
	return room, nil
}

// JoinRoom adds or re-admits a player and cancels any pending reap.
func (m *Manager) JoinRoom(ctx context.Context, roomID string, who Identity) (*Room, error) {
	if strings.TrimSpace(who.ID) == "" {
		return nil, fmt.Errorf("%w: player id is required", ErrInvalidRoom)
	}
	stats := m.lookupStats(ctx, who)
	var rejoined bool
	room, err := m.repo.Update(ctx, roomID, func(room *Room) error {
		if room.Status == PhaseFinished {
			return ErrRoomFinished
		}
		if _, known := room.Player(who.ID); !known && room.ActiveCount() >= room.Settings.MaxPlayers {
			return ErrRoomFull
		}
		_, rejoined = admit(room, who, stats, m.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.cancelReap(roomID)
	p, _ := room.Player(who.ID)
	log.Info().Str("room_id", roomID).Str("player_id", who.ID).Str("status", string(p.Status)).
		Bool("rejoined", rejoined).Msg("player joined")
	m.events.RecordEvent(roomID, who.ID, "player_joined", map[string]any{
		"status":   p.Status,
		"rejoined": rejoined,
	})
	if err := AppendChat(ctx, m.repo, roomID, "Hive", p.Name+" joined the room.", ChatServer, m.now(), m.opts.ChatHistory); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("join chat notice failed")
	}
	return room, nil
}

// LeaveRoom marks the player disconnected right away and schedules a
// check, after the grace delay, that deletes the room once everyone is gone.
func (m *Manager) LeaveRoom(ctx context.Context, roomID, playerID string) error {
	var name string
	_, err := m.repo.Update(ctx, roomID, func(room *Room) error {
		p, err := markDisconnected(room, playerID)
		if err != nil {
			return err
		}
		name = p.Name
		if m.opts.ChatHistory > 0 {
			appendChat(room, ChatMessage{Sender: "Hive", Text: name + " left the room.", Kind: ChatServer, Timestamp: m.now()}, m.opts.ChatHistory)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Str("room_id", roomID).Str("player_id", playerID).Msg("player left")
	m.events.RecordEvent(roomID, playerID, "player_left", nil)
	m.scheduleReap(roomID)
	return nil
}

// FindPublicRoom returns the first public room with a matching
// difficulty, not finished, and below capacity. "" means none.
func (m *Manager) FindPublicRoom(ctx context.Context, difficulty string) (string, error) {
	rooms, err := m.repo.List(ctx, ListFilter{Visibility: Public, Limit: m.opts.PublicScanLimit})
	if err != nil {
		return "", err
	}
	for _, room := range rooms {
		if room.Settings.Difficulty != difficulty || room.Status == PhaseFinished {
			continue
		}
		maxPlayers := room.Settings.MaxPlayers
		if maxPlayers <= 0 {
			maxPlayers = m.opts.DefaultMaxPlayers
		}
		if room.ActiveCount() < maxPlayers {
			return room.ID, nil
		}
	}
	return "", nil
}

// JoinPublic joins a matching public room, creating one when none fits.
func (m *Manager) JoinPublic(ctx context.Context, who Identity, difficulty string) (*Room, error) {
	roomID, err := m.FindPublicRoom(ctx, difficulty)
	if err != nil {
		log.Warn().Err(err).Str("difficulty", difficulty).Msg("public room search failed")
	}
	if roomID != "" {
		room, err := m.JoinRoom(ctx, roomID, who)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, ErrRoomFull) && !errors.Is(err, ErrRoomFinished) && !errors.Is(err, ErrRoomNotFound) {
			return nil, err
		}
	}
	return m.CreateRoom(ctx, who, Settings{Difficulty: difficulty, MaxPlayers: m.opts.DefaultMaxPlayers}, Public)
}

func (m *Manager) FindByJoinCode(ctx context.Context, code string) (*Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrRoomNotFound
	}
	rooms, err := m.repo.List(ctx, ListFilter{Visibility: Private, JoinCode: code, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, ErrRoomNotFound
	}
	return rooms[0], nil
}

// Close stops every pending reap.
func (m *Manager) Close() {
	m.reapMu.Lock()
	defer m.reapMu.Unlock()
	m.closed = true
	for id, timer := range m.reapers {
		timer.Stop()
		delete(m.reapers, id)
	}
}

func (m *Manager) scheduleReap(roomID string) {
	m.reapMu.Lock()
	defer m.reapMu.Unlock()
	if m.closed {
		return
	}
	if existing, ok := m.reapers[roomID]; ok {
		existing.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(m.opts.LeaveGrace, func() {
		m.reapMu.Lock()
		if m.reapers[roomID] != timer {
			m.reapMu.Unlock()
			return
		}
		delete(m.reapers, roomID)
		m.reapMu.Unlock()
		m.reap(roomID)
	})
	m.reapers[roomID] = timer
}

func (m *Manager) cancelReap(roomID string) {
	m.reapMu.Lock()
	defer m.reapMu.Unlock()
	if timer, ok := m.reapers[roomID]; ok {
		timer.Stop()
		delete(m.reapers, roomID)
	}
}

func (m *Manager) pendingReap(roomID string) bool {
	m.reapMu.Lock()
	defer m.reapMu.Unlock()
	_, ok := m.reapers[roomID]
	return ok
}

var errRoomOccupied = errors.New("room still occupied")

// reap tombstones the room as finished inside one atomic update, so a
// racing join is refused, then deletes it.
func (m *Manager) reap(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := m.repo.Update(ctx, roomID, func(room *Room) error {
		if !room.AllDisconnected() {
			return errRoomOccupied
		}
		room.Status = PhaseFinished
		return nil
	})
	if err != nil {
		if !errors.Is(err, errRoomOccupied) && !errors.Is(err, ErrRoomNotFound) {
			log.Warn().Err(err).Str("room_id", roomID).Msg("room reap failed")
		}
		return
	}
	if err := m.repo.Delete(ctx, roomID); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Msg("room delete failed")
		return
	}
	log.Info().Str("room_id", roomID).Msg("room reaped")
	m.events.RecordEvent(roomID, "", "room_reaped", nil)
}

func (m *Manager) lookupStats(ctx context.Context, who Identity) *profile.Profile {
	if m.profiles == nil {
		return nil
	}
	p, err := m.profiles.Ensure(ctx, who.ID, who.Name)
	if err != nil {
		log.Warn().Err(err).Str("player_id", who.ID).Msg("profile lookup failed")
		return nil
	}
	return &p
}
