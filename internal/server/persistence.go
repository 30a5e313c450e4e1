package server

import (
	"encoding/json"
	"sync"
	"time"

	"spelling-hive/internal/db"
	"spelling-hive/internal/room"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type persistJob interface {
	apply(conn *gorm.DB, p *persister) error
}

type snapshotJob struct {
	roomID string
	room   *room.Room
	at     time.Time
}

type eventJob struct {
	roomID   string
	playerID string
	kind     string
	payload  map[string]any
	at       time.Time
}

// persister mirrors committed room documents, lifecycle events and chat
// lines into Postgres on a single worker, so commit order is preserved.
// With no database it discards everything.
type persister struct {
	db     *gorm.DB
	jobs   chan persistJob
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	closed bool

	// chatSeen is owned by the worker goroutine.
	chatSeen map[string]time.Time
}

func newPersister(conn *gorm.DB, queue int) *persister {
	p := &persister{
		db:       conn,
		jobs:     make(chan persistJob, queue),
		done:     make(chan struct{}),
		chatSeen: make(map[string]time.Time),
	}
	if conn == nil {
		close(p.done)
		return p
	}
	go p.run()
	return p
}

// mirror is registered as a repository commit hook. It must not block.
func (p *persister) mirror(id string, doc *room.Room) {
	p.enqueue(snapshotJob{roomID: id, room: doc, at: time.Now().UTC()})
}

// RecordEvent implements room.EventSink.
func (p *persister) RecordEvent(roomID, playerID, kind string, payload map[string]any) {
	p.enqueue(eventJob{roomID: roomID, playerID: playerID, kind: kind, payload: payload, at: time.Now().UTC()})
}

func (p *persister) enqueue(job persistJob) {
	if p.db == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.jobs <- job:
	default:
		log.Warn().Msg("persistence queue full, dropping job")
	}
}

func (p *persister) run() {
	defer close(p.done)
	for job := range p.jobs {
		if err := job.apply(p.db, p); err != nil {
			log.Warn().Err(err).Msg("persistence job failed")
		}
	}
}

// Close drains queued jobs and stops the worker.
func (p *persister) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
		<-p.done
	})
}

func (j snapshotJob) apply(conn *gorm.DB, p *persister) error {
	if j.room == nil {
		delete(p.chatSeen, j.roomID)
		return conn.Model(&db.RoomRecord{}).
			Where("id = ?", j.roomID).
			Updates(map[string]any{"status": string(room.PhaseFinished), "updated_at": j.at}).Error
	}
	doc, err := json.Marshal(j.room)
	if err != nil {
		return err
	}
	record := db.RoomRecord{
		ID:         j.room.ID,
		HostID:     j.room.HostID,
		Visibility: string(j.room.Visibility),
		JoinCode:   j.room.JoinCode,
		Difficulty: j.room.Settings.Difficulty,
		Status:     string(j.room.Status),
		Document:   datatypes.JSON(doc),
		CreatedAt:  j.room.CreatedAt,
		UpdatedAt:  j.at,
	}
	err = conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"difficulty", "status", "document", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return err
	}
	return p.archiveChat(conn, j.room)
}

// archiveChat stores chat lines newer than the last archived one.
func (p *persister) archiveChat(conn *gorm.DB, doc *room.Room) error {
	last := p.chatSeen[doc.ID]
	var rows []db.ChatMessage
	for _, msg := range doc.Chat {
		if !msg.Timestamp.After(last) {
			continue
		}
		rows = append(rows, db.ChatMessage{
			RoomID: doc.ID,
			Sender: msg.Sender,
			Text:   msg.Text,
			Kind:   msg.Kind,
			SentAt: msg.Timestamp,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := conn.Create(&rows).Error; err != nil {
		return err
	}
	p.chatSeen[doc.ID] = rows[len(rows)-1].SentAt
	return nil
}

func (j eventJob) apply(conn *gorm.DB, _ *persister) error {
	payload := j.payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.RoomEvent{
		RoomID:    j.roomID,
		Type:      j.kind,
		Payload:   datatypes.JSON(data),
		CreatedAt: j.at,
	}
	if j.playerID != "" {
		id := j.playerID
		event.PlayerID = &id
	}
	return conn.Create(&event).Error
}
