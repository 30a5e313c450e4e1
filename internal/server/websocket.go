package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"spelling-hive/internal/room"
	"spelling-hive/internal/words"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	limiter *rate.Limiter
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn, limiter: newSocketLimiter()}
}

func (c *wsConn) Send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() {
	_ = c.conn.Close()
}

type inboundMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Token string `json:"token"`
}

type roomSocketQuery struct {
	UserID string `form:"userId" binding:"required,userid"`
	Name   string `form:"name"`
}

// handleRoomWebsocket attaches one participant to a room. The connection
// runs its own room client: it elects itself driver when appropriate,
// watches its own turn timer and streams its projected view.
func (s *Server) handleRoomWebsocket(c *gin.Context) {
	roomID := c.Param("roomID")
	var q roomSocketQuery
	if !bindQuery(c, &q, identityMessages) {
		return
	}
	name := strings.TrimSpace(q.Name)
	if clean, err := validateName(name); err == nil {
		name = clean
	} else {
		name = ""
	}
	who := room.Identity{ID: strings.TrimSpace(q.UserID), Name: name}

	ctx := c.Request.Context()
	current, err := s.repo.Get(ctx, roomID)
	if err != nil {
		writeError(c, err)
		return
	}
	player, ok := current.Player(who.ID)
	if !ok || player.Status == room.StatusDisconnected {
		if who.Name == "" && ok {
			who.Name = player.Name
		}
		if who.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required to join"})
			return
		}
		current, err = s.rooms.JoinRoom(ctx, roomID, who)
		if err != nil {
			writeError(c, err)
			return
		}
		player, _ = current.Player(who.ID)
	}
	who.Name = player.Name
	joinedAt := player.JoinedAt

	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn := newWSConn(raw)
	log.Info().Str("room_id", roomID).Str("player_id", who.ID).Str("remote", c.Request.RemoteAddr).Msg("ws connected")
	release := s.presence.Mark(roomID, who.ID)

	runCtx, cancel := context.WithCancel(s.ctx)
	client := room.NewClient(room.ClientConfig{
		Repo:        s.repo,
		Machine:     s.machine,
		Profiles:    s.profiles,
		Definitions: s.defs,
		ChatHistory: s.cfg.ChatHistory,
	}, roomID, who, joinedAt, room.Handlers{
		OnView: func(v room.View) {
			_ = conn.Send(gin.H{"type": "view", "view": v})
		},
		OnCue: func(cue room.Cue) {
			_ = conn.Send(gin.H{"type": "cue", "word": cue.Word, "definition": cue.Definition})
		},
		OnClosed: func() {
			_ = conn.Send(gin.H{"type": "closed"})
		},
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := client.Run(runCtx); err != nil {
			log.Warn().Err(err).Str("room_id", roomID).Msg("room client stopped")
		}
	}()
	go func() {
		defer wg.Done()
		s.streamRoster(runCtx, conn, roomID)
	}()

	s.readRoomWS(runCtx, conn, client)
	cancel()
	wg.Wait()
	conn.Close()
	release()
	s.afterDisconnect(roomID, who.ID)
}

func (s *Server) readRoomWS(ctx context.Context, conn *wsConn, client *room.Client) {
	go func() {
		<-ctx.Done()
		_ = conn.conn.SetReadDeadline(time.Now())
	}()
	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("room_id", client.RoomID()).Str("player_id", client.PlayerID()).Msg("ws disconnected")
			return
		}
		if !conn.limiter.Allow() {
			_ = conn.Send(gin.H{"type": "error", "error": "slow down"})
			continue
		}
		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.Send(gin.H{"type": "error", "error": "invalid message"})
			continue
		}
		s.dispatch(ctx, conn, client, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, conn *wsConn, client *room.Client, msg inboundMessage) {
	var err error
	switch msg.Type {
	case "input":
		text, verr := validateInput(msg.Text)
		if verr != nil {
			err = verr
			break
		}
		err = client.SetInput(ctx, text)
	case "answer":
		text, verr := validateAnswer(msg.Text)
		if verr != nil {
			err = verr
			break
		}
		var res room.Result
		res, err = client.Submit(ctx, msg.Token, text)
		if err == nil {
			_ = conn.Send(gin.H{"type": "result", "result": res})
		}
	case "timeout":
		err = client.ReportTimeout(ctx)
	case "chat":
		text, verr := validateChat(msg.Text)
		if verr != nil {
			err = verr
			break
		}
		err = client.Chat(ctx, text)
	case "skip":
		err = client.SkipIntermission(ctx)
	case "difficulty":
		err = client.QueueDifficulty(ctx, msg.Text)
	case "ping":
		_ = conn.Send(gin.H{"type": "pong"})
	default:
		_ = conn.Send(gin.H{"type": "error", "error": "unknown message type"})
		return
	}
	if err != nil {
		_ = conn.Send(gin.H{"type": "error", "error": errorMessage(err)})
	}
}

// streamRoster pushes the resolved presence roster whenever it changes.
func (s *Server) streamRoster(ctx context.Context, conn *wsConn, scope string) {
	updates, stop := s.presence.Subscribe(ctx, scope)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ids, ok := <-updates:
			if !ok {
				return
			}
			roster := room.Roster(ctx, s.profiles, ids)
			if err := conn.Send(gin.H{"type": "presence", "roster": roster}); err != nil {
				return
			}
		}
	}
}

// afterDisconnect leaves the room once the player's last connection is gone.
func (s *Server) afterDisconnect(roomID, playerID string) {
	for _, id := range s.presence.Markers(roomID) {
		if id == playerID {
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.rooms.LeaveRoom(ctx, roomID, playerID); err != nil {
		log.Debug().Err(err).Str("room_id", roomID).Str("player_id", playerID).Msg("leave after disconnect")
	}
}

// lobbyHub fans out public room listings per difficulty to lobby sockets.
// Listings refresh from repository commits, so reaped rooms and phase
// changes reach the lobby without any request.
type lobbyHub struct {
	srv   *Server
	mu    sync.Mutex
	conns map[string]map[*wsConn]struct{}

	listed  map[string]lobbyEntry
	pending map[string]struct{}
	wake    chan struct{}
}

// lobbyEntry is the part of a public room a listing shows.
type lobbyEntry struct {
	difficulty string
	status     room.Phase
	active     int
	maxPlayers int
}

func newLobbyHub(srv *Server) *lobbyHub {
	return &lobbyHub{
		srv:     srv,
		conns:   make(map[string]map[*wsConn]struct{}),
		listed:  make(map[string]lobbyEntry),
		pending: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// observe is registered as a repository commit hook. It must not block:
// it only marks difficulties dirty for run to refresh.
func (h *lobbyHub) observe(id string, doc *room.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev, known := h.listed[id]
	if doc == nil {
		if known {
			delete(h.listed, id)
			h.markLocked(prev.difficulty)
		}
		return
	}
	if doc.Visibility != room.Public {
		return
	}
	next := lobbyEntry{
		difficulty: doc.Settings.Difficulty,
		status:     doc.Status,
		active:     doc.ActiveCount(),
		maxPlayers: doc.Settings.MaxPlayers,
	}
	if known && prev == next {
		return
	}
	h.listed[id] = next
	if known && prev.difficulty != next.difficulty {
		h.markLocked(prev.difficulty)
	}
	h.markLocked(next.difficulty)
}

func (h *lobbyHub) markLocked(difficulty string) {
	h.pending[difficulty] = struct{}{}
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// run pushes coalesced listing refreshes until ctx ends.
func (h *lobbyHub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.wake:
		}
		h.mu.Lock()
		dirty := h.pending
		h.pending = make(map[string]struct{})
		h.mu.Unlock()
		for difficulty := range dirty {
			h.notify(difficulty)
		}
	}
}

func (h *lobbyHub) Add(difficulty string, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.conns[difficulty]
	if group == nil {
		group = make(map[*wsConn]struct{})
		h.conns[difficulty] = group
	}
	group[conn] = struct{}{}
}

func (h *lobbyHub) Remove(difficulty string, conn *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.conns[difficulty]
	if group == nil {
		return
	}
	delete(group, conn)
	conn.Close()
	if len(group) == 0 {
		delete(h.conns, difficulty)
	}
}

func (h *lobbyHub) notify(difficulty string) {
	h.mu.Lock()
	group := h.conns[difficulty]
	conns := make([]*wsConn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	if len(conns) == 0 {
		return
	}
	payload := h.srv.lobbyPayload(context.Background(), difficulty)
	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			h.Remove(difficulty, conn)
		}
	}
}

func lobbyScope(difficulty string) string {
	return "lobby:" + difficulty
}

func (s *Server) lobbyPayload(ctx context.Context, difficulty string) gin.H {
	return gin.H{
		"type":   "lobby",
		"rooms":  s.publicSummaries(ctx, difficulty),
		"roster": room.Roster(ctx, s.profiles, s.presence.Markers(lobbyScope(difficulty))),
	}
}

type lobbySocketQuery struct {
	UserID string `form:"userId" binding:"required,userid"`
}

// handleLobbyWebsocket lists public rooms for one difficulty and who is
// browsing it. Updates are pushed on every join, leave and lobby change.
func (s *Server) handleLobbyWebsocket(c *gin.Context) {
	difficulty := strings.ToLower(c.Param("difficulty"))
	if !words.KnownDifficulty(difficulty) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown difficulty"})
		return
	}
	var q lobbySocketQuery
	if !bindQuery(c, &q, identityMessages) {
		return
	}
	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn := newWSConn(raw)
	log.Info().Str("difficulty", difficulty).Str("player_id", q.UserID).Msg("lobby ws connected")
	s.lobby.Add(difficulty, conn)
	release := s.presence.Mark(lobbyScope(difficulty), q.UserID)
	s.lobby.notify(difficulty)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.ctx.Done():
			_ = raw.SetReadDeadline(time.Now())
		case <-done:
		}
	}()
	for {
		if _, _, err := raw.ReadMessage(); err != nil {
			log.Debug().Err(err).Str("difficulty", difficulty).Msg("lobby ws disconnected")
			break
		}
	}
	s.lobby.Remove(difficulty, conn)
	release()
	s.lobby.notify(difficulty)
}
