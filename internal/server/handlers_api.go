package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"spelling-hive/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type createRoomRequest struct {
	UserID     string `json:"userId" binding:"required,userid"`
	Name       string `json:"name" binding:"required,name"`
	Difficulty string `json:"difficulty" binding:"required,difficulty"`
	Visibility string `json:"visibility" binding:"visibility"`
	MaxPlayers int    `json:"maxPlayers" binding:"omitempty,min=1,max=16"`
}

type joinPublicRequest struct {
	UserID     string `json:"userId" binding:"required,userid"`
	Name       string `json:"name" binding:"required,name"`
	Difficulty string `json:"difficulty" binding:"required,difficulty"`
}

type joinRequest struct {
	UserID string `json:"userId" binding:"required,userid"`
	Name   string `json:"name" binding:"required,name"`
}

type leaveRequest struct {
	UserID string `json:"userId" binding:"required,userid"`
}

type roomURI struct {
	RoomID string `uri:"roomID" binding:"required"`
}

type listRoomsQuery struct {
	Difficulty string `form:"difficulty" binding:"omitempty,difficulty"`
}

// roomSummary is the public listing of a room. It never carries the
// current word.
type roomSummary struct {
	ID          string          `json:"id"`
	JoinCode    string          `json:"code,omitempty"`
	Visibility  room.Visibility `json:"visibility"`
	Status      room.Phase      `json:"status"`
	Difficulty  string          `json:"difficulty"`
	MaxPlayers  int             `json:"maxPlayers"`
	Players     []room.Player   `json:"players"`
	Active      int             `json:"active"`
	RoundNumber int             `json:"roundNumber"`
	DriverID    string          `json:"driverId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func summarize(r *room.Room) roomSummary {
	return roomSummary{
		ID:          r.ID,
		JoinCode:    r.JoinCode,
		Visibility:  r.Visibility,
		Status:      r.Status,
		Difficulty:  r.Settings.Difficulty,
		MaxPlayers:  r.Settings.MaxPlayers,
		Players:     r.Players,
		Active:      r.ActiveCount(),
		RoundNumber: r.GameState.RoundNumber,
		DriverID:    room.DriverID(r),
		CreatedAt:   r.CreatedAt,
	}
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	if !s.enforceRateLimit(c, "create") {
		return
	}
	var req createRoomRequest
	if !bindJSON(c, &req, identityMessages, "invalid room request") {
		return
	}
	name, _ := validateName(req.Name)
	visibility := room.Visibility(req.Visibility)
	created, err := s.rooms.CreateRoom(c.Request.Context(),
		room.Identity{ID: strings.TrimSpace(req.UserID), Name: name},
		room.Settings{Difficulty: strings.ToLower(strings.TrimSpace(req.Difficulty)), MaxPlayers: req.MaxPlayers},
		visibility)
	if err != nil {
		log.Warn().Err(err).Msg("create room failed")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"roomId": created.ID,
		"code":   created.JoinCode,
		"room":   summarize(created),
	})
}

func (s *Server) handleJoinPublic(c *gin.Context) {
	if !s.enforceRateLimit(c, "join") {
		return
	}
	var req joinPublicRequest
	if !bindJSON(c, &req, identityMessages, "invalid join request") {
		return
	}
	name, _ := validateName(req.Name)
	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	joined, err := s.rooms.JoinPublic(c.Request.Context(), room.Identity{ID: strings.TrimSpace(req.UserID), Name: name}, difficulty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": joined.ID, "room": summarize(joined)})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	if !s.enforceRateLimit(c, "join") {
		return
	}
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var req joinRequest
	if !bindJSON(c, &req, identityMessages, "invalid join request") {
		return
	}
	name, _ := validateName(req.Name)
	joined, err := s.rooms.JoinRoom(c.Request.Context(), uri.RoomID, room.Identity{ID: strings.TrimSpace(req.UserID), Name: name})
	if err != nil {
		writeError(c, err)
		return
	}
	p, _ := joined.Player(strings.TrimSpace(req.UserID))
	c.JSON(http.StatusOK, gin.H{
		"roomId": joined.ID,
		"status": p.Status,
		"room":   summarize(joined),
	})
}

func (s *Server) handleLeaveRoom(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var req leaveRequest
	if !bindJSON(c, &req, identityMessages, "invalid leave request") {
		return
	}
	if err := s.rooms.LeaveRoom(c.Request.Context(), uri.RoomID, strings.TrimSpace(req.UserID)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetRoom(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	current, err := s.repo.Get(c.Request.Context(), uri.RoomID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"room": summarize(current)}
	if userID := strings.TrimSpace(c.Query("userId")); userID != "" {
		var joinedAt time.Time
		if p, ok := current.Player(userID); ok {
			joinedAt = p.JoinedAt
		}
		resp["view"] = room.Project(current, userID, joinedAt, time.Now().UTC())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFindByCode(c *gin.Context) {
	found, err := s.rooms.FindByJoinCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": found.ID, "room": summarize(found)})
}

func (s *Server) handleListRooms(c *gin.Context) {
	var q listRoomsQuery
	if !bindQuery(c, &q, identityMessages) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": s.publicSummaries(c.Request.Context(), strings.ToLower(q.Difficulty))})
}

func (s *Server) publicSummaries(ctx context.Context, difficulty string) []roomSummary {
	rooms, err := s.repo.List(ctx, room.ListFilter{Visibility: room.Public, Limit: s.cfg.PublicRoomScanLimit})
	if err != nil {
		log.Warn().Err(err).Msg("list public rooms")
		return []roomSummary{}
	}
	out := make([]roomSummary, 0, len(rooms))
	for _, r := range rooms {
		if difficulty != "" && r.Settings.Difficulty != difficulty {
			continue
		}
		if r.Status == room.PhaseFinished {
			continue
		}
		out = append(out, summarize(r))
	}
	return out
}

func (s *Server) handleGetProfile(c *gin.Context) {
	p, err := s.profiles.Get(c.Request.Context(), c.Param("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleLobbyRoster(c *gin.Context) {
	difficulty := strings.ToLower(c.Param("difficulty"))
	ids := s.presence.Markers(lobbyScope(difficulty))
	c.JSON(http.StatusOK, gin.H{"roster": room.Roster(c.Request.Context(), s.profiles, ids)})
}
