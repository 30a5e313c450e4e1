package server

import (
	"context"
	"net/http"
	"time"

	"spelling-hive/internal/config"
	"spelling-hive/internal/db"
	"spelling-hive/internal/profile"
	"spelling-hive/internal/room"
	"spelling-hive/internal/words"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	db       *gorm.DB
	cfg      config.Config
	repo     *room.MemoryRepository
	rooms    *room.Manager
	machine  *room.Machine
	profiles profile.Store
	defs     *words.Definitions
	presence *room.Tracker
	lobby    *lobbyHub
	persist  *persister
	limiter  *rateLimiter

	// ctx is cancelled by Close to stop every live socket.
	ctx    context.Context
	cancel context.CancelFunc
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	registerValidators()

	repo := room.NewMemoryRepository()
	persist := newPersister(conn, 256)
	repo.OnCommit(persist.mirror)

	var profiles profile.Store = profile.NewMemoryStore()
	if conn != nil {
		profiles = profile.NewGormStore(conn)
	}

	rules := room.Rules{
		Intermission:       cfg.Intermission(),
		PickAttempts:       cfg.PickWordAttempts,
		MinWordSeconds:     float64(cfg.MinWordSeconds),
		StreakDecaySeconds: cfg.StreakDecaySeconds,
		RampageStreak:      cfg.RampageStreak,
	}
	s := &Server{
		db:       conn,
		cfg:      cfg,
		repo:     repo,
		machine:  room.NewMachine(loadBank(conn), rules),
		profiles: profiles,
		defs:     words.NewDefinitions(cfg.DictionaryAPIURL, cfg.DictionaryRPS),
		presence: room.NewTracker(),
		persist:  persist,
		limiter:  newRateLimiter(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.rooms = room.NewManager(repo, profiles, persist, room.ManagerOptions{
		LeaveGrace:        cfg.LeaveGrace(),
		PublicScanLimit:   cfg.PublicRoomScanLimit,
		DefaultMaxPlayers: cfg.DefaultMaxPlayers,
		ChatHistory:       cfg.ChatHistory,
	})
	s.lobby = newLobbyHub(s)
	repo.OnCommit(s.lobby.observe)
	go s.lobby.run(s.ctx)
	return s
}

// loadBank prefers word lists stored in the database and falls back to
// the embedded lists.
func loadBank(conn *gorm.DB) *words.Bank {
	if conn != nil {
		lists, err := db.LoadWordLists(conn)
		if err != nil {
			log.Warn().Err(err).Msg("load word lists from database")
		} else if len(lists) > 0 {
			log.Info().Int("difficulties", len(lists)).Msg("word lists loaded from database")
			return words.NewBank(lists)
		}
	}
	bank, err := words.EmbeddedBank()
	if err != nil {
		log.Error().Err(err).Msg("load embedded word lists")
		return words.NewBank(nil)
	}
	return bank
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/", s.handleHome)
	r.GET("/rooms/:roomID", s.handleRoomView)

	api := r.Group("/api")
	api.POST("/rooms", s.handleCreateRoom)
	api.POST("/rooms/public", s.handleJoinPublic)
	api.GET("/rooms", s.handleListRooms)
	api.GET("/rooms/code/:code", s.handleFindByCode)
	api.GET("/rooms/:roomID", s.handleGetRoom)
	api.POST("/rooms/:roomID/join", s.handleJoinRoom)
	api.POST("/rooms/:roomID/leave", s.handleLeaveRoom)
	api.GET("/profiles/:userID", s.handleGetProfile)
	api.GET("/lobby/:difficulty/roster", s.handleLobbyRoster)

	r.GET("/ws/rooms/:roomID", s.handleRoomWebsocket)
	r.GET("/ws/lobby/:difficulty", s.handleLobbyWebsocket)
	r.Static("/static", "static")
	return r
}

// Close stops background work. Pending persistence jobs are flushed.
func (s *Server) Close() {
	s.cancel()
	s.rooms.Close()
	s.persist.Close()
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
