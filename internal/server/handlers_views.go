package server

import (
	"net/http"

	"spelling-hive/internal/web"
	"spelling-hive/internal/words"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func modeCards() []web.ModeCard {
	cards := make([]web.ModeCard, 0, len(words.ModeOrder))
	for _, name := range words.ModeOrder {
		mode := words.ModeFor(name)
		cards = append(cards, web.ModeCard{
			Name:        name,
			BaseSeconds: mode.BaseSeconds,
			Stars:       mode.Stars,
		})
	}
	return cards
}

func (s *Server) handleHome(c *gin.Context) {
	summaries := s.publicSummaries(c.Request.Context(), "")
	cards := make([]web.RoomCard, 0, len(summaries))
	for _, r := range summaries {
		cards = append(cards, web.RoomCard{
			ID:         r.ID,
			Difficulty: r.Difficulty,
			Status:     string(r.Status),
			Active:     r.Active,
			MaxPlayers: r.MaxPlayers,
		})
	}
	templ.Handler(web.Home(modeCards(), cards)).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleRoomView(c *gin.Context) {
	roomID := c.Param("roomID")
	current, err := s.repo.Get(c.Request.Context(), roomID)
	if err != nil {
		log.Info().Str("room_id", roomID).Msg("room view missing room")
		c.Redirect(http.StatusFound, "/")
		return
	}
	templ.Handler(web.RoomPage(web.RoomPageData{
		RoomID:     current.ID,
		JoinCode:   current.JoinCode,
		Difficulty: current.Settings.Difficulty,
		Private:    current.Visibility == "private",
	})).ServeHTTP(c.Writer, c.Request)
}
