package server

import (
	"context"
	"errors"
	"net/http"

	"spelling-hive/internal/profile"
	"spelling-hive/internal/room"
	"spelling-hive/internal/words"

	"github.com/gin-gonic/gin"
)

// errorStatus maps domain errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrPlayerNotFound), errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, room.ErrWrongPhase), errors.Is(err, room.ErrNotYourTurn),
		errors.Is(err, room.ErrStaleRound), errors.Is(err, room.ErrInFlight):
		return http.StatusConflict
	case errors.Is(err, room.ErrRoomFinished):
		return http.StatusGone
	case errors.Is(err, room.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, room.ErrInvalidRoom), errors.Is(err, words.ErrUnknownDifficulty):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}

// errorMessage is the text sent to websocket clients.
func errorMessage(err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		return "something went wrong"
	}
	return err.Error()
}
