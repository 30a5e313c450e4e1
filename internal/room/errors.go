package room

import "errors"

var (
	ErrRoomNotFound   = errors.New("room does not exist")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomFinished   = errors.New("room is finished")
	ErrRoomExists     = errors.New("room already exists")
	ErrPlayerNotFound = errors.New("player not found")
	ErrStaleRound     = errors.New("round state changed")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNotHost        = errors.New("only the host can do that")
	ErrInFlight       = errors.New("action already in flight")
	ErrWrongPhase     = errors.New("room is not in the right phase")
	ErrInvalidRoom    = errors.New("invalid room settings")
)
