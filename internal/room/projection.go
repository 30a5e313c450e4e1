package room

import (
	"time"
)

// View is what one client derives from a snapshot and its own identity.
type View struct {
	RoomID                string        `json:"roomId"`
	Phase                 Phase         `json:"phase"`
	Visibility            Visibility    `json:"visibility"`
	JoinCode              string        `json:"joinCode,omitempty"`
	Difficulty            string        `json:"difficulty"`
	NextRoundDifficulty   string        `json:"nextRoundDifficulty,omitempty"`
	RoundNumber           int           `json:"roundNumber"`
	Streak                int           `json:"streak"`
	SelfStatus            Status        `json:"selfStatus"`
	IsHost                bool          `json:"isHost"`
	IsDriver              bool          `json:"isDriver"`
	IsMyTurn              bool          `json:"isMyTurn"`
	Waiting               bool          `json:"waiting"`
	HasWord               bool          `json:"hasWord"`
	WordLength            int           `json:"wordLength,omitempty"`
	TurnToken             string        `json:"turnToken,omitempty"`
	CurrentTurnPlayerID   string        `json:"currentTurnPlayerId,omitempty"`
	CurrentTurnName       string        `json:"currentTurnName,omitempty"`
	SpectatorInput        string        `json:"spectatorInput,omitempty"`
	RemainingSeconds      float64       `json:"remainingSeconds"`
	TimerSeconds          float64       `json:"timerSeconds"`
	IntermissionRemaining float64       `json:"intermissionRemaining"`
	WinnerID              string        `json:"winnerId,omitempty"`
	WinnerName            string        `json:"winnerName,omitempty"`
	Players               []Player      `json:"players"`
	Chat                  []ChatMessage `json:"chat"`
}

// Project derives the local view. It tolerates inconsistent documents:
// when the turn holder is missing or ineligible the view reports Waiting
// until the driver's next correction arrives.
func Project(room *Room, selfID string, joinedAt, now time.Time) View {
	if room == nil {
		return View{Phase: PhaseFinished, Waiting: true}
	}
	gs := room.GameState
	v := View{
		RoomID:              room.ID,
		Phase:               room.Status,
		Visibility:          room.Visibility,
		JoinCode:            room.JoinCode,
		Difficulty:          room.Settings.Difficulty,
		NextRoundDifficulty: room.NextRoundDifficulty,
		RoundNumber:         gs.RoundNumber,
		Streak:              gs.Streak,
		IsHost:              selfID != "" && selfID == room.HostID,
		IsDriver:            IsDriver(room.HostID, room.Players, selfID),
		Players:             append([]Player(nil), room.Players...),
		Chat:                ChatSince(room, joinedAt),
	}
	if self, ok := room.Player(selfID); ok {
		v.SelfStatus = self.Status
	}

	switch room.Status {
	case PhasePlaying:
		holder, ok := room.Player(gs.CurrentTurnPlayerID)
		consistent := ok && holder.Status.Eligible() && room.turnIndex(gs.CurrentTurnPlayerID) >= 0
		if gs.CurrentWord == "" || !consistent {
			v.Waiting = true
			return v
		}
		v.HasWord = true
		v.WordLength = len(gs.CurrentWord)
		v.TurnToken = KeyOf(gs).Token()
		v.CurrentTurnPlayerID = holder.ID
		v.CurrentTurnName = holder.Name
		v.IsMyTurn = holder.ID == selfID
		if !v.IsMyTurn {
			v.SpectatorInput = gs.CurrentInput
		}
		v.TimerSeconds = gs.TimerDuration
		v.RemainingSeconds = Remaining(gs, now).Seconds()
	case PhaseIntermission:
		if left := gs.IntermissionEndsAt.Sub(now); left > 0 {
			v.IntermissionRemaining = left.Seconds()
		}
		if gs.LastWinnerID != "" {
			v.WinnerID = gs.LastWinnerID
			v.WinnerName = room.playerName(gs.LastWinnerID)
		}
	default:
		v.Waiting = true
	}
	return v
}

// Remaining is recomputed from absolute timestamps so a client that was
// suspended resumes with the right value.
func Remaining(gs RoundState, now time.Time) time.Duration {
	if gs.CurrentWord == "" || gs.StartTime.IsZero() {
		return 0
	}
	total := time.Duration(gs.TimerDuration * float64(time.Second))
	left := total - now.Sub(gs.StartTime)
	if left < 0 {
		return 0
	}
	return left
}

// Deadline is when the current word's timer runs out.
func Deadline(gs RoundState) time.Time {
	return gs.StartTime.Add(time.Duration(gs.TimerDuration * float64(time.Second)))
}
