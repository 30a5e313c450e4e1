package room

import (
	"time"
)

type Phase string

const (
	PhaseWaiting      Phase = "waiting"
	PhasePlaying      Phase = "playing"
	PhaseIntermission Phase = "intermission"
	PhaseFinished     Phase = "finished"
)

type Status string

const (
	StatusConnected    Status = "connected"
	StatusAlive        Status = "alive"
	StatusEliminated   Status = "eliminated"
	StatusSpectating   Status = "spectating"
	StatusDisconnected Status = "disconnected"
)

// Eligible reports whether a player with this status may hold a turn.
func (s Status) Eligible() bool {
	return s == StatusAlive || s == StatusConnected
}

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

const (
	ChatUser   = "user"
	ChatServer = "server"
)

type Settings struct {
	Difficulty string `json:"difficulty"`
	MaxPlayers int    `json:"maxPlayers"`
}

type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"isHost"`
	Score    int       `json:"score"`
	Corrects int       `json:"corrects"`
	Wins     int       `json:"wins"`
	Title    string    `json:"title,omitempty"`
	Status   Status    `json:"status"`
	JoinedAt time.Time `json:"joinedAt"`
}

// RoundState is written by the elected driver and by the turn holder.
// RoundSeq increases on every committed round mutation.
type RoundState struct {
	CurrentWord         string    `json:"currentWord,omitempty"`
	PreviousWord        string    `json:"previousWord,omitempty"`
	StartTime           time.Time `json:"startTime"`
	TimerDuration       float64   `json:"timerDuration"`
	TurnOrder           []string  `json:"turnOrder"`
	CurrentTurnPlayerID string    `json:"currentTurnPlayerId,omitempty"`
	CurrentInput        string    `json:"currentInput"`
	Streak              int       `json:"streak"`
	RoundNumber         int       `json:"roundNumber"`
	StartedWith         int       `json:"startedWith"`
	IntermissionEndsAt  time.Time `json:"intermissionEndsAt"`
	LastWinnerID        string    `json:"lastWinnerId,omitempty"`
	RoundSeq            int64     `json:"roundSeq"`
}

type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Kind      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Room is the shared document for one game session. Players is kept in
// join order, which is also the turn order used at round start.
type Room struct {
	ID                  string        `json:"id"`
	HostID              string        `json:"hostId"`
	Visibility          Visibility    `json:"type"`
	JoinCode            string        `json:"code,omitempty"`
	Status              Phase         `json:"status"`
	Settings            Settings      `json:"settings"`
	NextRoundDifficulty string        `json:"nextRoundDifficulty,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
	Players             []Player      `json:"players"`
	GameState           RoundState    `json:"gameState"`
	Chat                []ChatMessage `json:"chat"`
}

// Identity is the caller-supplied user identity for create and join.
type Identity struct {
	ID   string
	Name string
}

func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Players = append([]Player(nil), r.Players...)
	out.Chat = append([]ChatMessage(nil), r.Chat...)
	out.GameState.TurnOrder = append([]string(nil), r.GameState.TurnOrder...)
	return &out
}

func (r *Room) Player(id string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i], true
		}
	}
	return nil, false
}

// ActiveCount counts players that have not disconnected.
func (r *Room) ActiveCount() int {
	count := 0
	for _, p := range r.Players {
		if p.Status != StatusDisconnected {
			count++
		}
	}
	return count
}

func (r *Room) AllDisconnected() bool {
	if len(r.Players) == 0 {
		return false
	}
	return r.ActiveCount() == 0
}

// MidRound reports whether a round has been laid out and is in progress.
func (r *Room) MidRound() bool {
	return r.Status == PhasePlaying && len(r.GameState.TurnOrder) > 0
}

func (r *Room) eligible(id string) bool {
	p, ok := r.Player(id)
	return ok && p.Status.Eligible()
}

func (r *Room) turnIndex(id string) int {
	for i, pid := range r.GameState.TurnOrder {
		if pid == id {
			return i
		}
	}
	return -1
}

// aliveInTurnOrder counts eligible players that are part of this round.
func (r *Room) aliveInTurnOrder() []string {
	var alive []string
	for _, id := range r.GameState.TurnOrder {
		if r.eligible(id) {
			alive = append(alive, id)
		}
	}
	return alive
}

func (r *Room) playerName(id string) string {
	if p, ok := r.Player(id); ok {
		return p.Name
	}
	return id
}
