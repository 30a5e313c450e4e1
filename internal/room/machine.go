package room

import (
	"fmt"
	"math"
	"time"

	"spelling-hive/internal/words"
)

// WordPicker is the slice of the word collaborator the machine needs.
type WordPicker interface {
	Pick(difficulty, previous string, attempts int) (string, error)
}

type Rules struct {
	Intermission       time.Duration
	PickAttempts       int
	MinWordSeconds     float64
	StreakDecaySeconds float64
	RampageStreak      int
}

func DefaultRules() Rules {
	return Rules{
		Intermission:       15 * time.Second,
		PickAttempts:       5,
		MinWordSeconds:     3,
		StreakDecaySeconds: 0.5,
		RampageStreak:      25,
	}
}

// Step is what the driver should do next for a given snapshot.
type Step string

const (
	StepNone            Step = ""
	StepStartPlaying    Step = "start-playing"
	StepPickWord        Step = "pick-word"
	StepRepairTurn      Step = "repair-turn"
	StepAwaitBreak      Step = "await-intermission"
	StepEndIntermission Step = "end-intermission"
)

type Outcome struct {
	Correct      bool   `json:"correct"`
	Eliminated   bool   `json:"eliminated"`
	NextPlayerID string `json:"nextPlayerId,omitempty"`
	RoundOver    bool   `json:"roundOver"`
	WinnerID     string `json:"winnerId,omitempty"`
}

// Machine holds the pure round transitions. It never touches a store;
// callers run its methods inside Repository.Update.
type Machine struct {
	words WordPicker
	rules Rules
}

func NewMachine(picker WordPicker, rules Rules) *Machine {
	if rules.PickAttempts < 1 {
		rules.PickAttempts = 1
	}
	return &Machine{words: picker, rules: rules}
}

func (m *Machine) Rules() Rules {
	return m.rules
}

type phaseTransition struct {
	decide func(m *Machine, room *Room, at time.Time) Step
}

var phaseTransitions = map[Phase]phaseTransition{
	PhaseWaiting: {
		decide: func(m *Machine, room *Room, at time.Time) Step {
			return StepStartPlaying
		},
	},
	PhasePlaying: {
		decide: func(m *Machine, room *Room, at time.Time) Step {
			gs := room.GameState
			if len(gs.TurnOrder) > 0 {
				if roundShouldEnd(room) || !room.eligible(gs.CurrentTurnPlayerID) || room.turnIndex(gs.CurrentTurnPlayerID) < 0 {
					return StepRepairTurn
				}
			}
			if gs.CurrentWord == "" {
				return StepPickWord
			}
			return StepNone
		},
	},
	PhaseIntermission: {
		decide: func(m *Machine, room *Room, at time.Time) Step {
			if at.Before(room.GameState.IntermissionEndsAt) {
				return StepAwaitBreak
			}
			return StepEndIntermission
		},
	},
}

// Decide inspects a snapshot and returns the driver's next step.
func (m *Machine) Decide(room *Room, at time.Time) Step {
	if room == nil {
		return StepNone
	}
	transition, ok := phaseTransitions[room.Status]
	if !ok {
		return StepNone
	}
	return transition.decide(m, room, at)
}

// Apply performs step against room. It re-checks the step against the
// document it is given, so applying a step that no longer fits fails
// with ErrWrongPhase instead of corrupting state.
func (m *Machine) Apply(room *Room, step Step, at time.Time) (Outcome, error) {
	if m.Decide(room, at) != step {
		return Outcome{}, fmt.Errorf("%w: %s", ErrWrongPhase, step)
	}
	switch step {
	case StepStartPlaying:
		room.Status = PhasePlaying
		room.GameState.RoundSeq++
		return Outcome{}, nil
	case StepPickWord:
		return Outcome{}, m.pickWord(room, at)
	case StepRepairTurn:
		return m.repairTurn(room, at), nil
	case StepEndIntermission:
		m.endIntermission(room)
		return Outcome{}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %s", ErrWrongPhase, step)
	}
}

// pickWord lays out the round when none is in progress, then draws the
// next word for the current turn holder.
func (m *Machine) pickWord(room *Room, at time.Time) error {
	gs := &room.GameState
	if len(gs.TurnOrder) == 0 {
		order := make([]string, 0, len(room.Players))
		for i := range room.Players {
			if room.Players[i].Status.Eligible() {
				room.Players[i].Status = StatusAlive
				order = append(order, room.Players[i].ID)
			}
		}
		if len(order) == 0 {
			return fmt.Errorf("%w: no eligible players", ErrWrongPhase)
		}
		gs.TurnOrder = order
		gs.CurrentTurnPlayerID = order[0]
		gs.StartedWith = len(order)
		gs.LastWinnerID = ""
		if gs.RoundNumber == 0 {
			gs.RoundNumber = 1
		}
	}
	difficulty := m.effectiveDifficulty(room)
	word, err := m.words.Pick(difficulty, gs.PreviousWord, m.rules.PickAttempts)
	if err != nil {
		return err
	}
	gs.CurrentWord = word
	gs.StartTime = at
	gs.TimerDuration = m.TimerDuration(difficulty, word, gs.Streak)
	gs.CurrentInput = ""
	gs.RoundSeq++
	return nil
}

func (m *Machine) effectiveDifficulty(room *Room) string {
	difficulty := room.Settings.Difficulty
	if m.rules.RampageStreak > 0 && room.GameState.Streak > m.rules.RampageStreak {
		return words.NextMode(difficulty)
	}
	return difficulty
}

// TimerDuration is the seconds allotted for word: the mode's base time,
// one extra second per four letters past eight, shrunk by the streak and
// floored at the minimum.
func (m *Machine) TimerDuration(difficulty, word string, streak int) float64 {
	base := float64(words.ModeFor(difficulty).BaseSeconds)
	if extra := len(word) - 8; extra > 0 {
		base += float64(extra / 4)
	}
	seconds := base - float64(streak)*m.rules.StreakDecaySeconds
	return math.Max(m.rules.MinWordSeconds, seconds)
}

// AdvanceTurn resolves the current turn for actorID. eliminated marks a
// wrong answer or timeout; otherwise the answer was correct.
func (m *Machine) AdvanceTurn(room *Room, actorID string, eliminated bool, at time.Time) (Outcome, error) {
	gs := &room.GameState
	if room.Status != PhasePlaying || gs.CurrentWord == "" {
		return Outcome{}, ErrWrongPhase
	}
	if gs.CurrentTurnPlayerID != actorID {
		return Outcome{}, ErrNotYourTurn
	}
	actor, ok := room.Player(actorID)
	if !ok {
		return Outcome{}, ErrPlayerNotFound
	}
	out := Outcome{Correct: !eliminated, Eliminated: eliminated}
	if eliminated {
		actor.Status = StatusEliminated
	} else {
		actor.Score++
		gs.Streak++
	}
	gs.PreviousWord = gs.CurrentWord
	gs.CurrentWord = ""
	gs.CurrentInput = ""
	gs.RoundSeq++

	if roundShouldEnd(room) {
		m.beginIntermission(room, at, &out)
		return out, nil
	}
	out.NextPlayerID = nextEligible(room, room.turnIndex(actorID))
	gs.CurrentTurnPlayerID = out.NextPlayerID
	return out, nil
}

// repairTurn fixes a document whose turn holder is no longer eligible,
// or whose round should already have ended.
func (m *Machine) repairTurn(room *Room, at time.Time) Outcome {
	gs := &room.GameState
	var out Outcome
	gs.RoundSeq++
	if roundShouldEnd(room) {
		if gs.CurrentWord != "" {
			gs.PreviousWord = gs.CurrentWord
		}
		m.beginIntermission(room, at, &out)
		return out
	}
	from := room.turnIndex(gs.CurrentTurnPlayerID)
	out.NextPlayerID = nextEligible(room, from)
	gs.CurrentTurnPlayerID = out.NextPlayerID
	if gs.CurrentWord != "" {
		gs.PreviousWord = gs.CurrentWord
	}
	gs.CurrentWord = ""
	gs.CurrentInput = ""
	return out
}

// roundShouldEnd applies the win threshold: a multi-player round ends
// with at most one eligible player, a solo round with none.
func roundShouldEnd(room *Room) bool {
	alive := len(room.aliveInTurnOrder())
	if room.GameState.StartedWith > 1 {
		return alive <= 1
	}
	return alive == 0
}

func (m *Machine) beginIntermission(room *Room, at time.Time, out *Outcome) {
	gs := &room.GameState
	out.RoundOver = true
	if gs.StartedWith > 1 {
		if alive := room.aliveInTurnOrder(); len(alive) == 1 {
			out.WinnerID = alive[0]
			if winner, ok := room.Player(alive[0]); ok {
				winner.Wins++
			}
		}
	}
	room.Status = PhaseIntermission
	gs.IntermissionEndsAt = at.Add(m.rules.Intermission)
	gs.LastWinnerID = out.WinnerID
	gs.CurrentWord = ""
	gs.CurrentInput = ""
	gs.CurrentTurnPlayerID = ""
}

// endIntermission is the mass revive. It only runs from intermission, so
// a duplicate trigger against a playing room is rejected by Apply.
func (m *Machine) endIntermission(room *Room) {
	reviveAll(room)
	if room.NextRoundDifficulty != "" {
		room.Settings.Difficulty = room.NextRoundDifficulty
		room.NextRoundDifficulty = ""
	}
	gs := &room.GameState
	gs.CurrentWord = ""
	gs.CurrentInput = ""
	gs.CurrentTurnPlayerID = ""
	gs.TurnOrder = nil
	gs.StartedWith = 0
	gs.Streak = 0
	gs.IntermissionEndsAt = time.Time{}
	gs.RoundNumber++
	gs.RoundSeq++
	room.Status = PhasePlaying
}

// nextEligible walks TurnOrder after index from, wrapping, and returns the
// first eligible player. The player at from is considered last.
func nextEligible(room *Room, from int) string {
	order := room.GameState.TurnOrder
	n := len(order)
	if n == 0 {
		return ""
	}
	if from < 0 {
		from = -1
	}
	for step := 1; step <= n; step++ {
		id := order[((from+step)%n+n)%n]
		if room.eligible(id) {
			return id
		}
	}
	return ""
}
