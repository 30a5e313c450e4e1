package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"spelling-hive/internal/profile"
	"spelling-hive/internal/words"

	"github.com/rs/zerolog/log"
)

const maxInputLength = 64

// Definer resolves a short definition for a word. It never fails.
type Definer interface {
	Lookup(ctx context.Context, word string) string
}

// Cue is emitted once per drawn word so the UI can announce it.
type Cue struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

type Handlers struct {
	OnView   func(View)
	OnCue    func(Cue)
	OnClosed func()
}

type ClientConfig struct {
	Repo        Repository
	Machine     *Machine
	Profiles    profile.Store
	Definitions Definer
	ChatHistory int
}

// Result describes one submitted answer.
type Result struct {
	Outcome
	Word string  `json:"word"`
	WPM  float64 `json:"wpm"`
}

// Client is one participant's agent. Every client subscribes to the room
// and decides locally whether it is the driver; the driver advances the
// shared round, and the turn holder resolves its own turn.
type Client struct {
	cfg      ClientConfig
	roomID   string
	self     Identity
	joinedAt time.Time
	handlers Handlers
	now      func() time.Time

	inflight *latch
	watcher  *WordWatcher
	wg       sync.WaitGroup
	emitMu   sync.Mutex

	mu         sync.Mutex
	latest     *Room
	breakTimer *time.Timer
	breakSeq   int64
	turnTimer  *time.Timer
	turnKey    WordKey
}

func NewClient(cfg ClientConfig, roomID string, self Identity, joinedAt time.Time, h Handlers) *Client {
	c := &Client{
		cfg:      cfg,
		roomID:   roomID,
		self:     self,
		joinedAt: joinedAt,
		handlers: h,
		now:      func() time.Time { return time.Now().UTC() },
		inflight: newLatch(),
	}
	c.watcher = NewWordWatcher(c.cue)
	return c
}

func (c *Client) RoomID() string { return c.roomID }

func (c *Client) PlayerID() string { return c.self.ID }

// Latest returns the most recent snapshot seen, or nil.
func (c *Client) Latest() *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest.Clone()
}

// Run consumes room snapshots until ctx ends or the room is deleted.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub, err := c.cfg.Repo.Subscribe(ctx, c.roomID)
	if err != nil {
		return err
	}
	defer func() {
		sub.Cancel()
		cancel()
		c.stopTimers()
		c.watcher.Stop()
		c.wg.Wait()
		if c.handlers.OnClosed != nil {
			c.handlers.OnClosed()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case room, ok := <-sub.C:
			if !ok {
				return nil
			}
			if room == nil {
				c.emitView(Project(nil, c.self.ID, c.joinedAt, c.now()))
				return nil
			}
			c.handle(ctx, room)
		}
	}
}

func (c *Client) handle(ctx context.Context, room *Room) {
	c.mu.Lock()
	c.latest = room
	c.mu.Unlock()

	c.emitView(Project(room, c.self.ID, c.joinedAt, c.now()))
	c.drive(ctx, room)
	c.watchTurn(ctx, room)
	c.watcher.Observe(ctx, KeyOf(room.GameState))
}

// drive runs the driver's next step for room when this client is elected.
func (c *Client) drive(ctx context.Context, room *Room) {
	if !IsDriver(room.HostID, room.Players, c.self.ID) {
		c.stopBreakTimer()
		return
	}
	step := c.cfg.Machine.Decide(room, c.now())
	if step == StepAwaitBreak {
		c.scheduleBreak(ctx, room)
		return
	}
	c.stopBreakTimer()
	if step == StepNone {
		return
	}
	c.runStep(ctx, room.GameState.RoundSeq, step)
}

func stepKey(seq int64, step Step) string {
	return fmt.Sprintf("%d/%s", seq, step)
}

// runStep applies step in the background unless the same seq and step is
// already in flight from this client.
func (c *Client) runStep(ctx context.Context, seq int64, step Step) {
	if ctx.Err() != nil {
		return
	}
	key := stepKey(seq, step)
	if !c.inflight.tryAcquire(key) {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.inflight.release(key)

		out, err := c.applyStep(ctx, seq, step)
		switch {
		case err == nil:
			log.Debug().Str("room_id", c.roomID).Str("driver_id", c.self.ID).Str("step", string(step)).
				Int64("seq", seq).Msg("driver step applied")
			c.settle(ctx, out, "", 0)
		case errors.Is(err, ErrStaleRound), errors.Is(err, ErrWrongPhase), errors.Is(err, ErrRoomNotFound), errors.Is(err, context.Canceled):
			log.Debug().Err(err).Str("room_id", c.roomID).Str("step", string(step)).Msg("driver step skipped")
		default:
			log.Warn().Err(err).Str("room_id", c.roomID).Str("step", string(step)).Msg("driver step failed")
		}
	}()
}

// applyStep is the guarded driver write. It fails with ErrStaleRound when
// the document has moved past seq or this client no longer drives.
func (c *Client) applyStep(ctx context.Context, seq int64, step Step) (Outcome, error) {
	var out Outcome
	_, err := c.cfg.Repo.Update(ctx, c.roomID, func(room *Room) error {
		if room.GameState.RoundSeq != seq {
			return ErrStaleRound
		}
		if !IsDriver(room.HostID, room.Players, c.self.ID) {
			return ErrStaleRound
		}
		at := c.now()
		var err error
		out, err = c.cfg.Machine.Apply(room, step, at)
		if err != nil {
			return err
		}
		c.announce(room, out, "", "", at)
		return nil
	})
	return out, err
}

// scheduleBreak arms one timer per intermission at its absolute end.
func (c *Client) scheduleBreak(ctx context.Context, room *Room) {
	seq := room.GameState.RoundSeq
	delay := room.GameState.IntermissionEndsAt.Sub(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.breakTimer != nil && c.breakSeq == seq {
		return
	}
	if c.breakTimer != nil {
		c.breakTimer.Stop()
	}
	c.breakSeq = seq
	c.breakTimer = time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if latest := c.Latest(); latest != nil {
			c.drive(ctx, latest)
		}
	})
}

// watchTurn arms the self-timeout while this client holds the turn.
func (c *Client) watchTurn(ctx context.Context, room *Room) {
	gs := room.GameState
	mine := room.Status == PhasePlaying && gs.CurrentWord != "" && gs.CurrentTurnPlayerID == c.self.ID
	key := KeyOf(gs)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !mine {
		if c.turnTimer != nil {
			c.turnTimer.Stop()
			c.turnTimer = nil
		}
		c.turnKey = WordKey{}
		return
	}
	if c.turnTimer != nil && c.turnKey == key {
		return
	}
	if c.turnTimer != nil {
		c.turnTimer.Stop()
	}
	c.turnKey = key
	c.turnTimer = time.AfterFunc(Deadline(gs).Sub(c.now()), func() {
		if ctx.Err() != nil {
			return
		}
		if err := c.timeout(ctx, key); err != nil && !isBenign(err) {
			log.Warn().Err(err).Str("room_id", c.roomID).Str("player_id", c.self.ID).Msg("timeout report failed")
		}
	})
}

func (c *Client) stopBreakTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.breakTimer != nil {
		c.breakTimer.Stop()
		c.breakTimer = nil
	}
}

func (c *Client) stopTimers() {
	c.stopBreakTimer()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turnTimer != nil {
		c.turnTimer.Stop()
		c.turnTimer = nil
	}
}

func (c *Client) cue(ctx context.Context, word string) {
	if c.handlers.OnCue == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		definition := words.FallbackDefinition
		if c.cfg.Definitions != nil {
			definition = c.cfg.Definitions.Lookup(ctx, word)
		}
		if ctx.Err() != nil {
			return
		}
		c.emitMu.Lock()
		defer c.emitMu.Unlock()
		c.handlers.OnCue(Cue{Word: word, Definition: definition})
	}()
}

func (c *Client) emitView(v View) {
	if c.handlers.OnView == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.handlers.OnView(v)
}

// Submit resolves the turn named by token with answer. An answer that
// arrives after the deadline counts as wrong. A token for a word that is
// no longer current is rejected with ErrStaleRound so a resent answer
// never lands on the next word.
func (c *Client) Submit(ctx context.Context, token, answer string) (Result, error) {
	key := "answer/" + token
	if !c.inflight.tryAcquire(key) {
		return Result{}, ErrInFlight
	}
	defer c.inflight.release(key)

	var res Result
	var stars int
	var started time.Time
	at := c.now()
	_, err := c.cfg.Repo.Update(ctx, c.roomID, func(room *Room) error {
		gs := room.GameState
		if room.Status != PhasePlaying || gs.CurrentWord == "" {
			return ErrWrongPhase
		}
		if gs.CurrentTurnPlayerID != c.self.ID {
			return ErrNotYourTurn
		}
		if token == "" || KeyOf(gs).Token() != token {
			return ErrStaleRound
		}
		word := gs.CurrentWord
		correct := words.CheckAnswer(word, answer) && !at.After(Deadline(gs))
		stars = words.ModeFor(c.cfg.Machine.effectiveDifficulty(room)).Stars
		started = gs.StartTime
		out, err := c.cfg.Machine.AdvanceTurn(room, c.self.ID, !correct, at)
		if err != nil {
			return err
		}
		if correct {
			if p, ok := room.Player(c.self.ID); ok {
				p.Corrects++
			}
		}
		c.announce(room, out, c.self.ID, word, at)
		res = Result{Outcome: out, Word: word}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if res.Correct {
		res.WPM = wordsPerMinute(res.Word, at.Sub(started))
	}
	c.settle(ctx, res.Outcome, c.self.ID, stars)
	log.Info().Str("room_id", c.roomID).Str("player_id", c.self.ID).Bool("correct", res.Correct).
		Bool("round_over", res.RoundOver).Msg("answer submitted")
	return res, nil
}

// ReportTimeout eliminates this client if it still holds the turn.
func (c *Client) ReportTimeout(ctx context.Context) error {
	latest := c.Latest()
	if latest == nil {
		return ErrRoomNotFound
	}
	return c.timeout(ctx, KeyOf(latest.GameState))
}

func (c *Client) timeout(ctx context.Context, key WordKey) error {
	latchKey := "answer/" + key.Token()
	if !c.inflight.tryAcquire(latchKey) {
		return ErrInFlight
	}
	defer c.inflight.release(latchKey)

	at := c.now()
	var out Outcome
	_, err := c.cfg.Repo.Update(ctx, c.roomID, func(room *Room) error {
		if KeyOf(room.GameState) != key || key.Word == "" {
			return ErrStaleRound
		}
		var err error
		out, err = c.cfg.Machine.AdvanceTurn(room, c.self.ID, true, at)
		if err != nil {
			return err
		}
		c.announce(room, out, c.self.ID, key.Word, at)
		return nil
	})
	if err != nil {
		return err
	}
	c.settle(ctx, out, c.self.ID, 0)
	log.Info().Str("room_id", c.roomID).Str("player_id", c.self.ID).Str("word", key.Word).Msg("turn timed out")
	return nil
}

// SetInput mirrors the turn holder's partial typing for spectators.
func (c *Client) SetInput(ctx context.Context, text string) error {
	if len(text) > maxInputLength {
		text = text[:maxInputLength]
	}
	_, err := c.cfg.Repo.Update(ctx, c.roomID, func(room *Room) error {
		if room.Status != PhasePlaying || room.GameState.CurrentWord == "" {
			return ErrWrongPhase
		}
		if room.GameState.CurrentTurnPlayerID != c.self.ID {
			return ErrNotYourTurn
		}
		room.GameState.CurrentInput = text
		return nil
	})
	return err
}

func (c *Client) Chat(ctx context.Context, text string) error {
	return AppendChat(ctx, c.cfg.Repo, c.roomID, c.self.Name, text, ChatUser, c.now(), c.cfg.ChatHistory)
}

// SkipIntermission lets the host of a private room end the break early.
// The driver still performs the revive.
func (c *Client) SkipIntermission(ctx context.Context) error {
	_, err := c.cfg.Repo.Update(ctx, c.roomID, func(room *Room) error {
		if room.HostID != c.self.ID {
			return ErrNotHost
		}
		if room.Visibility != Private {
			return fmt.Errorf("%w: only private rooms can skip", ErrNotHost)
		}
		if room.Status != PhaseIntermission {
			return ErrWrongPhase
		}
		room.GameState.IntermissionEndsAt = c.now()
		room.GameState.RoundSeq++
		return nil
	})
	return err
}

// QueueDifficulty sets the difficulty applied at the next revive.
func (c *Client) QueueDifficulty(ctx context.Context, difficulty string) error {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if !words.KnownDifficulty(difficulty) {
		return fmt.Errorf("%w: %q", words.ErrUnknownDifficulty, difficulty)
	}
	_, err := c.cfg.Repo.Update(ctx, c.roomID, func(room *Room) error {
		if room.HostID != c.self.ID {
			return ErrNotHost
		}
		if difficulty == room.Settings.Difficulty {
			room.NextRoundDifficulty = ""
			return nil
		}
		room.NextRoundDifficulty = difficulty
		return nil
	})
	return err
}

// announce writes server chat lines for an eliminated actor and a round winner.
func (c *Client) announce(room *Room, out Outcome, actorID, word string, at time.Time) {
	if c.cfg.ChatHistory <= 0 {
		return
	}
	if out.Eliminated && actorID != "" {
		text := room.playerName(actorID) + " was eliminated."
		if word != "" {
			text = fmt.Sprintf("%s was eliminated. The word was %q.", room.playerName(actorID), word)
		}
		appendChat(room, ChatMessage{Sender: "Hive", Text: text, Kind: ChatServer, Timestamp: at}, c.cfg.ChatHistory)
	}
	if out.WinnerID != "" {
		text := fmt.Sprintf("%s won round %d!", room.playerName(out.WinnerID), room.GameState.RoundNumber)
		appendChat(room, ChatMessage{Sender: "Hive", Text: text, Kind: ChatServer, Timestamp: at}, c.cfg.ChatHistory)
	}
}

// settle applies profile side effects after a committed turn. Failures
// are logged; the round has already moved on.
func (c *Client) settle(ctx context.Context, out Outcome, actorID string, stars int) {
	if c.cfg.Profiles == nil {
		return
	}
	if out.Correct && actorID != "" {
		if err := c.cfg.Profiles.ApplyCorrectAnswer(ctx, actorID, stars); err != nil {
			log.Warn().Err(err).Str("player_id", actorID).Msg("profile correct update failed")
		}
	}
	if out.WinnerID != "" {
		if err := c.cfg.Profiles.ApplyWin(ctx, out.WinnerID); err != nil {
			log.Warn().Err(err).Str("player_id", out.WinnerID).Msg("profile win update failed")
		}
	}
}

func isBenign(err error) bool {
	return errors.Is(err, ErrStaleRound) || errors.Is(err, ErrInFlight) || errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrWrongPhase) || errors.Is(err, ErrRoomNotFound) || errors.Is(err, context.Canceled)
}

// wordsPerMinute uses the five-characters-per-word convention.
func wordsPerMinute(word string, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return (float64(len(word)) / 5) / elapsed.Minutes()
}
