package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhasePlaying    Phase = "playing"
	PhasePaused     Phase = "paused"
	PhaseGameOver   Phase = "game_over"
)

// Action is a discrete player input.
type Action string

const (
	ActionLeft  Action = "left"
	ActionRight Action = "right"
	ActionDown  Action = "down"
	ActionPause Action = "pause"
)

// Feedback messages.
const (
	feedbackStart      = "Monte a frase na estrutura indicada!"
	feedbackValidating = "Analisando estrutura..."
	feedbackReset      = "Reiniciando..."
)

var (
	// ErrInputRejected is returned for input received while the session cannot accept it
	// (not started, paused, validating or over).
	ErrInputRejected = errors.New("input rejected")
	// ErrUnknownAction is returned for an action name Move does not recognize.
	ErrUnknownAction = errors.New("unknown action")
)

// ScoreRecorder receives the final score when a session ends.
type ScoreRecorder interface {
	Submit(ctx context.Context, name string, score int) error
}

// Options configure a Session. Every collaborator is optional.
type Options struct {
	Player    string
	Validator Validator
	Suggester Suggester
	Scores    ScoreRecorder
	// Rand drives the category bag, word pools and structure rolls. Seeded from the clock when nil.
	Rand    *rand.Rand
	Logger  zerolog.Logger
	OnEvent func(Event)
}

// Session is one game. All state changes are serialized by its mutex; oracle calls run with the
// mutex released while the validating or spawning flag holds off ticks and input.
type Session struct {
	mu sync.Mutex

	player    string
	validator Validator
	scores    ScoreRecorder
	onEvent   func(Event)
	log       zerolog.Logger
	rng       *rand.Rand
	gen       *Generator

	grid       Grid
	active     *FallingBlock
	score      int
	level      int
	structure  Structure
	feedback   string
	status     Status
	phase      Phase
	validating bool
	spawning   bool
	interval   time.Duration

	// epoch changes on every reset; oracle results from an older epoch are dropped.
	epoch   uint64
	pending []Event
}

// NewSession creates a session in PhaseNotStarted.
func NewSession(opts Options) *Session {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Session{
		player:    opts.Player,
		validator: opts.Validator,
		scores:    opts.Scores,
		onEvent:   opts.OnEvent,
		log:       opts.Logger,
		rng:       rng,
		gen:       NewGenerator(rng, opts.Suggester, opts.Logger),
		phase:     PhaseNotStarted,
	}
	s.resetLocked()
	s.feedback = feedbackStart
	return s
}

// Start moves a new session to PhasePlaying and spawns the first block.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseNotStarted {
		s.mu.Unlock()
		return fmt.Errorf("start in phase %s: %w", s.phase, ErrInputRejected)
	}
	s.phase = PhasePlaying
	s.mu.Unlock()

	s.spawn(ctx)
	return nil
}

// Tick advances the active block by one row, or spawns one when none is active.
// It does nothing unless the session is playing and idle.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.phase != PhasePlaying || s.validating || s.spawning {
		s.mu.Unlock()
		return
	}
	noBlock := s.active == nil
	s.mu.Unlock()

	if noBlock {
		s.spawn(ctx)
		return
	}
	_ = s.step(ctx, 0, 1)
}

// Move applies a player action.
func (s *Session) Move(ctx context.Context, a Action) error {
	switch a {
	case ActionLeft:
		return s.step(ctx, -1, 0)
	case ActionRight:
		return s.step(ctx, 1, 0)
	case ActionDown:
		return s.step(ctx, 0, 1)
	case ActionPause:
		return s.TogglePause()
	}
	return fmt.Errorf("%q: %w", a, ErrUnknownAction)
}

// TogglePause switches between playing and paused.
func (s *Session) TogglePause() error {
	s.mu.Lock()
	switch {
	case s.validating:
		s.mu.Unlock()
		return fmt.Errorf("pause while validating: %w", ErrInputRejected)
	case s.phase == PhasePlaying:
		s.phase = PhasePaused
		s.emit(Event{Type: EventPaused})
	case s.phase == PhasePaused:
		s.phase = PhasePlaying
		s.emit(Event{Type: EventResumed})
	default:
		s.mu.Unlock()
		return fmt.Errorf("pause in phase %s: %w", s.phase, ErrInputRejected)
	}
	s.unlock()
	return nil
}

// Reset restores a fresh game. Results of oracle calls still in flight are discarded.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.resetLocked()
	s.feedback = feedbackReset
	if s.phase != PhaseNotStarted {
		s.phase = PhasePlaying
	}
	s.emit(Event{Type: EventReset})
	s.unlock()

	s.spawn(ctx)
}

func (s *Session) resetLocked() {
	s.epoch++
	s.grid = NewGrid()
	s.active = nil
	s.score = 0
	s.level = 1
	s.structure = Structures[0]
	s.status = StatusIdle
	s.validating = false
	s.spawning = false
	s.interval = InitialInterval
	s.gen.Reset()
}

// step moves the active block and resolves landings, top-outs and line clears.
func (s *Session) step(ctx context.Context, dx, dy int) error {
	s.mu.Lock()
	if s.phase != PhasePlaying || s.validating || s.active == nil {
		phase, validating := s.phase, s.validating
		s.mu.Unlock()
		return fmt.Errorf("move in phase %s (validating=%t): %w", phase, validating, ErrInputRejected)
	}

	res := AttemptMove(*s.active, dx, dy, s.grid)
	switch res.Outcome {
	case Blocked:
		s.mu.Unlock()
		return nil
	case Moved:
		s.active = &res.Block
		s.emit(Event{Type: EventMoved, Block: &res.Block})
		s.unlock()
		return nil
	case ToppedOut:
		name, score := s.endLocked()
		s.unlock()
		s.record(ctx, name, score)
		return nil
	}

	landed := res.Block
	grid, err := s.grid.WithCellSet(landed.Pos.X, landed.Pos.Y, &landed.Block)
	if err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("landing outside grid")
		return err
	}
	s.grid = grid
	s.active = nil
	s.emit(Event{Type: EventLanded, Block: &landed})

	rows := FullRows(grid)
	if len(rows) == 0 {
		s.unlock()
		s.spawn(ctx)
		return nil
	}

	s.validating = true
	s.feedback = feedbackValidating
	s.emit(Event{Type: EventValidating, Count: len(rows)})
	structure, danger, epoch := s.structure, IsDangerZone(grid), s.epoch
	s.unlock()

	verdicts := ValidateRows(context.WithoutCancel(ctx), s.validator, grid, rows, structure, danger, s.log)
	s.applyClear(epoch, rows, verdicts)
	s.spawn(ctx)
	return nil
}

func (s *Session) applyClear(epoch uint64, rows []int, verdicts []Verdict) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		s.log.Debug().Msg("discarding validation results from before reset")
		return
	}
	s.validating = false

	res := ApplyVerdicts(s.grid, rows, verdicts, s.level)
	oldLevel := s.level
	s.grid = res.Grid
	s.score += res.Gain
	s.level = LevelFor(s.score)
	s.interval = IntervalFor(s.level)
	s.status = res.Status
	if res.Feedback != "" {
		s.feedback = res.Feedback
	}
	if res.Cleared > 0 {
		s.structure = Structures[s.rng.Intn(len(Structures))]
	}

	s.emit(Event{
		Type:     EventRowsCleared,
		Count:    res.Cleared,
		Gain:     res.Gain,
		Status:   res.Status,
		Feedback: s.feedback,
		Outcomes: res.Outcomes,
		Score:    s.score,
		Level:    s.level,
	})
	if s.level > oldLevel {
		s.emit(Event{Type: EventLevelUp, Level: s.level})
	}
	s.unlock()
}

// spawn creates the next falling block if the session is waiting for one.
func (s *Session) spawn(ctx context.Context) {
	s.mu.Lock()
	if s.phase != PhasePlaying || s.validating || s.spawning || s.active != nil {
		s.mu.Unlock()
		return
	}
	s.spawning = true
	d := s.gen.Draw(s.grid, s.structure)
	structure, epoch := s.structure, s.epoch
	s.mu.Unlock()

	text := s.gen.Suggest(context.WithoutCancel(ctx), d, structure)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	s.spawning = false
	if s.phase == PhaseGameOver {
		s.mu.Unlock()
		return
	}

	block := s.gen.Build(d, text, s.level)
	if !CanOccupy(block.Pos, s.grid) {
		name, score := s.endLocked()
		s.unlock()
		s.record(ctx, name, score)
		return
	}
	s.active = &block
	s.emit(Event{Type: EventSpawned, Block: &block})
	s.unlock()
}

func (s *Session) endLocked() (string, int) {
	s.phase = PhaseGameOver
	s.active = nil
	s.emit(Event{Type: EventGameOver, Score: s.score, Level: s.level})
	return s.player, s.score
}

func (s *Session) record(ctx context.Context, name string, score int) {
	s.log.Info().Str("player", name).Int("score", score).Msg("game over")
	if s.scores == nil {
		return
	}
	if err := s.scores.Submit(context.WithoutCancel(ctx), name, score); err != nil {
		s.log.Error().Err(err).Str("player", name).Msg("submit score")
	}
}

// emit queues an event; the mutex must be held.
func (s *Session) emit(e Event) {
	s.pending = append(s.pending, e)
}

// unlock releases the mutex and delivers queued events outside it.
func (s *Session) unlock() {
	events := s.pending
	s.pending = nil
	s.mu.Unlock()
	if s.onEvent == nil {
		return
	}
	for _, e := range events {
		s.onEvent(e)
	}
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Player     string        `json:"player"`
	Grid       Grid          `json:"grid"`
	Active     *FallingBlock `json:"active"`
	Score      int           `json:"score"`
	Level      int           `json:"level"`
	Feedback   string        `json:"feedback"`
	Structure  Structure     `json:"target_structure"`
	Status     Status        `json:"status"`
	Phase      Phase         `json:"phase"`
	Validating bool          `json:"validating"`
	IntervalMS int64         `json:"interval_ms"`
	Recent     []Category    `json:"recent_categories"`
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active *FallingBlock
	if s.active != nil {
		b := *s.active
		active = &b
	}
	return Snapshot{
		Player:     s.player,
		Grid:       s.grid.Clone(),
		Active:     active,
		Score:      s.score,
		Level:      s.level,
		Feedback:   s.feedback,
		Structure:  s.structure,
		Status:     s.status,
		Phase:      s.phase,
		Validating: s.validating,
		IntervalMS: s.interval.Milliseconds(),
		Recent:     s.gen.Recent(),
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Interval returns the current fall interval.
func (s *Session) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Player returns the name the session was created for.
func (s *Session) Player() string { return s.player }
