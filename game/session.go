package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/state"
	"github.com/wfunc/flashfive/timer"
	"github.com/zyedidia/generic/mapset"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseWelcome      Phase = "welcome"
	PhaseMemorization Phase = "memorization"
	PhaseTesting      Phase = "testing"
	PhaseResults      Phase = "results"
	PhaseGameOver     Phase = "gameOver"
)

// MaxSelections is how many labels a player must pick each round.
const MaxSelections = models.ObjectsPerList

var (
	// ErrInvalidState marks an operation that is not valid in the current phase
	// or with the current selection. Session state is left untouched.
	ErrInvalidState = errors.New("invalid session state")
	// ErrSelectionLimitReached signals a pick beyond the limit; nothing changes.
	ErrSelectionLimitReached = errors.New("selection limit reached")
	// ErrUnknownLabel is returned when a label is not among this round's choices.
	ErrUnknownLabel = errors.New("label is not a choice this round")
)

// CatalogReader is the read-only view of the catalog a session plays from.
// Returned categories are copies owned by the caller.
type CatalogReader interface {
	DemoCategory() models.Category
	GameCategory(index int) (models.Category, bool)
}

// Options tunes a session. Zero values fall back to the defaults.
type Options struct {
	MemorizeSeconds int
	TickPeriod      time.Duration
	Lives           int
	DemoLives       int
	Images          ImageLoader
	Listener        Listener
	Rand            *rand.Rand
}

func (o *Options) applyDefaults() {
	if o.MemorizeSeconds <= 0 {
		o.MemorizeSeconds = 10
	}
	if o.TickPeriod <= 0 {
		o.TickPeriod = time.Second
	}
	if o.Lives <= 0 {
		o.Lives = 3
	}
	if o.DemoLives <= 0 {
		o.DemoLives = 1
	}
	if o.Listener == nil {
		o.Listener = NopListener{}
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// Snapshot is a copy of everything a view shows for the current phase.
type Snapshot struct {
	Phase            Phase    `json:"phase"`
	Round            int      `json:"round"`
	Score            int      `json:"score"`
	Lives            int      `json:"lives"`
	Demo             bool     `json:"demo"`
	CategoryID       int      `json:"category_id"`
	Description      string   `json:"description,omitempty"`
	ImageSource      string   `json:"image_source,omitempty"`
	ImageFallback    bool     `json:"image_fallback,omitempty"`
	Remaining        int      `json:"remaining"`
	Choices          []string `json:"choices,omitempty"`
	Selected         []string `json:"selected,omitempty"`
	AwaitingRealGame bool     `json:"awaiting_real_game,omitempty"`
}

// Session is one player's run through the memorization game. All methods are
// safe to call from any goroutine; they are serialized by the session lock.
type Session struct {
	ID string

	catalog   CatalogReader
	opts      Options
	countdown *timer.Countdown
	machine   *state.BaseStateMachine
	states    map[Phase]state.State
	mutex     sync.Mutex
	after     []func()
	draining  bool

	round    int
	score    int
	lives    int
	demo     bool
	awaiting bool

	current       models.Category
	hasCategory   bool
	imageSource   string
	imageFallback bool
	imageReady    bool

	choices       []string
	selected      mapset.Set[string]
	selectedOrder []string
	pending       *models.RoundResult
	lastResult    *models.RoundResult
	summary       *models.GameOverSummary

	correctSelectionsTotal int
	totalSelectionsTotal   int

	// token tags async work (image loads, countdown callbacks, delayed advances)
	// with the round it belongs to.
	token uint64
}

// NewSession builds a session in the welcome phase.
func NewSession(id string, cat CatalogReader, scheduler timer.Scheduler, opts Options) *Session {
	opts.applyDefaults()
	s := &Session{
		ID:        id,
		catalog:   cat,
		opts:      opts,
		countdown: timer.NewCountdown(scheduler, opts.TickPeriod),
		selected:  mapset.New[string](),
	}

	s.states = map[Phase]state.State{
		PhaseWelcome:      &WelcomeState{phaseBase: newPhaseBase(PhaseWelcome, s)},
		PhaseMemorization: &MemorizationState{phaseBase: newPhaseBase(PhaseMemorization, s)},
		PhaseTesting:      &TestingState{phaseBase: newPhaseBase(PhaseTesting, s)},
		PhaseResults:      &ResultsState{phaseBase: newPhaseBase(PhaseResults, s)},
		PhaseGameOver:     &GameOverState{phaseBase: newPhaseBase(PhaseGameOver, s)},
	}
	s.machine = state.NewBaseStateMachine(s.states[PhaseWelcome])
	s.registerTransitions()
	return s
}

func (s *Session) registerTransitions() {
	add := func(from, to Phase) {
		s.machine.AddTransition(string(from), string(to), nil)
	}
	for p := range s.states {
		add(p, PhaseWelcome)
	}
	add(PhaseWelcome, PhaseMemorization)
	add(PhaseWelcome, PhaseGameOver)
	add(PhaseMemorization, PhaseTesting)
	add(PhaseTesting, PhaseResults)
	add(PhaseResults, PhaseMemorization)
	add(PhaseResults, PhaseGameOver)
}

// --- locking helpers ---

// run executes fn under the session lock, then delivers deferred work
// (listener calls, image loads) with the lock released.
func (s *Session) run(fn func() error) error {
	s.mutex.Lock()
	err := fn()
	s.mutex.Unlock()

	s.drain()
	return err
}

// drain runs queued work in the order it was queued under the lock. Only one
// goroutine drains at a time; work queued meanwhile, including from inside a
// callback, is picked up by that goroutine before it returns.
func (s *Session) drain() {
	s.mutex.Lock()
	if s.draining {
		s.mutex.Unlock()
		return
	}
	s.draining = true
	for len(s.after) > 0 {
		batch := s.after
		s.after = nil
		s.mutex.Unlock()
		for _, f := range batch {
			f()
		}
		s.mutex.Lock()
	}
	s.draining = false
	s.mutex.Unlock()
}

func (s *Session) queueLocked(f func()) {
	s.after = append(s.after, f)
}

func (s *Session) changeLocked(p Phase) error {
	if err := s.machine.ChangeState(s.states[p]); err != nil {
		if errors.Is(err, state.ErrTransitionNotAllowed) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidState, s.Phase(), p)
		}
		return err
	}
	return nil
}

func (s *Session) emitPhaseLocked() {
	snap := s.snapshotLocked()
	l := s.opts.Listener
	s.queueLocked(func() { l.OnPhaseChange(snap) })
}

// --- operations ---

// StartSession resets everything and begins round 1 in demo or real mode.
// It is valid from any phase.
func (s *Session) StartSession(demo bool) error {
	return s.run(func() error {
		if err := s.changeLocked(PhaseWelcome); err != nil {
			return err
		}
		s.demo = demo
		if demo {
			s.lives = s.opts.DemoLives
		} else {
			s.lives = s.opts.Lives
		}
		logger.Log.Infof("Session %s starting (demo=%v, lives=%d)", s.ID, demo, s.lives)
		return s.beginRoundLocked()
	})
}

// Restart abandons the session and returns to the welcome phase.
func (s *Session) Restart() error {
	return s.run(func() error {
		if err := s.changeLocked(PhaseWelcome); err != nil {
			return err
		}
		s.emitPhaseLocked()
		return nil
	})
}

// beginRoundLocked picks the category for the current round. In a real game a
// round past the last category goes straight to game over.
func (s *Session) beginRoundLocked() error {
	var cat models.Category
	if s.demo {
		cat = s.catalog.DemoCategory()
	} else {
		var ok bool
		cat, ok = s.catalog.GameCategory(s.round - 1)
		if !ok {
			logger.Log.Infof("Session %s ran out of categories after round %d", s.ID, s.round-1)
			return s.enterGameOverLocked()
		}
	}

	s.token++
	s.current = cat
	s.hasCategory = true
	s.clearSelectionLocked()
	s.choices = nil
	s.pending = nil
	s.awaiting = false

	if err := s.changeLocked(PhaseMemorization); err != nil {
		return err
	}
	s.emitPhaseLocked()
	s.loadImageLocked()
	return nil
}

// ToggleSelect picks or unpicks label during the testing phase and reports
// whether it is now selected. A sixth pick returns ErrSelectionLimitReached.
func (s *Session) ToggleSelect(label string) (bool, error) {
	var selected bool
	err := s.run(func() error {
		if s.Phase() != PhaseTesting {
			return fmt.Errorf("%w: toggle outside testing", ErrInvalidState)
		}
		if !s.isChoiceLocked(label) {
			return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
		}
		if s.selected.Has(label) {
			s.selected.Remove(label)
			for i, l := range s.selectedOrder {
				if l == label {
					s.selectedOrder = append(s.selectedOrder[:i], s.selectedOrder[i+1:]...)
					break
				}
			}
		} else {
			if s.selected.Size() >= MaxSelections {
				return ErrSelectionLimitReached
			}
			s.selected.Put(label)
			s.selectedOrder = append(s.selectedOrder, label)
			selected = true
		}
		picks := append([]string(nil), s.selectedOrder...)
		l := s.opts.Listener
		s.queueLocked(func() { l.OnSelectionChange(picks) })
		return nil
	})
	return selected, err
}

// SubmitAnswers grades exactly five picks against the round's category and
// moves to results. Any other selection size fails with ErrInvalidState.
func (s *Session) SubmitAnswers() error {
	return s.run(func() error {
		if s.Phase() != PhaseTesting {
			return fmt.Errorf("%w: submit outside testing", ErrInvalidState)
		}
		if s.selected.Size() != MaxSelections {
			return fmt.Errorf("%w: %d of %d labels selected", ErrInvalidState, s.selected.Size(), MaxSelections)
		}

		correct, incorrect, missed := partition(s.selectedOrder, s.current)
		s.pending = &models.RoundResult{
			Round:     s.round,
			Correct:   correct,
			Incorrect: incorrect,
			Missed:    missed,
			Demo:      s.demo,
		}
		s.correctSelectionsTotal += len(correct)
		s.totalSelectionsTotal += len(s.selectedOrder)

		if err := s.changeLocked(PhaseResults); err != nil {
			return err
		}
		s.emitPhaseLocked()
		if s.lastResult != nil {
			result := *s.lastResult
			l := s.opts.Listener
			s.queueLocked(func() { l.OnResults(result) })
		}
		return nil
	})
}

// scoreRoundLocked runs on entering results.
func (s *Session) scoreRoundLocked() {
	if s.pending == nil {
		return
	}
	result := *s.pending
	roundScore, tier, lifeLost := ScoreRound(len(result.Correct), s.demo)
	if !s.demo {
		s.score += roundScore
	}
	if lifeLost {
		s.lives--
	}
	result.RoundScore = roundScore
	result.Tier = tier
	result.Title = tier.Title(s.demo)
	result.Score = s.score
	result.Lives = s.lives
	result.LifeLost = lifeLost
	s.lastResult = &result
	s.pending = nil

	logger.Log.Infof("Session %s round %d: %d correct, +%d, lives %d",
		s.ID, result.Round, len(result.Correct), roundScore, s.lives)
}

// Advance leaves the results phase. A demo stays put waiting for a real game;
// a real game with no lives left ends; otherwise the next round begins.
func (s *Session) Advance() error {
	return s.run(s.advanceLocked)
}

// AdvanceIfCurrent is Advance for delayed callers: it does nothing when the
// session has moved on since token was taken.
func (s *Session) AdvanceIfCurrent(token uint64) error {
	return s.run(func() error {
		if token != s.token || s.Phase() != PhaseResults {
			return nil
		}
		return s.advanceLocked()
	})
}

func (s *Session) advanceLocked() error {
	if s.Phase() != PhaseResults {
		return fmt.Errorf("%w: advance outside results", ErrInvalidState)
	}
	if s.demo {
		s.awaiting = true
		return nil
	}
	if s.lives <= 0 {
		return s.enterGameOverLocked()
	}
	s.round++
	return s.beginRoundLocked()
}

func (s *Session) enterGameOverLocked() error {
	s.token++
	if err := s.changeLocked(PhaseGameOver); err != nil {
		return err
	}
	s.emitPhaseLocked()
	if s.summary != nil {
		summary := *s.summary
		l := s.opts.Listener
		s.queueLocked(func() { l.OnGameOver(summary) })
	}
	return nil
}

// gameOverLocked runs on entering game over.
func (s *Session) gameOverLocked() {
	s.countdown.Stop()
	summary := models.GameOverSummary{
		FinalScore:      s.score,
		RoundsCompleted: s.round - 1,
		AccuracyPercent: AccuracyPercent(s.correctSelectionsTotal, s.totalSelectionsTotal),
	}
	s.summary = &summary
	logger.Log.Infof("Session %s game over: score %d, rounds %d, accuracy %d%%",
		s.ID, summary.FinalScore, summary.RoundsCompleted, summary.AccuracyPercent)
}

// resetLocked returns every field to a fresh session's values.
func (s *Session) resetLocked() {
	s.countdown.Stop()
	s.token++
	s.round = 1
	s.score = 0
	s.lives = s.opts.Lives
	s.demo = false
	s.awaiting = false
	s.current = models.Category{}
	s.hasCategory = false
	s.imageSource = ""
	s.imageFallback = false
	s.imageReady = false
	s.choices = nil
	s.clearSelectionLocked()
	s.pending = nil
	s.lastResult = nil
	s.summary = nil
	s.correctSelectionsTotal = 0
	s.totalSelectionsTotal = 0
}

func (s *Session) clearSelectionLocked() {
	s.selected = mapset.New[string]()
	s.selectedOrder = nil
}

func (s *Session) isChoiceLocked(label string) bool {
	for _, c := range s.choices {
		if c == label {
			return true
		}
	}
	return false
}

// --- memorization: image load then countdown ---

func (s *Session) loadImageLocked() {
	token := s.token
	source := s.imageSource

	if s.opts.Images == nil {
		s.imageReadyLocked(token, true)
		return
	}
	images := s.opts.Images
	s.queueLocked(func() {
		images.Load(source, func(ok bool) { s.onImageLoaded(token, ok) })
	})
}

func (s *Session) onImageLoaded(token uint64, ok bool) {
	s.run(func() error {
		if token != s.token || s.Phase() != PhaseMemorization || s.imageReady {
			logger.Log.Debugf("Session %s dropped stale image load", s.ID)
			return nil
		}
		s.imageReadyLocked(token, ok)
		return nil
	})
}

func (s *Session) imageReadyLocked(token uint64, ok bool) {
	s.imageReady = true
	if !ok {
		logger.Log.Warnf("Image %s not found for category %d, using placeholder", s.imageSource, s.current.ID)
		s.imageSource = catalog.PlaceholderImage(s.current.Description)
		s.imageFallback = true
	}
	source, fallback := s.imageSource, s.imageFallback
	l := s.opts.Listener
	s.queueLocked(func() { l.OnImageReady(source, fallback) })

	s.countdown.Start(s.opts.MemorizeSeconds,
		func(remaining int) { s.onTick(token, remaining) },
		func() { s.onCountdownExpired(token) },
	)
}

func (s *Session) onTick(token uint64, remaining int) {
	s.run(func() error {
		if token != s.token || s.Phase() != PhaseMemorization {
			return nil
		}
		l := s.opts.Listener
		s.queueLocked(func() { l.OnTick(remaining) })
		return nil
	})
}

func (s *Session) onCountdownExpired(token uint64) {
	s.run(func() error {
		if token != s.token || s.Phase() != PhaseMemorization {
			return nil
		}
		if err := s.changeLocked(PhaseTesting); err != nil {
			return err
		}
		s.emitPhaseLocked()
		return nil
	})
}

// prepareChoicesLocked shuffles the ten labels for the testing phase.
func (s *Session) prepareChoicesLocked() {
	choices := make([]string, 0, len(s.current.CorrectObjects)+len(s.current.IncorrectObjects))
	choices = append(choices, s.current.CorrectObjects...)
	choices = append(choices, s.current.IncorrectObjects...)
	s.opts.Rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	s.choices = choices
	s.clearSelectionLocked()
}

// --- read accessors ---

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return Phase(s.machine.GetCurrentState().GetID())
}

// Token identifies the current round for callers that schedule delayed work.
func (s *Session) Token() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.token
}

// Snapshot returns a copy of the session's visible state.
func (s *Session) Snapshot() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:            s.Phase(),
		Round:            s.round,
		Score:            s.score,
		Lives:            s.lives,
		Demo:             s.demo,
		AwaitingRealGame: s.awaiting,
		Choices:          append([]string(nil), s.choices...),
		Selected:         append([]string(nil), s.selectedOrder...),
	}
	if s.hasCategory {
		snap.CategoryID = s.current.ID
		snap.Description = s.current.Description
		snap.ImageSource = s.imageSource
		snap.ImageFallback = s.imageFallback
	}
	if s.countdown.Active() {
		snap.Remaining = s.countdown.Remaining()
	}
	return snap
}

// CurrentCategory returns the category captured for this round.
func (s *Session) CurrentCategory() (models.Category, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.current.Clone(), s.hasCategory
}

// LastResult returns the most recent round result.
func (s *Session) LastResult() (models.RoundResult, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.lastResult == nil {
		return models.RoundResult{}, false
	}
	return *s.lastResult, true
}

// GameOver returns the final summary once the session has ended.
func (s *Session) GameOver() (models.GameOverSummary, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.summary == nil {
		return models.GameOverSummary{}, false
	}
	return *s.summary, true
}

// Totals returns the running correct and total selection counters.
func (s *Session) Totals() (correct, total int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.correctSelectionsTotal, s.totalSelectionsTotal
}

// HandleAction routes a client action to the current phase.
func (s *Session) HandleAction(player state.Player, actionData []byte) error {
	return s.machine.GetCurrentState().HandleAction(player, actionData)
}

// Close stops any running countdown.
func (s *Session) Close() {
	s.run(func() error {
		s.token++
		s.countdown.Stop()
		return nil
	})
}
