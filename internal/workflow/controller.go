package workflow

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"safety-lms/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer receives every status change. It is called synchronously from
// the transition that caused it.
type Observer func(Transition)

// Controller owns the single session slot of one page. It is not safe for
// concurrent use; the bridge serializes calls. Score is the exception: it
// reads no session state and runs while other calls proceed.
type Controller struct {
	scorer   Scorer
	observer Observer
	logger   Logger
	now      func() time.Time

	current   *session
	resolving bool
}

// Option customizes Controller construction.
type Option func(*Controller)

// WithObserver registers the transition observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithClock overrides the clock used to stamp sessions.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a Controller. scorer may be nil, in which case every
// submission is graded locally.
func NewController(scorer Scorer, logger Logger, opts ...Option) *Controller {
	c := &Controller{
		scorer: scorer,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Admit implements the admission policy for new selections: a selection is
// ignored while a resolution is in flight or while the slot holds a session
// that has not reached a terminal state. Ignored selections are not queued.
func (c *Controller) Admit() bool {
	if c.resolving {
		return false
	}
	return c.current == nil || c.current.status.Terminal()
}

// BeginResolution reserves the slot for an in-flight resolution. It returns
// false when Admit would refuse the selection.
func (c *Controller) BeginResolution() bool {
	if !c.Admit() {
		return false
	}
	c.resolving = true
	return true
}

// EndResolution releases a reservation that did not produce a session.
func (c *Controller) EndResolution() {
	c.resolving = false
}

// Resolving reports whether a resolution is in flight.
func (c *Controller) Resolving() bool {
	return c.resolving
}

// Open places a new NotStarted session in the slot and releases any
// resolution reservation.
func (c *Controller) Open(def models.Definition, degraded bool) (Snapshot, error) {
	c.resolving = false
	if def == nil {
		return Snapshot{}, fmt.Errorf("open: %w", ErrInvalidTransition)
	}
	if c.current != nil && !c.current.status.Terminal() {
		return Snapshot{}, ErrSessionBusy
	}
	c.current = &session{
		id:         uuid.New().String(),
		definition: def,
		status:     StatusNotStarted,
		degraded:   degraded,
		openedAt:   c.now(),
	}
	if _, ok := def.(*models.Assessment); ok {
		c.current.selected = make(map[string][]string)
	}
	c.logger.Debug("session opened", "session_id", c.current.id, "scenario_id", def.ScenarioID(), "kind", def.Kind())
	return c.current.snapshot(), nil
}

// Start moves the open session from NotStarted to Active.
func (c *Controller) Start() (Snapshot, error) {
	s, err := c.open()
	if err != nil {
		return Snapshot{}, err
	}
	if s.status != StatusNotStarted {
		return Snapshot{}, fmt.Errorf("start from %s: %w", s.status, ErrInvalidTransition)
	}
	s.stepIndex = 0
	s.questionIndex = 0
	c.transition(s, StatusActive)
	return s.snapshot(), nil
}

// SelectAnswer records a choice on an Active assessment. SINGLE questions
// replace the selection, MULTIPLE questions toggle membership.
func (c *Controller) SelectAnswer(questionID, optionID string) (Snapshot, error) {
	s, a, err := c.activeAssessment()
	if err != nil {
		return Snapshot{}, err
	}
	if s.submitting {
		return Snapshot{}, ErrSubmitInFlight
	}
	q, ok := a.Question(questionID)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if !q.HasOption(optionID) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownOption, optionID)
	}

	switch q.Type {
	case models.QuestionMultiple:
		cur := s.selected[questionID]
		if i := slices.Index(cur, optionID); i >= 0 {
			s.selected[questionID] = slices.Delete(slices.Clone(cur), i, i+1)
		} else {
			s.selected[questionID] = append(slices.Clone(cur), optionID)
		}
	default:
		s.selected[questionID] = []string{optionID}
	}
	return s.snapshot(), nil
}

// Next moves the question cursor forward. On the last question it scores
// the responses and completes the session.
func (c *Controller) Next(ctx context.Context) (Snapshot, error) {
	snap, sub, err := c.BeginNext()
	if err != nil || sub == nil {
		return snap, err
	}
	return c.CompleteAssessment(sub, c.Score(ctx, sub))
}

// BeginNext moves the question cursor forward. On the last question it
// leaves the cursor in place, marks the session as submitting and returns the
// Submission to score. The caller grades it with Score, without holding its
// lock, and applies the result with CompleteAssessment.
func (c *Controller) BeginNext() (Snapshot, *Submission, error) {
	s, a, err := c.activeAssessment()
	if err != nil {
		return Snapshot{}, nil, err
	}
	if s.submitting {
		return Snapshot{}, nil, ErrSubmitInFlight
	}
	if s.questionIndex < len(a.Questions)-1 {
		s.questionIndex++
		return s.snapshot(), nil, nil
	}

	s.submitting = true
	sub := &Submission{
		SessionID:  s.id,
		ScenarioID: a.ID,
		Responses:  responsesFrom(a, s.selected),
		assessment: a,
	}
	return s.snapshot(), sub, nil
}

// CompleteAssessment applies the score of sub to the session that produced
// it. A session dismissed or replaced while scoring is left untouched and
// ErrStaleSubmission is returned.
func (c *Controller) CompleteAssessment(sub *Submission, result models.AssessmentResult) (Snapshot, error) {
	if sub == nil {
		return Snapshot{}, fmt.Errorf("complete: %w", ErrInvalidTransition)
	}
	s, err := c.active()
	if err != nil || s.id != sub.SessionID || !s.submitting {
		return Snapshot{}, fmt.Errorf("complete %s: %w", sub.ScenarioID, ErrStaleSubmission)
	}
	s.submitting = false
	s.result = &result
	c.transition(s, StatusCompleted)
	return s.snapshot(), nil
}

// Advance completes the current step of an Active guided procedure. It is
// idempotent per step id: a step that is already complete, or a step that is
// not the current one, leaves the session unchanged and returns false.
func (c *Controller) Advance(stepID string) (bool, error) {
	s, g, err := c.activeProcedure()
	if err != nil {
		return false, err
	}
	if slices.Contains(s.completedSteps, stepID) {
		return false, nil
	}
	if s.stepIndex >= len(g.Steps) || g.Steps[s.stepIndex].ID != stepID {
		return false, nil
	}

	s.completedSteps = append(s.completedSteps, stepID)
	s.stepIndex++
	if s.stepIndex == len(g.Steps) {
		s.procedureResult = &models.ProcedureResult{
			ProcedureID:      g.ID,
			CompletedStepIDs: slices.Clone(s.completedSteps),
		}
		c.transition(s, StatusCompleted)
	}
	return true, nil
}

// Dismiss closes the open session. An Active information panel completes;
// anything else not yet terminal is cancelled.
func (c *Controller) Dismiss() (Snapshot, error) {
	s, err := c.open()
	if err != nil {
		return Snapshot{}, err
	}
	to := StatusCancelled
	if s.status == StatusActive && s.definition.Kind() == models.KindInformationPanel {
		to = StatusCompleted
	}
	c.transition(s, to)
	return s.snapshot(), nil
}

// SetMinimized changes presentation state only; status is untouched and a
// minimized procedure keeps accepting validation triggers.
func (c *Controller) SetMinimized(minimized bool) (Snapshot, error) {
	s, err := c.open()
	if err != nil {
		return Snapshot{}, err
	}
	s.minimized = minimized
	return s.snapshot(), nil
}

// Snapshot returns the session in the slot, including a terminal one kept
// for display until the next session opens.
func (c *Controller) Snapshot() (Snapshot, bool) {
	if c.current == nil {
		return Snapshot{}, false
	}
	return c.current.snapshot(), true
}

// ActiveProcedure returns the Active guided procedure and its current step
// index.
func (c *Controller) ActiveProcedure() (*models.GuidedProcedure, int, bool) {
	s, g, err := c.activeProcedure()
	if err != nil {
		return nil, 0, false
	}
	return g, s.stepIndex, true
}

func (c *Controller) open() (*session, error) {
	if c.current == nil || c.current.status.Terminal() {
		return nil, ErrNoActiveSession
	}
	return c.current, nil
}

func (c *Controller) active() (*session, error) {
	s, err := c.open()
	if err != nil {
		return nil, err
	}
	if s.status != StatusActive {
		return nil, fmt.Errorf("session is %s: %w", s.status, ErrInvalidTransition)
	}
	return s, nil
}

func (c *Controller) activeAssessment() (*session, *models.Assessment, error) {
	s, err := c.active()
	if err != nil {
		return nil, nil, err
	}
	a, ok := s.definition.(*models.Assessment)
	if !ok {
		return nil, nil, ErrWrongKind
	}
	return s, a, nil
}

func (c *Controller) activeProcedure() (*session, *models.GuidedProcedure, error) {
	s, err := c.active()
	if err != nil {
		return nil, nil, err
	}
	g, ok := s.definition.(*models.GuidedProcedure)
	if !ok {
		return nil, nil, ErrWrongKind
	}
	return s, g, nil
}

func (c *Controller) transition(s *session, to Status) {
	from := s.status
	s.status = to
	c.logger.Info("session transition", "session_id", s.id, "scenario_id", s.definition.ScenarioID(), "from", from, "to", to)
	if c.observer != nil {
		c.observer(Transition{From: from, To: to, Session: s.snapshot()})
	}
}
