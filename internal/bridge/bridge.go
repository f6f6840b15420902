// Package bridge wires the scene event pipeline for one embedded page:
// runtime events are normalized, resolved to a scenario, opened in the
// page's workflow controller and, for guided procedures, correlated with
// validation triggers. Commands for the runtime are queued in the page's
// outbox and completions are reported to the content service.
package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"safety-lms/backend/internal/correlator"
	"safety-lms/backend/internal/resolver"
	"safety-lms/backend/internal/runtime"
	"safety-lms/backend/internal/scene"
	"safety-lms/backend/internal/services"
	"safety-lms/backend/internal/telemetry"
	"safety-lms/backend/internal/workflow"
	"safety-lms/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures every bridge created by a Hub.
type Options struct {
	// PassThreshold is the score at or above which an assessment is
	// reported to the runtime as a success.
	PassThreshold int
	// OutboxSize bounds the runtime command queue of each page.
	OutboxSize int
	// TriggerSequences maps a procedure id to triggers authored in parallel
	// with its steps.
	TriggerSequences map[string][]string
}

// Bridge serializes all events and UI actions of one page. Resolution and
// scoring run outside the lock; the controller's in-flight reservation and
// its open session keep a second selection from opening a parallel session
// meanwhile.
type Bridge struct {
	mu sync.Mutex

	pageID        string
	userID        string
	courseID      string
	passThreshold int

	resolver   *resolver.Resolver
	controller *workflow.Controller
	correlator *correlator.Correlator
	outbox     *runtime.Outbox
	content    services.ContentService
	metrics    *telemetry.Metrics
	logger     Logger
	now        func() time.Time

	// closed holds terminal transitions awaiting progress reporting.
	closed []workflow.Transition
}

func newBridge(pageID, userID, courseID string, res *resolver.Resolver, content services.ContentService,
	metrics *telemetry.Metrics, logger Logger, opts Options) *Bridge {
	b := &Bridge{
		pageID:        pageID,
		userID:        userID,
		courseID:      courseID,
		passThreshold: opts.PassThreshold,
		resolver:      res,
		outbox:        runtime.NewOutbox(opts.OutboxSize, logger),
		content:       content,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
	b.controller = workflow.NewController(b.scorer(), logger, workflow.WithObserver(b.observe))
	b.correlator = correlator.New(b.controller, logger)
	for id, triggers := range opts.TriggerSequences {
		b.correlator.RegisterSequence(id, triggers)
	}
	return b
}

// PageID returns the page identifier.
func (b *Bridge) PageID() string { return b.pageID }

// UserID returns the learner the page belongs to.
func (b *Bridge) UserID() string { return b.userID }

// CourseID returns the course whose scene the page embeds.
func (b *Bridge) CourseID() string { return b.courseID }

// HandleEvent routes one inbound runtime event. It never fails; unusable
// events are dropped and reported as false.
func (b *Bridge) HandleEvent(ctx context.Context, raw scene.RawEvent) bool {
	b.metrics.EventReceived(ctx, raw.Name)
	switch raw.Name {
	case scene.EventObjectSelected, scene.EventContentRequested:
		return b.OnSelection(ctx, raw)
	case scene.EventValidation:
		return b.OnValidation(ctx, raw)
	case scene.EventButtonClicked:
		return b.OnButtonClick(ctx, raw)
	default:
		b.logger.Debug("dropping unknown runtime event", "event", raw.Name)
		b.metrics.EventDropped(ctx, raw.Name, telemetry.ReasonUnknown)
		return false
	}
}

// OnContentRequest opens a scenario the runtime named directly.
func (b *Bridge) OnContentRequest(ctx context.Context, scenarioID string) bool {
	return b.OnSelection(ctx, scene.NewRawEvent(scene.EventContentRequested, scenarioID))
}

// OnSelection resolves a selection or content request and opens the
// resulting scenario. Assessments and information panels start at once;
// guided procedures wait on their briefing for an explicit Start.
func (b *Bridge) OnSelection(ctx context.Context, raw scene.RawEvent) bool {
	ev, ok := scene.Normalize(raw)
	if !ok {
		b.drop(ctx, raw, telemetry.ReasonMalformed)
		return false
	}

	b.mu.Lock()
	reserved := b.controller.BeginResolution()
	b.mu.Unlock()
	if !reserved {
		b.logger.Debug("session busy, ignoring selection", "object", ev.ObjectName)
		b.metrics.EventDropped(ctx, raw.Name, telemetry.ReasonBusy)
		return false
	}

	ref, ok := b.resolver.ResolveObject(ctx, b.courseID, ev.ObjectName, ev.ScenarioIDHint)
	if !ok {
		b.mu.Lock()
		b.controller.EndResolution()
		b.mu.Unlock()
		b.metrics.EventDropped(ctx, raw.Name, telemetry.ReasonUnresolvable)
		return false
	}
	def, degraded := b.resolver.LoadDefinition(ctx, ref)
	if degraded {
		b.metrics.Degraded(ctx, telemetry.DegradedPlaceholder)
	}

	b.mu.Lock()
	snap, err := b.controller.Open(def, degraded)
	if err == nil && snap.Kind != models.KindGuidedProcedure {
		snap, err = b.controller.Start()
	}
	b.mu.Unlock()
	if err != nil {
		b.logger.Error("failed to open scenario", "scenario_id", ref.ScenarioID, "error", err)
		return false
	}

	b.logger.Info("scenario opened", "scenario_id", snap.ScenarioID,
		"kind", snap.Kind, "status", snap.Status, "degraded", degraded)
	b.settle(ctx)
	return true
}

// OnValidation feeds a validation event to the correlator.
func (b *Bridge) OnValidation(ctx context.Context, raw scene.RawEvent) bool {
	b.mu.Lock()
	advanced := b.correlator.HandleValidation(raw)
	b.mu.Unlock()
	if !advanced {
		b.metrics.EventDropped(ctx, raw.Name, telemetry.ReasonMismatch)
		return false
	}
	b.settle(ctx)
	return true
}

// OnButtonClick rebroadcasts a button click as a validation event.
func (b *Bridge) OnButtonClick(ctx context.Context, raw scene.RawEvent) bool {
	ev, ok := scene.ButtonClickAsValidation(raw)
	if !ok {
		b.drop(ctx, raw, telemetry.ReasonMalformed)
		return false
	}
	return b.OnValidation(ctx, ev)
}

// Start begins the open session.
func (b *Bridge) Start(ctx context.Context) (workflow.Snapshot, error) {
	return b.act(ctx, func() (workflow.Snapshot, error) { return b.controller.Start() })
}

// SelectAnswer records a choice on the active assessment.
func (b *Bridge) SelectAnswer(ctx context.Context, questionID, optionID string) (workflow.Snapshot, error) {
	return b.act(ctx, func() (workflow.Snapshot, error) { return b.controller.SelectAnswer(questionID, optionID) })
}

// Next advances the question cursor or submits the assessment. Scoring runs
// without the page lock; the session reports Submitting meanwhile.
func (b *Bridge) Next(ctx context.Context) (workflow.Snapshot, error) {
	b.mu.Lock()
	snap, sub, err := b.controller.BeginNext()
	b.mu.Unlock()
	if err != nil || sub == nil {
		return snap, err
	}

	result := b.controller.Score(ctx, sub)
	snap, err = b.act(ctx, func() (workflow.Snapshot, error) { return b.controller.CompleteAssessment(sub, result) })
	if errors.Is(err, workflow.ErrStaleSubmission) {
		b.logger.Debug("discarding score of a closed session", "scenario_id", sub.ScenarioID)
	}
	return snap, err
}

// Dismiss closes the open session.
func (b *Bridge) Dismiss(ctx context.Context) (workflow.Snapshot, error) {
	return b.act(ctx, b.controller.Dismiss)
}

// SetMinimized changes the presentation state of the open session.
func (b *Bridge) SetMinimized(ctx context.Context, minimized bool) (workflow.Snapshot, error) {
	return b.act(ctx, func() (workflow.Snapshot, error) { return b.controller.SetMinimized(minimized) })
}

// Snapshot returns the session in the page's slot.
func (b *Bridge) Snapshot() (workflow.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.controller.Snapshot()
}

// Commands drains the runtime commands queued for the page.
func (b *Bridge) Commands() []runtime.Command {
	return b.outbox.Drain()
}

func (b *Bridge) act(ctx context.Context, fn func() (workflow.Snapshot, error)) (workflow.Snapshot, error) {
	b.mu.Lock()
	snap, err := fn()
	b.mu.Unlock()
	b.settle(ctx)
	return snap, err
}

func (b *Bridge) drop(ctx context.Context, raw scene.RawEvent, reason string) {
	b.logger.Debug("dropping runtime event", "event", raw.Name,
		"reason", reason, "payload", scene.Describe(raw))
	b.metrics.EventDropped(ctx, raw.Name, reason)
}

// observe runs inside controller transitions, with b.mu held.
func (b *Bridge) observe(t workflow.Transition) {
	s := t.Session
	if t.From == workflow.StatusNotStarted && t.To == workflow.StatusActive && s.Kind == models.KindGuidedProcedure {
		b.outbox.Send(runtime.Command{Name: runtime.CommandTutorialStart})
	}
	if !t.To.Terminal() {
		return
	}
	if t.To == workflow.StatusCompleted && s.Result != nil {
		b.outbox.Send(runtime.Command{
			Name: runtime.CommandAssessmentCompleted,
			Payload: runtime.AssessmentCompleted{
				ScenarioID: s.ScenarioID,
				Success:    s.Result.Passed(b.passThreshold),
			},
		})
	}
	b.outbox.Send(runtime.Command{Name: runtime.CommandResetCamera})
	b.closed = append(b.closed, t)
}

// settle reports sessions closed by the last operation. It runs after b.mu
// is released so remote calls never block the page.
func (b *Bridge) settle(ctx context.Context) {
	b.mu.Lock()
	closed := b.closed
	b.closed = nil
	b.mu.Unlock()

	for _, t := range closed {
		b.metrics.SessionClosed(ctx, string(t.Session.Kind), string(t.To))
		if t.To == workflow.StatusCompleted {
			b.reportProgress(ctx, t.Session)
		}
	}
}

func (b *Bridge) reportProgress(ctx context.Context, s workflow.Snapshot) {
	if b.userID == "" {
		return
	}
	if s.Degraded {
		b.logger.Debug("not reporting progress for placeholder content", "scenario_id", s.ScenarioID)
		return
	}
	progress := 100
	if s.Result != nil {
		if s.Result.Unreliable {
			b.logger.Warn("not reporting progress for an unreliable score", "scenario_id", s.ScenarioID)
			return
		}
		progress = s.Result.ScorePercent
	}

	completedAt := b.now().UTC()
	err := b.content.ReportProgress(ctx, models.ProgressReport{
		UserID:      b.userID,
		CourseID:    b.courseID,
		ScenarioID:  s.ScenarioID,
		Progress:    progress,
		CompletedAt: &completedAt,
	})
	if err != nil {
		b.logger.Warn("failed to report progress", "scenario_id", s.ScenarioID, "error", err)
		b.metrics.Degraded(ctx, telemetry.DegradedProgressWrite)
	}
}

// scorer submits through the content service on behalf of the page's
// learner. Failures fall back to local grading in the controller.
func (b *Bridge) scorer() workflow.Scorer {
	return workflow.ScorerFunc(func(ctx context.Context, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error) {
		res, err := b.content.SubmitAssessmentResponses(ctx, b.userID, scenarioID, responses)
		if err != nil {
			b.metrics.Degraded(ctx, telemetry.DegradedLocalScoring)
		}
		return res, err
	})
}
