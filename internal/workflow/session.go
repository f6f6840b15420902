// Package workflow implements the state machine behind every scenario a
// learner opens from the scene: assessments, guided procedures and
// information panels share one lifecycle
//
//	NotStarted -> Active -> Completed | Cancelled
//
// A Controller owns the single session slot of one embedded page. Every
// mutation of that slot goes through a Controller method; other components
// only call those methods.
package workflow

import (
	"errors"
	"slices"
	"time"

	"safety-lms/backend/pkg/models"
)

// Status is the lifecycle position of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var (
	ErrNoActiveSession   = errors.New("no open session")
	ErrSessionBusy       = errors.New("a session is already open")
	ErrWrongKind         = errors.New("operation not supported for this scenario kind")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrUnknownQuestion   = errors.New("unknown question")
	ErrUnknownOption     = errors.New("unknown option")
	ErrSubmitInFlight    = errors.New("assessment is being scored")
	ErrStaleSubmission   = errors.New("session changed while scoring")
)

// session is the mutable state held in the controller's slot.
type session struct {
	id         string
	definition models.Definition
	status     Status
	degraded   bool
	minimized  bool
	openedAt   time.Time

	// guided procedures
	stepIndex      int
	completedSteps []string

	// assessments
	questionIndex int
	selected      map[string][]string
	submitting    bool
	result        *models.AssessmentResult

	procedureResult *models.ProcedureResult
}

// Snapshot is a read-only copy of a session, safe to show the learner: the
// definition carries no answer key.
type Snapshot struct {
	ID               string                   `json:"id"`
	Kind             models.Kind              `json:"kind"`
	ScenarioID       string                   `json:"scenario_id"`
	Status           Status                   `json:"status"`
	Minimized        bool                     `json:"minimized"`
	Degraded         bool                     `json:"degraded"`
	OpenedAt         time.Time                `json:"opened_at"`
	Definition       models.ScenarioDocument  `json:"definition"`
	CurrentStepIndex int                      `json:"current_step_index"`
	CompletedStepIDs []string                 `json:"completed_step_ids"`
	QuestionIndex    int                      `json:"question_index"`
	SelectedAnswers  map[string][]string      `json:"selected_answers,omitempty"`
	Submitting       bool                     `json:"submitting,omitempty"`
	Result           *models.AssessmentResult `json:"result,omitempty"`
	ProcedureResult  *models.ProcedureResult  `json:"procedure_result,omitempty"`
}

func (s *session) snapshot() Snapshot {
	snap := Snapshot{
		ID:               s.id,
		Kind:             s.definition.Kind(),
		ScenarioID:       s.definition.ScenarioID(),
		Status:           s.status,
		Minimized:        s.minimized,
		Degraded:         s.degraded,
		OpenedAt:         s.openedAt,
		Definition:       models.LearnerDocumentOf(s.definition),
		CurrentStepIndex: s.stepIndex,
		CompletedStepIDs: slices.Clone(s.completedSteps),
		QuestionIndex:    s.questionIndex,
		Submitting:       s.submitting,
	}
	if snap.CompletedStepIDs == nil {
		snap.CompletedStepIDs = []string{}
	}
	if s.selected != nil {
		snap.SelectedAnswers = make(map[string][]string, len(s.selected))
		for q, opts := range s.selected {
			snap.SelectedAnswers[q] = slices.Clone(opts)
		}
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	if s.procedureResult != nil {
		r := *s.procedureResult
		r.CompletedStepIDs = slices.Clone(r.CompletedStepIDs)
		snap.ProcedureResult = &r
	}
	return snap
}

// Transition is delivered to the observer after every status change.
type Transition struct {
	From    Status
	To      Status
	Session Snapshot
}
