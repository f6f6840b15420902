package models

import (
	"time"
)

// AssessmentResponse is the learner's selection for one question.
type AssessmentResponse struct {
	QuestionID string   `json:"question_id"`
	OptionIDs  []string `json:"option_ids"`
}

// AssessmentResult is the outcome of scoring a submission.
type AssessmentResult struct {
	ScenarioID             string          `json:"scenario_id"`
	PerQuestionCorrectness map[string]bool `json:"per_question_correctness"`
	ScorePercent           int             `json:"score_percent"`
	// Unreliable is set when the score came from local fallback scoring.
	Unreliable bool `json:"unreliable,omitempty"`
}

// Passed reports whether the result counts as a success for the runtime.
func (r AssessmentResult) Passed(threshold int) bool {
	return r.ScorePercent >= threshold
}

// ProcedureResult is emitted when the last step of a guided procedure
// completes.
type ProcedureResult struct {
	ProcedureID      string   `json:"procedure_id"`
	CompletedStepIDs []string `json:"completed_step_ids"`
}

// ProgressReport is handed to progress persistence on completion.
type ProgressReport struct {
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	ScenarioID  string     `json:"scenario_id,omitempty"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ProgressRecord is the persisted progress of a learner on one scenario of
// a course.
type ProgressRecord struct {
	UserID      string     `json:"user_id"`
	CourseID    string     `json:"course_id"`
	ScenarioID  string     `json:"scenario_id"`
	Progress    int        `json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
