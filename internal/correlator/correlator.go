// Package correlator matches validation triggers from the scene against the
// current step of the active guided procedure.
package correlator

import (
	"safety-lms/backend/internal/scene"
	"safety-lms/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Procedures is the slice of the workflow controller the correlator drives.
type Procedures interface {
	ActiveProcedure() (*models.GuidedProcedure, int, bool)
	Advance(stepID string) (bool, error)
}

// Correlator holds no pending triggers. A trigger that does not match the
// current step is dropped, including triggers for later steps.
type Correlator struct {
	procedures Procedures
	logger     Logger
	sequences  map[string][]string
}

// New creates a Correlator.
func New(procedures Procedures, logger Logger) *Correlator {
	return &Correlator{
		procedures: procedures,
		logger:     logger,
		sequences:  make(map[string][]string),
	}
}

// RegisterSequence records an ordered trigger list for a procedure, indexed
// like its steps. It takes precedence over a sequence carried in the
// definition.
func (c *Correlator) RegisterSequence(procedureID string, triggers []string) {
	c.sequences[procedureID] = append([]string(nil), triggers...)
}

// HandleValidation normalizes a raw validation event and matches it. It
// reports whether a step advanced.
func (c *Correlator) HandleValidation(raw scene.RawEvent) bool {
	trigger, ok := scene.NormalizeTrigger(raw)
	if !ok {
		c.logger.Debug("dropping malformed validation event", "payload", scene.Describe(raw))
		return false
	}
	return c.Match(trigger)
}

// Match compares trigger with the current step's validation event and, if
// that fails, with the procedure's trigger sequence at the current index.
func (c *Correlator) Match(trigger string) bool {
	proc, index, ok := c.procedures.ActiveProcedure()
	if !ok {
		c.logger.Debug("no active procedure, ignoring trigger", "trigger", trigger)
		return false
	}
	if index < 0 || index >= len(proc.Steps) {
		return false
	}
	step := proc.Steps[index]

	if !c.matches(proc, index, step, trigger) {
		c.logger.Debug("trigger does not match current step",
			"procedure_id", proc.ID, "step_id", step.ID, "expected", step.ValidationEvent, "trigger", trigger)
		return false
	}

	advanced, err := c.procedures.Advance(step.ID)
	if err != nil {
		c.logger.Warn("advancing procedure failed", "procedure_id", proc.ID, "step_id", step.ID, "error", err)
		return false
	}
	return advanced
}

func (c *Correlator) matches(proc *models.GuidedProcedure, index int, step models.Step, trigger string) bool {
	if step.ValidationEvent != "" && step.ValidationEvent == trigger {
		return true
	}
	seq, ok := c.sequences[proc.ID]
	if !ok {
		seq = proc.TriggerSequence
	}
	return index < len(seq) && seq[index] != "" && seq[index] == trigger
}
