// Package models defines the domain models shared by the scene bridge and the
// content service.
package models

import (
	"errors"
	"fmt"
)

// Kind identifies which workflow a scenario definition drives.
type Kind string

const (
	KindAssessment       Kind = "assessment"
	KindGuidedProcedure  Kind = "guided_procedure"
	KindInformationPanel Kind = "information_panel"
)

// ScenarioRef is the transient lookup key produced by resolution.
type ScenarioRef struct {
	ScenarioID string `json:"scenario_id"`
	CourseID   string `json:"course_id"`
}

// Definition is the tagged union of scenario content. The set of
// implementations is closed: Assessment, GuidedProcedure, InformationPanel.
type Definition interface {
	Kind() Kind
	ScenarioID() string
	DisplayTitle() string
	definition()
}

// Assessment is a multiple-choice quiz.
type Assessment struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

func (a *Assessment) Kind() Kind           { return KindAssessment }
func (a *Assessment) ScenarioID() string   { return a.ID }
func (a *Assessment) DisplayTitle() string { return a.Title }
func (*Assessment) definition()            {}

// Question looks up a question by id.
func (a *Assessment) Question(id string) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

// HasCorrectnessFlags reports whether every question carries explicit
// isCorrect flags on its options.
func (a *Assessment) HasCorrectnessFlags() bool {
	if len(a.Questions) == 0 {
		return false
	}
	for _, q := range a.Questions {
		if !q.HasCorrectnessFlags() {
			return false
		}
	}
	return true
}

// GuidedProcedure is an ordered sequence of steps, each unlocked by a
// validation trigger emitted from the scene.
type GuidedProcedure struct {
	ID                 string `json:"id" yaml:"id"`
	Title              string `json:"title" yaml:"title"`
	Description        string `json:"description" yaml:"description"`
	Steps              []Step `json:"steps" yaml:"steps"`
	EducationalContent string `json:"educational_content,omitempty" yaml:"educational_content,omitempty"`
	// TriggerSequence is an optional list parallel to Steps for procedures
	// authored with triggers kept outside the steps themselves.
	TriggerSequence []string `json:"trigger_sequence,omitempty" yaml:"trigger_sequence,omitempty"`
}

func (g *GuidedProcedure) Kind() Kind           { return KindGuidedProcedure }
func (g *GuidedProcedure) ScenarioID() string   { return g.ID }
func (g *GuidedProcedure) DisplayTitle() string { return g.Title }
func (*GuidedProcedure) definition()            {}

// Step is a single unit of a guided procedure.
type Step struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	Instruction     string `json:"instruction" yaml:"instruction"`
	Hint            string `json:"hint,omitempty" yaml:"hint,omitempty"`
	ValidationEvent string `json:"validation_event" yaml:"validation_event"`
}

// InformationPanel is static content dismissed by the learner.
type InformationPanel struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
	// Placeholder marks synthetic content substituted after a failed fetch.
	Placeholder bool `json:"placeholder,omitempty" yaml:"-"`
}

func (p *InformationPanel) Kind() Kind           { return KindInformationPanel }
func (p *InformationPanel) ScenarioID() string   { return p.ID }
func (p *InformationPanel) DisplayTitle() string { return p.Title }
func (*InformationPanel) definition()            {}

// PlaceholderPanel builds the synthetic panel shown when a scenario
// definition cannot be fetched.
func PlaceholderPanel(ref ScenarioRef) *InformationPanel {
	return &InformationPanel{
		ID:          ref.ScenarioID,
		Title:       "Content unavailable",
		Body:        "This training content could not be loaded right now. You can keep exploring the scene and try again later.",
		Placeholder: true,
	}
}

var (
	ErrMixedCorrectnessFlags    = errors.New("isCorrect must be set on all options of a question or on none")
	ErrDuplicateValidationEvent = errors.New("validation events must be unique within a procedure")
	ErrUntriggerableStep        = errors.New("step has no validation event and no trigger at its position")
)

// Validate checks the structural invariants of a definition.
func Validate(def Definition) error {
	switch d := def.(type) {
	case *Assessment:
		if d.ID == "" {
			return errors.New("assessment id is required")
		}
		for _, q := range d.Questions {
			if err := q.validate(); err != nil {
				return fmt.Errorf("question %q: %w", q.ID, err)
			}
		}
	case *GuidedProcedure:
		if d.ID == "" {
			return errors.New("procedure id is required")
		}
		if len(d.Steps) == 0 {
			return errors.New("procedure has no steps")
		}
		seen := make(map[string]bool, len(d.Steps))
		for i, s := range d.Steps {
			if s.ValidationEvent == "" {
				if i >= len(d.TriggerSequence) || d.TriggerSequence[i] == "" {
					return fmt.Errorf("step %q: %w", s.ID, ErrUntriggerableStep)
				}
				continue
			}
			if seen[s.ValidationEvent] {
				return fmt.Errorf("step %q: %w", s.ID, ErrDuplicateValidationEvent)
			}
			seen[s.ValidationEvent] = true
		}
	case *InformationPanel:
		if d.ID == "" {
			return errors.New("panel id is required")
		}
	case nil:
		return errors.New("definition is nil")
	}
	return nil
}
