package models

import (
	"errors"
)

// QuestionType controls how answers are selected.
type QuestionType string

const (
	QuestionSingle   QuestionType = "SINGLE"
	QuestionMultiple QuestionType = "MULTIPLE"
)

// Question is one item of an assessment.
type Question struct {
	ID      string       `json:"id" yaml:"id"`
	Text    string       `json:"text" yaml:"text"`
	Type    QuestionType `json:"type" yaml:"type"`
	Options []Option     `json:"options" yaml:"options"`
}

// Option is a selectable answer. IsCorrect is nil when correctness is only
// known to the external scorer.
type Option struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty" yaml:"is_correct,omitempty"`
}

// HasOption reports whether optionID belongs to the question.
func (q Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// HasCorrectnessFlags reports whether the options carry explicit flags.
func (q Question) HasCorrectnessFlags() bool {
	if len(q.Options) == 0 {
		return false
	}
	for _, o := range q.Options {
		if o.IsCorrect == nil {
			return false
		}
	}
	return true
}

// CorrectOptionIDs returns the flagged correct options, or nil when the
// question has no flags.
func (q Question) CorrectOptionIDs() []string {
	if !q.HasCorrectnessFlags() {
		return nil
	}
	var ids []string
	for _, o := range q.Options {
		if *o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func (q Question) validate() error {
	if q.ID == "" {
		return errors.New("question id is required")
	}
	switch q.Type {
	case QuestionSingle, QuestionMultiple:
	default:
		return errors.New("question type must be SINGLE or MULTIPLE")
	}
	flagged := 0
	for _, o := range q.Options {
		if o.IsCorrect != nil {
			flagged++
		}
	}
	if flagged != 0 && flagged != len(q.Options) {
		return ErrMixedCorrectnessFlags
	}
	return nil
}

// Bool returns a pointer to b, for building flagged options.
func Bool(b bool) *bool { return &b }
