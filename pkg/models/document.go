package models

import (
	"encoding/json"
	"fmt"
)

// ScenarioDocument is the flat wire and catalog representation of a
// Definition. Kind selects which fields are meaningful.
type ScenarioDocument struct {
	Kind               Kind       `json:"kind" yaml:"kind"`
	ID                 string     `json:"id" yaml:"id"`
	Title              string     `json:"title" yaml:"title"`
	Description        string     `json:"description,omitempty" yaml:"description,omitempty"`
	Body               string     `json:"body,omitempty" yaml:"body,omitempty"`
	Questions          []Question `json:"questions,omitempty" yaml:"questions,omitempty"`
	Steps              []Step     `json:"steps,omitempty" yaml:"steps,omitempty"`
	EducationalContent string     `json:"educational_content,omitempty" yaml:"educational_content,omitempty"`
	TriggerSequence    []string   `json:"trigger_sequence,omitempty" yaml:"trigger_sequence,omitempty"`
	Placeholder        bool       `json:"placeholder,omitempty" yaml:"-"`
}

// Definition converts the document into its typed form.
func (d ScenarioDocument) Definition() (Definition, error) {
	switch d.Kind {
	case KindAssessment:
		return &Assessment{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Questions:   d.Questions,
		}, nil
	case KindGuidedProcedure:
		return &GuidedProcedure{
			ID:                 d.ID,
			Title:              d.Title,
			Description:        d.Description,
			Steps:              d.Steps,
			EducationalContent: d.EducationalContent,
			TriggerSequence:    d.TriggerSequence,
		}, nil
	case KindInformationPanel:
		return &InformationPanel{
			ID:          d.ID,
			Title:       d.Title,
			Body:        d.Body,
			Placeholder: d.Placeholder,
		}, nil
	default:
		return nil, fmt.Errorf("unknown scenario kind %q", d.Kind)
	}
}

// DocumentOf flattens a Definition for transport or storage.
func DocumentOf(def Definition) ScenarioDocument {
	switch d := def.(type) {
	case *Assessment:
		return ScenarioDocument{Kind: KindAssessment, ID: d.ID, Title: d.Title, Description: d.Description, Questions: d.Questions}
	case *GuidedProcedure:
		return ScenarioDocument{
			Kind:               KindGuidedProcedure,
			ID:                 d.ID,
			Title:              d.Title,
			Description:        d.Description,
			Steps:              d.Steps,
			EducationalContent: d.EducationalContent,
			TriggerSequence:    d.TriggerSequence,
		}
	case *InformationPanel:
		return ScenarioDocument{Kind: KindInformationPanel, ID: d.ID, Title: d.Title, Body: d.Body, Placeholder: d.Placeholder}
	}
	return ScenarioDocument{}
}

// LearnerDocumentOf flattens a Definition for display to a learner. Option
// correctness flags are left out; only scorers see the answer key.
func LearnerDocumentOf(def Definition) ScenarioDocument {
	return DocumentOf(def).WithoutAnswerKey()
}

// WithoutAnswerKey returns a copy of d with every option's IsCorrect cleared.
// d itself is not modified.
func (d ScenarioDocument) WithoutAnswerKey() ScenarioDocument {
	if len(d.Questions) == 0 {
		return d
	}
	questions := make([]Question, len(d.Questions))
	for i, q := range d.Questions {
		options := make([]Option, len(q.Options))
		for j, o := range q.Options {
			o.IsCorrect = nil
			options[j] = o
		}
		q.Options = options
		questions[i] = q
	}
	d.Questions = questions
	return d
}

// DecodeDefinition parses a JSON scenario document and validates it.
func DecodeDefinition(data []byte) (Definition, error) {
	var doc ScenarioDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode scenario document: %w", err)
	}
	def, err := doc.Definition()
	if err != nil {
		return nil, err
	}
	if err := Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}
