package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flaggedQuestion(id string, correct string, options ...string) Question {
	q := Question{ID: id, Text: id, Type: QuestionSingle}
	for _, o := range options {
		q.Options = append(q.Options, Option{ID: o, Text: o, IsCorrect: Bool(o == correct)})
	}
	return q
}

func TestValidate_MixedCorrectnessFlags(t *testing.T) {
	a := &Assessment{
		ID: "quiz",
		Questions: []Question{{
			ID:   "q1",
			Type: QuestionSingle,
			Options: []Option{
				{ID: "a", IsCorrect: Bool(true)},
				{ID: "b"},
			},
		}},
	}
	assert.ErrorIs(t, Validate(a), ErrMixedCorrectnessFlags)

	a.Questions[0].Options[1].IsCorrect = Bool(false)
	assert.NoError(t, Validate(a))

	a.Questions[0].Options[0].IsCorrect = nil
	a.Questions[0].Options[1].IsCorrect = nil
	assert.NoError(t, Validate(a), "no flags at all is valid")
}

func TestValidate_DuplicateValidationEvents(t *testing.T) {
	g := &GuidedProcedure{
		ID: "lockout",
		Steps: []Step{
			{ID: "s1", ValidationEvent: "open_panel"},
			{ID: "s2", ValidationEvent: "open_panel"},
		},
	}
	assert.ErrorIs(t, Validate(g), ErrDuplicateValidationEvent)

	g.Steps[1].ValidationEvent = "pull_breaker"
	assert.NoError(t, Validate(g))
}

func TestDecodeDefinition(t *testing.T) {
	def, err := DecodeDefinition([]byte(`{
		"kind": "guided_procedure",
		"id": "lockout",
		"title": "Lockout / Tagout",
		"steps": [
			{"id": "s1", "title": "Open", "instruction": "Open the panel", "validation_event": "open_panel"}
		],
		"trigger_sequence": ["open_panel"]
	}`))
	require.NoError(t, err)

	g, ok := def.(*GuidedProcedure)
	require.True(t, ok)
	assert.Equal(t, "lockout", g.ScenarioID())
	assert.Equal(t, []string{"open_panel"}, g.TriggerSequence)

	_, err = DecodeDefinition([]byte(`{"kind":"video","id":"x"}`))
	assert.Error(t, err)

	_, err = DecodeDefinition([]byte(`not json`))
	assert.Error(t, err)
}

func TestDocumentOf_PreservesKind(t *testing.T) {
	for _, def := range []Definition{
		&Assessment{ID: "a", Questions: []Question{flaggedQuestion("q1", "x", "x", "y")}},
		&GuidedProcedure{ID: "g", Steps: []Step{{ID: "s1", ValidationEvent: "e"}}},
		&InformationPanel{ID: "p", Body: "text"},
	} {
		data, err := json.Marshal(DocumentOf(def))
		require.NoError(t, err)
		back, err := DecodeDefinition(data)
		require.NoError(t, err)
		assert.Equal(t, def, back)
	}
}

func TestGradeFlagged(t *testing.T) {
	a := &Assessment{ID: "quiz", Questions: []Question{
		flaggedQuestion("q1", "a", "a", "b"),
		flaggedQuestion("q2", "b", "a", "b"),
		flaggedQuestion("q3", "a", "a", "b"),
	}}

	res, err := GradeFlagged(a, []AssessmentResponse{
		{QuestionID: "q1", OptionIDs: []string{"a"}},
		{QuestionID: "q2", OptionIDs: []string{"b"}},
		{QuestionID: "q3", OptionIDs: []string{"b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 67, res.ScorePercent)
	assert.Equal(t, map[string]bool{"q1": true, "q2": true, "q3": false}, res.PerQuestionCorrectness)

	res, err = GradeFlagged(a, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ScorePercent)

	a.Questions[0].Options[0].IsCorrect = nil
	a.Questions[0].Options[1].IsCorrect = nil
	_, err = GradeFlagged(a, nil)
	assert.ErrorIs(t, err, ErrNoCorrectnessFlags)
}

func TestValidate_UntriggerableStep(t *testing.T) {
	g := &GuidedProcedure{
		ID: "lockout",
		Steps: []Step{
			{ID: "s1", ValidationEvent: "open_panel"},
			{ID: "s2"},
		},
	}
	assert.ErrorIs(t, Validate(g), ErrUntriggerableStep)

	g.TriggerSequence = []string{"", ""}
	assert.ErrorIs(t, Validate(g), ErrUntriggerableStep)

	g.TriggerSequence = []string{"", "btn_breaker"}
	assert.NoError(t, Validate(g))
}

func TestLearnerDocumentOf_HidesAnswerKey(t *testing.T) {
	a := &Assessment{ID: "quiz", Questions: []Question{
		flaggedQuestion("q1", "a", "a", "b"),
		flaggedQuestion("q2", "b", "a", "b"),
	}}

	doc := LearnerDocumentOf(a)
	require.Len(t, doc.Questions, 2)
	for _, q := range doc.Questions {
		require.Len(t, q.Options, 2)
		for _, o := range q.Options {
			assert.Nil(t, o.IsCorrect)
		}
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "is_correct")

	// The definition keeps its key.
	assert.Equal(t, []string{"a"}, a.Questions[0].CorrectOptionIDs())
	assert.Equal(t, []string{"b"}, a.Questions[1].CorrectOptionIDs())
}
