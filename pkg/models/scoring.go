package models

import (
	"errors"
	"math"
	"sort"
)

// ErrNoCorrectnessFlags is returned when an assessment cannot be graded from
// its own content.
var ErrNoCorrectnessFlags = errors.New("assessment has no correctness flags")

// GradeFunc yields the correct option ids for a question.
type GradeFunc func(q Question) []string

// FlaggedAnswers grades from the isCorrect flags on the options.
func FlaggedAnswers(q Question) []string {
	return q.CorrectOptionIDs()
}

// Grade scores responses against the correct answers produced by correct. A
// question is correct when the selected set equals the correct set exactly.
// Unanswered questions count as incorrect.
func Grade(a *Assessment, responses []AssessmentResponse, correct GradeFunc) AssessmentResult {
	selected := make(map[string][]string, len(responses))
	for _, r := range responses {
		selected[r.QuestionID] = r.OptionIDs
	}

	result := AssessmentResult{
		ScenarioID:             a.ID,
		PerQuestionCorrectness: make(map[string]bool, len(a.Questions)),
	}
	if len(a.Questions) == 0 {
		return result
	}

	right := 0
	for _, q := range a.Questions {
		ok := sameSet(selected[q.ID], correct(q))
		result.PerQuestionCorrectness[q.ID] = ok
		if ok {
			right++
		}
	}
	result.ScorePercent = int(math.Round(float64(right) * 100 / float64(len(a.Questions))))
	return result
}

// GradeFlagged scores using the isCorrect flags. It fails when any question
// lacks them, since correctness must then come from an external scorer.
func GradeFlagged(a *Assessment, responses []AssessmentResponse) (AssessmentResult, error) {
	if !a.HasCorrectnessFlags() {
		return AssessmentResult{}, ErrNoCorrectnessFlags
	}
	return Grade(a, responses, FlaggedAnswers), nil
}

func sameSet(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
