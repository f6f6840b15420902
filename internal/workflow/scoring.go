package workflow

import (
	"context"

	"safety-lms/backend/pkg/models"
)

// Scorer grades a submission remotely. The content service is the authority
// on correctness.
type Scorer interface {
	Score(ctx context.Context, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error)
}

// ScorerFunc adapts a function into a Scorer.
type ScorerFunc func(ctx context.Context, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error)

// Score executes f.
func (f ScorerFunc) Score(ctx context.Context, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error) {
	return f(ctx, scenarioID, responses)
}

// Submission is an assessment whose responses await a score.
type Submission struct {
	SessionID  string
	ScenarioID string
	Responses  []models.AssessmentResponse

	assessment *models.Assessment
}

// Score grades sub with the remote scorer and falls back to local grading
// when it fails. It touches no session state.
func (c *Controller) Score(ctx context.Context, sub *Submission) models.AssessmentResult {
	a := sub.assessment
	if c.scorer != nil {
		res, err := c.scorer.Score(ctx, a.ID, sub.Responses)
		if err == nil {
			res.ScenarioID = a.ID
			res.ScorePercent = clampPercent(res.ScorePercent)
			return res
		}
		c.logger.Warn("remote scoring failed, grading locally", "scenario_id", a.ID, "error", err)
	}
	res := scoreLocally(a, sub.Responses)
	if res.Unreliable {
		c.logger.Warn("assessment graded with guessed answers, score is unreliable", "scenario_id", a.ID)
	}
	return res
}

// responsesFrom lists selections in question order.
func responsesFrom(a *models.Assessment, selected map[string][]string) []models.AssessmentResponse {
	responses := make([]models.AssessmentResponse, 0, len(a.Questions))
	for _, q := range a.Questions {
		opts := selected[q.ID]
		if len(opts) == 0 {
			continue
		}
		responses = append(responses, models.AssessmentResponse{
			QuestionID: q.ID,
			OptionIDs:  append([]string(nil), opts...),
		})
	}
	return responses
}

// scoreLocally grades without the content service. Questions carrying
// isCorrect flags are graded from them; the rest fall back to
// heuristicCorrectOptions and the whole result is marked Unreliable.
func scoreLocally(a *models.Assessment, responses []models.AssessmentResponse) models.AssessmentResult {
	guessed := false
	res := models.Grade(a, responses, func(q models.Question) []string {
		if q.HasCorrectnessFlags() {
			return q.CorrectOptionIDs()
		}
		guessed = true
		return heuristicCorrectOptions(q)
	})
	res.Unreliable = guessed
	return res
}

// heuristicCorrectOptions guesses the answer key for a question without
// correctness flags: the first option for SINGLE, the first two for
// MULTIPLE. This is not a real answer key. Scores derived from it are
// flagged Unreliable and must not be treated as authoritative.
func heuristicCorrectOptions(q models.Question) []string {
	n := 1
	if q.Type == models.QuestionMultiple {
		n = 2
	}
	if n > len(q.Options) {
		n = len(q.Options)
	}
	ids := make([]string, 0, n)
	for _, o := range q.Options[:n] {
		ids = append(ids, o.ID)
	}
	return ids
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
