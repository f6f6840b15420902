package services

import (
	"context"
	"errors"

	"safety-lms/backend/pkg/models"
)

// ContentService is the content catalog, scorer and progress sink the scene
// bridge talks to. It is implemented remotely by ContentClient and in-process
// by CatalogService.
type ContentService interface {
	// GetScenario returns the definition of a scenario in a course.
	GetScenario(ctx context.Context, courseID, scenarioID string) (models.Definition, error)
	// GetObjectMapping returns the object name to scenario id table of a course.
	GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error)
	// SubmitAssessmentResponses grades a learner's answers.
	SubmitAssessmentResponses(ctx context.Context, userID, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error)
	// ReportProgress records progress for a learner.
	ReportProgress(ctx context.Context, report models.ProgressReport) error
}

var (
	// ErrScenarioNotFound is returned when a scenario or course is unknown.
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrUnscorable is returned when an assessment has no answer key.
	ErrUnscorable = errors.New("assessment cannot be scored by the content service")
	// ErrInvalidProgress is returned for malformed progress reports.
	ErrInvalidProgress = errors.New("invalid progress report")
)
