package repository

import (
	"context"
	"errors"

	"safety-lms/backend/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// CatalogStore stores scenario content and per-course object mappings.
type CatalogStore interface {
	// GetScenario returns a scenario linked to the course.
	GetScenario(ctx context.Context, courseID, scenarioID string) (*models.ScenarioDocument, error)
	// FindScenario returns a scenario by id regardless of course.
	FindScenario(ctx context.Context, scenarioID string) (*models.ScenarioDocument, error)
	// PutScenario upserts a scenario and links it to the course.
	PutScenario(ctx context.Context, courseID string, doc models.ScenarioDocument) error
	// GetObjectMapping returns the course's object name to scenario id table.
	GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error)
	// PutObjectMapping upserts one object mapping entry.
	PutObjectMapping(ctx context.Context, courseID, objectName, scenarioID string) error
}

// ProgressStore stores learner progress and graded attempts.
type ProgressStore interface {
	// SaveAttempt records a graded assessment attempt.
	SaveAttempt(ctx context.Context, userID string, result models.AssessmentResult) error
	// UpsertProgress records progress, keeping the highest value and the
	// first completion time.
	UpsertProgress(ctx context.Context, report models.ProgressReport) error
	// ListProgress returns a learner's progress records in a course.
	ListProgress(ctx context.Context, userID, courseID string) ([]*models.ProgressRecord, error)
}

// LearnerStore stores learners provisioned at sign-in.
type LearnerStore interface {
	GetLearnerByEmail(ctx context.Context, email string) (*models.Learner, error)
	CreateLearner(ctx context.Context, learner *models.Learner) error
}

// Repository is the full persistence surface.
type Repository interface {
	CatalogStore
	ProgressStore
	LearnerStore
	Ping(ctx context.Context) error
}
