package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"safety-lms/backend/internal/repository"
	"safety-lms/backend/pkg/models"
)

// Catalog is the persistence the catalog service needs.
type Catalog interface {
	repository.CatalogStore
	repository.ProgressStore
}

// CatalogService serves scenario content, grading and progress from the
// database.
type CatalogService struct {
	store Catalog
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(store Catalog) *CatalogService {
	return &CatalogService{store: store}
}

// GetScenario returns the definition of a scenario in a course.
func (s *CatalogService) GetScenario(ctx context.Context, courseID, scenarioID string) (models.Definition, error) {
	doc, err := s.store.GetScenario(ctx, courseID, scenarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrScenarioNotFound, courseID, scenarioID)
	}
	if err != nil {
		return nil, err
	}
	return doc.Definition()
}

// GetObjectMapping returns the object name to scenario id table of a course.
func (s *CatalogService) GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error) {
	return s.store.GetObjectMapping(ctx, courseID)
}

// SubmitAssessmentResponses grades answers from the stored answer key and
// records the attempt. Assessments without an answer key are rejected with
// ErrUnscorable.
func (s *CatalogService) SubmitAssessmentResponses(ctx context.Context, userID, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error) {
	doc, err := s.store.FindScenario(ctx, scenarioID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.AssessmentResult{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}
	if err != nil {
		return models.AssessmentResult{}, err
	}
	def, err := doc.Definition()
	if err != nil {
		return models.AssessmentResult{}, err
	}
	a, ok := def.(*models.Assessment)
	if !ok {
		return models.AssessmentResult{}, fmt.Errorf("%w: %s is a %s", ErrUnscorable, scenarioID, def.Kind())
	}

	result, err := models.GradeFlagged(a, responses)
	if err != nil {
		return models.AssessmentResult{}, fmt.Errorf("%w: %v", ErrUnscorable, err)
	}
	if err := s.store.SaveAttempt(ctx, userID, result); err != nil {
		return models.AssessmentResult{}, fmt.Errorf("failed to save attempt: %w", err)
	}
	return result, nil
}

// ReportProgress records progress for a learner.
func (s *CatalogService) ReportProgress(ctx context.Context, report models.ProgressReport) error {
	if report.Progress < 0 || report.Progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidProgress)
	}
	if strings.TrimSpace(report.UserID) == "" || strings.TrimSpace(report.CourseID) == "" {
		return fmt.Errorf("%w: user_id and course_id are required", ErrInvalidProgress)
	}
	return s.store.UpsertProgress(ctx, report)
}

// ListProgress returns a learner's progress in a course.
func (s *CatalogService) ListProgress(ctx context.Context, userID, courseID string) ([]*models.ProgressRecord, error) {
	return s.store.ListProgress(ctx, userID, courseID)
}
