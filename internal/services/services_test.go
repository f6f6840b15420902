package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"safety-lms/backend/internal/repository"
	"safety-lms/backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalog satisfies Catalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetScenario(ctx context.Context, courseID, scenarioID string) (*models.ScenarioDocument, error) {
	args := m.Called(ctx, courseID, scenarioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScenarioDocument), args.Error(1)
}

func (m *MockCatalog) FindScenario(ctx context.Context, scenarioID string) (*models.ScenarioDocument, error) {
	args := m.Called(ctx, scenarioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScenarioDocument), args.Error(1)
}

func (m *MockCatalog) GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockCatalog) SaveAttempt(ctx context.Context, userID string, result models.AssessmentResult) error {
	return m.Called(ctx, userID, result).Error(0)
}

func (m *MockCatalog) UpsertProgress(ctx context.Context, report models.ProgressReport) error {
	return m.Called(ctx, report).Error(0)
}

// Stubs for methods not exercised here
func (m *MockCatalog) PutScenario(ctx context.Context, courseID string, doc models.ScenarioDocument) error {
	return nil
}
func (m *MockCatalog) PutObjectMapping(ctx context.Context, courseID, objectName, scenarioID string) error {
	return nil
}
func (m *MockCatalog) ListProgress(ctx context.Context, userID, courseID string) ([]*models.ProgressRecord, error) {
	return nil, nil
}

func flaggedQuiz() *models.ScenarioDocument {
	return &models.ScenarioDocument{
		Kind: models.KindAssessment,
		ID:   "pressure-risk",
		Questions: []models.Question{
			{ID: "q1", Type: models.QuestionSingle, Options: []models.Option{
				{ID: "a", IsCorrect: models.Bool(true)}, {ID: "b", IsCorrect: models.Bool(false)},
			}},
			{ID: "q2", Type: models.QuestionMultiple, Options: []models.Option{
				{ID: "x", IsCorrect: models.Bool(true)}, {ID: "y", IsCorrect: models.Bool(true)}, {ID: "z", IsCorrect: models.Bool(false)},
			}},
		},
	}
}

func TestCatalogService_Submit(t *testing.T) {
	store := new(MockCatalog)
	store.On("FindScenario", mock.Anything, "pressure-risk").Return(flaggedQuiz(), nil)
	store.On("SaveAttempt", mock.Anything, "u1", mock.MatchedBy(func(r models.AssessmentResult) bool {
		return r.ScorePercent == 50
	})).Return(nil)

	svc := NewCatalogService(store)
	res, err := svc.SubmitAssessmentResponses(context.Background(), "u1", "pressure-risk", []models.AssessmentResponse{
		{QuestionID: "q1", OptionIDs: []string{"a"}},
		{QuestionID: "q2", OptionIDs: []string{"x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, res.ScorePercent)
	assert.Equal(t, map[string]bool{"q1": true, "q2": false}, res.PerQuestionCorrectness)
	store.AssertExpectations(t)
}

func TestCatalogService_SubmitUnflaggedIsUnscorable(t *testing.T) {
	doc := flaggedQuiz()
	for i := range doc.Questions {
		for j := range doc.Questions[i].Options {
			doc.Questions[i].Options[j].IsCorrect = nil
		}
	}
	store := new(MockCatalog)
	store.On("FindScenario", mock.Anything, "pressure-risk").Return(doc, nil)

	_, err := NewCatalogService(store).SubmitAssessmentResponses(context.Background(), "u1", "pressure-risk", nil)
	assert.ErrorIs(t, err, ErrUnscorable)
	store.AssertNotCalled(t, "SaveAttempt", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_GetScenarioNotFound(t *testing.T) {
	store := new(MockCatalog)
	store.On("GetScenario", mock.Anything, "c", "missing").Return(nil, repository.ErrNotFound)

	_, err := NewCatalogService(store).GetScenario(context.Background(), "c", "missing")
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestCatalogService_ReportProgressValidation(t *testing.T) {
	store := new(MockCatalog)
	svc := NewCatalogService(store)

	assert.ErrorIs(t, svc.ReportProgress(context.Background(), models.ProgressReport{UserID: "u", CourseID: "c", Progress: 101}), ErrInvalidProgress)
	assert.ErrorIs(t, svc.ReportProgress(context.Background(), models.ProgressReport{CourseID: "c", Progress: 10}), ErrInvalidProgress)

	report := models.ProgressReport{UserID: "u", CourseID: "c", Progress: 100}
	store.On("UpsertProgress", mock.Anything, report).Return(nil)
	assert.NoError(t, svc.ReportProgress(context.Background(), report))
}

func TestContentClient_RoundTrip(t *testing.T) {
	var gotProgress models.ProgressReport
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/courses/course-1/scenarios/pressure-risk", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(flaggedQuiz())
	})
	mux.HandleFunc("/api/v1/courses/course-1/object-mapping", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"ValveA": "scn-1"})
	})
	mux.HandleFunc("/api/v1/scenarios/pressure-risk/responses", func(w http.ResponseWriter, r *http.Request) {
		var req SubmitResponsesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)
		json.NewEncoder(w).Encode(models.AssessmentResult{ScenarioID: "pressure-risk", ScorePercent: 100})
	})
	mux.HandleFunc("/api/v1/progress", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotProgress))
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewContentClient(srv.URL+"/api/v1", "svc-token", time.Second)
	ctx := context.Background()

	def, err := client.GetScenario(ctx, "course-1", "pressure-risk")
	require.NoError(t, err)
	assert.Equal(t, models.KindAssessment, def.Kind())

	mapping, err := client.GetObjectMapping(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, "scn-1", mapping["ValveA"])

	res, err := client.SubmitAssessmentResponses(ctx, "u1", "pressure-risk", nil)
	require.NoError(t, err)
	assert.Equal(t, 100, res.ScorePercent)

	require.NoError(t, client.ReportProgress(ctx, models.ProgressReport{UserID: "u1", CourseID: "course-1", Progress: 100}))
	assert.Equal(t, 100, gotProgress.Progress)
}

func TestContentClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewContentClient(srv.URL, "", time.Second).GetScenario(context.Background(), "c", "s")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

var (
	_ ContentService = (*ContentClient)(nil)
	_ ContentService = (*CatalogService)(nil)
)
