package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safety-lms/backend/internal/bridge"
	"safety-lms/backend/internal/logging"
	"safety-lms/backend/pkg/models"
)

// stubContent satisfies services.ContentService
type stubContent struct {
	scenarios map[string]models.Definition
	mapping   map[string]string
}

func (s *stubContent) GetScenario(ctx context.Context, courseID, scenarioID string) (models.Definition, error) {
	def, ok := s.scenarios[scenarioID]
	if !ok {
		return nil, errors.New("scenario not found")
	}
	return def, nil
}

func (s *stubContent) GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error) {
	return s.mapping, nil
}

func (s *stubContent) SubmitAssessmentResponses(ctx context.Context, userID, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error) {
	return models.AssessmentResult{}, errors.New("not implemented")
}

func (s *stubContent) ReportProgress(ctx context.Context, report models.ProgressReport) error {
	return nil
}

func newTestServer() (*Server, *bridge.Hub) {
	content := &stubContent{
		scenarios: map[string]models.Definition{
			"site-rules": &models.InformationPanel{ID: "site-rules", Title: "Site rules"},
			"valve-check": &models.Assessment{ID: "valve-check", Questions: []models.Question{
				{ID: "q1", Type: models.QuestionSingle, Options: []models.Option{
					{ID: "a", IsCorrect: models.Bool(true)}, {ID: "b", IsCorrect: models.Bool(false)},
				}},
			}},
		},
		mapping: map[string]string{"ValveA": "scn-1"},
	}
	hub := bridge.NewHub(content, nil, logging.NewLoggerWithLevel(io.Discard, "error"), bridge.Options{})
	return NewServer(hub, content), hub
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestResolveObjectTool(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	res, err := s.handleResolveObject(ctx, call(map[string]any{"course_id": "course-1", "object_name": "valvea"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	var ref models.ScenarioRef
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &ref))
	assert.Equal(t, models.ScenarioRef{ScenarioID: "scn-1", CourseID: "course-1"}, ref)

	res, err = s.handleResolveObject(ctx, call(map[string]any{"course_id": "course-1", "object_name": "UnknownThing"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "does not open a scenario")

	res, err = s.handleResolveObject(ctx, call(map[string]any{"course_id": "course-1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetScenarioTool(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	res, err := s.handleGetScenario(ctx, call(map[string]any{"course_id": "course-1", "scenario_id": "site-rules"}))
	require.NoError(t, err)
	var doc models.ScenarioDocument
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	assert.Equal(t, models.KindInformationPanel, doc.Kind)

	res, err = s.handleGetScenario(ctx, call(map[string]any{"course_id": "course-1", "scenario_id": "valve-check"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), `"q1"`)
	assert.NotContains(t, text(t, res), "is_correct")

	res, err = s.handleGetScenario(ctx, call(map[string]any{"course_id": "course-1", "scenario_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestPageSessionTool(t *testing.T) {
	s, hub := newTestServer()
	ctx := context.Background()

	res, err := s.handlePageSession(ctx, call(map[string]any{"page_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	page := hub.Create("u1", "course-1")
	res, err = s.handlePageSession(ctx, call(map[string]any{"page_id": page.PageID()}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "No session")

	require.True(t, page.OnContentRequest(ctx, "site-rules"))
	res, err = s.handlePageSession(ctx, call(map[string]any{"page_id": page.PageID()}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"scenario_id":"site-rules"`)
}
