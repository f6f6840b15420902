package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"safety-lms/backend/pkg/models"
)

// ContentClient is an HTTP implementation of the ContentService interface.
type ContentClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewContentClient creates a new ContentClient. token, when set, is sent as
// a bearer token on every request.
func NewContentClient(baseURL, token string, timeout time.Duration) *ContentClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ContentClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetScenario returns the definition of a scenario in a course.
func (c *ContentClient) GetScenario(ctx context.Context, courseID, scenarioID string) (models.Definition, error) {
	path := fmt.Sprintf("/courses/%s/scenarios/%s", url.PathEscape(courseID), url.PathEscape(scenarioID))
	var doc models.ScenarioDocument
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return nil, err
	}
	def, err := doc.Definition()
	if err != nil {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", scenarioID, err)
	}
	return def, nil
}

// GetObjectMapping returns the object name to scenario id table of a course.
func (c *ContentClient) GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error) {
	path := fmt.Sprintf("/courses/%s/object-mapping", url.PathEscape(courseID))
	mapping := map[string]string{}
	if err := c.do(ctx, http.MethodGet, path, nil, &mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// SubmitResponsesRequest is the body of the scoring endpoint.
type SubmitResponsesRequest struct {
	UserID    string                      `json:"user_id"`
	Responses []models.AssessmentResponse `json:"responses"`
}

// SubmitAssessmentResponses grades a learner's answers remotely.
func (c *ContentClient) SubmitAssessmentResponses(ctx context.Context, userID, scenarioID string, responses []models.AssessmentResponse) (models.AssessmentResult, error) {
	path := fmt.Sprintf("/scenarios/%s/responses", url.PathEscape(scenarioID))
	var result models.AssessmentResult
	body := SubmitResponsesRequest{UserID: userID, Responses: responses}
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return models.AssessmentResult{}, err
	}
	return result, nil
}

// ReportProgress records progress for a learner.
func (c *ContentClient) ReportProgress(ctx context.Context, report models.ProgressReport) error {
	return c.do(ctx, http.MethodPost, "/progress", report, nil)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("content service %s %s: status code %d", e.Method, e.Path, e.Code)
}

func (c *ContentClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		requestBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(requestBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
