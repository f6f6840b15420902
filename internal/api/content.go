package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"safety-lms/backend/internal/auth"
	"safety-lms/backend/internal/services"
	"safety-lms/backend/pkg/models"
)

// SubmitResponsesRequest is the body of a scoring request.
type SubmitResponsesRequest = services.SubmitResponsesRequest

// GetScenario returns a scenario definition. Only the service token sees
// option correctness flags.
// (GET /api/v1/courses/:course/scenarios/:scenario)
func (s *Server) GetScenario(c echo.Context) error {
	ctx := c.Request().Context()
	def, err := s.Catalog.GetScenario(ctx, c.Param("course"), c.Param("scenario"))
	if err != nil {
		return contentError(err)
	}
	if auth.IsService(ctx) {
		return c.JSON(http.StatusOK, models.DocumentOf(def))
	}
	return c.JSON(http.StatusOK, models.LearnerDocumentOf(def))
}

// GetObjectMapping returns a course's object mapping table
// (GET /api/v1/courses/:course/object-mapping)
func (s *Server) GetObjectMapping(c echo.Context) error {
	mapping, err := s.Catalog.GetObjectMapping(c.Request().Context(), c.Param("course"))
	if err != nil {
		return contentError(err)
	}
	return c.JSON(http.StatusOK, mapping)
}

// SubmitResponses grades an assessment submission for a remote bridge
// (POST /api/v1/scenarios/:scenario/responses)
func (s *Server) SubmitResponses(c echo.Context) error {
	if err := requireService(c); err != nil {
		return err
	}
	var req SubmitResponsesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	userID, err := actingUser(c, req.UserID)
	if err != nil {
		return err
	}
	result, err := s.Catalog.SubmitAssessmentResponses(c.Request().Context(), userID, c.Param("scenario"), req.Responses)
	if err != nil {
		return contentError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// ReportProgress records learner progress for a remote bridge
// (POST /api/v1/progress)
func (s *Server) ReportProgress(c echo.Context) error {
	if err := requireService(c); err != nil {
		return err
	}
	var report models.ProgressReport
	if err := c.Bind(&report); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	userID, err := actingUser(c, report.UserID)
	if err != nil {
		return err
	}
	report.UserID = userID
	if err := s.Catalog.ReportProgress(c.Request().Context(), report); err != nil {
		return contentError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListProgress returns the learner's progress in a course
// (GET /api/v1/progress?course_id=)
func (s *Server) ListProgress(c echo.Context) error {
	userID, err := actingUser(c, c.QueryParam("user_id"))
	if err != nil {
		return err
	}
	courseID := c.QueryParam("course_id")
	if courseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "course_id is required")
	}
	records, err := s.Catalog.ListProgress(c.Request().Context(), userID, courseID)
	if err != nil {
		return contentError(err)
	}
	if records == nil {
		records = []*models.ProgressRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

// actingUser returns the user a content request acts for. Learners act for
// themselves; the service token may name any user.
func actingUser(c echo.Context, requested string) (string, error) {
	ctx := c.Request().Context()
	if learnerID, ok := auth.LearnerID(ctx); ok {
		if requested != "" && requested != learnerID {
			return "", echo.NewHTTPError(http.StatusForbidden, "cannot act for another learner")
		}
		return learnerID, nil
	}
	if auth.IsService(ctx) && requested != "" {
		return requested, nil
	}
	return "", echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
}

// requireService rejects learners. Grades and progress come from the bridge
// that ran the session, never from the learner's browser.
func requireService(c echo.Context) error {
	if !auth.IsService(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusForbidden, "only the content service client may record results")
	}
	return nil
}

func contentError(err error) error {
	switch {
	case errors.Is(err, services.ErrScenarioNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnscorable):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrInvalidProgress):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
