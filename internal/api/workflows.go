// Package api contains the HTTP handlers of the scene bridge and the content
// service.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"safety-lms/backend/internal/auth"
	"safety-lms/backend/internal/bridge"
	"safety-lms/backend/internal/scene"
	"safety-lms/backend/internal/services"
	"safety-lms/backend/internal/workflow"
)

// Server holds the dependencies for the API server.
type Server struct {
	Hub     *bridge.Hub
	Catalog *services.CatalogService
	Logger  Logger
}

// NewServer creates a new Server.
func NewServer(hub *bridge.Hub, catalog *services.CatalogService, logger Logger) *Server {
	return &Server{Hub: hub, Catalog: catalog, Logger: logger}
}

// CreatePageRequest registers an embedded page.
type CreatePageRequest struct {
	CourseID string `json:"course_id"`
}

// PageResponse describes a registered page.
type PageResponse struct {
	PageID   string `json:"page_id"`
	CourseID string `json:"course_id"`
}

// EventResponse reports whether an inbound event had an effect.
type EventResponse struct {
	Handled bool `json:"handled"`
}

// AnswerRequest selects an option on the active assessment.
type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
}

// PresentationRequest changes the presentation state of the session.
type PresentationRequest struct {
	Minimized bool `json:"minimized"`
}

// CreatePage registers a page for the authenticated learner
// (POST /api/v1/pages)
func (s *Server) CreatePage(c echo.Context) error {
	learnerID, ok := auth.LearnerID(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Learner ID not found in context")
	}

	var req CreatePageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.CourseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "course_id is required")
	}

	b := s.Hub.Create(learnerID, req.CourseID)
	return c.JSON(http.StatusCreated, PageResponse{PageID: b.PageID(), CourseID: b.CourseID()})
}

// DeletePage drops a page
// (DELETE /api/v1/pages/:page)
func (s *Server) DeletePage(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	s.Hub.Remove(b.PageID())
	return c.NoContent(http.StatusNoContent)
}

// PostEvent accepts one runtime event. Unusable events are accepted and
// dropped.
// (POST /api/v1/pages/:page/events)
func (s *Server) PostEvent(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	var raw scene.RawEvent
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	handled := b.HandleEvent(c.Request().Context(), raw)
	return c.JSON(http.StatusAccepted, EventResponse{Handled: handled})
}

// GetSession returns the page's session
// (GET /api/v1/pages/:page/session)
func (s *Server) GetSession(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	snap, ok := b.Snapshot()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "No session on this page")
	}
	return c.JSON(http.StatusOK, snap)
}

// StartSession begins the open session
// (POST /api/v1/pages/:page/session/start)
func (s *Server) StartSession(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	return s.respond(c, b.Start)
}

// SelectAnswer records a choice
// (POST /api/v1/pages/:page/session/answers)
func (s *Server) SelectAnswer(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	snap, err := b.SelectAnswer(c.Request().Context(), req.QuestionID, req.OptionID)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// NextQuestion advances the cursor or submits
// (POST /api/v1/pages/:page/session/next)
func (s *Server) NextQuestion(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	return s.respond(c, b.Next)
}

// DismissSession closes the open session
// (POST /api/v1/pages/:page/session/dismiss)
func (s *Server) DismissSession(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	return s.respond(c, b.Dismiss)
}

// SetPresentation minimizes or restores the session
// (POST /api/v1/pages/:page/session/presentation)
func (s *Server) SetPresentation(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	var req PresentationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	snap, err := b.SetMinimized(c.Request().Context(), req.Minimized)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// DrainCommands returns the commands queued for the runtime
// (GET /api/v1/pages/:page/commands)
func (s *Server) DrainCommands(c echo.Context) error {
	b, err := s.page(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b.Commands())
}

func (s *Server) respond(c echo.Context, action func(ctx context.Context) (workflow.Snapshot, error)) error {
	snap, err := action(c.Request().Context())
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

// page looks up the page named in the path. Pages of other learners are
// reported as missing.
func (s *Server) page(c echo.Context) (*bridge.Bridge, error) {
	learnerID, ok := auth.LearnerID(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Learner ID not found in context")
	}
	b, ok := s.Hub.Get(c.Param("page"))
	if !ok || b.UserID() != learnerID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Page not found")
	}
	return b, nil
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrUnknownQuestion), errors.Is(err, workflow.ErrUnknownOption):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrNoActiveSession),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrWrongKind),
		errors.Is(err, workflow.ErrSessionBusy),
		errors.Is(err, workflow.ErrSubmitInFlight),
		errors.Is(err, workflow.ErrStaleSubmission):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
