package api

import "github.com/labstack/echo/v4"

// RegisterHandlers mounts the authenticated API on g.
func RegisterHandlers(g *echo.Group, s *Server) {
	g.POST("/pages", s.CreatePage)
	g.DELETE("/pages/:page", s.DeletePage)
	g.POST("/pages/:page/events", s.PostEvent)
	g.GET("/pages/:page/commands", s.DrainCommands)
	g.GET("/pages/:page/session", s.GetSession)
	g.POST("/pages/:page/session/start", s.StartSession)
	g.POST("/pages/:page/session/answers", s.SelectAnswer)
	g.POST("/pages/:page/session/next", s.NextQuestion)
	g.POST("/pages/:page/session/dismiss", s.DismissSession)
	g.POST("/pages/:page/session/presentation", s.SetPresentation)

	g.GET("/courses/:course/scenarios/:scenario", s.GetScenario)
	g.GET("/courses/:course/object-mapping", s.GetObjectMapping)
	g.POST("/scenarios/:scenario/responses", s.SubmitResponses)
	g.POST("/progress", s.ReportProgress)
	g.GET("/progress", s.ListProgress)
}
