package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status string `json:"status"`
	Build  string `json:"build"`
}

// healthz reports liveness and database reachability.
func (s *Server) healthz(ctx echo.Context) error {
	resp := healthResponse{Status: "ok", Build: s.deps.Conf.Build}
	if s.deps.Pinger != nil {
		c, cancel := context.WithTimeout(ctx.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Pinger.PingContext(c); err != nil {
			s.deps.Logger.Warn("healthz: database unreachable", err)
			resp.Status = "db unreachable"
			return ctx.JSON(http.StatusServiceUnavailable, resp)
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}
