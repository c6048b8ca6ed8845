package echoapi

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const loginURL = "/login/"

// loginRequired redirects anonymous requests to the login page.
func loginRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := getContextUser(ctx); !ok {
			return ctx.Redirect(http.StatusFound, loginURL+"?next="+url.QueryEscape(ctx.Request().URL.RequestURI()))
		}
		return next(ctx)
	}
}

// permissionRequired rejects authenticated accounts lacking perm with 403.
// It must run after loginRequired.
func permissionRequired(perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if usr, ok := getContextUser(ctx); ok && usr.HasPerm(perm) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Number of HTTP requests by route, method and status.",
	}, []string{"path", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latencies by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
)

// metricsMiddleware records request counts and latencies per route pattern.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)

		status := ctx.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if !ctx.Response().Committed {
				status = http.StatusInternalServerError
			}
		}
		path := ctx.Path()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(path, ctx.Request().Method, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(path, ctx.Request().Method).Observe(time.Since(start).Seconds())
		return err
	}
}
