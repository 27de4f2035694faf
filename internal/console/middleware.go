package console

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/threedollars/admin-console/pkg/session"
)

const (
	requestIDHeader = "X-Request-ID"
	sessionKey      = "console.session"
)

// requestID propagates or assigns a request id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs every request and records HTTP metrics.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())

		event := logger.Debug()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}
		event.
			Str("request_id", c.GetString(requestIDHeader)).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", duration).
			Msg("HTTP request")
	}
}

// requireSession resolves the session header or aborts with 401.
func (s *Server) requireSession(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		abortJSON(c, http.StatusUnauthorized, "session required", "")
		return
	}

	sess, err := s.sessions.Get(c.Request.Context(), id)
	if errors.Is(err, session.ErrSessionNotFound) {
		abortJSON(c, http.StatusUnauthorized, "session expired or unknown", "")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Session lookup failed")
		abortJSON(c, http.StatusServiceUnavailable, "session store unavailable", "")
		return
	}

	c.Set(sessionKey, sess)
	c.Next()
}

func currentSession(c *gin.Context) *session.Session {
	v, _ := c.Get(sessionKey)
	sess, _ := v.(*session.Session)
	return sess
}
