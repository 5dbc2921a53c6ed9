package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxRequestID = "requestID"
	ctxUser      = "currentUser"
	ctxToken     = "currentToken"
)

// requestID tags every request with an id, reusing the caller's if present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger writes one structured line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(ctxRequestID),
		)
	}
}

// authGate admits requests carrying an active session token and binds the
// user and the token to the context. Every failure gets the same 401.
func (s *Server) authGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ParseBearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			s.reject(c)
			return
		}

		user, err := s.users.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrorUnauthorized) {
				s.logger.Debug(c.Request.Context(), "auth rejected", "error", err)
			} else {
				s.logger.Error(c.Request.Context(), "auth lookup failed", "error", err)
			}
			s.reject(c)
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxToken, token)
		c.Next()
	}
}

func (s *Server) reject(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: msgPleaseAuthenticate})
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(ctxUser).(*models.User)
}

func currentToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
