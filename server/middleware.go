package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pharmintel/core/internal/apperr"
)

const identityKey = "identity"

// requireIdentity rejects requests without the identity header. The
// header value is trusted; authentication happens upstream.
func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(s.config.IdentityHeader))
		if id == "" {
			abortWithError(c, apperr.New(apperr.Unauthorized, "missing %s header", s.config.IdentityHeader))
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) string {
	return c.GetString(identityKey)
}

// requireCronSecret authorizes the scan trigger with a bearer token.
func (s *Server) requireCronSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.config.CronSecret == "" {
			abortWithError(c, apperr.New(apperr.InvalidConfiguration, "scan trigger is not configured"))
			return
		}

		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.CronSecret)) != 1 {
			abortWithError(c, apperr.New(apperr.Unauthorized, "invalid scan token"))
			return
		}
		c.Next()
	}
}

// abortWithError maps the error kind to an HTTP status and writes the
// standard error body.
func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.AbortWithStatusJSON(statusFor(kind), gin.H{
		"error": apperr.Message(err),
		"code":  kind.String(),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.QuotaExceeded:
		return http.StatusForbidden
	case apperr.UnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case apperr.InvalidConfiguration:
		return http.StatusBadRequest
	case apperr.ModelUnavailable:
		return http.StatusServiceUnavailable
	case apperr.UpstreamFetchFailure:
		return http.StatusBadGateway
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
