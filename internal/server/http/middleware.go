package httpserver

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/model"
)

// AccessVerifier checks access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (uuid.UUID, error)
}

// AccountLoader resolves the account behind a verified token.
type AccountLoader interface {
	Current(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

// Logging logs one line per request. Bodies, cookies and headers are never logged.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Recovery turns a handler panic into a 500 envelope.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				abortWith(c, http.StatusInternalServerError, defaultMessages[http.StatusInternalServerError])
			}
		}()
		c.Next()
	}
}

// BodyLimit caps request bodies at max bytes.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

// Session verifies the access token from the accessToken cookie or the
// Authorization header and attaches the account to the request context.
func Session(tokens AccessVerifier, accounts AccountLoader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, _ := c.Cookie(AccessCookie)
		if tok == "" {
			tok = bearerToken(c.GetHeader("Authorization"))
		}
		if tok == "" {
			abortWith(c, http.StatusUnauthorized, "unauthorized request")
			return
		}
		id, err := tokens.VerifyAccess(tok)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "invalid access token")
			return
		}
		a, err := accounts.Current(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				abortWith(c, http.StatusUnauthorized, "invalid access token")
				return
			}
			fail(c, log, err)
			return
		}
		c.Request = c.Request.WithContext(WithAccount(c.Request.Context(), a))
		c.Next()
	}
}

func bearerToken(h string) string {
	h = strings.TrimSpace(h)
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
