package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"apicatalog/internal/pkg/jwtutil"
	"apicatalog/internal/transport/http/response"
)

const (
	ContextUserIDKey = "auth_user_id"
	ContextClaimsKey = "auth_claims"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.Decode(token, secret)
		if err != nil {
			msg := "invalid or expired token"
			if errors.Is(err, jwtutil.ErrExpired) {
				msg = "token is expired"
			}
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, msg)
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// UserID returns the authenticated user id set by AuthJWT.
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
