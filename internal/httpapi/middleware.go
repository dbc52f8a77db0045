package httpapi

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vecthare/vecthare/internal/errors"
)

// CORSConfig builds the permissive-by-default CORS middleware the admin
// surface runs behind; hosts embedding vecthare as a sidecar typically
// serve their own UI from a different origin.
func CORSConfig(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cors.New(cfg)
}

// AuthMiddleware validates a "Bearer <token>" Authorization header against
// secret using HS256, the same scheme golang-jwt/jwt's own middleware
// examples use. An empty secret disables auth entirely, since a host
// running vecthare behind its own reverse proxy may already gate access.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		tokenStr := strings.TrimPrefix(header, "Bearer ")
		if tokenStr == "" || tokenStr == header {
			c.Error(errors.NewBadRequestError("missing bearer token"))
			c.Abort()
			return
		}
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New(errors.KindBadRequest, "unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.Error(errors.NewBadRequestError("invalid bearer token"))
			c.Abort()
			return
		}
		c.Next()
	}
}
