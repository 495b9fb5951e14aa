package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avolkovs/pennywise/internal/api"
	"github.com/avolkovs/pennywise/internal/common"
)

// userIDKey is where the auth middleware stores the authenticated user id in
// the gin context.
const userIDKey = "userID"

// authMiddleware validates the Bearer access token and stores the user id.
// An expired token answers with the fixed token-expired message so clients
// know to refresh rather than re-login.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "missing bearer token"})
			return
		}

		userID, err := s.userService.VerifyAccessToken(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: common.TokenExpiredMessage})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.Error{Error: "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
