package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"nexamediaserver/internal/apperrors"
	"nexamediaserver/internal/auth"
	"nexamediaserver/internal/catalog"
)

const (
	ctxUserID    = "userID"
	ctxSessionID = "sessionID"
)

// requireAuth verifies the bearer token on every request in the group,
// stashing the authenticated user id and session id in gin's context.
func requireAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(c, apperrors.New(apperrors.Unauthenticated, "missing bearer token"))
			c.Abort()
			return
		}

		userID, sessionID, err := svc.Authenticate(parts[1])
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxSessionID, sessionID)
		c.Next()
	}
}

// requireAdmin checks PolicyAdministrator against the authenticated user,
// loaded via userLookup, and must run after requireAuth in the chain.
func requireAdmin(svc *auth.Service, userLookup func(userID uint64) (*auth.User, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet(ctxUserID).(uint64)
		user, err := userLookup(userID)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if err := svc.Authorize(auth.PolicyAdministrator, user); err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uint64 {
	return c.MustGet(ctxUserID).(uint64)
}

// parseLibraryType is a small helper shared by handlers that accept a
// library type as a query parameter.
func parseLibraryType(s string) catalog.LibraryType { return catalog.LibraryType(s) }
