package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxFirebaseUID = "firebase_uid"

// Middleware verifies a Bearer ID token when one is present. Requests
// without a token pass through anonymously and are rejected by the
// operation itself; a token that fails verification is rejected here.
func Middleware(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		caller, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"status": "UNAUTHENTICATED", "message": "invalid token"},
			})
			return
		}

		c.Set(CtxFirebaseUID, caller.UID)
		c.Request = c.Request.WithContext(WithCaller(c.Request.Context(), caller))

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
