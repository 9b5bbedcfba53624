package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	donnaauth "github.com/GoSim-25-26J-441/donna-backend/internal/auth"
)

// TokenVerifier is the part of the Firebase auth client the guard needs.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// OwnerGuard validates Firebase ID tokens and only lets the owner through.
// An empty ownerUID accepts any valid token.
func OwnerGuard(verifier TokenVerifier, ownerUID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		decodedToken, err := verifier.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		if ownerUID != "" && decodedToken.UID != ownerUID {
			log.Printf("[auth] rejected uid=%s path=%s", decodedToken.UID, c.Request.URL.Path)
			c.JSON(http.StatusForbidden, gin.H{"error": "not the owner"})
			c.Abort()
			return
		}

		email, _ := decodedToken.Claims["email"].(string)
		donnaauth.SetOwner(c, decodedToken.UID, email)

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
