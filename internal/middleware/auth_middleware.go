package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/services"
)

// OperatorIDKey is the context key holding the authenticated operator id
const OperatorIDKey = "operatorID"

// TokenValidator checks an admin bearer token
type TokenValidator interface {
	ValidateToken(token string) (int64, error)
}

// JWTAuthMiddleware admits requests carrying a valid token of an allow-listed operator.
func JWTAuthMiddleware(validator TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const bearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		operatorID, err := validator.ValidateToken(strings.TrimSpace(authHeader[len(bearerSchema):]))
		if err != nil {
			logger.Warn("Admin token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			if errors.Is(err, services.ErrNotOperator) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Operator is not allowed"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(OperatorIDKey, operatorID)
		c.Next()
	}
}

// ServiceTokenMiddleware guards the chat transport API with a shared token.
// An empty token disables the check.
func ServiceTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Service-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid service token"})
			return
		}
		c.Next()
	}
}
