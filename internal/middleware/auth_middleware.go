package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ArowuTest/topup-callback/internal/logger"
	pkgjwt "github.com/ArowuTest/topup-callback/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWTAuthMiddleware requires a bearer token carrying scope.
func JWTAuthMiddleware(tokens *pkgjwt.TokenService, scope string, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("auth")
	return func(c *gin.Context) {
		const BearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer "})
			return
		}

		claims, err := tokens.Parse(authHeader[len(BearerSchema):])
		if err != nil {
			log.Warn("token rejected",
				zap.String("authorization", logger.MaskAuthorization(authHeader)),
				zap.Error(err),
			)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}
		if scope != "" && !claims.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token lacks required scope"})
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}
