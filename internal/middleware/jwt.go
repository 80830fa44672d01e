package middleware

import (
	"net/http"
	"strings"

	"github.com/clipstream/clipstream/internal/constants"
	"github.com/clipstream/clipstream/internal/service"
	"github.com/clipstream/clipstream/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type JWTMiddleware struct {
	tokens *service.TokenService
}

func NewJWTMiddleware(tokens *service.TokenService) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens}
}

// RequireAuth validates the access token and sets the user's identity in the
// request context. The token is read from the Authorization header first,
// then from the accessToken cookie, so both API clients and browsers work.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			logger.GetLogger().Warn("Missing access token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
			c.Abort()
			return
		}

		claims, err := m.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			logger.GetLogger().Warn("Invalid or expired access token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
			c.Abort()
			return
		}

		userIDHex, ok := claims["id"].(string)
		if !ok {
			logger.GetLogger().Warn("Access token missing user id claim",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(userIDHex)
		if err != nil {
			logger.GetLogger().Warn("Access token carries malformed user id",
				zap.String("path", c.Request.URL.Path),
				zap.String("user_id", userIDHex))
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
			c.Abort()
			return
		}

		c.Set(constants.GinKeyUserID, userID)
		if username, ok := claims["username"].(string); ok {
			c.Set(constants.GinKeyUsername, username)
		}
		if email, ok := claims["email"].(string); ok {
			c.Set(constants.GinKeyEmail, email)
		}
		if fullName, ok := claims["fullName"].(string); ok {
			c.Set(constants.GinKeyFullName, fullName)
		}

		logger.GetLogger().Debug("User authenticated",
			zap.String("user_id", userIDHex),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		c.Next()
	}
}

// extractAccessToken prefers the Authorization header over the cookie
func extractAccessToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie(constants.CookieAccessToken)
	if err != nil {
		return ""
	}
	return cookie
}

// UserIDFromContext returns the authenticated user's id set by RequireAuth.
func UserIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get(constants.GinKeyUserID)
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}
