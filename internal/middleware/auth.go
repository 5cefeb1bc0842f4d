package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nmarofsky/DatingApp/internal/common"
	"github.com/nmarofsky/DatingApp/pkg/jwt"
)

const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxKnownAs  = "knownAs"

	accessTokenQuery = "access_token"
)

// JWTAuth JWT authentication middleware. Browsers cannot set headers on a
// websocket handshake, so the token may also come from ?access_token=.
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := extractToken(c)
		if problem != "" {
			common.ErrorResponse(c, 401, problem, nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, 401, "Token expired", err)
			} else {
				common.ErrorResponse(c, 401, "Invalid token", err)
			}
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, strings.ToLower(claims.Username))
		c.Set(ctxKnownAs, claims.KnownAs)

		c.Next()
	}
}

// extractToken returns the raw token, or a client-facing problem
func extractToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query(accessTokenQuery); token != "" {
			return token, ""
		}
		return "", "Missing authorization header"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization header format"
	}
	return parts[1], ""
}

// GetUsername extracts the authenticated username from context
func GetUsername(c *gin.Context) string {
	username, exists := c.Get(ctxUsername)
	if !exists {
		return ""
	}
	if str, ok := username.(string); ok {
		return str
	}
	return ""
}

// GetUserID extracts the authenticated user id from context
func GetUserID(c *gin.Context) uint64 {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0
	}
	if id, ok := userID.(uint64); ok {
		return id
	}
	return 0
}

// GetKnownAs extracts the display name from context
func GetKnownAs(c *gin.Context) string {
	knownAs, exists := c.Get(ctxKnownAs)
	if !exists {
		return ""
	}
	if str, ok := knownAs.(string); ok {
		return str
	}
	return ""
}
