package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// identityKey is the context key carrying the resolved recipient identity.
const identityKey = "user_id"

// Claims is the accepted bearer-token shape. Only user_id is consumed;
// authorization beyond the opaque identity is out of scope here.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IdentityMiddleware resolves the caller's opaque identity, in order of
// precedence: a valid Bearer JWT's user_id claim, the X-User-ID header, the
// user_id query parameter. Anonymous requests pass through with no identity;
// routing then only matches global notifications for them.
func IdentityMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := identityFromToken(c, jwtSecret); id != "" {
			c.Set(identityKey, id)
			c.Next()
			return
		}
		if id := c.GetHeader("X-User-ID"); id != "" {
			c.Set(identityKey, id)
			c.Next()
			return
		}
		if id := c.Query("user_id"); id != "" {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

func identityFromToken(c *gin.Context, secret string) string {
	if secret == "" {
		return ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return ""
	}
	return claims.UserID
}

// Identity returns the resolved identity for the request, or "" when the
// caller is anonymous.
func Identity(c *gin.Context) string {
	id, _ := c.Get(identityKey)
	s, _ := id.(string)
	return s
}
