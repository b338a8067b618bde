package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

func ValidateJWT(tokenString, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token is required")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func GenerateJWT(userID, secret string) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Middleware resolves the caller's user id. Behind the gateway it arrives
// as the X-User-ID header; direct callers present a Bearer token instead.
// The resolved id is written back onto the request so handlers read one
// header regardless of how the caller authenticated.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")

		if userID == "" {
			tokenString := c.GetHeader("Authorization")
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")
			if tokenString != "" {
				claims, err := ValidateJWT(tokenString, secret)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
					return
				}
				userID = cleanObjectID(claims.UserID)
			}
		}

		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID is required"})
			return
		}

		c.Request.Header.Set("X-User-ID", userID)
		c.Set("userID", userID)
		c.Next()
	}
}

// cleanObjectID unwraps ids some issuers encode as ObjectID("...").
func cleanObjectID(userID string) string {
	if strings.HasPrefix(userID, "ObjectID(\"") && strings.HasSuffix(userID, "\")") {
		return userID[10 : len(userID)-2]
	}
	return userID
}
