package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ContextUserID holds the authenticated user's uuid.UUID.
	ContextUserID = "user_id"
	// ContextClaims holds the parsed *Claims.
	ContextClaims = "claims"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the access-token claims issued by the identity provider. The
// subject is the user's profile id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 access token for userID. It is used for local
// development and tests; production tokens come from the identity provider.
func GenerateToken(secret, issuer string, userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a signed token and returns its claims and subject.
func ParseToken(secret, issuer, raw string) (*Claims, uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return claims, userID, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, userID, err := ParseToken(secret, issuer, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" {
			if claims, userID, err := ParseToken(secret, issuer, raw); err == nil {
				c.Set(ContextUserID, userID)
				c.Set(ContextClaims, claims)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ClaimsFrom returns the parsed token claims, if any.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	raw, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := raw.(*Claims)
	return claims, ok
}
