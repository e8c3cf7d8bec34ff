package auth

import (
	"fmt"
	"time"

	"quizpal-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried in the auth token. The user identity travels in the token so
// services can take the acting user as an explicit parameter instead of
// reading ambient session state.
type Claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// UserRef converts token claims into the domain's acting-user reference.
func (c *Claims) UserRef() domain.UserRef {
	return domain.UserRef{
		ID:          c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}
}

// GenerateToken signs an HS256 token for the user.
func GenerateToken(user domain.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
