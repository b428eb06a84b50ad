package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
)

// Load the secret from an environment variable. Fallback to a default (not recommended in production).
var secretKey = []byte(getSecret())

func getSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "medibook-dev"
	}
	return secret
}

// GenerateToken creates a signed JWT token identifying a caller session.
// The token carries the caller's id, display name and contact, and expires
// after the specified duration.
func GenerateToken(subject, name, contact string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     subject,
		"name":    name,
		"contact": contact,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
}

// ExtractIdentityClaims pulls the caller identity fields out of a validated token.
func ExtractIdentityClaims(token *jwt.Token) (id, name, contact string, err error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", "", errors.New("invalid token claims")
	}
	id, _ = claims["sub"].(string)
	name, _ = claims["name"].(string)
	contact, _ = claims["contact"].(string)
	if id == "" {
		return "", "", "", errors.New("token missing subject")
	}
	return id, name, contact, nil
}
