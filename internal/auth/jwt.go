package auth

import (
	"errors"
	"fmt"
	"time"

	"safeflame-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionTTL      = 7 * 24 * time.Hour
	VerificationTTL = time.Hour

	verifyEmailSubject = "verify-email"
)

type JWTCustomClaims struct {
	UserID uint            `json:"userId"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type emailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, hmacKey(secret))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == verifyEmailSubject {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// GenerateEmailToken signs the short-lived token embedded in verification links.
func GenerateEmailToken(secret, email string) (string, error) {
	now := time.Now()
	claims := &emailClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   verifyEmailSubject,
			ExpiresAt: jwt.NewNumericDate(now.Add(VerificationTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseEmailToken(secret, tokenStr string) (string, error) {
	claims := &emailClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, hmacKey(secret))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject != verifyEmailSubject || claims.Email == "" {
		return "", errors.New("invalid verification token")
	}
	return claims.Email, nil
}

func hmacKey(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}
}
