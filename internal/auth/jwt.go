package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is the payload of the short-lived access token.
type AccessClaims struct {
	UserID    string
	Email     string
	FirstName string
}

// RefreshClaims is the payload of the long-lived refresh token. JTI is the
// rotating session id matched against the user's stored one.
type RefreshClaims struct {
	UserID string
	JTI    string
}

// NewJTI mints a fresh session identifier for refresh-token rotation.
func NewJTI() string {
	return uuid.NewString()
}

func GenerateAccessToken(secret string, claims AccessClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"fn":    claims.FirstName,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

func GenerateRefreshToken(secret string, claims RefreshClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": claims.UserID,
		"jti": claims.JTI,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

func ValidateAccessToken(secret, tokenString string) (*AccessClaims, error) {
	claims, err := parseHMAC(secret, tokenString)
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("access token missing subject")
	}
	email, _ := claims["email"].(string)
	fn, _ := claims["fn"].(string)
	return &AccessClaims{UserID: sub, Email: email, FirstName: fn}, nil
}

func ValidateRefreshToken(secret, tokenString string) (*RefreshClaims, error) {
	claims, err := parseHMAC(secret, tokenString)
	if err != nil {
		return nil, err
	}

	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return nil, fmt.Errorf("refresh token missing subject or jti")
	}
	return &RefreshClaims{UserID: sub, JTI: jti}, nil
}

func parseHMAC(secret, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
