package admin

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const roleAdmin = "admin"

// Claims is the JWT payload minted after the gate admits a caller.
type Claims struct {
	Alias string `json:"alias"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates short-lived admin tokens for the HTTP
// surface. The engine-level gate stays a plain identifier comparison.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
}

// NewTokenService returns a configured token service.
func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	return &TokenService{secret: []byte(secret), expiresIn: expiresIn}
}

// GenerateToken issues an admin JWT for the given alias.
func (t *TokenService) GenerateToken(alias string) (string, error) {
	if alias == "" {
		return "", errors.New("token: alias is required")
	}

	now := time.Now().UTC()
	claims := Claims{
		Alias: alias,
		Role:  roleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken verifies the token and requires the admin role.
func (t *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != roleAdmin {
		return nil, errors.New("token: invalid claims")
	}
	return claims, nil
}
