package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
	"github.com/radieske/opinion-trade-platform/internal/ledger/store"
)

// Claims do token de acesso: identidade + role (HS256)
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken emite o JWT de um usuário autenticado
func GenerateToken(u store.User, secret string, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: u.ID,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken valida o JWT e devolve os claims
// Qualquer falha (assinatura, expiração, formato) vira Unauthorized
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ledgererr.Wrap(ledgererr.Unauthorized, "invalid or expired token", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ledgererr.New(ledgererr.Unauthorized, "invalid token claims")
	}
	return claims, nil
}
