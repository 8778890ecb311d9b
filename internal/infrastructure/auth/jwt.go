package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/biztime"
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// Claims identify the clerk behind a request. Roles and sub-authorities are
// issued by the identity provider and passed through unchanged.
type Claims struct {
	UserID       uint                   `json:"user_id"`
	Role         authorization.UserRole `json:"role"`
	SubAuthority string                 `json:"sub_authority,omitempty"`
	TokenType    TokenType              `json:"token_type"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the principal passed to use cases.
func (c *Claims) Actor() authorization.Actor {
	return authorization.Actor{
		UserID:       c.UserID,
		Role:         c.Role,
		SubAuthority: c.SubAuthority,
	}
}

type JWTService struct {
	secret           []byte
	accessExpMinutes int
}

func NewJWTService(secret string, accessExpMinutes int) *JWTService {
	if accessExpMinutes <= 0 {
		accessExpMinutes = 60
	}
	return &JWTService{
		secret:           []byte(secret),
		accessExpMinutes: accessExpMinutes,
	}
}

// Generate signs an HS256 access token for actor.
func (s *JWTService) Generate(actor authorization.Actor) (string, error) {
	if actor.IsZero() {
		return "", fmt.Errorf("actor user ID is required")
	}
	now := biztime.NowUTC()

	claims := &Claims{
		UserID:       actor.UserID,
		Role:         actor.Role,
		SubAuthority: actor.SubAuthority,
		TokenType:    TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", actor.UserID),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.accessExpMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("token is not an access token")
	}
	if claims.UserID == 0 || claims.Role == "" {
		return nil, fmt.Errorf("token carries no actor")
	}
	return claims, nil
}

// AccessExpMinutes returns the access token expiration time in minutes
func (s *JWTService) AccessExpMinutes() int {
	return s.accessExpMinutes
}
