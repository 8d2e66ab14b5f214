package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apsoplatform/apso/config"
	"github.com/apsoplatform/apso/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type customClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthService implements domain.AuthService using HS256 signed tokens
type JWTAuthService struct {
	cfg config.AuthConfig
}

// NewJWTAuthService creates a new auth service instance
func NewJWTAuthService(cfg config.AuthConfig) *JWTAuthService {
	return &JWTAuthService{cfg: cfg}
}

func (s *JWTAuthService) accessTTL() time.Duration {
	if s.cfg.AccessTokenTTL <= 0 {
		return 24 * time.Hour
	}
	return s.cfg.AccessTokenTTL
}

// GenerateAccessToken creates signed JWT access token for the given user
func (s *JWTAuthService) GenerateAccessToken(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("invalid user payload")
	}

	now := time.Now()
	claims := &customClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL())),
			ID:        fmt.Sprintf("%s-%d", user.ID, now.UnixNano()),
		},
	}
	if audience := strings.TrimSpace(s.cfg.Audience); audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates JWT token and returns AuthClaims
func (s *JWTAuthService) ValidateToken(token string) (*domain.AuthClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &customClaims{}
	options := []jwt.ParserOption{jwt.WithIssuedAt(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})}
	if iss := strings.TrimSpace(s.cfg.Issuer); iss != "" {
		options = append(options, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(s.cfg.Audience); aud != "" {
		options = append(options, jwt.WithAudience(aud))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AccessSecret), nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !parsed.Valid || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	role := strings.ToUpper(claims.Role)
	if !domain.IsValidRole(role) {
		role = domain.RoleUser
	}

	return &domain.AuthClaims{
		UserID:    claims.Subject,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
