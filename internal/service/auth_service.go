package service

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
)

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	Secret string
	Issuer string
}

// AuthService verifies bearer tokens minted by the campus identity provider.
type AuthService struct {
	config AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(config AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{config: config, logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	claims.Role = models.UserRole(strings.ToUpper(strings.TrimSpace(string(claims.Role))))
	if !knownRole(claims.Role) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	return claims, nil
}

func knownRole(role models.UserRole) bool {
	return role.IsStaff() || role == models.RoleStudent
}
