package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

// authenticatedRole is the role and audience Supabase puts on user tokens.
const authenticatedRole = "authenticated"

// Claims mirrors the Supabase access token payload. Subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// DevUser is the single account accepted by dev login.
type DevUser struct {
	Enabled      bool
	Email        string
	UserID       string
	PasswordHash string
}

// AuthService validates Supabase access tokens and, in local development,
// issues tokens with the same claim shape.
type AuthService struct {
	profiles  port.ProfileStore
	jwtSecret []byte
	accessTTL time.Duration
	dev       DevUser
	now       Clock
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(profiles port.ProfileStore, jwtSecret string, accessTTL time.Duration, dev DevUser, logger *zap.Logger) *AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &AuthService{
		profiles:  profiles,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		dev:       dev,
		now:       time.Now,
		logger:    logger,
	}
}

// ValidateAccessToken parses and verifies an HS256 token.
func (s *AuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(authenticatedRole),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token without subject"}
	}
	return claims, nil
}

// ============================================================
// Dev login: POST /v1/auth/dev-login
// ============================================================

func (s *AuthService) DevLogin(ctx context.Context, req *domain.DevLoginRequest) (*domain.LoginResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.DevLogin")
	defer span.End()

	if !s.dev.Enabled {
		return nil, &domain.ErrForbidden{Action: "dev login is disabled"}
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email and password are required"}
	}

	if !strings.EqualFold(strings.TrimSpace(req.Email), s.dev.Email) {
		s.logger.Warn("dev login: unknown email", zap.String("email", req.Email))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.dev.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("dev login: wrong password", zap.String("email", req.Email))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	token, err := s.signAccessToken(s.dev.UserID, s.dev.Email)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", s.dev.UserID))

	s.logger.Info("dev login", zap.String("user_id", s.dev.UserID))
	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
		UserID:      s.dev.UserID,
	}, nil
}

func (s *AuthService) signAccessToken(userID, email string) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		Role:  authenticatedRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{authenticatedRole},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "gestorcoop-bff",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ============================================================
// Me: GET /v1/me
// ============================================================

// Me returns the caller identity with its profile row, when one exists.
func (s *AuthService) Me(ctx context.Context, userID, email string) (*domain.Me, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()

	me := &domain.Me{UserID: userID, Email: email}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return me, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	me.Profile = profile
	return me, nil
}
