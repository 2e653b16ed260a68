package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"agency_backend/platform/apperr"
	"agency_backend/platform/config"
	"agency_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenType = "access"
	// RoleAdmin is the only role the console knows about.
	RoleAdmin = "admin"
)

// Service authenticates the agency admin against the configured credentials.
type Service struct {
	cfg config.AuthServiceConfig
	log *logger.Logger
	now func() time.Time
}

func New(cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{cfg: cfg, log: log, now: time.Now}
}

// SignIn checks the credentials and returns a signed access token.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log := s.log.WithContext(ctx)

	// bcrypt runs even on an unknown email so both failures cost the same.
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.GetAdminPasswordHash()), []byte(plainPassword))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.GetAdminEmail())) == 1
	if pwErr != nil || !emailOK {
		log.AuthEvent("sign_in", email, false, "invalid_credentials")
		return "", time.Time{}, apperr.Unauthorized("invalid credentials")
	}

	token, expiresAt, err := s.issueAccessToken(email)
	if err != nil {
		return "", time.Time{}, err
	}
	log.AuthEvent("sign_in", email, true, "")
	return token, expiresAt, nil
}

func (s *Service) issueAccessToken(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.GetAccessTokenTTL())
	claims := jwt.MapClaims{
		"sub":   subject,
		"type":  accessTokenType,
		"roles": []string{RoleAdmin},
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}
	return signed, expiresAt, nil
}
