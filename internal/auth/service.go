// Package auth issues and validates access tokens and handles registration
// with referral-code linking.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"

	"github.com/ecobazaarx/backend-eco/internal/common"
	"github.com/ecobazaarx/backend-eco/internal/repo"
)

// ErrInvalidCredentials covers both unknown email and wrong password.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service implements registration and login.
type Service struct {
	Store     *repo.Store
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
	Logger    zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ReferralCode string
}

// Register creates the user, links the referrer when a referral code is
// supplied, and provisions the user's cart in the same breath.
func (s *Service) Register(ctx context.Context, in RegisterInput) (repo.User, error) {
	var referrerID *string
	if code := strings.TrimSpace(in.ReferralCode); code != "" {
		referrer, err := s.Store.Q().GetUserByReferralCode(ctx, code)
		if errors.Is(err, repo.ErrNotFound) {
			return repo.User{}, common.BadRequest("referral_code_invalid", "referral code not recognized", err)
		}
		if err != nil {
			return repo.User{}, err
		}
		referrerID = &referrer.ID
	}

	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return repo.User{}, fmt.Errorf("hash password: %w", err)
	}

	code, err := newReferralCode()
	if err != nil {
		return repo.User{}, err
	}
	user, err := s.Store.Q().CreateUser(ctx, in.Name, strings.ToLower(in.Email), hash, code, referrerID)
	if err != nil {
		return repo.User{}, fmt.Errorf("create user: %w", err)
	}
	if _, err := s.Store.Q().CreateCart(ctx, user.ID); err != nil {
		return repo.User{}, fmt.Errorf("create cart: %w", err)
	}
	s.Logger.Info().Str("user_id", user.ID).Bool("referred", referrerID != nil).Msg("user registered")
	return user, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, repo.User, error) {
	user, err := s.Store.Q().GetUserByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, repo.ErrNotFound) {
		return "", repo.User{}, common.NewAppError("invalid_credentials", "invalid email or password",
			http.StatusUnauthorized, ErrInvalidCredentials)
	}
	if err != nil {
		return "", repo.User{}, err
	}
	match, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil {
		return "", repo.User{}, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return "", repo.User{}, common.NewAppError("invalid_credentials", "invalid email or password",
			http.StatusUnauthorized, ErrInvalidCredentials)
	}
	token, err := s.signAccessToken(user.ID)
	if err != nil {
		return "", repo.User{}, err
	}
	return token, user, nil
}

// ParseAccessToken validates a token and returns the subject user id.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("unauthorized", "missing token", http.StatusUnauthorized, nil)
	}
	parsed, err := jwt.ParseString(trimmed,
		jwt.WithKey(jwa.HS256, s.Secret),
		jwt.WithIssuer(s.Issuer),
		jwt.WithValidate(true),
	)
	if err != nil {
		return "", common.NewAppError("unauthorized", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func (s *Service) signAccessToken(userID string) (string, error) {
	now := s.now()
	token, err := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.Issuer).
		IssuedAt(now).
		Expiration(now.Add(s.AccessTTL)).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.Secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

func newReferralCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate referral code: %w", err)
	}
	return "ECO-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
