package identity

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/identity/entity"
	"github.com/oakline/storefront/pkg/utilities"
)

// UserStore is the credential store adapter. GetByEmail returns sql.ErrNoRows
// when no account matches; the store owns email uniqueness.
type UserStore interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

const (
	minCredentialLen = 6
	maxCredentialLen = 100
)

// Service orchestrates registration and login.
type Service struct {
	store   UserStore
	primary Hasher
	hashers map[string]Hasher
	tokens  TokenConfig
	logger  *zap.SugaredLogger
}

func NewService(store UserStore, tokens TokenConfig, logger *zap.SugaredLogger) *Service {
	primary := Argon2Hasher{}
	hashers := map[string]Hasher{
		primary.Algo():        primary,
		SHA256Hasher{}.Algo(): SHA256Hasher{},
	}
	return &Service{store: store, primary: primary, hashers: hashers, tokens: tokens, logger: logger}
}

// RegisterInput is the registration payload after transport decoding.
type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
}

// Register validates input, hashes the password and persists a new account
// with role User. No token is issued at registration.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	if err := validateRegister(in); err != nil {
		return err
	}

	email := strings.TrimSpace(in.Email)

	// Fast-path rejection; the unique index on email is the real guarantee.
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		s.logger.Warnw("registration rejected, email taken", "email", email)
		return apperr.New(apperr.KindConflict, "user already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	u := &entity.User{
		ID:           utilities.NewKSUID(),
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: s.primary.Hash(salt, in.Password),
		Salt:         EncodeSalt(salt),
		PasswordAlgo: s.primary.Algo(),
		Role:         entity.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return err
	}
	s.logger.Infow("user registered", "email", email)
	return nil
}

// Login verifies credentials and returns a session with a freshly issued
// bearer token. An unknown email and a wrong password produce the same
// generic error to avoid user enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.New(apperr.KindValidation, "email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid email address")
	}

	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debugw("login failed, unknown email", "email", email)
			return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	salt, err := DecodeSalt(u.Salt)
	if err != nil {
		return nil, err
	}
	hasher, ok := s.hashers[u.PasswordAlgo]
	if !ok {
		hasher = s.primary
	}
	if !VerifyPassword(hasher, password, salt, u.PasswordHash) {
		s.logger.Debugw("login failed, password mismatch", "email", email)
		return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	token, expiresAt, err := IssueToken(s.tokens, u)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("user logged in", "email", email)
	return &entity.Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// GetUser is a display lookup; unlike login it surfaces existence, so a
// missing account is a distinct not-found condition.
func (s *Service) GetUser(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, err
	}
	return u, nil
}

func validateRegister(in RegisterInput) error {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	switch {
	case email == "":
		return apperr.New(apperr.KindValidation, "email is required")
	case username == "":
		return apperr.New(apperr.KindValidation, "username is required")
	case in.Password == "":
		return apperr.New(apperr.KindValidation, "password is required")
	case in.ConfirmPassword == "":
		return apperr.New(apperr.KindValidation, "confirm password is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.New(apperr.KindValidation, "invalid email address")
	}
	if len(username) < minCredentialLen || len(username) > maxCredentialLen {
		return apperr.New(apperr.KindValidation, "username must be between 6 and 100 characters")
	}
	if len(in.Password) < minCredentialLen || len(in.Password) > maxCredentialLen {
		return apperr.New(apperr.KindValidation, "password must be between 6 and 100 characters")
	}
	if in.Password != in.ConfirmPassword {
		return apperr.New(apperr.KindValidation, "the password and confirmation password do not match")
	}
	return nil
}
