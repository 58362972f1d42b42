package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/auth"
)

const invalidCredentials = "Invalid email or password."

type Service struct {
	users  UserRepository
	tokens *auth.TokenIssuer
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(users UserRepository, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("component", "identity").Logger(),
		now:    time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" || strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, apperror.Validation(apperror.CodeMissingFields, "Email, password, firstName, and lastName are required.")
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.Conflict(apperror.CodeEmailTaken, "User with this email already exists.")
	case !errors.Is(err, ErrNotFound):
		return nil, apperror.Internal("", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal("", err)
	}

	now := s.now().UTC()
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperror.Conflict(apperror.CodeEmailTaken, "User with this email already exists.")
		}
		return nil, apperror.Internal("", err)
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("user registered")
	return u, nil
}

// Login checks the credentials and issues a bearer token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperror.Validation(apperror.CodeMissingFields, "Email and password are required.")
	}

	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.Unauthorized(apperror.CodeInvalidCreds, invalidCredentials)
	}
	if err != nil {
		return nil, apperror.Internal("", err)
	}

	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn().Str("user_id", u.ID.String()).Msg("login failed")
			return nil, apperror.Unauthorized(apperror.CodeInvalidCreds, invalidCredentials)
		}
		return nil, apperror.Internal("", err)
	}

	token, expiresAt, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, apperror.Internal("", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: u}, nil
}
