package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
)

type contextKey string

const (
	UserKey contextKey = "user"

	// echoUserKey is where the authenticated user is kept on the echo
	// context.
	echoUserKey = "auth_user"
)

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	TTL        time.Duration
}

// User is the authenticated caller.
type User struct {
	UserID uuid.UUID
	Email  string
}

// TokenIssuer signs HS256 tokens for authenticated users.
type TokenIssuer struct {
	cfg JWTConfig
	now func() time.Time
}

func NewTokenIssuer(cfg JWTConfig) *TokenIssuer {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue returns a signed token for the user and its expiry.
func (i *TokenIssuer) Issue(userID uuid.UUID, email string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.cfg.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID.String(),
		Email:  email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates a token string.
func Verify(cfg JWTConfig, tokenStr string) (*User, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("token user id: %w", err)
	}
	return &User{UserID: id, Email: claims.Email}, nil
}

// JWTMiddleware requires a valid bearer token and stores the caller on both
// the echo context and the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apperror.Unauthorized(apperror.CodeNoToken, "No token provided")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return apperror.Unauthorized(apperror.CodeBadTokenFormat, "Token format is invalid")
			}

			user, err := Verify(cfg, strings.TrimSpace(parts[1]))
			if err != nil {
				return apperror.Unauthorized(apperror.CodeInvalidToken, "Invalid or expired token").WithCause(err)
			}

			SetUser(c, user)
			return next(c)
		}
	}
}

// SetUser records u as the authenticated caller.
func SetUser(c echo.Context, u *User) {
	c.Set(echoUserKey, u)
	ctx := context.WithValue(c.Request().Context(), UserKey, u)
	c.SetRequest(c.Request().WithContext(ctx))
}

// CurrentUser returns the caller set by JWTMiddleware.
func CurrentUser(c echo.Context) (*User, bool) {
	u, ok := c.Get(echoUserKey).(*User)
	return u, ok && u != nil
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(UserKey).(*User)
	return u, ok && u != nil
}
