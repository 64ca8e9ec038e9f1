package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
	"blood-donation/internal/service/account"
)

var ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthorized)

type Service interface {
	ValidateAccessToken(token string) (*Claims, error)
	// Authenticate validates the token and loads the active account it names.
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
	IssueAccessToken(accountID uuid.UUID, ttl time.Duration) (string, error)
}

// Claims carry the account id in the subject.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type service struct {
	accounts account.Service
	cfg      *config.Config
	now      func() time.Time
}

func NewService(accounts account.Service, cfg *config.Config) Service {
	return &service{accounts: accounts, cfg: cfg, now: time.Now}
}

func (s *service) ValidateAccessToken(tokenString string) (*Claims, error) {
	if s.cfg.JWTSecret == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) Authenticate(ctx context.Context, tokenString string) (*domain.Account, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	id, err := claims.AccountID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	acct, err := s.accounts.GetActive(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: account not found", domain.ErrUnauthorized)
	}
	return acct, err
}

func (s *service) IssueAccessToken(accountID uuid.UUID, ttl time.Duration) (string, error) {
	if s.cfg.JWTSecret == "" {
		return "", errors.New("JWT_SECRET is not configured")
	}
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}
