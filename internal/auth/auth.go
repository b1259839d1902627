// Package auth issues and verifies session credentials and resolves bearer
// tokens to accounts. The rest of the system only ever sees a verified
// account, never a raw token.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vadiminshakov/cryptosim/internal/domain"
	"github.com/vadiminshakov/cryptosim/internal/storage"
)

// DefaultTokenTTL session token lifetime.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidCredentials unknown email or wrong password. One error for
	// both so responses don't reveal which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken the bearer token is missing, malformed, expired or
	// references a deleted account.
	ErrInvalidToken = errors.New("invalid token")
)

// AccountStore is the account persistence the auth service needs.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
}

// Service handles signup, login and token verification.
type Service struct {
	accounts        AccountStore
	secret          []byte
	tokenTTL        time.Duration
	startingBalance decimal.Decimal
	symbols         []string
	now             func() time.Time
}

// NewService creates the auth service. New accounts get startingBalance cash
// and every symbol initialized to zero.
func NewService(accounts AccountStore, secret string, tokenTTL time.Duration, startingBalance decimal.Decimal, symbols []string) *Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		accounts:        accounts,
		secret:          []byte(secret),
		tokenTTL:        tokenTTL,
		startingBalance: startingBalance,
		symbols:         symbols,
		now:             time.Now,
	}
}

// Signup registers a new account and returns it with a fresh session token.
// storage.ErrEmailTaken propagates when the email is already registered.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*domain.Account, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}

	account := domain.NewAccount(uuid.New().String(), name, email, string(hash),
		s.startingBalance, s.symbols, s.now().UTC())
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login verifies the credentials and returns the account with a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "find account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Authenticate resolves a bearer token to the account it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return nil, ErrInvalidToken
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, errors.Wrap(err, "load account")
	}
	return account, nil
}

func (s *Service) issueToken(account *domain.Account) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    account.ID,
		"email": account.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	return signed, errors.Wrap(err, "sign token")
}
