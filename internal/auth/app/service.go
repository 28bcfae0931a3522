package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/bookstore/internal/auth/domain"
	"github.com/dejobratic/bookstore/internal/auth/ports"
	"github.com/dejobratic/bookstore/internal/telemetry"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login fails. The message does not
// reveal whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidToken is returned when a bearer token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired token")

// Service implements signup, login and token verification.
type Service struct {
	repo       ports.CustomerRepository
	logger     *slog.Logger
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// NewService wires required dependencies. A zero bcryptCost selects the
// library default.
func NewService(repo ports.CustomerRepository, logger *slog.Logger, secret string, tokenTTL time.Duration, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// SignupInput carries the fields needed to register a customer.
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Signup registers a new customer and returns the account with a fresh token.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*domain.Customer, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "Auth.Signup")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := customer.Validate(); err != nil {
		return nil, "", err
	}

	if err := s.repo.Insert(ctx, customer); err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, "", err
	}

	token, err := s.issueToken(customer)
	if err != nil {
		return nil, "", err
	}

	telemetry.AddSpanAttributes(span, attribute.String("customer.id", customer.ID))
	s.logger.InfoContext(ctx, "customer registered", "customer_id", customer.ID)

	return &customer, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "Auth.Login")
	defer span.End()

	customer, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		telemetry.RecordSpanError(span, err)
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(*customer)
	if err != nil {
		return nil, "", err
	}

	telemetry.AddSpanAttributes(span, attribute.String("customer.id", customer.ID))
	s.logger.InfoContext(ctx, "customer logged in", "customer_id", customer.ID)

	return customer, token, nil
}

// VerifyToken validates a bearer token and returns the customer ID it carries.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}

func (s *Service) issueToken(customer domain.Customer) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   customer.ID,
		"email": customer.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
