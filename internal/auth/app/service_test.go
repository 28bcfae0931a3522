package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dejobratic/bookstore/internal/auth/adapters/memory"
	"github.com/dejobratic/bookstore/internal/auth/app"
	"github.com/dejobratic/bookstore/internal/auth/ports"
	"golang.org/x/crypto/bcrypt"
)

func newService(repo *memory.Repository) *app.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// MinCost keeps hashing fast in tests.
	return app.NewService(repo, logger, "test-secret", 24*time.Hour, bcrypt.MinCost)
}

func signupInput() app.SignupInput {
	return app.SignupInput{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "correct-horse",
	}
}

func TestSignup(t *testing.T) {
	t.Run("registers a customer and issues a token", func(t *testing.T) {
		service := newService(memory.NewRepository())

		customer, token, err := service.Signup(context.Background(), signupInput())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if customer.ID == "" {
			t.Error("expected customer ID to be generated")
		}
		if customer.Email != "ada@example.com" {
			t.Errorf("expected normalized email, got %s", customer.Email)
		}
		if customer.PasswordHash == "correct-horse" {
			t.Error("expected password to be hashed")
		}
		if token == "" {
			t.Error("expected a token to be issued")
		}
	})

	t.Run("normalizes the email to lower case", func(t *testing.T) {
		service := newService(memory.NewRepository())

		input := signupInput()
		input.Email = "  Ada@Example.COM "

		customer, _, err := service.Signup(context.Background(), input)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		if customer.Email != "ada@example.com" {
			t.Errorf("expected ada@example.com, got %s", customer.Email)
		}
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		service := newService(memory.NewRepository())
		ctx := context.Background()

		if _, _, err := service.Signup(ctx, signupInput()); err != nil {
			t.Fatalf("first signup failed: %v", err)
		}

		_, _, err := service.Signup(ctx, signupInput())

		if !errors.Is(err, ports.ErrEmailTaken) {
			t.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("authenticates with correct credentials", func(t *testing.T) {
		service := newService(memory.NewRepository())
		ctx := context.Background()

		registered, _, err := service.Signup(ctx, signupInput())
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}

		customer, token, err := service.Login(ctx, "ada@example.com", "correct-horse")

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if customer.ID != registered.ID {
			t.Errorf("expected customer %s, got %s", registered.ID, customer.ID)
		}
		if token == "" {
			t.Error("expected a token to be issued")
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		service := newService(memory.NewRepository())
		ctx := context.Background()

		if _, _, err := service.Signup(ctx, signupInput()); err != nil {
			t.Fatalf("signup failed: %v", err)
		}

		_, _, err := service.Login(ctx, "ada@example.com", "wrong")

		if !errors.Is(err, app.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects an unknown email", func(t *testing.T) {
		service := newService(memory.NewRepository())

		_, _, err := service.Login(context.Background(), "nobody@example.com", "whatever")

		if !errors.Is(err, app.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestVerifyToken(t *testing.T) {
	t.Run("accepts a freshly issued token", func(t *testing.T) {
		service := newService(memory.NewRepository())

		customer, token, err := service.Signup(context.Background(), signupInput())
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}

		id, err := service.VerifyToken(token)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if id != customer.ID {
			t.Errorf("expected subject %s, got %s", customer.ID, id)
		}
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		service := newService(memory.NewRepository())

		if _, err := service.VerifyToken("not-a-jwt"); !errors.Is(err, app.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		repo := memory.NewRepository()
		service := newService(repo)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		other := app.NewService(repo, logger, "other-secret", 24*time.Hour, bcrypt.MinCost)

		_, token, err := other.Signup(context.Background(), signupInput())
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}

		if _, err := service.VerifyToken(token); !errors.Is(err, app.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		repo := memory.NewRepository()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		shortLived := app.NewService(repo, logger, "test-secret", -time.Minute, bcrypt.MinCost)

		_, token, err := shortLived.Signup(context.Background(), signupInput())
		if err != nil {
			t.Fatalf("signup failed: %v", err)
		}

		if _, err := shortLived.VerifyToken(token); !errors.Is(err, app.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
