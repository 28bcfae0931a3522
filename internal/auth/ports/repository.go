package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/bookstore/internal/auth/domain"
)

// ErrNotFound indicates the requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// ErrEmailTaken indicates the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// CustomerRepository abstracts persistence of customer accounts.
type CustomerRepository interface {
	Insert(ctx context.Context, customer domain.Customer) error
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}
