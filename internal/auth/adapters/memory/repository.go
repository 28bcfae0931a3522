package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/bookstore/internal/auth/domain"
	"github.com/dejobratic/bookstore/internal/auth/ports"
)

// Repository provides an in-memory store useful for local development and tests.
type Repository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Customer
	byEmail map[string]string
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		byID:    make(map[string]domain.Customer),
		byEmail: make(map[string]string),
	}
}

// Insert stores a new customer, rejecting duplicate emails.
func (r *Repository) Insert(_ context.Context, customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[customer.Email]; ok {
		return ports.ErrEmailTaken
	}

	r.byID[customer.ID] = customer
	r.byEmail[customer.Email] = customer.ID
	return nil
}

// GetByEmail fetches a customer by email address.
func (r *Repository) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ports.ErrNotFound
	}

	customer := r.byID[id]
	return &customer, nil
}

// GetByID fetches a customer by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &customer, nil
}
