package domain

import (
	"errors"
	"strings"
	"time"
)

// Customer is a registered account that can place orders.
type Customer struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// Validate checks structural invariants before persistence.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("customer id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customer name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("customer email is required")
	}
	if c.PasswordHash == "" {
		return errors.New("customer password hash is required")
	}
	return nil
}
