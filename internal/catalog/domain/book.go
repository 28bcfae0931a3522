package domain

import (
	"errors"
	"strings"
	"time"
)

// Genre is the fixed set of catalog categories.
type Genre string

const (
	GenreFiction    Genre = "Fiction"
	GenreNonFiction Genre = "Non-Fiction"
	GenreScience    Genre = "Science"
	GenreTechnology Genre = "Technology"
	GenreHistory    Genre = "History"
	GenreBiography  Genre = "Biography"
)

// Genres lists every valid genre, in display order.
var Genres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScience,
	GenreTechnology,
	GenreHistory,
	GenreBiography,
}

// IsValid reports whether the genre is one of the enumerated values.
func (g Genre) IsValid() bool {
	switch g {
	case GenreFiction, GenreNonFiction, GenreScience, GenreTechnology, GenreHistory, GenreBiography:
		return true
	default:
		return false
	}
}

// Book is a catalog entry. Stock is mutated only through the reservation
// engine's bulk adjust; no other component writes it.
type Book struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Author      string    `json:"author" bson:"author"`
	Genre       Genre     `json:"genre" bson:"genre"`
	ISBN        string    `json:"isbn" bson:"isbn"`
	PriceCents  int64     `json:"price_cents" bson:"price_cents"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Stock       int       `json:"stock" bson:"stock"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate ensures the book adheres to catalog constraints.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(b.Author) == "" {
		return errors.New("author is required")
	}
	if !b.Genre.IsValid() {
		return errors.New("genre must be one of: Fiction, Non-Fiction, Science, Technology, History, Biography")
	}
	if strings.TrimSpace(b.ISBN) == "" {
		return errors.New("isbn is required")
	}
	if b.PriceCents < 0 {
		return errors.New("price_cents must not be negative")
	}
	if b.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}
