package queries

import (
	"context"
	"fmt"
	"time"

	catalogdomain "github.com/dejobratic/bookstore/internal/catalog/domain"
	"github.com/dejobratic/bookstore/internal/orders/domain"
	"github.com/dejobratic/bookstore/internal/orders/ports"
)

// BookView is the subset of catalog data displayed alongside an order line.
type BookView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// OrderItemView is an order line joined with its resolved book.
// Book is nil when the referenced book no longer exists in the catalog.
type OrderItemView struct {
	BookID         string    `json:"book_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
	Book           *BookView `json:"book,omitempty"`
}

// OrderView is an order prepared for display.
type OrderView struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customer_id"`
	Items            []OrderItemView `json:"items"`
	TotalAmountCents int64           `json:"total_amount_cents"`
	Status           string          `json:"status"`
	OrderDate        time.Time       `json:"order_date"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// buildViews joins a batch of orders with their referenced books in one
// catalog lookup.
func buildViews(ctx context.Context, catalog ports.BookCatalog, orders []domain.Order) ([]OrderView, error) {
	idSet := make(map[string]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			idSet[item.BookID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var books map[string]catalogdomain.Book
	if len(ids) > 0 {
		var err error
		books, err = catalog.GetManyByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve books: %w", err)
		}
	}

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, buildView(order, books))
	}
	return views, nil
}

func buildView(order domain.Order, books map[string]catalogdomain.Book) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		view := OrderItemView{
			BookID:         item.BookID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents(),
		}
		if book, ok := books[item.BookID]; ok {
			view.Book = &BookView{
				ID:     book.ID,
				Title:  book.Title,
				Author: book.Author,
				ISBN:   book.ISBN,
			}
		}
		items = append(items, view)
	}

	return OrderView{
		ID:               order.ID,
		CustomerID:       order.CustomerID,
		Items:            items,
		TotalAmountCents: order.TotalAmountCents,
		Status:           string(order.Status),
		OrderDate:        order.OrderDate,
		UpdatedAt:        order.UpdatedAt,
	}
}
