package ports

import "context"

// StoredResponse contains the response data to replay for a reused key.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	OrderID    string
}

// IdempotencyStore ensures create operations can be retried safely. The key
// is claimed with Reserve before any side effect runs, so two concurrent
// requests carrying the same key can never both create an order.
type IdempotencyStore interface {
	// Reserve claims the key atomically. It returns (nil, true) when the
	// caller now holds the claim, (stored, false) when an earlier request
	// already completed, and (nil, false) when an earlier request holds the
	// claim but has not stored its response yet.
	Reserve(ctx context.Context, key string) (*StoredResponse, bool, error)
	// Save stores the response for a claimed key.
	Save(ctx context.Context, key string, response StoredResponse) error
	// Delete drops the claim so the key can be retried after a failure.
	Delete(ctx context.Context, key string) error
	// Get returns the stored response for a key, or nil if none completed.
	Get(ctx context.Context, key string) (*StoredResponse, error)
}
