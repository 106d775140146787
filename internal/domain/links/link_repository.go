package links

import "context"

// LinkRepository defines the persistence contract for links. Implementations
// are thin pass-throughs over the underlying store: no retries, no caching.
type LinkRepository interface {
	// FindByKey returns the link with the given key
	FindByKey(ctx context.Context, key string) (*Link, error)

	// FindAll returns all links in creation order
	FindAll(ctx context.Context) ([]*Link, error)

	// Save inserts or updates a link
	Save(ctx context.Context, link *Link) error

	// Delete removes the link with the given key
	Delete(ctx context.Context, key string) error

	// ExistsByKey checks whether a link with the given key exists
	ExistsByKey(ctx context.Context, key string) (bool, error)

	// Count returns the number of stored links
	Count(ctx context.Context) (int64, error)
}
