package content

import (
	"context"

	"communeo.org/internal/scope"
)

// Store is the persistence surface for scoped content. Select applies the
// abstract predicate and returns items ordered urgent, pinned, then normal,
// newest first within each band. A nil predicate matches everything.
type Store interface {
	Insert(ctx context.Context, it *Item) error
	Find(ctx context.Context, kind Kind, id string) (*Item, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, kind Kind, id string) error
	Select(ctx context.Context, kind Kind, p scope.Pred, limit int) ([]*Item, error)
}
