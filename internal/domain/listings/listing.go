package listings

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("listings: not found")

type ListingID string

// Summary is the slice of a listing needed to label a conversation scoped to
// it. The full listing aggregate lives in the listings service.
type Summary struct {
	ID    ListingID
	Title string
}

// Resolver loads summaries in bulk with the same partial-result semantics as
// the profile resolver: unknown ids are absent, not errors.
type Resolver interface {
	Summaries(ctx context.Context, ids []ListingID) (map[ListingID]Summary, error)
}
