package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

var (
	ErrContentRequired   = errors.New("messaging: content is required")
	ErrNoActiveThread    = errors.New("messaging: no thread selected")
	ErrRecipientRequired = errors.New("messaging: recipient is required")
	ErrSelfConversation  = errors.New("messaging: cannot message yourself")
)

// IsValidation reports whether err is one of the synchronous validation
// failures that never reach the store.
func IsValidation(err error) bool {
	return errors.Is(err, ErrContentRequired) ||
		errors.Is(err, ErrNoActiveThread) ||
		errors.Is(err, ErrRecipientRequired) ||
		errors.Is(err, ErrSelfConversation)
}

type MessageID string

// Message is one direct message between two users, optionally scoped to a
// listing. Exactly one of FromUser/ToUser is the viewer for any message the
// store returns for that viewer.
type Message struct {
	ID        MessageID
	FromUser  user.ID
	ToUser    user.ID
	ListingID listings.ListingID // empty for a general conversation
	Content   string
	Read      bool
	CreatedAt time.Time
}

// Counterpart returns the participant that is not the viewer.
func (m Message) Counterpart(viewer user.ID) user.ID {
	if m.FromUser == viewer {
		return m.ToUser
	}
	return m.FromUser
}

// UnreadFor reports whether the message is addressed to viewer and not yet
// flagged read.
func (m Message) UnreadFor(viewer user.ID) bool {
	return m.ToUser == viewer && !m.Read
}

// Draft carries the sender-provided fields of a new message. The store
// assigns ID, CreatedAt and the initial read flag on insert.
type Draft struct {
	FromUser  user.ID
	ToUser    user.ID
	ListingID listings.ListingID
	Content   string
}

// Store is the persistence boundary for messages.
type Store interface {
	FetchBySender(ctx context.Context, sender user.ID) ([]Message, error)
	FetchByReceiver(ctx context.Context, receiver user.ID) ([]Message, error)
	Insert(ctx context.Context, draft Draft) (Message, error)
	MarkRead(ctx context.Context, ids []MessageID) error
}

// FetchError wraps a failed read against the store or the resolvers. A fetch
// failure always fails the whole inbox load; no partial thread list is ever
// surfaced.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("messaging: fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps an insert or read-flag update rejected by the store.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("messaging: write %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
