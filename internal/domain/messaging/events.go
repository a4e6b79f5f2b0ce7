package messaging

import (
	"context"
	"time"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

// MessageSent is emitted after the store accepted a new message. It feeds the
// notification pipeline; delivery to the counterpart is not this subsystem's
// concern.
type MessageSent struct {
	MessageID MessageID
	FromUser  user.ID
	ToUser    user.ID
	ListingID listings.ListingID
	At        time.Time
}

func (e MessageSent) EventName() string     { return "message.sent" }
func (e MessageSent) AggregateID() string   { return string(e.MessageID) }
func (e MessageSent) OccurredAt() time.Time { return e.At }

// Notifier publishes messaging events for out-of-process consumers. Publish
// failures never fail the operation that produced the event.
type Notifier interface {
	MessageSent(ctx context.Context, event MessageSent) error
}
