package messaging

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

// Service loads a viewer's inbox from the store and the resolvers.
type Service struct {
	Store        Store
	Users        user.Resolver
	Listings     listings.Resolver
	FetchTimeout time.Duration
}

// Threads fetches both message directions concurrently and builds the thread
// collection. Aggregation starts only after both fetches resolved; either one
// failing fails the whole load, since a one-directional inbox would silently
// hide half of every conversation.
func (s Service) Threads(ctx context.Context, viewer user.ID) ([]Thread, error) {
	if s.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.FetchTimeout)
		defer cancel()
	}

	var sent, received []Message
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		msgs, err := s.Store.FetchBySender(gctx, viewer)
		if err != nil {
			return &FetchError{Op: "messages by sender", Err: err}
		}
		sent = msgs
		return nil
	})
	g.Go(func() error {
		msgs, err := s.Store.FetchByReceiver(gctx, viewer)
		if err != nil {
			return &FetchError{Op: "messages by receiver", Err: err}
		}
		received = msgs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return BuildThreads(ctx, viewer, sent, received, s.Users, s.Listings)
}
