package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servly/internal/domain/user"
)

type stubStore struct {
	sent        []Message
	received    []Message
	sentErr     error
	receivedErr error
	block       bool
}

func (s *stubStore) FetchBySender(ctx context.Context, sender user.ID) ([]Message, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.sent, s.sentErr
}

func (s *stubStore) FetchByReceiver(ctx context.Context, receiver user.ID) ([]Message, error) {
	return s.received, s.receivedErr
}

func (s *stubStore) Insert(ctx context.Context, draft Draft) (Message, error) {
	return Message{}, errors.New("not implemented")
}

func (s *stubStore) MarkRead(ctx context.Context, ids []MessageID) error {
	return nil
}

func TestServiceThreadsMergesBothDirections(t *testing.T) {
	users, catalog := defaultResolvers()
	store := &stubStore{
		sent:     []Message{mkMsg("m1", "u1", "u2", "", testBase, true)},
		received: []Message{mkMsg("m2", "u2", "u1", "", testBase.Add(time.Second), false)},
	}
	svc := Service{Store: store, Users: users, Listings: catalog}

	threads, err := svc.Threads(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Messages, 2)
}

func TestServiceThreadsFailsWhenEitherDirectionFails(t *testing.T) {
	users, catalog := defaultResolvers()
	cases := map[string]*stubStore{
		"sender fetch fails":   {sentErr: errors.New("down")},
		"receiver fetch fails": {receivedErr: errors.New("down")},
	}
	for name, store := range cases {
		t.Run(name, func(t *testing.T) {
			svc := Service{Store: store, Users: users, Listings: catalog}
			threads, err := svc.Threads(context.Background(), "u1")
			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Nil(t, threads, "no partial thread list on failure")
		})
	}
}

func TestServiceThreadsTimeout(t *testing.T) {
	users, catalog := defaultResolvers()
	store := &stubStore{block: true}
	svc := Service{Store: store, Users: users, Listings: catalog, FetchTimeout: 20 * time.Millisecond}

	start := time.Now()
	_, err := svc.Threads(context.Background(), "u1")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
