package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"servly/internal/domain/messaging"
	"servly/internal/domain/user"
)

// MessageStore keeps messages in memory. Not suitable for production.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[messaging.MessageID]messaging.Message
	now      func() time.Time
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[messaging.MessageID]messaging.Message),
		now:      time.Now,
	}
}

// SetClock overrides the insert timestamp source. Tests use it for
// deterministic ordering.
func (s *MessageStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Seed stores fully-formed messages as-is, bypassing the store-assigned
// fields of Insert.
func (s *MessageStore) Seed(msgs ...messaging.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		s.messages[m.ID] = m
	}
}

func (s *MessageStore) FetchBySender(ctx context.Context, sender user.ID) ([]messaging.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []messaging.Message
	for _, m := range s.messages {
		if m.FromUser == sender {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MessageStore) FetchByReceiver(ctx context.Context, receiver user.ID) ([]messaging.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []messaging.Message
	for _, m := range s.messages {
		if m.ToUser == receiver {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MessageStore) Insert(ctx context.Context, draft messaging.Draft) (messaging.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := messaging.Message{
		ID:        messaging.MessageID(uuid.NewString()),
		FromUser:  draft.FromUser,
		ToUser:    draft.ToUser,
		ListingID: draft.ListingID,
		Content:   draft.Content,
		Read:      false,
		CreatedAt: s.now().UTC(),
	}
	s.messages[msg.ID] = msg
	return msg, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, ids []messaging.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		msg, ok := s.messages[id]
		if !ok {
			continue
		}
		msg.Read = true
		s.messages[id] = msg
	}
	return nil
}

// Get returns a stored message by id, for assertions in tests.
func (s *MessageStore) Get(id messaging.MessageID) (messaging.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	return msg, ok
}

var _ messaging.Store = (*MessageStore)(nil)
