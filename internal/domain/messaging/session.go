package messaging

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	Viewer   user.ID
	Store    Store
	Notifier Notifier
	Logger   *slog.Logger
}

// Session tracks the selected conversation for one viewer over a locally
// owned thread snapshot. The snapshot is a read-derived copy of the store:
// sends and read acknowledgments are the only local writes, and all
// operations serialize on the internal mutex so two in-flight mutations can
// never interleave their snapshot updates.
type Session struct {
	mu       sync.Mutex
	viewer   user.ID
	store    Store
	notifier Notifier
	logger   *slog.Logger

	threads  []Thread
	selected *ThreadKey
	compose  string
	updates  chan []Thread
}

// NewSession starts a session over an already built thread collection.
func NewSession(cfg SessionConfig, threads []Thread) *Session {
	return &Session{
		viewer:   cfg.Viewer,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		threads:  cloneThreads(threads),
		updates:  make(chan []Thread, 1),
	}
}

// Threads returns a copy of the current snapshot, newest conversation first.
func (s *Session) Threads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneThreads(s.threads)
}

// Updates emits a fresh snapshot after every local mutation. The channel
// holds only the latest snapshot; a slow consumer never blocks an operation.
func (s *Session) Updates() <-chan []Thread {
	return s.updates
}

// Selected returns the active thread, if one is selected and present in the
// snapshot.
func (s *Session) Selected() (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return Thread{}, false
	}
	idx, ok := s.threadIndex(*s.selected)
	if !ok {
		return Thread{}, false
	}
	return cloneThread(s.threads[idx]), true
}

// Select makes key the active conversation and acknowledges it: viewing a
// thread implies marking it read. Selecting a key with no existing thread is
// allowed and starts a fresh conversation on the first send.
func (s *Session) Select(ctx context.Context, key ThreadKey) error {
	if strings.TrimSpace(string(key.OtherUserID)) == "" {
		return ErrRecipientRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key
	s.selected = &k
	s.markReadLocked(ctx, key)
	s.publishLocked()
	return nil
}

// MarkRead flips the read flag of every message in the keyed thread that is
// addressed to the viewer and still unread, with a single batched store
// update. The in-memory count drops to zero immediately; a store failure is
// logged and swallowed, leaving the snapshot optimistic.
func (s *Session) MarkRead(ctx context.Context, key ThreadKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markReadLocked(ctx, key)
	s.publishLocked()
}

// SetCompose replaces the draft content for the next Send.
func (s *Session) SetCompose(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compose = content
}

// Compose returns the current draft content.
func (s *Session) Compose() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compose
}

// Send validates and persists a new message on the selected thread. The copy
// echoed back by the store is the one appended to the snapshot; its id and
// timestamp are authoritative, never locally fabricated. On failure nothing
// changes and the compose buffer keeps the draft.
func (s *Session) Send(ctx context.Context, content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.compose = content
	if s.selected == nil {
		return Message{}, ErrNoActiveThread
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return Message{}, ErrContentRequired
	}
	key := *s.selected
	if key.OtherUserID == s.viewer {
		return Message{}, ErrSelfConversation
	}

	draft := Draft{
		FromUser:  s.viewer,
		ToUser:    key.OtherUserID,
		ListingID: key.ListingID,
		Content:   trimmed,
	}
	persisted, err := s.store.Insert(ctx, draft)
	if err != nil {
		return Message{}, &WriteError{Op: "insert message", Err: err}
	}

	s.appendLocked(key, persisted)
	s.compose = ""

	if s.notifier != nil {
		event := MessageSent{
			MessageID: persisted.ID,
			FromUser:  persisted.FromUser,
			ToUser:    persisted.ToUser,
			ListingID: persisted.ListingID,
			At:        persisted.CreatedAt,
		}
		if err := s.notifier.MessageSent(ctx, event); err != nil && s.logger != nil {
			s.logger.Error("message sent event publish failed", "error", err, "message_id", string(persisted.ID))
		}
	}

	s.publishLocked()
	return persisted, nil
}

func (s *Session) markReadLocked(ctx context.Context, key ThreadKey) {
	idx, ok := s.threadIndex(key)
	if !ok {
		return
	}
	thread := &s.threads[idx]
	var ids []MessageID
	for i := range thread.Messages {
		if thread.Messages[i].UnreadFor(s.viewer) {
			ids = append(ids, thread.Messages[i].ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	for i := range thread.Messages {
		if thread.Messages[i].UnreadFor(s.viewer) {
			thread.Messages[i].Read = true
		}
	}
	thread.UnreadCount = 0
	if err := s.store.MarkRead(ctx, ids); err != nil && s.logger != nil {
		s.logger.Error("mark read failed",
			"error", err,
			"other_user_id", string(key.OtherUserID),
			"listing_id", string(key.ListingID),
			"count", len(ids))
	}
}

func (s *Session) appendLocked(key ThreadKey, msg Message) {
	idx, ok := s.threadIndex(key)
	if !ok {
		thread := Thread{Key: key, OtherUser: user.Placeholder(key.OtherUserID)}
		if key.ListingID != "" {
			thread.Listing = &listings.Summary{ID: key.ListingID}
		}
		s.threads = append(s.threads, thread)
		idx = len(s.threads) - 1
	}
	thread := &s.threads[idx]
	thread.Messages = append(thread.Messages, msg)
	sortMessages(thread.Messages)
	if msg.UnreadFor(s.viewer) {
		thread.UnreadCount++
	}
	sortThreads(s.threads)
}

func (s *Session) threadIndex(key ThreadKey) (int, bool) {
	for i := range s.threads {
		if s.threads[i].Key == key {
			return i, true
		}
	}
	return 0, false
}

// publishLocked swaps the buffered snapshot for the latest one. Only one
// producer exists (the mutex holder), so the send after the drain cannot
// block.
func (s *Session) publishLocked() {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- cloneThreads(s.threads)
}

func cloneThread(t Thread) Thread {
	out := t
	out.Messages = append([]Message(nil), t.Messages...)
	if t.Listing != nil {
		summary := *t.Listing
		out.Listing = &summary
	}
	return out
}

func cloneThreads(threads []Thread) []Thread {
	out := make([]Thread, len(threads))
	for i, t := range threads {
		out[i] = cloneThread(t)
	}
	return out
}
