package dto

import (
	"time"

	"servly/internal/domain/messaging"
)

// ThreadMessage contains a single message payload.
type ThreadMessage struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	ListingID  string    `json:"listing_id,omitempty"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadCounterpart describes the other participant of a conversation.
type ThreadCounterpart struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

// ThreadListing labels a listing-scoped conversation.
type ThreadListing struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Thread describes one conversation with its ordered messages.
type Thread struct {
	OtherUser   ThreadCounterpart `json:"other_user"`
	Listing     *ThreadListing    `json:"listing,omitempty"`
	Messages    []ThreadMessage   `json:"messages"`
	LastMessage ThreadMessage     `json:"last_message"`
	UnreadCount int               `json:"unread_count"`
}

// ThreadCollection lists conversations, newest first.
type ThreadCollection struct {
	Items []Thread `json:"items"`
}

// NewThreadMessage maps a domain message.
func NewThreadMessage(m messaging.Message) ThreadMessage {
	return ThreadMessage{
		ID:         string(m.ID),
		FromUserID: string(m.FromUser),
		ToUserID:   string(m.ToUser),
		ListingID:  string(m.ListingID),
		Content:    m.Content,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

// NewThread maps a built conversation thread.
func NewThread(t messaging.Thread) Thread {
	out := Thread{
		OtherUser: ThreadCounterpart{
			ID:      string(t.OtherUser.ID),
			Name:    t.OtherUser.Name,
			Contact: t.OtherUser.Contact,
		},
		Messages:    make([]ThreadMessage, 0, len(t.Messages)),
		LastMessage: NewThreadMessage(t.LastMessage()),
		UnreadCount: t.UnreadCount,
	}
	if t.Listing != nil {
		out.Listing = &ThreadListing{ID: string(t.Listing.ID), Title: t.Listing.Title}
	}
	for _, m := range t.Messages {
		out.Messages = append(out.Messages, NewThreadMessage(m))
	}
	return out
}

// NewThreadCollection maps a thread collection, preserving order.
func NewThreadCollection(threads []messaging.Thread) ThreadCollection {
	collection := ThreadCollection{Items: make([]Thread, 0, len(threads))}
	for _, t := range threads {
		collection.Items = append(collection.Items, NewThread(t))
	}
	return collection
}
