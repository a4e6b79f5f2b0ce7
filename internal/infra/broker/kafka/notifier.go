package kafka

import (
	"context"
	"encoding/json"
	"time"

	"servly/internal/domain/messaging"
)

// Notifier publishes messaging events as JSON records for the notification
// pipeline.
type Notifier struct {
	Producer *Producer
}

func (n Notifier) MessageSent(ctx context.Context, event messaging.MessageSent) error {
	payload, err := json.Marshal(messageSentRecord{
		MessageID:  string(event.MessageID),
		FromUserID: string(event.FromUser),
		ToUserID:   string(event.ToUser),
		ListingID:  string(event.ListingID),
		CreatedAt:  event.At,
	})
	if err != nil {
		return err
	}
	return n.Producer.Publish(ctx, event.EventName(), string(event.MessageID), payload)
}

type messageSentRecord struct {
	MessageID  string    `json:"message_id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	ListingID  string    `json:"listing_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

var _ messaging.Notifier = Notifier{}
