package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"servly/internal/domain/listings"
	"servly/internal/domain/messaging"
	"servly/internal/domain/user"
)

// MessageStore persists direct messages in the "messages" collection.
type MessageStore struct {
	col *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection("messages")}
}

// EnsureIndexes creates the per-direction lookup indexes.
func (s *MessageStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "from_user", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "to_user", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (s *MessageStore) FetchBySender(ctx context.Context, sender user.ID) ([]messaging.Message, error) {
	return s.fetch(ctx, bson.M{"from_user": string(sender)})
}

func (s *MessageStore) FetchByReceiver(ctx context.Context, receiver user.ID) ([]messaging.Message, error) {
	return s.fetch(ctx, bson.M{"to_user": string(receiver)})
}

func (s *MessageStore) Insert(ctx context.Context, draft messaging.Draft) (messaging.Message, error) {
	doc := messageDocument{
		ID:        uuid.NewString(),
		FromUser:  string(draft.FromUser),
		ToUser:    string(draft.ToUser),
		ListingID: string(draft.ListingID),
		Content:   draft.Content,
		Read:      false,
		CreatedAt: time.Now().UTC().UnixMilli(),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return messaging.Message{}, err
	}
	return doc.toMessage(), nil
}

func (s *MessageStore) MarkRead(ctx context.Context, ids []messaging.MessageID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	_, err := s.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": raw}},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (s *MessageStore) fetch(ctx context.Context, filter bson.M) ([]messaging.Message, error) {
	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []messaging.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toMessage())
	}
	return out, cursor.Err()
}

type messageDocument struct {
	ID        string `bson:"_id"`
	FromUser  string `bson:"from_user"`
	ToUser    string `bson:"to_user"`
	ListingID string `bson:"listing_id,omitempty"`
	Content   string `bson:"content"`
	Read      bool   `bson:"read"`
	CreatedAt int64  `bson:"created_at"`
}

func (d messageDocument) toMessage() messaging.Message {
	return messaging.Message{
		ID:        messaging.MessageID(d.ID),
		FromUser:  user.ID(d.FromUser),
		ToUser:    user.ID(d.ToUser),
		ListingID: listings.ListingID(d.ListingID),
		Content:   d.Content,
		Read:      d.Read,
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
	}
}

var _ messaging.Store = (*MessageStore)(nil)
