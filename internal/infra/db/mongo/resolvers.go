package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

// ProfileResolver looks up counterpart profiles in the "users" collection.
// Ids with no matching document are absent from the result.
type ProfileResolver struct {
	col *mongo.Collection
}

func NewProfileResolver(db *mongo.Database) *ProfileResolver {
	return &ProfileResolver{col: db.Collection("users")}
}

func (r *ProfileResolver) Profiles(ctx context.Context, ids []user.ID) (map[user.ID]user.Profile, error) {
	out := make(map[user.ID]user.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var doc profileDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out[user.ID(doc.ID)] = user.Profile{
			ID:      user.ID(doc.ID),
			Name:    doc.Name,
			Contact: doc.Contact,
		}
	}
	return out, cursor.Err()
}

type profileDocument struct {
	ID      string `bson:"_id"`
	Name    string `bson:"name"`
	Contact string `bson:"contact,omitempty"`
}

// ListingResolver looks up listing summaries in the "listings" collection
// with the same partial-result semantics.
type ListingResolver struct {
	col *mongo.Collection
}

func NewListingResolver(db *mongo.Database) *ListingResolver {
	return &ListingResolver{col: db.Collection("listings")}
}

func (r *ListingResolver) Summaries(ctx context.Context, ids []listings.ListingID) (map[listings.ListingID]listings.Summary, error) {
	out := make(map[listings.ListingID]listings.Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var doc summaryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out[listings.ListingID(doc.ID)] = listings.Summary{
			ID:    listings.ListingID(doc.ID),
			Title: doc.Title,
		}
	}
	return out, cursor.Err()
}

type summaryDocument struct {
	ID    string `bson:"_id"`
	Title string `bson:"title"`
}

var (
	_ user.Resolver     = (*ProfileResolver)(nil)
	_ listings.Resolver = (*ListingResolver)(nil)
)
