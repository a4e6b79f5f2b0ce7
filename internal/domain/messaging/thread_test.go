package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

var testBase = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func mkMsg(id string, from, to user.ID, listing listings.ListingID, at time.Time, read bool) Message {
	return Message{
		ID:        MessageID(id),
		FromUser:  from,
		ToUser:    to,
		ListingID: listing,
		Content:   "msg " + id,
		Read:      read,
		CreatedAt: at,
	}
}

type stubUsers map[user.ID]user.Profile

func (s stubUsers) Profiles(ctx context.Context, ids []user.ID) (map[user.ID]user.Profile, error) {
	out := make(map[user.ID]user.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubListings map[listings.ListingID]listings.Summary

func (s stubListings) Summaries(ctx context.Context, ids []listings.ListingID) (map[listings.ListingID]listings.Summary, error) {
	out := make(map[listings.ListingID]listings.Summary, len(ids))
	for _, id := range ids {
		if l, ok := s[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

type failingUsers struct{}

func (failingUsers) Profiles(ctx context.Context, ids []user.ID) (map[user.ID]user.Profile, error) {
	return nil, errors.New("profiles unavailable")
}

type failingListings struct{}

func (failingListings) Summaries(ctx context.Context, ids []listings.ListingID) (map[listings.ListingID]listings.Summary, error) {
	return nil, errors.New("listings unavailable")
}

func defaultResolvers() (stubUsers, stubListings) {
	users := stubUsers{
		"u2": {ID: "u2", Name: "Marie", Contact: "marie@example.com"},
		"u3": {ID: "u3", Name: "Paul"},
	}
	catalog := stubListings{
		"l1": {ID: "l1", Title: "Cours de guitare"},
	}
	return users, catalog
}

func TestBuildThreadsExampleScenario(t *testing.T) {
	users, catalog := defaultResolvers()
	t1, t2, t3 := testBase, testBase.Add(time.Minute), testBase.Add(2*time.Minute)

	sent := []Message{mkMsg("m1", "u1", "u2", "l1", t1, true)}
	received := []Message{
		mkMsg("m2", "u2", "u1", "l1", t2, false),
		mkMsg("m3", "u2", "u1", "", t3, false),
	}

	threads, err := BuildThreads(context.Background(), "u1", sent, received, users, catalog)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	// t3 > t2, the general conversation comes first.
	general := threads[0]
	assert.Equal(t, ThreadKey{OtherUserID: "u2"}, general.Key)
	assert.Nil(t, general.Listing)
	require.Len(t, general.Messages, 1)
	assert.Equal(t, MessageID("m3"), general.LastMessage().ID)
	assert.Equal(t, 1, general.UnreadCount)

	scoped := threads[1]
	assert.Equal(t, ThreadKey{OtherUserID: "u2", ListingID: "l1"}, scoped.Key)
	require.NotNil(t, scoped.Listing)
	assert.Equal(t, "Cours de guitare", scoped.Listing.Title)
	require.Len(t, scoped.Messages, 2)
	assert.Equal(t, MessageID("m1"), scoped.Messages[0].ID)
	assert.Equal(t, MessageID("m2"), scoped.Messages[1].ID)
	assert.Equal(t, MessageID("m2"), scoped.LastMessage().ID)
	assert.Equal(t, 1, scoped.UnreadCount)

	assert.Equal(t, "Marie", scoped.OtherUser.Name)
}

func TestBuildThreadsCompleteness(t *testing.T) {
	users, catalog := defaultResolvers()
	sent := []Message{
		mkMsg("a", "u1", "u2", "l1", testBase, true),
		mkMsg("b", "u1", "u3", "", testBase.Add(time.Second), true),
		mkMsg("c", "u1", "u2", "", testBase.Add(2*time.Second), true),
	}
	received := []Message{
		mkMsg("d", "u2", "u1", "l1", testBase.Add(3*time.Second), false),
		mkMsg("e", "u3", "u1", "", testBase.Add(4*time.Second), false),
	}

	threads, err := BuildThreads(context.Background(), "u1", sent, received, users, catalog)
	require.NoError(t, err)

	seen := make(map[MessageID]int)
	for _, th := range threads {
		for _, m := range th.Messages {
			seen[m.ID]++
		}
	}
	assert.Len(t, seen, 5)
	for _, m := range append(sent, received...) {
		assert.Equal(t, 1, seen[m.ID], "message %s must appear exactly once", m.ID)
	}
}

func TestBuildThreadsDedupIdempotence(t *testing.T) {
	users, catalog := defaultResolvers()
	overlap := mkMsg("m1", "u2", "u1", "l1", testBase, false)

	both, err := BuildThreads(context.Background(), "u1",
		[]Message{overlap}, []Message{overlap}, users, catalog)
	require.NoError(t, err)
	once, err := BuildThreads(context.Background(), "u1",
		nil, []Message{overlap}, users, catalog)
	require.NoError(t, err)

	assert.Equal(t, once, both)
	require.Len(t, both, 1)
	assert.Len(t, both[0].Messages, 1)
	assert.Equal(t, 1, both[0].UnreadCount)
}

func TestBuildThreadsSeparatesListingScopes(t *testing.T) {
	users, catalog := defaultResolvers()
	received := []Message{
		mkMsg("m1", "u2", "u1", "l1", testBase, false),
		mkMsg("m2", "u2", "u1", "", testBase.Add(time.Second), false),
	}

	threads, err := BuildThreads(context.Background(), "u1", nil, received, users, catalog)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.NotEqual(t, threads[0].Key, threads[1].Key)
	for _, th := range threads {
		assert.Len(t, th.Messages, 1)
	}
}

func TestBuildThreadsOrdering(t *testing.T) {
	users, catalog := defaultResolvers()
	// Deliberately unordered inputs, including a timestamp tie inside one
	// thread and a tie between two threads.
	tie := testBase.Add(time.Hour)
	sent := []Message{
		mkMsg("z", "u1", "u2", "", tie, true),
		mkMsg("a", "u1", "u2", "", tie, true),
		mkMsg("b", "u1", "u2", "", testBase, true),
	}
	received := []Message{
		mkMsg("y", "u3", "u1", "", tie, true),
	}

	threads, err := BuildThreads(context.Background(), "u1", sent, received, users, catalog)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	u2 := threads[0]
	require.Equal(t, user.ID("u2"), u2.Key.OtherUserID)
	require.Len(t, u2.Messages, 3)
	assert.Equal(t, MessageID("b"), u2.Messages[0].ID)
	assert.Equal(t, MessageID("a"), u2.Messages[1].ID, "ties order by id")
	assert.Equal(t, MessageID("z"), u2.Messages[2].ID)

	// Same last-message instant on both threads: tie-break by key.
	assert.Equal(t, user.ID("u2"), threads[0].Key.OtherUserID)
	assert.Equal(t, user.ID("u3"), threads[1].Key.OtherUserID)
}

func TestBuildThreadsUnreadCount(t *testing.T) {
	users, catalog := defaultResolvers()
	sent := []Message{
		// Outgoing and unread by the counterpart: never counted for the viewer.
		mkMsg("m1", "u1", "u2", "", testBase, false),
	}
	received := []Message{
		mkMsg("m2", "u2", "u1", "", testBase.Add(time.Second), false),
		mkMsg("m3", "u2", "u1", "", testBase.Add(2*time.Second), true),
		mkMsg("m4", "u2", "u1", "", testBase.Add(3*time.Second), false),
	}

	threads, err := BuildThreads(context.Background(), "u1", sent, received, users, catalog)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, 2, threads[0].UnreadCount)
}

func TestBuildThreadsPlaceholderProfile(t *testing.T) {
	_, catalog := defaultResolvers()
	received := []Message{mkMsg("m1", "u9", "u1", "", testBase, false)}

	threads, err := BuildThreads(context.Background(), "u1", nil, received, stubUsers{}, catalog)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, user.ID("u9"), threads[0].OtherUser.ID)
	assert.Equal(t, user.PlaceholderName, threads[0].OtherUser.Name)
	assert.Empty(t, threads[0].OtherUser.Contact)
}

func TestBuildThreadsUnresolvedListingKeepsScope(t *testing.T) {
	users, _ := defaultResolvers()
	received := []Message{mkMsg("m1", "u2", "u1", "l9", testBase, false)}

	threads, err := BuildThreads(context.Background(), "u1", nil, received, users, stubListings{})
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.NotNil(t, threads[0].Listing)
	assert.Equal(t, listings.ListingID("l9"), threads[0].Listing.ID)
	assert.Empty(t, threads[0].Listing.Title)
}

func TestBuildThreadsResolverFailure(t *testing.T) {
	users, catalog := defaultResolvers()
	received := []Message{mkMsg("m1", "u2", "u1", "l1", testBase, false)}

	_, err := BuildThreads(context.Background(), "u1", nil, received, failingUsers{}, catalog)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)

	_, err = BuildThreads(context.Background(), "u1", nil, received, users, failingListings{})
	require.ErrorAs(t, err, &fetchErr)
}

func TestBuildThreadsSelfMessageTolerated(t *testing.T) {
	users, catalog := defaultResolvers()
	sent := []Message{mkMsg("m1", "u1", "u1", "", testBase, true)}

	threads, err := BuildThreads(context.Background(), "u1", sent, nil, users, catalog)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, user.ID("u1"), threads[0].Key.OtherUserID)
	assert.Len(t, threads[0].Messages, 1)
}

func TestMergeByID(t *testing.T) {
	a := mkMsg("a", "u1", "u2", "", testBase, true)
	b := mkMsg("b", "u2", "u1", "", testBase.Add(time.Second), false)

	merged := mergeByID([]Message{a, b}, []Message{b})
	require.Len(t, merged, 2)
	assert.Equal(t, MessageID("a"), merged[0].ID)
	assert.Equal(t, MessageID("b"), merged[1].ID)

	assert.Empty(t, mergeByID(nil, nil))
}
