package messaging

import (
	"context"
	"sort"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

// ThreadKey identifies a conversation: one counterpart plus an optional
// listing scope. The same counterpart with and without a listing scope is two
// distinct threads.
type ThreadKey struct {
	OtherUserID user.ID
	ListingID   listings.ListingID
}

// Thread is a derived aggregate, never persisted. Messages are ascending by
// CreatedAt and unique by ID; a built thread is never empty.
type Thread struct {
	Key         ThreadKey
	OtherUser   user.Profile
	Listing     *listings.Summary // nil for a general conversation
	Messages    []Message
	UnreadCount int
}

// LastMessage returns the newest message of the thread.
func (t Thread) LastMessage() Message {
	if len(t.Messages) == 0 {
		return Message{}
	}
	return t.Messages[len(t.Messages)-1]
}

// BuildThreads reconciles the two directional fetches into ordered
// conversation threads for viewer. The union of all returned threads'
// messages equals the deduplicated input exactly. Counterparts whose profile
// cannot be resolved degrade to a placeholder; a failed bulk resolution fails
// the whole build.
func BuildThreads(
	ctx context.Context,
	viewer user.ID,
	sent, received []Message,
	users user.Resolver,
	catalog listings.Resolver,
) ([]Thread, error) {
	merged := mergeByID(sent, received)

	groups := make(map[ThreadKey][]Message)
	var userIDs []user.ID
	var listingIDs []listings.ListingID
	for _, m := range merged {
		key := ThreadKey{OtherUserID: m.Counterpart(viewer), ListingID: m.ListingID}
		if _, seen := groups[key]; !seen {
			if !containsUser(userIDs, key.OtherUserID) {
				userIDs = append(userIDs, key.OtherUserID)
			}
			if key.ListingID != "" && !containsListing(listingIDs, key.ListingID) {
				listingIDs = append(listingIDs, key.ListingID)
			}
		}
		groups[key] = append(groups[key], m)
	}

	profiles := make(map[user.ID]user.Profile)
	if len(userIDs) > 0 {
		resolved, err := users.Profiles(ctx, userIDs)
		if err != nil {
			return nil, &FetchError{Op: "resolve profiles", Err: err}
		}
		profiles = resolved
	}
	summaries := make(map[listings.ListingID]listings.Summary)
	if len(listingIDs) > 0 {
		resolved, err := catalog.Summaries(ctx, listingIDs)
		if err != nil {
			return nil, &FetchError{Op: "resolve listings", Err: err}
		}
		summaries = resolved
	}

	threads := make([]Thread, 0, len(groups))
	for key, msgs := range groups {
		sortMessages(msgs)
		profile, ok := profiles[key.OtherUserID]
		if !ok {
			profile = user.Placeholder(key.OtherUserID)
		}
		thread := Thread{Key: key, OtherUser: profile, Messages: msgs}
		if key.ListingID != "" {
			summary, ok := summaries[key.ListingID]
			if !ok {
				// Unresolved listing: keep the scope visible, title empty.
				summary = listings.Summary{ID: key.ListingID}
			}
			thread.Listing = &summary
		}
		for _, m := range msgs {
			if m.UnreadFor(viewer) {
				thread.UnreadCount++
			}
		}
		threads = append(threads, thread)
	}

	sortThreads(threads)
	return threads, nil
}

// mergeByID unions the two directional fetches into a single collection keyed
// by message id. Overlap between the inputs collapses to one instance;
// concatenating instead would double-count unread totals and last messages.
func mergeByID(sent, received []Message) []Message {
	merged := make([]Message, 0, len(sent)+len(received))
	seen := make(map[MessageID]struct{}, len(sent)+len(received))
	for _, batch := range [][]Message{sent, received} {
		for _, m := range batch {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	return merged
}

// sortMessages orders a thread ascending by creation time, ties broken by id
// so the order is deterministic.
func sortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

// sortThreads orders the collection newest conversation first, ties broken by
// thread key.
func sortThreads(threads []Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		ti, tj := threads[i].LastMessage().CreatedAt, threads[j].LastMessage().CreatedAt
		if ti.Equal(tj) {
			if threads[i].Key.OtherUserID == threads[j].Key.OtherUserID {
				return threads[i].Key.ListingID < threads[j].Key.ListingID
			}
			return threads[i].Key.OtherUserID < threads[j].Key.OtherUserID
		}
		return ti.After(tj)
	})
}

func containsUser(ids []user.ID, target user.ID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func containsListing(ids []listings.ListingID, target listings.ListingID) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
