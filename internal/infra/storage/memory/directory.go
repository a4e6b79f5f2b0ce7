package memory

import (
	"context"
	"sync"

	"servly/internal/domain/listings"
	"servly/internal/domain/user"
)

// Directory resolves profiles and listing summaries from memory. It mimics
// the partial-result contract of the production resolvers: unknown ids are
// absent from the result, never an error.
type Directory struct {
	mu       sync.RWMutex
	profiles map[user.ID]user.Profile
	listings map[listings.ListingID]listings.Summary
}

func NewDirectory() *Directory {
	return &Directory{
		profiles: make(map[user.ID]user.Profile),
		listings: make(map[listings.ListingID]listings.Summary),
	}
}

func (d *Directory) AddProfile(p user.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[p.ID] = p
}

func (d *Directory) AddListing(s listings.Summary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listings[s.ID] = s
}

func (d *Directory) Profiles(ctx context.Context, ids []user.ID) (map[user.ID]user.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[user.ID]user.Profile, len(ids))
	for _, id := range ids {
		if p, ok := d.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (d *Directory) Summaries(ctx context.Context, ids []listings.ListingID) (map[listings.ListingID]listings.Summary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[listings.ListingID]listings.Summary, len(ids))
	for _, id := range ids {
		if s, ok := d.listings[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

var (
	_ user.Resolver     = (*Directory)(nil)
	_ listings.Resolver = (*Directory)(nil)
)
