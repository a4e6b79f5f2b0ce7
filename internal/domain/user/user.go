package user

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user: not found")

type ID string

// Profile is the minimal identity record shown next to a conversation.
type Profile struct {
	ID      ID
	Name    string
	Contact string
}

// Resolver loads profiles in bulk. Identifiers that cannot be resolved are
// simply absent from the result; that is not an error.
type Resolver interface {
	Profiles(ctx context.Context, ids []ID) (map[ID]Profile, error)
}

// PlaceholderName labels counterparts whose profile could not be resolved.
const PlaceholderName = "Utilisateur"

// Placeholder returns the fallback profile for an unresolved counterpart so
// the conversation still renders and stays actionable.
func Placeholder(id ID) Profile {
	return Profile{ID: id, Name: PlaceholderName}
}
