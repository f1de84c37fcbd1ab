package profile

import "context"

type Repository interface {
	GetProfile(ctx context.Context, profileID string) (*Profile, error)
	// GetPrimaryByUser returns the user's primary profile, or
	// ErrProfileNotFound when the user has none.
	GetPrimaryByUser(ctx context.Context, userID string) (*Profile, error)
	// FindUserByPhone resolves any of the given phone variants to the owning
	// user id. ok is false when no profile matches.
	FindUserByPhone(ctx context.Context, phones []string) (userID string, ok bool, err error)
	ListByUsers(ctx context.Context, userIDs []string) ([]Profile, error)
	// Upsert creates the user's primary profile or refreshes its display name
	// and phone.
	Upsert(ctx context.Context, p *Profile) error
}
