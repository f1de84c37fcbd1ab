package circle

import "context"

type Repository interface {
	GetLink(ctx context.Context, linkID string) (*Link, error)
	// CreateLink inserts a new pending link. A live duplicate for the same
	// requester/recipient pair surfaces as ErrInviteExists.
	CreateLink(ctx context.Context, link *Link) error
	// UpdateStatus transitions linkID from one status to another as a single
	// conditional write. It reports false when the row was not in the
	// expected source status, so a lost race never looks like success.
	UpdateStatus(ctx context.Context, linkID, from, to string) (bool, error)
	UpdateRelationship(ctx context.Context, linkID, relationship string) error
	DeleteLink(ctx context.Context, linkID string) error
	ListByRequester(ctx context.Context, userID string) ([]Link, error)
	ListByRecipient(ctx context.Context, userID string) ([]Link, error)
}
