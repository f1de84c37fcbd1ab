package family

import (
	"context"
	"time"
)

type Repository interface {
	// Transaction runs fn against a repository bound to a single
	// serializable transaction. The capacity re-check and the membership
	// insert of an approval must share one such transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetFamily(ctx context.Context, familyID string) (*Family, error)
	GetFamilyByUser(ctx context.Context, userID string) (*Family, error)
	GetMemberByUser(ctx context.Context, userID string) (*FamilyMember, error)
	ListMembers(ctx context.Context, familyID string) ([]FamilyMember, error)
	CountMembers(ctx context.Context, familyID string) (int64, error)
	IsUserInFamily(ctx context.Context, userID string) (bool, error)

	CreateFamily(ctx context.Context, family *Family) error
	// AddMember inserts a membership row. The unique index on user_id turns
	// a concurrent double-join into ErrAlreadyInFamily.
	AddMember(ctx context.Context, member *FamilyMember) error
	DeleteFamily(ctx context.Context, familyID string) error
	DeleteMembersByFamily(ctx context.Context, familyID string) error

	// CreateInviteCode inserts a code row. A concurrent insert of the same
	// value surfaces as ErrCodeTaken so the caller can pick another.
	CreateInviteCode(ctx context.Context, code *InviteCode) error
	GetInviteCode(ctx context.Context, code string) (*InviteCode, error)
	IsCodeTaken(ctx context.Context, code string) (bool, error)

	CreateJoinRequest(ctx context.Context, request *JoinRequest) error
	GetJoinRequest(ctx context.Context, requestID string) (*JoinRequest, error)
	// GetLivePendingRequest returns the requester's pending request created
	// after the cutoff, if any. Expired pending rows are invisible here.
	GetLivePendingRequest(ctx context.Context, requesterID string, cutoff time.Time) (*JoinRequest, error)
	ListPendingRequests(ctx context.Context, familyID string, cutoff time.Time) ([]JoinRequest, error)
	// ResolveJoinRequest flips a pending request to a terminal status as a
	// conditional write; false means the row was no longer pending.
	ResolveJoinRequest(ctx context.Context, requestID, status string) (bool, error)
	DeleteJoinRequestsByFamily(ctx context.Context, familyID string) error
}
