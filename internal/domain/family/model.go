package family

import "time"

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

const (
	// MemberLimit is the hard capacity ceiling per family. The authoritative
	// check happens inside the approval transaction.
	MemberLimit = 10

	// JoinRequestTTL is the window in which a pending join request is
	// considered live. Older pending rows are excluded by query predicate,
	// never deleted.
	JoinRequestTTL = 24 * time.Hour

	NameMinLen = 2
	NameMaxLen = 50
)

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

type Family struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	OwnerID   string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Family) TableName() string {
	return "families"
}

type FamilyMember struct {
	FamilyID string    `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"primaryKey;uniqueIndex"`
	Role     string    `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (FamilyMember) TableName() string {
	return "family_members"
}

// InviteCode is a mintable, non-expiring join code. Re-minting never
// invalidates older codes; capacity is gated at approval, not here.
type InviteCode struct {
	Code      string    `gorm:"size:12;primaryKey"`
	FamilyID  string    `gorm:"type:uuid;not null;index"`
	IssuerID  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (InviteCode) TableName() string {
	return "family_invite_codes"
}

type JoinRequest struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	FamilyID    string    `gorm:"type:uuid;not null;index" json:"family_id"`
	RequesterID string    `gorm:"not null;index" json:"requester_id"`
	Status      string    `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (JoinRequest) TableName() string {
	return "family_join_requests"
}

// InvitePreview is what a prospective member sees before confirming a join.
type InvitePreview struct {
	FamilyID string `json:"family_id"`
	Name     string `json:"name"`
}

// CreateFamilyResult carries the primary outcome (the family, with its
// owner membership) and the secondary, independently-failable outcome of
// minting the initial invite code. MintErr set means the family exists but
// the caller should mint a code separately.
type CreateFamilyResult struct {
	Family     Family
	InviteCode *InviteCode
	MintErr    error
}

type MemberProfile struct {
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
	DisplayName string    `json:"display_name"`
}

type JoinRequestView struct {
	ID            string    `json:"id"`
	RequesterID   string    `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	CreatedAt     time.Time `json:"created_at"`
}
