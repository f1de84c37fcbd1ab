package circle

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Link is a directed sharing relationship: the requester shares the data of
// OwnerProfileID with the recipient. Accepted and declined are terminal; a
// fresh invite creates a new row instead of reviving an old one.
type Link struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	RequesterID    string    `gorm:"not null;index"`
	RecipientID    string    `gorm:"not null;index"`
	OwnerProfileID string    `gorm:"type:uuid;not null"`
	Relationship   string    `gorm:"type:varchar(64)"`
	Status         string    `gorm:"type:varchar(16);not null;default:pending"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Link) TableName() string {
	return "care_circle_links"
}

// LinkSummary is the view row for circle listings. MemberID is the other
// party from the viewer's perspective.
type LinkSummary struct {
	ID             string    `json:"id"`
	MemberID       string    `json:"member_id"`
	OwnerProfileID string    `json:"owner_profile_id"`
	Status         string    `json:"status"`
	Relationship   string    `json:"relationship"`
	DisplayName    string    `json:"display_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CircleView groups a user's links: Outgoing are links the user requested
// ("My Circle" once accepted), Incoming are links where the user is the
// recipient ("Circles I'm In" once accepted). Both carry their pending
// subsets; the split by status is a pure projection of the rows.
type CircleView struct {
	Outgoing []LinkSummary `json:"outgoing"`
	Incoming []LinkSummary `json:"incoming"`
}
