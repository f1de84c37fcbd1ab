// Package access holds the single authorization policy for medical-data
// reads. Every read path derives its decision here, from the live
// relationship row, on every call.
package access

import (
	"regexp"
	"strings"
)

type Role string

const (
	RoleFamily Role = "family"
	RoleFriend Role = "friend"
)

var separatorRuns = regexp.MustCompile(`[-\s]+`)

// Normalize maps a free-form relationship label to a Role. Anything not
// recognized as family collapses to RoleFriend, so garbled or missing
// input never elevates access.
func Normalize(relationship string) Role {
	normalized := strings.ToLower(strings.TrimSpace(relationship))
	normalized = separatorRuns.ReplaceAllString(normalized, "_")
	if normalized == string(RoleFamily) {
		return RoleFamily
	}
	return RoleFriend
}

func CanReadMedicalData(role Role) bool {
	return role == RoleFamily
}

// LinkView is the slice of a care circle link the gate needs. Defined here
// so the gate does not depend on the circle package.
type LinkView struct {
	RequesterID  string
	RecipientID  string
	Status       string
	Relationship string
}

const StatusAccepted = "accepted"

// CanViewLinkData reports whether actorID may read medical data through the
// given link. All three conditions are required: the actor is the link's
// recipient, the link is accepted, and the relationship grants the family
// capability.
func CanViewLinkData(link LinkView, actorID string) bool {
	if actorID == "" || link.RecipientID != actorID {
		return false
	}
	if link.Status != StatusAccepted {
		return false
	}
	return CanReadMedicalData(Normalize(link.Relationship))
}
