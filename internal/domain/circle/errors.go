package circle

import "errors"

var (
	ErrLinkNotFound    = errors.New("care circle link not found")
	ErrInvalidContact  = errors.New("invalid contact")
	ErrContactNotFound = errors.New("no registered user for contact")
	ErrSelfInvite      = errors.New("cannot invite yourself")
	ErrNoProfile       = errors.New("no profile available for account")
	ErrInviteExists    = errors.New("invite already exists for this member")
	ErrNotRecipient    = errors.New("actor is not the link recipient")
	ErrNotRequester    = errors.New("actor is not the link requester")
	ErrLinkNotPending  = errors.New("link is not pending")
	ErrLinkNotAccepted = errors.New("link is not accepted")
	ErrInvalidRole     = errors.New("invalid relationship role")
	ErrAccessDenied    = errors.New("medical data access denied")
)
