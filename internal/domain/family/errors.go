package family

import "errors"

var (
	ErrFamilyNotFound       = errors.New("family not found")
	ErrInvalidName          = errors.New("family name must be 2-50 characters")
	ErrAlreadyInFamily      = errors.New("already in family")
	ErrNotOwner             = errors.New("not owner")
	ErrFamilyFull           = errors.New("family is full")
	ErrInvalidCode          = errors.New("invalid invite code")
	ErrCodeTaken            = errors.New("invite code already taken")
	ErrPendingRequestExists = errors.New("pending join request exists")
	ErrRequestNotFound      = errors.New("join request not found")
	ErrRequestNotPending    = errors.New("join request already resolved")
	ErrRequestExpired       = errors.New("join request expired")
	ErrMemberNotFound       = errors.New("member not found")
	ErrCodeGenerationFailed = errors.New("invite code generation failed")
)
