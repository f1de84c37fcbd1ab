// Package vault issues short-lived signed URLs for medical files. It owns no
// storage itself; file access is decided here and delegated to a URLSigner.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Folder is a fixed category within a profile's vault.
type Folder string

const (
	FolderReports       Folder = "reports"
	FolderPrescriptions Folder = "prescriptions"
	FolderInsurance     Folder = "insurance"
	FolderBills         Folder = "bills"
)

// URLTTL is how long an issued URL stays valid.
const URLTTL = 60 * time.Second

var (
	ErrInvalidFolder   = errors.New("unknown vault folder")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrAccessDenied    = errors.New("access denied")
)

// URLSigner produces a time-limited URL for an object key. Implementations
// sign against the backing object store.
type URLSigner interface {
	SignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// CircleGate reports whether the actor may read medical data through the
// given care-circle link.
type CircleGate interface {
	CanAccessMedicalData(ctx context.Context, actorID, linkID string) (profileID string, err error)
}

// FamilyGate reports whether two users share a family.
type FamilyGate interface {
	AreFamilyMates(ctx context.Context, userID, otherID string) (bool, error)
}

// ProfileSource resolves a user's primary profile.
type ProfileSource interface {
	PrimaryProfileID(ctx context.Context, userID string) (string, bool, error)
}

type Service struct {
	signer   URLSigner
	circle   CircleGate
	family   FamilyGate
	profiles ProfileSource
}

func NewService(signer URLSigner, circle CircleGate, family FamilyGate, profiles ProfileSource) *Service {
	return &Service{
		signer:   signer,
		circle:   circle,
		family:   family,
		profiles: profiles,
	}
}

// SignedURL is an issued link together with its validity window.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueCircleFileURL issues a signed URL for a file in the vault behind a
// care-circle link. The circle gate decides access; on success the URL is
// scoped to the link's subject profile, never to a caller-chosen one.
func (s *Service) IssueCircleFileURL(ctx context.Context, actorID, linkID string, folder Folder, name string) (*SignedURL, error) {
	if err := ValidateFolder(folder); err != nil {
		return nil, err
	}
	if err := ValidateFileName(name); err != nil {
		return nil, err
	}

	profileID, err := s.circle.CanAccessMedicalData(ctx, actorID, linkID)
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, profileID, folder, name)
}

// IssueFamilyFileURL issues a signed URL for a family member's vault. The
// actor and the member must share a family; the member's primary profile is
// the vault that gets opened.
func (s *Service) IssueFamilyFileURL(ctx context.Context, actorID, memberID string, folder Folder, name string) (*SignedURL, error) {
	if err := ValidateFolder(folder); err != nil {
		return nil, err
	}
	if err := ValidateFileName(name); err != nil {
		return nil, err
	}

	mates, err := s.family.AreFamilyMates(ctx, actorID, memberID)
	if err != nil {
		return nil, err
	}
	if !mates {
		return nil, ErrAccessDenied
	}

	profileID, ok, err := s.profiles.PrimaryProfileID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}

	return s.issue(ctx, profileID, folder, name)
}

func (s *Service) issue(ctx context.Context, profileID string, folder Folder, name string) (*SignedURL, error) {
	key := ObjectKey(profileID, folder, name)
	url, err := s.signer.SignGetURL(ctx, key, URLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign url: %w", err)
	}
	return &SignedURL{
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(URLTTL),
	}, nil
}

// ObjectKey builds the object-store key for a vault file.
func ObjectKey(profileID string, folder Folder, name string) string {
	return profileID + "/" + string(folder) + "/" + name
}

// ValidateFolder rejects any folder outside the fixed set.
func ValidateFolder(folder Folder) error {
	switch folder {
	case FolderReports, FolderPrescriptions, FolderInsurance, FolderBills:
		return nil
	}
	return ErrInvalidFolder
}

// ValidateFileName rejects names that could escape the profile/folder prefix
// of the object key.
func ValidateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidFileName
	}
	if strings.ContainsAny(name, `/\`) {
		return ErrInvalidFileName
	}
	return nil
}
