// Package profile is the account directory: it maps phone contacts to
// accounts, owns the primary-profile lookup, and serves display names to the
// relationship packages.
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	phoneMinDigits = 7
	phoneMaxDigits = 15
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveContact maps a phone contact to an account id. The stored phone may
// or may not carry the E.164 plus prefix, so both variants are tried.
func (s *Service) ResolveContact(ctx context.Context, contact string) (string, bool, error) {
	digits, ok := normalizePhone(contact)
	if !ok {
		return "", false, ErrInvalidPhone
	}
	return s.repo.FindUserByPhone(ctx, []string{"+" + digits, digits})
}

// PrimaryProfileID returns the id of the user's primary profile. ok is false
// when the user has no profile yet.
func (s *Service) PrimaryProfileID(ctx context.Context, userID string) (string, bool, error) {
	p, err := s.repo.GetPrimaryByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return p.ID, true, nil
}

// OwnsProfile reports whether profileID belongs to userID. An unknown profile
// reads as not owned rather than as an error.
func (s *Service) OwnsProfile(ctx context.Context, userID, profileID string) (bool, error) {
	p, err := s.repo.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.UserID == userID, nil
}

// DisplayNames resolves display names for a set of users from their primary
// profiles. Users without a profile are simply absent from the result.
func (s *Service) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}

	profiles, err := s.repo.ListByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		if _, ok := names[p.UserID]; ok && !p.IsPrimary {
			continue
		}
		names[p.UserID] = p.DisplayName
	}
	return names, nil
}

// EnsureProfile creates or refreshes the user's primary profile. Called on
// every authenticated request so the directory tracks the identity provider.
func (s *Service) EnsureProfile(ctx context.Context, userID, displayName, phone string) error {
	displayName = strings.TrimSpace(displayName)

	normalized := ""
	if digits, ok := normalizePhone(phone); ok {
		normalized = "+" + digits
	}

	return s.repo.Upsert(ctx, &Profile{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: displayName,
		Phone:       normalized,
		IsPrimary:   true,
	})
}

// normalizePhone strips formatting from a phone contact and returns its
// digits. An international 00 prefix folds into the plain digit form.
func normalizePhone(contact string) (string, bool) {
	contact = strings.TrimSpace(contact)

	var builder strings.Builder
	builder.Grow(len(contact))
	for i, r := range contact {
		switch {
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", false
		}
	}

	digits := builder.String()
	digits = strings.TrimPrefix(digits, "00")
	if len(digits) < phoneMinDigits || len(digits) > phoneMaxDigits {
		return "", false
	}
	return digits, true
}
