package family

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	inviteCodeLength   = 8
	inviteCodeAttempts = 10
	inviteCodeMinLen   = 6
	inviteCodeMaxLen   = 12
)

const unknownMemberName = "Member"

// NameDirectory resolves display names for member listings. Lookups are
// best-effort and never block a membership decision.
type NameDirectory interface {
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

type Service struct {
	repo  Repository
	names NameDirectory
	now   func() time.Time
}

func NewService(repo Repository, names NameDirectory) *Service {
	return &Service{
		repo:  repo,
		names: names,
		now:   time.Now,
	}
}

func (s *Service) GetFamilyByUser(ctx context.Context, userID string) (*Family, error) {
	return s.repo.GetFamilyByUser(ctx, userID)
}

// CreateFamily creates a family with the caller as its permanent owner. The
// family and the owner membership are written atomically; the initial
// invite-code mint that follows is best-effort, so a mint failure is
// reported in the result instead of rolling back the family.
func (s *Service) CreateFamily(ctx context.Context, ownerID, name string) (*CreateFamilyResult, error) {
	name = strings.TrimSpace(name)
	if len(name) < NameMinLen || len(name) > NameMaxLen {
		return nil, ErrInvalidName
	}

	var created Family
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		inFamily, err := tx.IsUserInFamily(ctx, ownerID)
		if err != nil {
			return err
		}
		if inFamily {
			return ErrAlreadyInFamily
		}

		family := Family{
			ID:      uuid.NewString(),
			Name:    name,
			OwnerID: ownerID,
		}
		if err := tx.CreateFamily(ctx, &family); err != nil {
			return err
		}

		member := FamilyMember{
			FamilyID: family.ID,
			UserID:   ownerID,
			Role:     RoleOwner,
		}
		if err := tx.AddMember(ctx, &member); err != nil {
			return err
		}

		created = family
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateFamilyResult{Family: created}
	code, mintErr := s.mintCode(ctx, created.ID, ownerID)
	if mintErr != nil {
		result.MintErr = mintErr
	} else {
		result.InviteCode = code
	}
	return result, nil
}

// MintInviteCode issues a fresh code for the caller's family. Previously
// issued codes stay valid.
func (s *Service) MintInviteCode(ctx context.Context, actorID string) (*InviteCode, error) {
	member, err := s.repo.GetMemberByUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if member.Role != RoleOwner {
		return nil, ErrNotOwner
	}

	count, err := s.repo.CountMembers(ctx, member.FamilyID)
	if err != nil {
		return nil, err
	}
	if count >= MemberLimit {
		return nil, ErrFamilyFull
	}

	return s.mintCode(ctx, member.FamilyID, actorID)
}

func (s *Service) mintCode(ctx context.Context, familyID, issuerID string) (*InviteCode, error) {
	for i := 0; i < inviteCodeAttempts; i++ {
		value, err := generateCode(inviteCodeLength)
		if err != nil {
			return nil, err
		}
		taken, err := s.repo.IsCodeTaken(ctx, value)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		code := InviteCode{
			Code:     value,
			FamilyID: familyID,
			IssuerID: issuerID,
		}
		switch err := s.repo.CreateInviteCode(ctx, &code); {
		case errors.Is(err, ErrCodeTaken):
			// Another mint grabbed this value between the taken check
			// and the insert. Try a fresh one.
			continue
		case err != nil:
			return nil, err
		}
		return &code, nil
	}
	return nil, ErrCodeGenerationFailed
}

// PreviewInvite resolves a code to the family it joins without creating any
// state, for a preview-then-confirm join flow.
func (s *Service) PreviewInvite(ctx context.Context, code string) (*InvitePreview, error) {
	family, err := s.resolveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &InvitePreview{FamilyID: family.ID, Name: family.Name}, nil
}

func (s *Service) resolveCode(ctx context.Context, code string) (*Family, error) {
	normalized, ok := NormalizeCode(code)
	if !ok {
		return nil, ErrInvalidCode
	}

	invite, err := s.repo.GetInviteCode(ctx, normalized)
	if err != nil {
		return nil, err
	}

	family, err := s.repo.GetFamily(ctx, invite.FamilyID)
	if err != nil {
		// A code can outlive its family; it must read as invalid, not as a
		// joinable group.
		if errors.Is(err, ErrFamilyNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	return family, nil
}

// RequestJoin files a pending join request for the family behind the code.
// Capacity is not checked here; the owner's approval is the authoritative
// capacity gate.
func (s *Service) RequestJoin(ctx context.Context, actorID, code string) (*JoinRequest, error) {
	family, err := s.resolveCode(ctx, code)
	if err != nil {
		return nil, err
	}

	inFamily, err := s.repo.IsUserInFamily(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if inFamily {
		return nil, ErrAlreadyInFamily
	}

	cutoff := s.now().Add(-JoinRequestTTL)
	live, err := s.repo.GetLivePendingRequest(ctx, actorID, cutoff)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return nil, ErrPendingRequestExists
	}

	request := JoinRequest{
		ID:          uuid.NewString(),
		FamilyID:    family.ID,
		RequesterID: actorID,
		Status:      RequestPending,
	}
	if err := s.repo.CreateJoinRequest(ctx, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// ReviewJoinRequest resolves a pending request. Approval re-checks capacity
// and inserts the membership row inside one transaction, so concurrent
// approvals cannot push the family past MemberLimit and the request can
// never read approved without its membership row existing.
func (s *Service) ReviewJoinRequest(ctx context.Context, actorID, requestID string, approve bool) (*JoinRequest, error) {
	request, err := s.repo.GetJoinRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	family, err := s.repo.GetFamily(ctx, request.FamilyID)
	if err != nil {
		return nil, err
	}
	if family.OwnerID != actorID {
		return nil, ErrNotOwner
	}
	if request.Status != RequestPending {
		return nil, ErrRequestNotPending
	}
	if request.CreatedAt.Before(s.now().Add(-JoinRequestTTL)) {
		return nil, ErrRequestExpired
	}

	if !approve {
		changed, err := s.repo.ResolveJoinRequest(ctx, requestID, RequestRejected)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, ErrRequestNotPending
		}
		request.Status = RequestRejected
		return request, nil
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		count, err := tx.CountMembers(ctx, request.FamilyID)
		if err != nil {
			return err
		}
		if count >= MemberLimit {
			return ErrFamilyFull
		}

		changed, err := tx.ResolveJoinRequest(ctx, requestID, RequestApproved)
		if err != nil {
			return err
		}
		if !changed {
			return ErrRequestNotPending
		}

		member := FamilyMember{
			FamilyID: request.FamilyID,
			UserID:   request.RequesterID,
			Role:     RoleMember,
		}
		return tx.AddMember(ctx, &member)
	})
	if err != nil {
		return nil, err
	}

	request.Status = RequestApproved
	return request, nil
}

// PendingRequests lists the live pending requests for the caller's family.
// Owner only; rows past the TTL window are excluded.
func (s *Service) PendingRequests(ctx context.Context, actorID string) ([]JoinRequestView, error) {
	member, err := s.repo.GetMemberByUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if member.Role != RoleOwner {
		return nil, ErrNotOwner
	}

	cutoff := s.now().Add(-JoinRequestTTL)
	requests, err := s.repo.ListPendingRequests(ctx, member.FamilyID, cutoff)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(requests))
	for _, request := range requests {
		ids = append(ids, request.RequesterID)
	}
	names := s.lookupNames(ctx, ids)

	views := make([]JoinRequestView, 0, len(requests))
	for _, request := range requests {
		views = append(views, JoinRequestView{
			ID:            request.ID,
			RequesterID:   request.RequesterID,
			RequesterName: names[request.RequesterID],
			CreatedAt:     request.CreatedAt,
		})
	}
	return views, nil
}

// DeleteFamily removes the family with all memberships and join requests.
// In-flight pending requests for the family become orphaned and resolve to
// not-found on their next read.
func (s *Service) DeleteFamily(ctx context.Context, actorID string) error {
	member, err := s.repo.GetMemberByUser(ctx, actorID)
	if err != nil {
		return err
	}
	if member.Role != RoleOwner {
		return ErrNotOwner
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.DeleteJoinRequestsByFamily(ctx, member.FamilyID); err != nil {
			return err
		}
		if err := tx.DeleteMembersByFamily(ctx, member.FamilyID); err != nil {
			return err
		}
		return tx.DeleteFamily(ctx, member.FamilyID)
	})
}

// Members lists the caller's family members with display names. Membership
// itself is the read capability; owner and member see the same data.
func (s *Service) Members(ctx context.Context, actorID string) ([]MemberProfile, error) {
	family, err := s.repo.GetFamilyByUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	names := s.lookupNames(ctx, ids)

	profiles := make([]MemberProfile, 0, len(members))
	for _, member := range members {
		profiles = append(profiles, MemberProfile{
			UserID:      member.UserID,
			Role:        member.Role,
			JoinedAt:    member.JoinedAt,
			DisplayName: names[member.UserID],
		})
	}
	return profiles, nil
}

// AreFamilyMates reports whether two users hold membership rows in the same
// family. Re-derived from the store on every call.
func (s *Service) AreFamilyMates(ctx context.Context, userID, otherID string) (bool, error) {
	member, err := s.repo.GetMemberByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return false, nil
		}
		return false, err
	}
	other, err := s.repo.GetMemberByUser(ctx, otherID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.FamilyID == other.FamilyID, nil
}

func (s *Service) lookupNames(ctx context.Context, ids []string) map[string]string {
	names, err := s.names.DisplayNames(ctx, ids)
	if err != nil {
		names = nil
	}
	resolved := make(map[string]string, len(ids))
	for _, id := range ids {
		name := strings.TrimSpace(names[id])
		if name == "" {
			name = unknownMemberName
		}
		resolved[id] = name
	}
	return resolved
}

// NormalizeCode upper-cases a code and strips all whitespace. ok is false
// when the result is not 6-12 alphanumeric characters.
func NormalizeCode(code string) (string, bool) {
	var builder strings.Builder
	builder.Grow(len(code))
	for _, r := range code {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		builder.WriteRune(r)
	}
	normalized := strings.ToUpper(builder.String())

	if len(normalized) < inviteCodeMinLen || len(normalized) > inviteCodeMaxLen {
		return "", false
	}
	for _, r := range normalized {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", false
		}
	}
	return normalized, true
}

func generateCode(length int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	max := big.NewInt(int64(len(alphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}

	return builder.String(), nil
}
