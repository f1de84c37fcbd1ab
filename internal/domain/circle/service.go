package circle

import (
	"context"
	"strings"

	"carelink-go/internal/domain/access"
	"github.com/google/uuid"
)

const unknownMemberName = "Unknown member"

// ProfileDirectory resolves accounts and display names. Name lookups are
// best-effort; a failure there must never block a relationship decision.
type ProfileDirectory interface {
	// ResolveContact maps a phone contact to an account id. ok is false when
	// no registered account matches.
	ResolveContact(ctx context.Context, contact string) (userID string, ok bool, err error)
	// PrimaryProfileID returns the primary profile owned by userID.
	PrimaryProfileID(ctx context.Context, userID string) (profileID string, ok bool, err error)
	// OwnsProfile reports whether profileID belongs to userID.
	OwnsProfile(ctx context.Context, userID, profileID string) (bool, error)
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

type Service struct {
	repo     Repository
	profiles ProfileDirectory
}

func NewService(repo Repository, profiles ProfileDirectory) *Service {
	return &Service{repo: repo, profiles: profiles}
}

// Invite creates a pending link from requesterID to the account resolved
// from contact. profileID selects which of the requester's profiles the link
// exposes; when empty the primary profile is used.
func (s *Service) Invite(ctx context.Context, requesterID, contact, profileID string) (*Link, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, ErrInvalidContact
	}
	// Email invites are not supported; contacts are phone numbers.
	if strings.Contains(contact, "@") {
		return nil, ErrInvalidContact
	}

	recipientID, ok, err := s.profiles.ResolveContact(ctx, contact)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrContactNotFound
	}
	if recipientID == requesterID {
		return nil, ErrSelfInvite
	}

	profileID = strings.TrimSpace(profileID)
	if profileID != "" {
		owns, err := s.profiles.OwnsProfile(ctx, requesterID, profileID)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, ErrNoProfile
		}
	} else {
		primary, ok, err := s.profiles.PrimaryProfileID(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoProfile
		}
		profileID = primary
	}

	link := Link{
		ID:             uuid.NewString(),
		RequesterID:    requesterID,
		RecipientID:    recipientID,
		OwnerProfileID: profileID,
		Status:         StatusPending,
	}
	if err := s.repo.CreateLink(ctx, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// Accept transitions a pending link to accepted. Only the recipient may
// respond, and only while the link is pending.
func (s *Service) Accept(ctx context.Context, linkID, actorID string) (*Link, error) {
	return s.respond(ctx, linkID, actorID, StatusAccepted)
}

// Decline transitions a pending link to declined.
func (s *Service) Decline(ctx context.Context, linkID, actorID string) (*Link, error) {
	return s.respond(ctx, linkID, actorID, StatusDeclined)
}

func (s *Service) respond(ctx context.Context, linkID, actorID, decision string) (*Link, error) {
	link, err := s.repo.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.RecipientID != actorID {
		return nil, ErrNotRecipient
	}
	if link.Status != StatusPending {
		return nil, ErrLinkNotPending
	}

	changed, err := s.repo.UpdateStatus(ctx, linkID, StatusPending, decision)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Another response landed first; the row is terminal now.
		return nil, ErrLinkNotPending
	}

	link.Status = decision
	return link, nil
}

// Remove deletes a link. The requester may always remove; the recipient may
// remove only a declined link. There is no undo: re-establishing sharing
// requires a fresh invite.
func (s *Service) Remove(ctx context.Context, linkID, actorID string) error {
	link, err := s.repo.GetLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.RequesterID != actorID {
		if link.RecipientID == actorID && link.Status == StatusDeclined {
			return s.repo.DeleteLink(ctx, linkID)
		}
		return ErrNotRequester
	}
	return s.repo.DeleteLink(ctx, linkID)
}

// UpdateRole sets the relationship label on an accepted link. Only the
// requester may change it, and only to a recognized role.
func (s *Service) UpdateRole(ctx context.Context, linkID, actorID, role string) (*Link, error) {
	// Normalize folds unknown labels into friend, so validate the literal
	// input first: only the two recognized roles are assignable.
	if !isKnownRole(role) {
		return nil, ErrInvalidRole
	}
	normalized := access.Normalize(role)

	link, err := s.repo.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.RequesterID != actorID {
		return nil, ErrNotRequester
	}
	if link.Status != StatusAccepted {
		return nil, ErrLinkNotAccepted
	}

	if err := s.repo.UpdateRelationship(ctx, linkID, string(normalized)); err != nil {
		return nil, err
	}
	link.Relationship = string(normalized)
	return link, nil
}

func isKnownRole(role string) bool {
	normalized := strings.ToLower(strings.TrimSpace(role))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	return normalized == "family" || normalized == "friend"
}

// Links returns the caller's outgoing and incoming links with display names
// attached. Name resolution is best-effort: on failure every member falls
// back to a placeholder rather than failing the listing.
func (s *Service) Links(ctx context.Context, userID string) (*CircleView, error) {
	outgoing, err := s.repo.ListByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.repo.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]string, 0, len(outgoing)+len(incoming))
	seen := make(map[string]struct{})
	collect := func(id string) {
		if id == "" || id == userID {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		memberIDs = append(memberIDs, id)
	}
	for _, link := range outgoing {
		collect(link.RecipientID)
	}
	for _, link := range incoming {
		collect(link.RequesterID)
	}

	names, err := s.profiles.DisplayNames(ctx, memberIDs)
	if err != nil {
		names = nil
	}

	view := &CircleView{
		Outgoing: make([]LinkSummary, 0, len(outgoing)),
		Incoming: make([]LinkSummary, 0, len(incoming)),
	}
	for _, link := range outgoing {
		view.Outgoing = append(view.Outgoing, toSummary(link, link.RecipientID, names))
	}
	for _, link := range incoming {
		view.Incoming = append(view.Incoming, toSummary(link, link.RequesterID, names))
	}
	return view, nil
}

// GetLink returns a link only to one of its two parties.
func (s *Service) GetLink(ctx context.Context, linkID, actorID string) (*Link, error) {
	link, err := s.repo.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.RequesterID != actorID && link.RecipientID != actorID {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

// CanAccessMedicalData reports whether actorID may read medical data through
// linkID. Only the recipient of an accepted link with the family role
// qualifies; on success the link's subject profile is returned so the caller
// cannot pick a vault of its own choosing.
func (s *Service) CanAccessMedicalData(ctx context.Context, actorID, linkID string) (string, error) {
	link, err := s.repo.GetLink(ctx, linkID)
	if err != nil {
		return "", err
	}

	view := access.LinkView{
		RequesterID:  link.RequesterID,
		RecipientID:  link.RecipientID,
		Status:       link.Status,
		Relationship: link.Relationship,
	}
	if !access.CanViewLinkData(view, actorID) {
		return "", ErrAccessDenied
	}
	return link.OwnerProfileID, nil
}

func toSummary(link Link, memberID string, names map[string]string) LinkSummary {
	name := names[memberID]
	if strings.TrimSpace(name) == "" {
		name = unknownMemberName
	}
	return LinkSummary{
		ID:             link.ID,
		MemberID:       memberID,
		OwnerProfileID: link.OwnerProfileID,
		Status:         link.Status,
		Relationship:   link.Relationship,
		DisplayName:    name,
		CreatedAt:      link.CreatedAt,
		UpdatedAt:      link.UpdatedAt,
	}
}
