package circle

import (
	"context"
	"errors"
	"testing"
)

type fakeLinkRepo struct {
	links map[string]*Link
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[string]*Link)}
}

func (r *fakeLinkRepo) GetLink(ctx context.Context, linkID string) (*Link, error) {
	link, ok := r.links[linkID]
	if !ok {
		return nil, ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (r *fakeLinkRepo) CreateLink(ctx context.Context, link *Link) error {
	for _, existing := range r.links {
		if existing.RequesterID == link.RequesterID &&
			existing.RecipientID == link.RecipientID &&
			existing.Status != StatusDeclined {
			return ErrInviteExists
		}
	}
	copied := *link
	r.links[link.ID] = &copied
	return nil
}

func (r *fakeLinkRepo) UpdateStatus(ctx context.Context, linkID, from, to string) (bool, error) {
	link, ok := r.links[linkID]
	if !ok || link.Status != from {
		return false, nil
	}
	link.Status = to
	return true, nil
}

func (r *fakeLinkRepo) UpdateRelationship(ctx context.Context, linkID, relationship string) error {
	link, ok := r.links[linkID]
	if !ok {
		return ErrLinkNotFound
	}
	link.Relationship = relationship
	return nil
}

func (r *fakeLinkRepo) DeleteLink(ctx context.Context, linkID string) error {
	delete(r.links, linkID)
	return nil
}

func (r *fakeLinkRepo) ListByRequester(ctx context.Context, userID string) ([]Link, error) {
	var result []Link
	for _, link := range r.links {
		if link.RequesterID == userID {
			result = append(result, *link)
		}
	}
	return result, nil
}

func (r *fakeLinkRepo) ListByRecipient(ctx context.Context, userID string) ([]Link, error) {
	var result []Link
	for _, link := range r.links {
		if link.RecipientID == userID {
			result = append(result, *link)
		}
	}
	return result, nil
}

type fakeDirectory struct {
	contacts map[string]string
	primary  map[string]string
	names    map[string]string
	namesErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		contacts: make(map[string]string),
		primary:  make(map[string]string),
		names:    make(map[string]string),
	}
}

func (d *fakeDirectory) ResolveContact(ctx context.Context, contact string) (string, bool, error) {
	userID, ok := d.contacts[contact]
	return userID, ok, nil
}

func (d *fakeDirectory) PrimaryProfileID(ctx context.Context, userID string) (string, bool, error) {
	profileID, ok := d.primary[userID]
	return profileID, ok, nil
}

func (d *fakeDirectory) OwnsProfile(ctx context.Context, userID, profileID string) (bool, error) {
	return d.primary[userID] == profileID, nil
}

func (d *fakeDirectory) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	if d.namesErr != nil {
		return nil, d.namesErr
	}
	result := make(map[string]string)
	for _, id := range userIDs {
		if name, ok := d.names[id]; ok {
			result[id] = name
		}
	}
	return result, nil
}

func newTestService() (*Service, *fakeLinkRepo, *fakeDirectory) {
	repo := newFakeLinkRepo()
	dir := newFakeDirectory()
	return NewService(repo, dir), repo, dir
}

func TestInviteSuccess(t *testing.T) {
	svc, repo, dir := newTestService()
	dir.contacts["+15550100"] = "user-p"
	dir.primary["user-r"] = "profile-r"

	link, err := svc.Invite(context.Background(), "user-r", "+15550100", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if link.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", link.Status)
	}
	if link.RequesterID != "user-r" || link.RecipientID != "user-p" {
		t.Fatalf("unexpected parties: %+v", link)
	}
	if link.OwnerProfileID != "profile-r" {
		t.Fatalf("expected primary profile, got %q", link.OwnerProfileID)
	}
	if _, ok := repo.links[link.ID]; !ok {
		t.Fatalf("expected link stored")
	}
}

func TestInviteInvalidContact(t *testing.T) {
	svc, _, dir := newTestService()
	dir.primary["user-r"] = "profile-r"

	for _, contact := range []string{"", "   ", "someone@example.com"} {
		if _, err := svc.Invite(context.Background(), "user-r", contact, ""); !errors.Is(err, ErrInvalidContact) {
			t.Errorf("contact %q: expected ErrInvalidContact, got %v", contact, err)
		}
	}
}

func TestInviteContactNotFound(t *testing.T) {
	svc, _, dir := newTestService()
	dir.primary["user-r"] = "profile-r"

	if _, err := svc.Invite(context.Background(), "user-r", "+15550199", ""); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestInviteSelf(t *testing.T) {
	svc, _, dir := newTestService()
	dir.contacts["+15550100"] = "user-r"
	dir.primary["user-r"] = "profile-r"

	if _, err := svc.Invite(context.Background(), "user-r", "+15550100", ""); !errors.Is(err, ErrSelfInvite) {
		t.Fatalf("expected ErrSelfInvite, got %v", err)
	}
}

func TestInviteNoProfile(t *testing.T) {
	svc, _, dir := newTestService()
	dir.contacts["+15550100"] = "user-p"

	if _, err := svc.Invite(context.Background(), "user-r", "+15550100", ""); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestInviteForeignProfileRejected(t *testing.T) {
	svc, _, dir := newTestService()
	dir.contacts["+15550100"] = "user-p"
	dir.primary["user-r"] = "profile-r"

	if _, err := svc.Invite(context.Background(), "user-r", "+15550100", "profile-x"); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestInviteDuplicate(t *testing.T) {
	svc, _, dir := newTestService()
	dir.contacts["+15550100"] = "user-p"
	dir.primary["user-r"] = "profile-r"

	if _, err := svc.Invite(context.Background(), "user-r", "+15550100", ""); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	if _, err := svc.Invite(context.Background(), "user-r", "+15550100", ""); !errors.Is(err, ErrInviteExists) {
		t.Fatalf("expected ErrInviteExists, got %v", err)
	}
}

func TestAcceptSuccess(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusPending}

	link, err := svc.Accept(context.Background(), "link-1", "user-p")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if link.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %q", link.Status)
	}
	if repo.links["link-1"].Status != StatusAccepted {
		t.Fatalf("expected stored status accepted, got %q", repo.links["link-1"].Status)
	}
}

func TestRespondWrongActor(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusPending}

	if _, err := svc.Accept(context.Background(), "link-1", "user-r"); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("expected ErrNotRecipient, got %v", err)
	}
	if repo.links["link-1"].Status != StatusPending {
		t.Fatalf("status must be unchanged after rejected respond")
	}
}

func TestRespondTerminalState(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted}

	if _, err := svc.Decline(context.Background(), "link-1", "user-p"); !errors.Is(err, ErrLinkNotPending) {
		t.Fatalf("expected ErrLinkNotPending, got %v", err)
	}
	if repo.links["link-1"].Status != StatusAccepted {
		t.Fatalf("terminal status must not change")
	}
}

func TestRespondNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Accept(context.Background(), "missing", "user-p"); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestRemoveByRequester(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted}

	if err := svc.Remove(context.Background(), "link-1", "user-r"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.links["link-1"]; ok {
		t.Fatalf("expected link deleted")
	}
}

func TestRemoveByRecipientOnlyWhenDeclined(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted}

	if err := svc.Remove(context.Background(), "link-1", "user-p"); !errors.Is(err, ErrNotRequester) {
		t.Fatalf("expected ErrNotRequester, got %v", err)
	}

	repo.links["link-1"].Status = StatusDeclined
	if err := svc.Remove(context.Background(), "link-1", "user-p"); err != nil {
		t.Fatalf("expected declined link removable by recipient, got %v", err)
	}
	if _, ok := repo.links["link-1"]; ok {
		t.Fatalf("expected link deleted")
	}
}

func TestUpdateRole(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted, Relationship: "friend"}

	link, err := svc.UpdateRole(context.Background(), "link-1", "user-r", "Family")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if link.Relationship != "family" {
		t.Fatalf("expected normalized family role, got %q", link.Relationship)
	}
}

func TestUpdateRoleRejections(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted}
	repo.links["link-2"] = &Link{ID: "link-2", RequesterID: "user-r", RecipientID: "user-p2", Status: StatusPending}

	if _, err := svc.UpdateRole(context.Background(), "link-1", "user-r", "guardian"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.UpdateRole(context.Background(), "link-1", "user-p", "family"); !errors.Is(err, ErrNotRequester) {
		t.Errorf("expected ErrNotRequester, got %v", err)
	}
	if _, err := svc.UpdateRole(context.Background(), "link-2", "user-r", "family"); !errors.Is(err, ErrLinkNotAccepted) {
		t.Errorf("expected ErrLinkNotAccepted, got %v", err)
	}
}

func TestLinksView(t *testing.T) {
	svc, repo, dir := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted}
	repo.links["link-2"] = &Link{ID: "link-2", RequesterID: "user-r", RecipientID: "user-q", Status: StatusPending}
	repo.links["link-3"] = &Link{ID: "link-3", RequesterID: "user-z", RecipientID: "user-r", Status: StatusAccepted}
	dir.names["user-p"] = "Priya"

	view, err := svc.Links(context.Background(), "user-r")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(view.Outgoing) != 2 {
		t.Fatalf("expected 2 outgoing links, got %d", len(view.Outgoing))
	}
	if len(view.Incoming) != 1 {
		t.Fatalf("expected 1 incoming link, got %d", len(view.Incoming))
	}

	byID := make(map[string]LinkSummary)
	for _, summary := range view.Outgoing {
		byID[summary.ID] = summary
	}
	if byID["link-1"].DisplayName != "Priya" {
		t.Fatalf("expected resolved name, got %q", byID["link-1"].DisplayName)
	}
	if byID["link-2"].DisplayName != unknownMemberName {
		t.Fatalf("expected fallback name, got %q", byID["link-2"].DisplayName)
	}
	if view.Incoming[0].MemberID != "user-z" {
		t.Fatalf("incoming member should be the requester, got %q", view.Incoming[0].MemberID)
	}
}

func TestLinksViewNameLookupFailureIsNonFatal(t *testing.T) {
	svc, repo, dir := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted}
	dir.namesErr = errors.New("directory down")

	view, err := svc.Links(context.Background(), "user-r")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.Outgoing[0].DisplayName != unknownMemberName {
		t.Fatalf("expected fallback name, got %q", view.Outgoing[0].DisplayName)
	}
}

func TestGetLinkPartyOnly(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{ID: "link-1", RequesterID: "user-r", RecipientID: "user-p", Status: StatusAccepted}

	if _, err := svc.GetLink(context.Background(), "link-1", "user-r"); err != nil {
		t.Fatalf("requester should see link: %v", err)
	}
	if _, err := svc.GetLink(context.Background(), "link-1", "user-p"); err != nil {
		t.Fatalf("recipient should see link: %v", err)
	}
	if _, err := svc.GetLink(context.Background(), "link-1", "user-x"); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("third party must get not found, got %v", err)
	}
}

func TestCanAccessMedicalData(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.links["link-1"] = &Link{
		ID: "link-1", RequesterID: "user-r", RecipientID: "user-p",
		OwnerProfileID: "profile-r", Status: StatusAccepted, Relationship: "family",
	}

	profileID, err := svc.CanAccessMedicalData(context.Background(), "user-p", "link-1")
	if err != nil {
		t.Fatalf("expected access for family recipient, got %v", err)
	}
	if profileID != "profile-r" {
		t.Fatalf("expected the link's subject profile, got %q", profileID)
	}

	denied := []struct {
		name  string
		actor string
		mut   func(*Link)
	}{
		{"requester side", "user-r", func(l *Link) {}},
		{"third party", "user-x", func(l *Link) {}},
		{"pending link", "user-p", func(l *Link) { l.Status = StatusPending }},
		{"declined link", "user-p", func(l *Link) { l.Status = StatusDeclined }},
		{"friend role", "user-p", func(l *Link) { l.Relationship = "friend" }},
		{"empty role", "user-p", func(l *Link) { l.Relationship = "" }},
	}
	for _, tc := range denied {
		link := Link{
			ID: "link-1", RequesterID: "user-r", RecipientID: "user-p",
			OwnerProfileID: "profile-r", Status: StatusAccepted, Relationship: "family",
		}
		tc.mut(&link)
		repo.links["link-1"] = &link

		if _, err := svc.CanAccessMedicalData(context.Background(), tc.actor, "link-1"); !errors.Is(err, ErrAccessDenied) {
			t.Errorf("%s: expected ErrAccessDenied, got %v", tc.name, err)
		}
	}

	if _, err := svc.CanAccessMedicalData(context.Background(), "user-p", "missing"); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}
