package profile

import (
	"context"
	"errors"
	"testing"
)

type fakeProfileRepo struct {
	profiles map[string]*Profile
	byPhone  map[string]string
	upserted []*Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[string]*Profile),
		byPhone:  make(map[string]string),
	}
}

func (r *fakeProfileRepo) GetProfile(ctx context.Context, profileID string) (*Profile, error) {
	p, ok := r.profiles[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) GetPrimaryByUser(ctx context.Context, userID string) (*Profile, error) {
	for _, p := range r.profiles {
		if p.UserID == userID && p.IsPrimary {
			return p, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (r *fakeProfileRepo) FindUserByPhone(ctx context.Context, phones []string) (string, bool, error) {
	for _, phone := range phones {
		if userID, ok := r.byPhone[phone]; ok {
			return userID, true, nil
		}
	}
	return "", false, nil
}

func (r *fakeProfileRepo) ListByUsers(ctx context.Context, userIDs []string) ([]Profile, error) {
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	var result []Profile
	for _, p := range r.profiles {
		if _, ok := wanted[p.UserID]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProfileRepo) Upsert(ctx context.Context, p *Profile) error {
	r.upserted = append(r.upserted, p)
	return nil
}

func TestResolveContact(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.byPhone["+15551234567"] = "user-1"
	svc := NewService(repo)

	cases := []string{
		"+15551234567",
		"15551234567",
		"+1 (555) 123-4567",
		"1-555-123-4567",
		"001 555 123 4567",
	}
	for _, contact := range cases {
		userID, ok, err := svc.ResolveContact(context.Background(), contact)
		if err != nil {
			t.Fatalf("contact %q: %v", contact, err)
		}
		if !ok || userID != "user-1" {
			t.Errorf("contact %q: expected user-1, got (%q, %v)", contact, userID, ok)
		}
	}
}

func TestResolveContactUnknown(t *testing.T) {
	svc := NewService(newFakeProfileRepo())

	_, ok, err := svc.ResolveContact(context.Background(), "+15550000000")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestResolveContactInvalid(t *testing.T) {
	svc := NewService(newFakeProfileRepo())

	for _, contact := range []string{"", "abc", "555+123", "12345", "+123456789012345678"} {
		if _, _, err := svc.ResolveContact(context.Background(), contact); !errors.Is(err, ErrInvalidPhone) {
			t.Errorf("contact %q: expected ErrInvalidPhone, got %v", contact, err)
		}
	}
}

func TestPrimaryProfileID(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profiles["p1"] = &Profile{ID: "p1", UserID: "user-1", IsPrimary: true}
	repo.profiles["p2"] = &Profile{ID: "p2", UserID: "user-1"}
	svc := NewService(repo)

	profileID, ok, err := svc.PrimaryProfileID(context.Background(), "user-1")
	if err != nil || !ok || profileID != "p1" {
		t.Fatalf("expected (p1, true), got (%q, %v, %v)", profileID, ok, err)
	}

	_, ok, err = svc.PrimaryProfileID(context.Background(), "user-none")
	if err != nil {
		t.Fatalf("missing profile must not error, got %v", err)
	}
	if ok {
		t.Fatalf("expected no primary profile")
	}
}

func TestOwnsProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profiles["p1"] = &Profile{ID: "p1", UserID: "user-1"}
	svc := NewService(repo)

	owns, err := svc.OwnsProfile(context.Background(), "user-1", "p1")
	if err != nil || !owns {
		t.Fatalf("expected owned, got (%v, %v)", owns, err)
	}
	owns, err = svc.OwnsProfile(context.Background(), "user-2", "p1")
	if err != nil || owns {
		t.Fatalf("expected not owned, got (%v, %v)", owns, err)
	}
	owns, err = svc.OwnsProfile(context.Background(), "user-1", "missing")
	if err != nil || owns {
		t.Fatalf("unknown profile must read as not owned, got (%v, %v)", owns, err)
	}
}

func TestDisplayNamesPrefersPrimary(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.profiles["p1"] = &Profile{ID: "p1", UserID: "user-1", DisplayName: "Ada", IsPrimary: true}
	repo.profiles["p2"] = &Profile{ID: "p2", UserID: "user-1", DisplayName: "Kid"}
	repo.profiles["p3"] = &Profile{ID: "p3", UserID: "user-2", DisplayName: "Ben", IsPrimary: true}
	svc := NewService(repo)

	names, err := svc.DisplayNames(context.Background(), []string{"user-1", "user-2", "user-3"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if names["user-1"] != "Ada" || names["user-2"] != "Ben" {
		t.Fatalf("unexpected names: %v", names)
	}
	if _, ok := names["user-3"]; ok {
		t.Fatalf("user without profile must be absent")
	}
}

func TestEnsureProfileNormalizesPhone(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewService(repo)

	if err := svc.EnsureProfile(context.Background(), "user-1", "  Ada  ", "1 (555) 123-4567"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserted))
	}
	p := repo.upserted[0]
	if p.DisplayName != "Ada" || p.Phone != "+15551234567" || !p.IsPrimary {
		t.Fatalf("unexpected profile: %+v", p)
	}
}
