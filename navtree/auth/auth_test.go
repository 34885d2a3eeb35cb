package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/types"
)

func TestIssueAndValidate(t *testing.T) {
	a, err := NewAuthenticator("s3cret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	want := User{ID: "u1", Name: "ada", Permissions: []string{PermChangeNavTree}, Staff: true}

	token, err := a.Issue(want)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := a.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejects(t *testing.T) {
	a, _ := NewAuthenticator("s3cret", time.Hour)
	other, _ := NewAuthenticator("other", time.Hour)
	stale, _ := NewAuthenticator("s3cret", time.Hour, WithClock(func() time.Time {
		return time.Now().Add(-48 * time.Hour)
	}))

	forged, _ := other.Issue(User{ID: "u1"})
	expired, _ := stale.Issue(User{ID: "u1"})
	valid, _ := a.Issue(User{ID: "u1"})
	promoted, _ := a.Issue(User{ID: "u1", Superuser: true})
	parts := strings.Split(valid, ".")
	parts[1] = strings.Split(promoted, ".")[1]
	tampered := strings.Join(parts, ".")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", forged},
		{"expired", expired},
		{"tampered", tampered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewAuthenticatorRequiresSecret(t *testing.T) {
	if _, err := NewAuthenticator("", 0); err == nil {
		t.Fatal("expected an error for an empty secret")
	}
	a, err := NewAuthenticator("x", 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", a.ttl, DefaultTTL)
	}
	if _, err := a.Issue(User{}); err == nil || !strings.Contains(err.Error(), "user id") {
		t.Errorf("expected missing user id error, got %v", err)
	}
}

func TestPermissionChecker(t *testing.T) {
	tree := types.Tree{ID: "t1", Name: "main"}
	tests := []struct {
		name string
		perm string
		user User
		want bool
	}{
		{"anonymous", "", User{}, false},
		{"no permission", "", User{ID: "u"}, false},
		{"editor", "", User{ID: "u", Permissions: []string{PermChangeNavTree}}, true},
		{"superuser", "", User{ID: "u", Superuser: true}, true},
		{"custom permission", "cms.edit", User{ID: "u", Permissions: []string{PermChangeNavTree}}, false},
		{"custom permission held", "cms.edit", User{ID: "u", Permissions: []string{"cms.edit"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := PermissionChecker{Permission: tt.perm}
			if got := pc.CanModify(tt.user, tree); got != tt.want {
				t.Errorf("CanModify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserContext(t *testing.T) {
	if _, ok := UserFrom(context.Background()); ok {
		t.Fatal("empty context should carry no user")
	}
	u := User{ID: "u1", Superuser: true}
	got, ok := UserFrom(WithUser(context.Background(), u))
	if !ok || got.ID != "u1" {
		t.Errorf("UserFrom = (%+v, %v)", got, ok)
	}
	if diff := cmp.Diff(content.Viewer{Site: "a", Staff: true}, got.Viewer("a")); diff != "" {
		t.Errorf("viewer mismatch (-want +got):\n%s", diff)
	}
}
