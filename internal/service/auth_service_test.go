package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/normalize"
	"github.com/unclebandit/clinic-crm/internal/seed"
	"github.com/unclebandit/clinic-crm/internal/service"
)

func TestAuthenticateFallbackList(t *testing.T) {
	auth := service.NewAuthService(nil, seed.Credentials(), quietLogger())

	cases := []struct {
		email, password string
		ok              bool
	}{
		{" Siam@Clinic.com ", "123", true},
		{"siam@clinic.com", " 123", true},
		{"siam@clinic.com", "1234", false},
		{"nobody@clinic.com", "123", false},
		{"", "", false},
	}
	for _, tc := range cases {
		u, ok := auth.Authenticate(context.Background(), tc.email, tc.password)
		if ok != tc.ok {
			t.Errorf("Authenticate(%q, %q) ok=%v, want %v", tc.email, tc.password, ok, tc.ok)
			continue
		}
		if ok && (u.Email != "siam@clinic.com" || u.Branch != model.BranchSiam) {
			t.Errorf("unexpected user %+v", u)
		}
	}
}

func TestAuthenticateRemoteUsersFirst(t *testing.T) {
	source := &MockSource{users: []normalize.Record{
		{"Email": "siam@clinic.com", "Password": 123, "Name": "Remote Siam", "Branch": "Siam"},
		{"email": "new@clinic.com", "password": "pw"},
	}}
	auth := service.NewAuthService(source, seed.Credentials(), quietLogger())

	u, ok := auth.Authenticate(context.Background(), "SIAM@clinic.com", "123")
	if !ok || u.Name != "Remote Siam" {
		t.Errorf("expected remote match, got %+v ok=%v", u, ok)
	}

	u, ok = auth.Authenticate(context.Background(), "new@clinic.com", "pw")
	if !ok {
		t.Fatal("expected remote-only user to log in")
	}
	if u.Name != "Staff" || u.Branch != model.BranchSiam || u.Email != "new@clinic.com" {
		t.Errorf("expected defaults, got %+v", u)
	}
}

func TestAuthenticateRemoteFailureUsesFallback(t *testing.T) {
	source := &MockSource{err: errors.New("timeout")}
	auth := service.NewAuthService(source, seed.Credentials(), quietLogger())

	u, ok := auth.Authenticate(context.Background(), "admin@clinic.com", "123")
	if !ok || u.Branch != model.BranchAll {
		t.Errorf("expected fallback admin, got %+v ok=%v", u, ok)
	}
}
