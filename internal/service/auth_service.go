package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/normalize"
	"github.com/unclebandit/clinic-crm/internal/remote"
)

// AuthService matches staff credentials against the remote user sheet and
// then against a fixed fallback list. Emails compare trimmed and
// case-insensitively, passwords trimmed and exactly.
type AuthService struct {
	Source      remote.Source
	Credentials []model.Credential
	Log         logrus.FieldLogger
}

func NewAuthService(source remote.Source, credentials []model.Credential, log logrus.FieldLogger) *AuthService {
	return &AuthService{Source: source, Credentials: credentials, Log: logging.OrStandard(log)}
}

// Authenticate returns the session-safe user, or ok=false when nothing matched.
func (a *AuthService) Authenticate(ctx context.Context, email, password string) (model.User, bool) {
	wantEmail := normalizeEmail(email)
	wantPass := strings.TrimSpace(password)
	if wantEmail == "" {
		return model.User{}, false
	}

	if a.Source != nil {
		if u, ok := a.remoteMatch(ctx, wantEmail, wantPass, strings.TrimSpace(email)); ok {
			return u, true
		}
	}

	for _, c := range a.Credentials {
		if normalizeEmail(c.Email) == wantEmail && strings.TrimSpace(c.Password) == wantPass {
			return c.User(), true
		}
	}
	return model.User{}, false
}

func (a *AuthService) remoteMatch(ctx context.Context, wantEmail, wantPass, typedEmail string) (model.User, bool) {
	rows, err := a.Source.Users(ctx)
	if err != nil {
		logging.OrStandard(a.Log).WithFields(logrus.Fields{"action": remote.ActionGetUsers, "error": err}).
			Warn("failed to fetch users, trying fallback list")
		return model.User{}, false
	}
	for _, rec := range rows {
		e, _ := normalize.String(rec, "email")
		p, _ := normalize.String(rec, "password")
		if normalizeEmail(e) == wantEmail && strings.TrimSpace(p) == wantPass {
			return normalize.User(rec, typedEmail), true
		}
	}
	return model.User{}, false
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
