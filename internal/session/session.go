// Package session keeps the signed-in user between requests.
package session

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/unclebandit/clinic-crm/internal/model"
)

const cookieName = "clinic-crm-session"

const (
	keyEmail  = "email"
	keyName   = "name"
	keyBranch = "branch"
)

// Store is the session port used by the HTTP layer.
type Store interface {
	Current(r *http.Request) (model.User, bool)
	Start(w http.ResponseWriter, r *http.Request, u model.User) error
	End(w http.ResponseWriter, r *http.Request) error
}

// CookieStore keeps the user in a signed browser-session cookie.
type CookieStore struct {
	store *sessions.CookieStore
}

func NewCookieStore(secret string) *CookieStore {
	s := sessions.NewCookieStore([]byte(secret))
	s.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieStore{store: s}
}

func (c *CookieStore) Current(r *http.Request) (model.User, bool) {
	sess, err := c.store.Get(r, cookieName)
	if err != nil || sess.IsNew {
		return model.User{}, false
	}
	email, _ := sess.Values[keyEmail].(string)
	if email == "" {
		return model.User{}, false
	}
	name, _ := sess.Values[keyName].(string)
	branch, _ := sess.Values[keyBranch].(string)
	return model.User{Email: email, Name: name, Branch: branch}, true
}

func (c *CookieStore) Start(w http.ResponseWriter, r *http.Request, u model.User) error {
	// a stale or foreign cookie only yields a fresh session
	sess, _ := c.store.Get(r, cookieName)
	sess.Values[keyEmail] = u.Email
	sess.Values[keyName] = u.Name
	sess.Values[keyBranch] = u.Branch
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *CookieStore) End(w http.ResponseWriter, r *http.Request) error {
	sess, _ := c.store.Get(r, cookieName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

var _ Store = (*CookieStore)(nil)
