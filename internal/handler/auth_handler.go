// internal/handler/auth_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/session"
)

// Authenticator checks a staff login.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (model.User, bool)
}

// AuthHandler holds the dependencies for login-related HTTP handlers
type AuthHandler struct {
	Auth     Authenticator
	Sessions session.Store
	Log      logrus.FieldLogger
}

// Login checks the credentials and starts a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, ok := h.Auth.Authenticate(r.Context(), payload.Email, payload.Password)
	if !ok {
		h.log().WithField("email", payload.Email).Info("login rejected")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := h.Sessions.Start(w, r, user); err != nil {
		h.log().WithField("error", err).Error("failed to start session")
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	h.log().WithFields(logrus.Fields{"email": user.Email, "branch": user.Branch}).Info("user signed in")
	writeJSON(w, http.StatusOK, user)
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.End(w, r); err != nil {
		h.log().WithField("error", err).Warn("failed to clear session")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.Sessions.Current(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) log() logrus.FieldLogger {
	return logging.OrStandard(h.Log)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
