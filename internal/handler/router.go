package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/controller"
	"github.com/unclebandit/clinic-crm/internal/session"
)

// NewRouter mounts the auth and customer routes. Customer routes need a
// session.
func NewRouter(auth *AuthHandler, customers *controller.CustomerController, sessions session.Store, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth routes
	r.Post("/login", auth.Login)
	r.Post("/logout", auth.Logout)
	r.Get("/me", auth.Me)

	// Customer routes
	r.Group(func(r chi.Router) {
		r.Use(session.Require(sessions))
		r.Get("/customers", customers.ListCustomers)
		r.Post("/customers/{id}/follow-up", customers.UpdateFollowUp)
		r.Post("/customers/{id}/draft", customers.DraftFollowUp)
		r.Post("/sync", customers.Sync)
		r.Get("/sync/pushes", customers.RecentPushes)
		r.Get("/stats", customers.Stats)
	})

	return r
}

// RequestLogger logs one line per request through logrus.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			if log == nil {
				return
			}
			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Info("request")
		})
	}
}
