// internal/controller/customer_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/access"
	"github.com/unclebandit/clinic-crm/internal/logging"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/outreach"
	"github.com/unclebandit/clinic-crm/internal/service"
	"github.com/unclebandit/clinic-crm/internal/session"
)

// CustomerController serves the follow-up list. Every handler expects the
// session user on the request context (see session.Require).
type CustomerController struct {
	SyncService *service.SyncService
	Drafter     *outreach.Composer
	Log         logrus.FieldLogger
}

func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	customers := c.SyncService.FetchCustomers(r.Context())
	filtered := access.Filter{Search: q.Get("search"), Status: q.Get("status")}.Apply(customers, user)
	data, pagination := access.Paginate(filtered, page, pageSize)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       data,
		"pagination": pagination, // page, page_size, total_count, total_pages
		"stats":      access.Stats(filtered),
		"superuser":  access.IsSuperuser(user),
	})
}

func (c *CustomerController) UpdateFollowUp(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	status, ok := model.ParseStatus(body.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(body.Status))
		return
	}

	if !access.CanSee(c.SyncService.Cached(r.Context()), user, id) {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	customers, task, err := c.SyncService.PushStatusUpdate(r.Context(), id, status, body.Notes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c.log().WithFields(logrus.Fields{
		"customer_id": id,
		"status":      status,
		"user":        user.Email,
	}).Info("follow-up updated")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": access.Visible(customers, user),
		"push": map[string]string{"state": task.State()},
	})
}

func (c *CustomerController) Sync(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	customers := c.SyncService.Resync(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": access.Visible(customers, user),
	})
}

func (c *CustomerController) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	visible := access.Visible(c.SyncService.Cached(r.Context()), user)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": len(visible),
		"stats": access.Stats(visible),
	})
}

func (c *CustomerController) DraftFollowUp(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var target *model.Customer
	for _, cust := range access.Visible(c.SyncService.Cached(r.Context()), user) {
		if cust.ID == id {
			cust := cust
			target = &cust
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	res, err := c.Drafter.Draft(r.Context(), *target)
	if err != nil {
		c.log().WithFields(logrus.Fields{"customer_id": id, "error": err}).Error("failed to draft follow-up")
		writeError(w, http.StatusBadGateway, "could not draft a message")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (c *CustomerController) RecentPushes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	pushes, err := c.SyncService.RecentPushes(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": pushes})
}

func (c *CustomerController) log() logrus.FieldLogger {
	return logging.OrStandard(c.Log)
}

func currentUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	u, ok := session.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
	}
	return u, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
