package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/clinic-crm/internal/controller"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/outreach"
	"github.com/unclebandit/clinic-crm/internal/queue"
	"github.com/unclebandit/clinic-crm/internal/repository"
	"github.com/unclebandit/clinic-crm/internal/service"
	"github.com/unclebandit/clinic-crm/internal/session"
)

var (
	siamStaff = model.User{Email: "siam@clinic.com", Name: "Sales Siam", Branch: model.BranchSiam}
	admin     = model.User{Email: "admin@clinic.com", Name: "Super Admin", Branch: model.BranchAll}
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newRouter serves the controller with user injected as the session user.
func newRouter(t *testing.T, mirror repository.MirrorRepository, user model.User) http.Handler {
	t.Helper()
	log := quietLogger()
	svc := service.NewSyncService(mirror, nil, queue.NewInMemoryQueue(0, log), "status-updates", repository.NewMemoryPushLog(10), log)
	ctrl := &controller.CustomerController{
		SyncService: svc,
		Drafter:     &outreach.Composer{Fallback: &outreach.TemplateDrafter{Template: "Hi {name}"}, Log: log},
		Log:         log,
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(session.WithUser(req.Context(), user)))
		})
	})
	r.Get("/customers", ctrl.ListCustomers)
	r.Post("/customers/{id}/follow-up", ctrl.UpdateFollowUp)
	r.Post("/customers/{id}/draft", ctrl.DraftFollowUp)
	r.Post("/sync", ctrl.Sync)
	r.Get("/stats", ctrl.Stats)
	r.Get("/sync/pushes", ctrl.RecentPushes)
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, reader))
	return w.Result()
}

type listResponse struct {
	Data       []model.Customer `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PageSize   int `json:"page_size"`
		TotalCount int `json:"total_count"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
	Stats []struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	} `json:"stats"`
	Superuser bool `json:"superuser"`
}

func TestListCustomersBranchScope(t *testing.T) {
	h := newRouter(t, repository.NewMemoryMirror(), siamStaff)

	resp := do(t, h, http.MethodGet, "/customers", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res listResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Superuser {
		t.Error("Siam staff is not a superuser")
	}
	if res.Pagination.TotalCount != 3 {
		t.Errorf("expected 3 Siam customers, got %d", res.Pagination.TotalCount)
	}
	for _, c := range res.Data {
		if c.Branch != model.BranchSiam {
			t.Errorf("customer %s from %s leaked", c.ID, c.Branch)
		}
	}
}

func TestListCustomersPagination(t *testing.T) {
	totalCustomers := 25
	customers := []model.Customer{}
	for i := 1; i <= totalCustomers; i++ {
		customers = append(customers, model.Customer{
			ID:     strconv.Itoa(i),
			Name:   "Customer " + strconv.Itoa(i),
			Branch: model.BranchAri,
			Status: model.Pending,
		})
	}
	customers = append(customers, model.Customer{ID: "booked", Branch: model.BranchAri, Status: model.Booked})

	mirror := repository.NewMemoryMirror()
	_ = mirror.Save(context.Background(), customers)
	h := newRouter(t, mirror, admin)

	pageSize := 10
	seen := map[string]bool{}
	totalPages := (totalCustomers + pageSize - 1) / pageSize

	for page := 1; page <= totalPages; page++ {
		resp := do(t, h, http.MethodGet,
			"/customers?page="+strconv.Itoa(page)+"&page_size="+strconv.Itoa(pageSize)+"&status=Pending", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var res listResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if res.Pagination.Page != page {
			t.Errorf("expected page %d, got %d", page, res.Pagination.Page)
		}
		if res.Pagination.TotalCount != totalCustomers {
			t.Errorf("expected total count %d, got %d", totalCustomers, res.Pagination.TotalCount)
		}
		if !res.Superuser {
			t.Error("admin should be a superuser")
		}

		for _, c := range res.Data {
			if seen[c.ID] {
				t.Errorf("duplicate customer %s across pages", c.ID)
			}
			seen[c.ID] = true
			if c.Status != model.Pending {
				t.Errorf("expected Pending, got %s", c.Status)
			}
		}
	}

	if len(seen) != totalCustomers {
		t.Errorf("expected %d unique customers, got %d", totalCustomers, len(seen))
	}
}

func TestUpdateFollowUp(t *testing.T) {
	mirror := repository.NewMemoryMirror()
	h := newRouter(t, mirror, siamStaff)

	resp := do(t, h, http.MethodPost, "/customers/1/follow-up", map[string]string{"status": "booked", "notes": "Friday 3pm"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res struct {
		Data []model.Customer `json:"data"`
		Push struct {
			State string `json:"state"`
		} `json:"push"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Push.State != model.PushLocal {
		t.Errorf("expected local push state, got %q", res.Push.State)
	}

	stored, _, _ := mirror.Load(context.Background())
	for _, c := range stored {
		if c.ID == "1" && (c.Status != model.Booked || c.Notes != "Friday 3pm") {
			t.Errorf("mirror not updated: %+v", c)
		}
	}
}

func TestUpdateFollowUpRejects(t *testing.T) {
	h := newRouter(t, repository.NewMemoryMirror(), siamStaff)

	cases := []struct {
		name   string
		target string
		body   interface{}
		want   int
	}{
		{"unknown status", "/customers/1/follow-up", map[string]string{"status": "Maybe"}, http.StatusBadRequest},
		{"other branch", "/customers/3/follow-up", map[string]string{"status": "Booked"}, http.StatusNotFound},
		{"missing customer", "/customers/nope/follow-up", map[string]string{"status": "Booked"}, http.StatusNotFound},
		{"bad body", "/customers/1/follow-up", nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := do(t, h, http.MethodPost, tc.target, tc.body)
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}
}

func TestSyncLocalOnlyReturnsSeed(t *testing.T) {
	mirror := repository.NewMemoryMirror()
	_ = mirror.Save(context.Background(), []model.Customer{{ID: "stale", Branch: model.BranchSiam}})
	h := newRouter(t, mirror, admin)

	resp := do(t, h, http.MethodPost, "/sync", nil)
	var res struct {
		Data []model.Customer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(res.Data) != 5 || res.Data[0].ID != "1" {
		t.Errorf("expected seed data, got %+v", res.Data)
	}
}

func TestStatsAndDraft(t *testing.T) {
	h := newRouter(t, repository.NewMemoryMirror(), siamStaff)

	resp := do(t, h, http.MethodGet, "/stats", nil)
	var stats struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 {
		t.Errorf("expected 3 visible customers, got %d", stats.Total)
	}

	resp = do(t, h, http.MethodPost, "/customers/1/draft", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var draft outreach.Result
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		t.Fatal(err)
	}
	if draft.Source != "template" || draft.Message == "" {
		t.Errorf("unexpected draft %+v", draft)
	}

	if resp := do(t, h, http.MethodPost, "/customers/3/draft", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for another branch, got %d", resp.StatusCode)
	}
}

func TestRecentPushes(t *testing.T) {
	h := newRouter(t, repository.NewMemoryMirror(), admin)
	_ = do(t, h, http.MethodPost, "/customers/2/follow-up", map[string]string{"status": "Contacted"})

	resp := do(t, h, http.MethodGet, "/sync/pushes?limit=5", nil)
	var res struct {
		Data []model.StatusPush `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Data) != 1 || res.Data[0].CustomerID != "2" || res.Data[0].State != model.PushLocal {
		t.Errorf("unexpected pushes %+v", res.Data)
	}
}

func TestListCustomersStatsFollowFilters(t *testing.T) {
	h := newRouter(t, repository.NewMemoryMirror(), siamStaff)

	cases := []struct {
		query string
		want  map[string]int
	}{
		{"/customers?status=Pending", map[string]int{"Pending": 1}},
		{"/customers?search=081", map[string]int{"Pending": 1}},
		{"/customers", map[string]int{"Pending": 1, "Contacted": 1, "Not Interested": 1}},
	}
	for _, tc := range cases {
		resp := do(t, h, http.MethodGet, tc.query, nil)
		var res listResponse
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			t.Fatalf("%s: failed to decode response: %v", tc.query, err)
		}
		got := map[string]int{}
		for _, s := range res.Stats {
			got[s.Status] = s.Count
		}
		if len(got) != len(tc.want) {
			t.Errorf("%s: expected stats %v, got %v", tc.query, tc.want, got)
			continue
		}
		for status, n := range tc.want {
			if got[status] != n {
				t.Errorf("%s: expected %d %s, got %d", tc.query, n, status, got[status])
			}
		}
	}
}
