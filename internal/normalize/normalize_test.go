package normalize_test

import (
	"errors"
	"testing"

	appErrors "github.com/unclebandit/clinic-crm/internal/errors"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/normalize"
)

func fixedID() string { return "generated" }

func TestLookupIgnoresKeyCase(t *testing.T) {
	for _, key := range []string{"email", "Email", "EMAIL", "eMaIl"} {
		rec := normalize.Record{key: "siam@clinic.com"}
		got, ok := normalize.String(rec, "email")
		if !ok || got != "siam@clinic.com" {
			t.Errorf("key %q: expected siam@clinic.com, got %q (ok=%v)", key, got, ok)
		}
	}
}

func TestLookupCollisionPrecedence(t *testing.T) {
	rec := normalize.Record{"NAME": "upper", "Name": "title"}
	got, _ := normalize.String(rec, "name")
	if got != "title" {
		t.Errorf("expected lexically smallest key to win, got %q", got)
	}

	rec["name"] = "exact"
	got, _ = normalize.String(rec, "name")
	if got != "exact" {
		t.Errorf("expected exact key to win, got %q", got)
	}
}

func TestStringCoercion(t *testing.T) {
	rec := normalize.Record{"phone": float64(812345678), "id": float64(7), "vip": true, "gone": nil}

	if got, _ := normalize.String(rec, "phone"); got != "812345678" {
		t.Errorf("expected 812345678, got %q", got)
	}
	if got, _ := normalize.String(rec, "id"); got != "7" {
		t.Errorf("expected 7, got %q", got)
	}
	if got, _ := normalize.String(rec, "vip"); got != "true" {
		t.Errorf("expected true, got %q", got)
	}
	if _, ok := normalize.String(rec, "gone"); ok {
		t.Errorf("expected null value to count as missing")
	}
}

func TestCustomerDefaults(t *testing.T) {
	c, err := normalize.Customer(normalize.Record{}, fixedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.Customer{ID: "generated", Branch: "Siam", Status: model.Pending}
	if c != want {
		t.Errorf("expected %+v, got %+v", want, c)
	}
}

func TestCustomerMixedCaseRow(t *testing.T) {
	rec := normalize.Record{
		"ID":            float64(12),
		"Name":          "Anna",
		"PHONE":         "090-111-2222",
		"branch":        "Thonglor",
		"LastTreatment": "Ultraformer III",
		"servicedate":   "2023-10-18",
		"Status":        "Booked",
		"Notes":         "repeat",
	}
	c, err := normalize.Customer(rec, fixedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.Customer{
		ID: "12", Name: "Anna", Phone: "090-111-2222", Branch: "Thonglor",
		LastTreatment: "Ultraformer III", ServiceDate: "2023-10-18",
		Status: model.Booked, Notes: "repeat",
	}
	if c != want {
		t.Errorf("expected %+v, got %+v", want, c)
	}
}

func TestCustomerUnknownStatus(t *testing.T) {
	c, err := normalize.Customer(normalize.Record{"id": "9", "status": "Maybe"}, fixedID)

	var se *appErrors.UnknownStatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected UnknownStatusError, got %v", err)
	}
	if se.CustomerID != "9" || se.Value != "Maybe" {
		t.Errorf("unexpected error fields: %+v", se)
	}
	if c.Status != model.Pending {
		t.Errorf("expected status coerced to Pending, got %q", c.Status)
	}
}

func TestCustomerLooseStatusSpelling(t *testing.T) {
	c, err := normalize.Customer(normalize.Record{"status": "notinterested"}, fixedID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != model.NotInterested {
		t.Errorf("expected Not Interested, got %q", c.Status)
	}
}

func TestUser(t *testing.T) {
	u := normalize.User(normalize.Record{"EMAIL": "ari@clinic.com", "Password": "123", "Branch": "Ari"}, "typed@clinic.com")
	if u != (model.User{Email: "ari@clinic.com", Name: "Staff", Branch: "Ari"}) {
		t.Errorf("unexpected user %+v", u)
	}

	u = normalize.User(normalize.Record{}, "typed@clinic.com")
	if u.Email != "typed@clinic.com" || u.Branch != "Siam" {
		t.Errorf("unexpected defaults %+v", u)
	}
}
