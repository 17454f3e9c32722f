package normalize

import (
	"github.com/google/uuid"

	appErrors "github.com/unclebandit/clinic-crm/internal/errors"
	"github.com/unclebandit/clinic-crm/internal/model"
)

// NewID generates the id of a row that arrived without one.
func NewID() string {
	return uuid.New().String()
}

// Customer builds a customer from rec, filling defaults for missing fields.
// It always returns a usable customer. A status outside the fixed set is
// replaced by Pending and reported as *appErrors.UnknownStatusError.
func Customer(rec Record, newID func() string) (model.Customer, error) {
	if newID == nil {
		newID = NewID
	}
	c := model.Customer{
		ID:            stringOr(rec, "id", ""),
		Name:          stringOr(rec, "name", ""),
		Phone:         stringOr(rec, "phone", ""),
		Branch:        stringOr(rec, "branch", model.BranchSiam),
		LastTreatment: stringOr(rec, "lastTreatment", ""),
		ServiceDate:   stringOr(rec, "serviceDate", ""),
		Status:        model.Pending,
		Notes:         stringOr(rec, "notes", ""),
	}
	if c.ID == "" {
		c.ID = newID()
	}

	raw, ok := String(rec, "status")
	if !ok || raw == "" {
		return c, nil
	}
	st, ok := model.ParseStatus(raw)
	if !ok {
		return c, appErrors.NewUnknownStatus(c.ID, raw)
	}
	c.Status = st
	return c, nil
}

// User builds a session-safe user from a remote user row. fallbackEmail is
// used when the row has no email column (it matched on the typed login).
func User(rec Record, fallbackEmail string) model.User {
	return model.User{
		Email:  stringOr(rec, "email", fallbackEmail),
		Name:   stringOr(rec, "name", "Staff"),
		Branch: stringOr(rec, "branch", model.BranchSiam),
	}
}
