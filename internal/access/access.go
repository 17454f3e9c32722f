// Package access decides which customers a signed-in user may see.
package access

import (
	"strings"

	"github.com/unclebandit/clinic-crm/internal/model"
)

// IsSuperuser reports whether the user sees every branch.
func IsSuperuser(u model.User) bool {
	return u.Branch == model.BranchHQ || u.Branch == model.BranchAll
}

// Visible returns the customers in the user's branch, or all of them for a
// superuser. Order is preserved.
func Visible(customers []model.Customer, u model.User) []model.Customer {
	return Filter{}.Apply(customers, u)
}

// CanSee reports whether the customer with id is visible to the user.
func CanSee(customers []model.Customer, u model.User, id string) bool {
	for _, c := range customers {
		if c.ID == id && inScope(c, u) {
			return true
		}
	}
	return false
}

// Filter narrows the visible list. Search is matched as typed, so only an
// empty Search matches everything. A Status of "" or "All" matches every status.
type Filter struct {
	Search string
	Status string
}

func (f Filter) Apply(customers []model.Customer, u model.User) []model.Customer {
	search := strings.ToLower(f.Search)
	status := strings.TrimSpace(f.Status)
	anyStatus := status == "" || strings.EqualFold(status, "All")

	out := make([]model.Customer, 0, len(customers))
	for _, c := range customers {
		if !inScope(c, u) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(strings.ToLower(c.Phone), search) {
			continue
		}
		if !anyStatus && string(c.Status) != status {
			continue
		}
		out = append(out, c)
	}
	return out
}

func inScope(c model.Customer, u model.User) bool {
	return IsSuperuser(u) || c.Branch == u.Branch
}
