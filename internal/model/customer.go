// internal/model/customer.go
package model

import "strings"

// FollowUpStatus is where a customer sits in the follow-up pipeline.
type FollowUpStatus string

const (
	Pending       FollowUpStatus = "Pending"
	Contacted     FollowUpStatus = "Contacted"
	Booked        FollowUpStatus = "Booked"
	NotInterested FollowUpStatus = "Not Interested"
)

// Known branch names. HQ and All are the cross-branch roles.
const (
	BranchSiam     = "Siam"
	BranchThonglor = "Thonglor"
	BranchAri      = "Ari"
	BranchHQ       = "HQ"
	BranchAll      = "All"
)

type Customer struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Phone         string         `json:"phone"`
	Branch        string         `json:"branch"`
	LastTreatment string         `json:"lastTreatment"`
	ServiceDate   string         `json:"serviceDate"`
	Status        FollowUpStatus `json:"status"`
	Notes         string         `json:"notes"`
}

// Statuses returns every follow-up status in display order.
func Statuses() []FollowUpStatus {
	return []FollowUpStatus{Pending, Contacted, Booked, NotInterested}
}

// Valid reports whether s is one of the fixed statuses.
func (s FollowUpStatus) Valid() bool {
	switch s {
	case Pending, Contacted, Booked, NotInterested:
		return true
	}
	return false
}

// ParseStatus maps a loosely written status onto the fixed set. Matching
// ignores case and the space in "Not Interested".
func ParseStatus(s string) (FollowUpStatus, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for _, st := range Statuses() {
		if strings.ToLower(strings.ReplaceAll(string(st), " ", "")) == key {
			return st, true
		}
	}
	return "", false
}
