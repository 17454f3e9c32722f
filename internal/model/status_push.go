// internal/model/status_push.go
package model

import "time"

const UpdateCustomerAction = "updateCustomer"

// StatusUpdate is the body pushed to the remote sheet.
type StatusUpdate struct {
	Action string         `json:"action"`
	ID     string         `json:"id"`
	Status FollowUpStatus `json:"status"`
	Notes  string         `json:"notes"`
}

// Push states.
const (
	PushQueued = "queued"
	PushSent   = "sent"
	PushFailed = "failed"
	PushLocal  = "local" // no remote configured
)

// StatusPush records the outcome of one remote push.
type StatusPush struct {
	ID         int64          `db:"id" json:"id"`
	CustomerID string         `db:"customer_id" json:"customer_id"`
	Status     FollowUpStatus `db:"status" json:"status"`
	Notes      string         `db:"notes" json:"notes"`
	State      string         `db:"state" json:"state"`
	LastError  string         `db:"last_error" json:"last_error,omitempty"`
	Attempts   int            `db:"attempts" json:"attempts"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
