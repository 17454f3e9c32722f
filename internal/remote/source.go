// Package remote talks to the spreadsheet that backs the customer list.
package remote

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/unclebandit/clinic-crm/internal/config"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/normalize"
)

const (
	ActionGetCustomers = "getCustomers"
	ActionGetUsers     = "getUsers"
)

// Source is a remote customer/user sheet.
type Source interface {
	Customers(ctx context.Context) ([]normalize.Record, error)
	Users(ctx context.Context) ([]normalize.Record, error)
	PushUpdate(ctx context.Context, update model.StatusUpdate) error
}

// New builds the source named by cfg.URL. It returns nil when no URL is
// configured, which callers treat as local-only mode.
func New(cfg config.RemoteConfig) Source {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return NewHTTPSource(url, &http.Client{Timeout: cfg.Timeout})
	}
	switch strings.ToLower(filepath.Ext(url)) {
	case ".xls":
		return NewXLSSource(url)
	default:
		return NewWorkbookSource(url)
	}
}
