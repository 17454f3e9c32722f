package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	appErrors "github.com/unclebandit/clinic-crm/internal/errors"
	"github.com/unclebandit/clinic-crm/internal/model"
	"github.com/unclebandit/clinic-crm/internal/normalize"
)

// HTTPSource talks to a spreadsheet web-app endpoint:
//
//	GET  <url>?action=getCustomers   -> JSON array of rows
//	GET  <url>?action=getUsers       -> JSON array of rows
//	POST <url> {"action":"updateCustomer",...} as text/plain
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(endpoint string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{URL: endpoint, Client: client}
}

func (s *HTTPSource) Customers(ctx context.Context) ([]normalize.Record, error) {
	return s.getRows(ctx, ActionGetCustomers)
}

func (s *HTTPSource) Users(ctx context.Context) ([]normalize.Record, error) {
	return s.getRows(ctx, ActionGetUsers)
}

func (s *HTTPSource) getRows(ctx context.Context, action string) ([]normalize.Record, error) {
	endpoint, err := s.actionURL(action)
	if err != nil {
		return nil, &appErrors.TransportError{Action: action, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &appErrors.TransportError{Action: action, Err: err}
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &appErrors.TransportError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &appErrors.TransportError{Action: action, StatusCode: resp.StatusCode}
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &appErrors.TransportError{Action: action, Err: fmt.Errorf("decode response: %w", err)}
	}
	items, ok := body.([]any)
	if !ok {
		return nil, &appErrors.ShapeMismatchError{Action: action, Got: describe(body)}
	}

	rows := make([]normalize.Record, 0, len(items))
	for _, item := range items {
		// rows that are not objects carry no fields to read
		if obj, ok := item.(map[string]any); ok {
			rows = append(rows, normalize.Record(obj))
		}
	}
	return rows, nil
}

// PushUpdate posts the change. The body is declared as plain text, which
// keeps spreadsheet web apps from demanding a CORS preflight.
func (s *HTTPSource) PushUpdate(ctx context.Context, update model.StatusUpdate) error {
	if update.Action == "" {
		update.Action = model.UpdateCustomerAction
	}
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return &appErrors.TransportError{Action: update.Action, Err: err}
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := s.Client.Do(req)
	if err != nil {
		return &appErrors.TransportError{Action: update.Action, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &appErrors.TransportError{Action: update.Action, StatusCode: resp.StatusCode}
	}
	return nil
}

func (s *HTTPSource) actionURL(action string) (string, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}

var _ Source = (*HTTPSource)(nil)
