package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/unclebandit/clinic-crm/internal/errors"
	"github.com/unclebandit/clinic-crm/internal/model"
)

const (
	DefaultGeminiURL   = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel = "gemini-2.5-flash"
	generateAction     = "generateContent"
)

// GeminiDrafter asks the Gemini generateContent REST endpoint for a draft.
type GeminiDrafter struct {
	APIKey   string
	Model    string
	Language string
	BaseURL  string
	Client   *http.Client
}

func NewGeminiDrafter(apiKey, model, language string) *GeminiDrafter {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiDrafter{
		APIKey:   apiKey,
		Model:    model,
		Language: language,
		BaseURL:  DefaultGeminiURL,
		Client:   &http.Client{Timeout: 20 * time.Second},
	}
}

func (g *GeminiDrafter) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiDrafter) Draft(ctx context.Context, c model.Customer) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: g.prompt(c)}}}},
	})
	if err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(g.BaseURL, "/") + "/v1beta/models/" + url.PathEscape(g.Model) + ":" + generateAction
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", &appErrors.TransportError{Action: generateAction, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &appErrors.TransportError{
			Action:     generateAction,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &appErrors.TransportError{Action: generateAction, StatusCode: resp.StatusCode, Err: err}
	}

	var sb strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini returned an empty draft")
	}
	return text, nil
}

func (g *GeminiDrafter) prompt(c model.Customer) string {
	language := g.Language
	if language == "" {
		language = "Thai"
	}
	return fmt.Sprintf(`You are a professional, friendly sales associate at a beauty clinic.
Draft a short message to follow up with a customer over LINE or by phone.

Customer:
Name: %s
Last treatment: %s
Service date: %s

Goal: ask how they have been feeling since the treatment, invite them back, or offer a promotion related to that treatment.
Length: no more than 3-4 sentences.
Tone: polite, caring, not pushy.
Write the message in %s.`, c.Name, c.LastTreatment, c.ServiceDate, language)
}
