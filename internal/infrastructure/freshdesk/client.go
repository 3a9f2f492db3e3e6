// Package freshdesk implements the ticketing collaborator boundary: posting
// research results as private notes on Freshdesk tickets.
package freshdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/agentassist/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client is a Freshdesk API wrapper for ticket note operations.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
}

// NewClient creates a Freshdesk client. domain may be the bare subdomain or a
// full host; it is cleaned either way.
func NewClient(fdDomain, apiKey string) *Client {
	fdDomain = strings.TrimPrefix(fdDomain, "https://")
	fdDomain = strings.TrimPrefix(fdDomain, "http://")
	fdDomain = strings.TrimSuffix(fdDomain, ".freshdesk.com")

	// Freshdesk plans allow on the order of dozens of calls per minute.
	limiter := rate.NewLimiter(rate.Limit(1), 5)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     fmt.Sprintf("https://%s.freshdesk.com/api/v2", fdDomain),
		apiKey:      apiKey,
		rateLimiter: limiter,
	}
}

type notePayload struct {
	Body    string `json:"body"`
	Private bool   `json:"private"`
}

type noteResponse struct {
	ID int64 `json:"id"`
}

// AddPrivateNote posts an HTML note to the given ticket. API failures are
// reported in the result rather than as an error, so the caller can surface
// them to the agent verbatim.
func (c *Client) AddPrivateNote(ctx context.Context, ticketID, noteHTML string) (*domain.NoteResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(notePayload{Body: noteHTML, Private: true})
	if err != nil {
		return nil, fmt.Errorf("marshal note: %w", err)
	}

	reqURL := fmt.Sprintf("%s/tickets/%s/notes", c.baseURL, ticketID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Freshdesk uses the API key as the basic-auth username.
	req.SetBasicAuth(c.apiKey, "X")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NoteResult{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &domain.NoteResult{
			Success: false,
			Error:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}, nil
	}

	var parsed noteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &domain.NoteResult{Success: true, NoteID: fmt.Sprintf("%d", parsed.ID)}, nil
}

// ValidateConnection checks that the configured credentials can reach the
// Freshdesk API.
func (c *Client) ValidateConnection(ctx context.Context) bool {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return false
	}

	reqURL := fmt.Sprintf("%s/tickets?per_page=1", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(c.apiKey, "X")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[FRESHDESK] Connection validation failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}
