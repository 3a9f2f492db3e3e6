// Package gemini implements the text-generation collaborator boundary
// against the Generative Language REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/agentassist/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Client handles communication with the Generative Language API.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	storeName      string // file-search store, optional
	flashModel     string
	reasoningModel string
	rateLimiter    *rate.Limiter
	debug          bool
}

// NewClient creates a new API client. storeName may be empty, which disables
// file search.
func NewClient(apiKey, baseURL, storeName, flashModel, reasoningModel string) *Client {
	// Stay well under the per-minute quota; bursts cover a handful of
	// concurrent agents.
	limiter := rate.NewLimiter(rate.Limit(2), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		apiKey:         apiKey,
		baseURL:        baseURL,
		storeName:      storeName,
		flashModel:     flashModel,
		reasoningModel: reasoningModel,
		rateLimiter:    limiter,
	}
}

// SetDebug enables request/response logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	Tools             []tool           `json:"tools,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type tool struct {
	FileSearch *fileSearchTool `json:"fileSearch,omitempty"`
}

type fileSearchTool struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
	TopK                 int      `json:"topK,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content           content `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				RetrievedContext *struct {
					Title string `json:"title"`
					Text  string `json:"text"`
					URI   string `json:"uri"`
				} `json:"retrievedContext"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// modelFor maps a mode to a model name. Unknown modes fall back to flash.
func (c *Client) modelFor(mode string) string {
	if mode == "reasoning" {
		return c.reasoningModel
	}
	return c.flashModel
}

// GenerateAnswer sends the system prompt and combined context to the API and
// returns the markdown answer.
func (c *Client) GenerateAnswer(ctx context.Context, mode, systemPrompt, prompt string) (*domain.GenerationResult, error) {
	model := c.modelFor(mode)

	temperature := 0.2
	if mode == "reasoning" {
		temperature = 0.4
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 4096,
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}

	// Retry up to 3 times for transient failures. Client errors other than
	// 429 (bad key, malformed request) will not heal on retry.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		resp, err := c.generateContent(ctx, model, &reqBody)
		if err != nil {
			if !retryableError(err) {
				return nil, err
			}
			lastErr = err
			log.Printf("[GEMINI] Generate error (attempt %d): %v", attempt, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt*500) * time.Millisecond):
			}
			continue
		}

		text := resp.firstText()
		if text == "" {
			return nil, fmt.Errorf("%w: empty candidate from %s", domain.ErrGenerationFailure, model)
		}
		return &domain.GenerationResult{Text: text, ModelUsed: model}, nil
	}

	return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailure, lastErr)
}

// FileSearch runs the collaborator's retrieval over the knowledge store.
// An unconfigured store yields no excerpts, not an error.
func (c *Client) FileSearch(ctx context.Context, query, modelFilter string, maxResults int) ([]domain.SearchExcerpt, error) {
	if c.storeName == "" {
		if c.debug {
			log.Printf("[GEMINI] File search store not configured, skipping")
		}
		return nil, nil
	}

	searchQuery := query
	if modelFilter != "" {
		searchQuery = modelFilter + " " + query
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: searchQuery}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.2,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 1024,
		},
		Tools: []tool{{FileSearch: &fileSearchTool{
			FileSearchStoreNames: []string{c.storeName},
			TopK:                 maxResults,
		}}},
	}

	resp, err := c.generateContent(ctx, c.flashModel, &reqBody)
	if err != nil {
		return nil, fmt.Errorf("file search: %w", err)
	}

	var excerpts []domain.SearchExcerpt
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.RetrievedContext == nil {
				continue
			}
			excerpts = append(excerpts, domain.SearchExcerpt{
				Title: chunk.RetrievedContext.Title,
				Text:  chunk.RetrievedContext.Text,
				URI:   chunk.RetrievedContext.URI,
			})
			if len(excerpts) >= maxResults {
				break
			}
		}
	}
	if c.debug {
		log.Printf("[GEMINI] File search returned %d excerpts for %q", len(excerpts), searchQuery)
	}
	return excerpts, nil
}

// generateContent executes one generateContent call with rate limiting.
func (c *Client) generateContent(ctx context.Context, model string, reqBody *generateRequest) (*generateResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "AgentAssist/1.0")

	if c.debug {
		log.Printf("[GEMINI] POST %s:generateContent (%d bytes)", model, len(payload))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailure, &statusError{status: resp.StatusCode, body: string(body)})
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: API error %d: %s", domain.ErrGenerationFailure, parsed.Error.Code, parsed.Error.Message)
	}
	return &parsed, nil
}

// statusError carries the HTTP status of a failed call so the retry loop can
// distinguish transient failures from client errors.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, truncate(e.body, 300))
}

// retryableError reports whether a generateContent failure is worth retrying:
// network errors, 429 and server-side statuses. Other 4xx are terminal.
func retryableError(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusTooManyRequests || se.status >= 500
	}
	return true
}

func (r *generateResponse) firstText() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
