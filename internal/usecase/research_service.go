package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/agentassist/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)
)

// ResearchServiceConfig holds configuration for the research service
type ResearchServiceConfig struct {
	CacheTTL           time.Duration
	MaxSearchResults   int
	EnableDebugLogging bool
}

// ResearchService runs the query pipeline: extraction (resolver), retrieval
// (evidence bundle + collaborator file search), synthesis (text generation),
// and formatting of the final result.
type ResearchService struct {
	resolver           *Resolver
	generator          domain.TextGenerator
	cache              domain.AnswerCache
	cacheTTL           time.Duration
	maxSearchResults   int
	enableDebugLogging bool
}

// NewResearchService creates a research service with dependencies. cache may
// be nil to disable answer caching.
func NewResearchService(
	resolver *Resolver,
	generator domain.TextGenerator,
	cache domain.AnswerCache,
	config ResearchServiceConfig,
) *ResearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	maxResults := config.MaxSearchResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &ResearchService{
		resolver:           resolver,
		generator:          generator,
		cache:              cache,
		cacheTTL:           cacheTTL,
		maxSearchResults:   maxResults,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ProcessQuery answers a support-agent query. mode selects the generation
// model ("flash" or "reasoning"). A data outage propagates as
// ErrDataUnavailable; an unresolved product is not an error and falls back
// to broad retrieval.
func (s *ResearchService) ProcessQuery(ctx context.Context, query, mode string) (*domain.ResearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}
	if mode == "" {
		mode = "flash"
	}

	cacheKey := s.generateCacheKey(query, mode)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != nil {
			if s.enableDebugLogging {
				log.Printf("[RESEARCH] Cache hit for %q", query)
			}
			return cached, nil
		}
	}

	// Stage 1: extraction
	evidence, err := s.resolver.Locate(query)
	if err != nil {
		return nil, err
	}
	if s.enableDebugLogging {
		if evidence.Matched() {
			log.Printf("[RESEARCH] Matched %s (confidence %.2f)", evidence.ModelNumber, evidence.Confidence)
		} else {
			log.Printf("[RESEARCH] No product identified, broad mode")
		}
	}

	// Stage 2: retrieval. File search degrades to no excerpts rather than
	// failing the pipeline.
	excerpts, err := s.generator.FileSearch(ctx, query, evidence.ModelNumber, s.maxSearchResults)
	if err != nil {
		log.Printf("[RESEARCH] File search failed, continuing without excerpts: %v", err)
		excerpts = nil
	}

	// Stage 3: synthesis
	systemPrompt := selectSystemPrompt(query)
	prompt := buildPrompt(query, &evidence, excerpts)
	generated, err := s.generator.GenerateAnswer(ctx, mode, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
	}

	// Stage 4: formatting
	result := &domain.ResearchResult{
		MarkdownResponse: generated.Text,
		Sources:          extractSources(&evidence, excerpts),
		ModelUsed:        generated.ModelUsed,
		MatchedProduct:   evidence.ModelNumber,
		Confidence:       evidence.Confidence,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}
	if evidence.Matched() {
		result.MediaAssets = &domain.MediaAssets{
			Specs:     evidence.Specs,
			Videos:    evidence.Videos,
			Images:    evidence.Images,
			Documents: evidence.Documents,
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			log.Printf("[RESEARCH] Failed to cache result: %v", err)
		}
	}

	return result, nil
}

// generateCacheKey creates a normalized cache key from query and mode.
// Format: "research:{normalized_query}:{mode}"
func (s *ResearchService) generateCacheKey(query, mode string) string {
	return fmt.Sprintf("research:%s:%s", normalizeForCacheKey(query), mode)
}

// normalizeForCacheKey normalizes a string for use as cache key component.
// Converts to lowercase, removes special characters, and trims whitespace.
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}
