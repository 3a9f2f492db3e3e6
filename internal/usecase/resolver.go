package usecase

import (
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/agentassist/backend/internal/domain"
)

// modelTokenPattern matches runs of alphanumerics optionally separated by
// dots or dashes, the shapes model numbers take in free text. Surrounding
// sentence punctuation is excluded by construction.
var modelTokenPattern = regexp.MustCompile(`[A-Za-z0-9]+(?:[.\-][A-Za-z0-9]+)*`)

const (
	exactMatchConfidence      = 1.0
	defaultNearMissConfidence = 0.7
	defaultMinPrefixLength    = 6
	minCandidateLength        = 4
	maxWindowTokens           = 4
)

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// EnableNearMiss turns on edit-distance/prefix matching when no exact
	// normalized match exists. Off by default; confirm against real query
	// logs before enabling.
	EnableNearMiss     bool
	NearMissConfidence float64
	MinPrefixLength    int
	EnableDebugLogging bool
}

// Resolver locates a candidate model number inside free query text and
// assembles the evidence bundle for it. It is a pure function of
// (query, current index snapshot) and holds no other state, so calls may run
// fully concurrently, including during an index reload.
type Resolver struct {
	index              *ProductIndex
	enableNearMiss     bool
	nearMissConfidence float64
	minPrefixLength    int
	enableDebugLogging bool
}

// NewResolver creates a resolver reading through the given index.
func NewResolver(index *ProductIndex, config ResolverConfig) *Resolver {
	confidence := config.NearMissConfidence
	if confidence <= 0 || confidence >= 1 {
		confidence = defaultNearMissConfidence
	}
	prefixLen := config.MinPrefixLength
	if prefixLen <= 0 {
		prefixLen = defaultMinPrefixLength
	}
	return &Resolver{
		index:              index,
		enableNearMiss:     config.EnableNearMiss,
		nearMissConfidence: confidence,
		minPrefixLength:    prefixLen,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// normalizeModelNumber canonicalizes a model number rendering: upper-case,
// all non-alphanumeric characters removed. The index builder and the resolver
// must share this exact function or lookups silently fail. Idempotent.
func normalizeModelNumber(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// candidate is one plausible model-number span extracted from query text.
type candidate struct {
	raw   string
	start int
	norm  string
}

// extractCandidates scans query text for substrings that plausibly denote a
// model number: single separator-joined tokens, windows of adjacent
// space-separated tokens, and progressively trimmed variants of separator
// tokens. Candidates are ordered earliest-first, longer-normalized-first for
// overlapping spans, which is the tie-break order Locate relies on.
func extractCandidates(query string, snap *indexSnapshot) []candidate {
	locs := modelTokenPattern.FindAllStringIndex(query, -1)
	if len(locs) == 0 {
		return nil
	}

	type token struct {
		raw        string
		start, end int
	}
	tokens := make([]token, 0, len(locs))
	for _, loc := range locs {
		tokens = append(tokens, token{raw: query[loc[0]:loc[1]], start: loc[0], end: loc[1]})
	}

	seen := make(map[string]bool)
	var out []candidate
	add := func(raw string, start int) {
		norm := normalizeModelNumber(raw)
		if !plausibleCandidate(norm, snap) {
			return
		}
		key := strconv.Itoa(start) + "@" + norm
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, candidate{raw: raw, start: start, norm: norm})
	}

	for i, tok := range tokens {
		add(tok.raw, tok.start)

		// Trimmed variants: drop trailing separator-delimited segments so a
		// model number with glued suffix noise still resolves.
		for _, variant := range trimmedVariants(tok.raw) {
			add(variant, tok.start)
		}

		// Space-separated windows: "10 FGC 4003 CP" style renderings.
		end := tokens[i].end
		for j := i + 1; j < len(tokens) && j-i < maxWindowTokens; j++ {
			if tokens[j].start != end+1 || query[end] != ' ' {
				break
			}
			end = tokens[j].end
			add(query[tok.start:end], tok.start)
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].start != out[b].start {
			return out[a].start < out[b].start
		}
		return len(out[a].norm) > len(out[b].norm)
	})
	return out
}

// plausibleCandidate filters spans unlikely to be model numbers: too short
// after normalization, or neither mixed letters+digits nor matching the
// catalog's key length profile.
func plausibleCandidate(norm string, snap *indexSnapshot) bool {
	if len(norm) < minCandidateLength {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range norm {
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		} else {
			hasDigit = true
		}
	}
	return (hasLetter && hasDigit) || snap.keyLengths[len(norm)]
}

// trimmedVariants yields progressively shorter renderings of a separator
// token by dropping trailing segments. "10-FGC-4003-MB-X" yields
// "10-FGC-4003-MB", "10-FGC-4003", "10-FGC".
func trimmedVariants(raw string) []string {
	var out []string
	for {
		idx := strings.LastIndexAny(raw, ".-")
		if idx <= 0 {
			return out
		}
		raw = raw[:idx]
		if len(normalizeModelNumber(raw)) < minCandidateLength {
			return out
		}
		out = append(out, raw)
	}
}

// Locate finds the product a query refers to and assembles its evidence.
// No extracted candidate matching the catalog is not an error: the caller
// receives an empty bundle with confidence 0 and falls back to broad,
// non-identifier-scoped retrieval. Only an unloaded index is an error,
// so a data outage is never reported as "product not found".
func (r *Resolver) Locate(query string) (domain.EvidenceBundle, error) {
	snap, err := r.index.current()
	if err != nil {
		return domain.EmptyEvidenceBundle(), err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.EmptyEvidenceBundle(), nil
	}

	candidates := extractCandidates(query, snap)
	if r.enableDebugLogging {
		log.Printf("[RESOLVE] Query %q: %d candidates", query, len(candidates))
	}

	// Exact pass. Candidates arrive in tie-break order (earliest first,
	// longer normalized span first), so the first hit wins.
	var matched *domain.ProductRecord
	distinct := make(map[string]bool)
	for _, cand := range candidates {
		rec, ok := snap.byNormalizedID[cand.norm]
		if !ok {
			continue
		}
		distinct[rec.ModelNumber] = true
		if matched == nil {
			matched = rec
			if r.enableDebugLogging {
				log.Printf("[RESOLVE] Exact match %q from span %q at %d", rec.ModelNumber, cand.raw, cand.start)
			}
		}
	}
	if len(distinct) > 1 {
		log.Printf("[RESOLVE] Ambiguous query %q matched %d products; earliest candidate kept", query, len(distinct))
	}
	if matched != nil {
		return assembleEvidence(matched, exactMatchConfidence), nil
	}

	if r.enableNearMiss {
		if rec := r.nearMissMatch(candidates, snap); rec != nil {
			if r.enableDebugLogging {
				log.Printf("[RESOLVE] Near-miss match %q (confidence %.2f)", rec.ModelNumber, r.nearMissConfidence)
			}
			return assembleEvidence(rec, r.nearMissConfidence), nil
		}
	}

	return domain.EmptyEvidenceBundle(), nil
}

// nearMissMatch looks for a tentative match: edit distance <=1 against a
// catalog key, or a shared prefix of at least minPrefixLength. Applied only
// when no exact match exists, in candidate tie-break order.
func (r *Resolver) nearMissMatch(candidates []candidate, snap *indexSnapshot) *domain.ProductRecord {
	for _, cand := range candidates {
		bestKey := ""
		bestScore := 3 // 1 = edit distance 1, 2 = prefix hit; lower is better
		for key := range snap.byNormalizedID {
			score := 3
			diff := len(key) - len(cand.norm)
			if diff >= -1 && diff <= 1 {
				if d := levenshteinDistance(cand.norm, key); d <= 1 {
					score = d
				}
			}
			if score == 3 && prefixHit(key, cand.norm, r.minPrefixLength) {
				score = 2
			}
			if score < bestScore || (score == bestScore && score < 3 && key < bestKey) {
				bestKey, bestScore = key, score
			}
		}
		if bestKey != "" {
			return snap.byNormalizedID[bestKey]
		}
	}
	return nil
}

// prefixHit reports whether the shorter of the two strings is a prefix of
// the longer one and at least minLen characters long.
func prefixHit(a, b string, minLen int) bool {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) >= minLen && strings.HasPrefix(longer, shorter)
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix.
	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// assembleEvidence copies the matched record's specs, media and documents
// into a per-query bundle. Every container is present even when empty.
func assembleEvidence(rec *domain.ProductRecord, confidence float64) domain.EvidenceBundle {
	bundle := domain.EvidenceBundle{
		ModelNumber: rec.ModelNumber,
		Confidence:  confidence,
		Specs:       make(map[string]string, len(rec.Specs)),
		Images:      []domain.MediaAsset{},
		Videos:      []domain.MediaAsset{},
		Documents:   []domain.DocumentAsset{},
	}
	for k, v := range rec.Specs {
		bundle.Specs[k] = v
	}
	bundle.Images = append(bundle.Images, rec.Images...)
	bundle.Videos = append(bundle.Videos, rec.Videos...)
	bundle.Documents = append(bundle.Documents, rec.Documents...)
	return bundle
}
