package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentassist/backend/internal/domain"
)

// System prompts are hardcoded constants. Prompt iteration is high-frequency;
// a named constant is easy to find and change, and template files add
// indirection without benefit at this scale.

// SynthesisPrompt is the default system prompt for answer generation.
const SynthesisPrompt = `You are a Product Support Expert Assistant for Flusso Faucets.

**Your Role:**
Help support agents research product information quickly and accurately. Provide comprehensive answers about products, installation, specifications, and troubleshooting.

**Guidelines:**
1. For GENERAL QUERIES (company policies, warranties, programs): use ONLY the documentation excerpts. Do NOT include product-specific details unless a specific product was requested.
2. For PRODUCT-SPECIFIC QUERIES: start with structured data (specifications, prices, dimensions), then reference documentation excerpts for technical details. Cite video/image resources when relevant.
3. Begin with a direct answer, include relevant specifications in a clear format, provide step-by-step instructions for installation or troubleshooting when applicable, reference all media resources, and end with source citations in a single sentence.
4. Use Markdown: bullet points for lists, tables for specifications, bold for model numbers and part names. Always use complete, unbroken URLs in [text](url) syntax.
5. Only provide information from the given context. If information is missing or unclear, explicitly say so. Never invent specifications or instructions. Clearly distinguish product variants (finishes, sizes).
6. Be clear, concise, and professional. Assume the agent has basic product knowledge and focus on actionable information.`

// TroubleshootingPrompt is used when the query looks like a problem report.
const TroubleshootingPrompt = `You are helping with a product troubleshooting issue.

**Focus on:**
1. Understanding the specific problem
2. Referencing installation manuals for common issues
3. Providing step-by-step diagnostic steps
4. Suggesting when to escalate (warranty, replacement)

**Structure your response:**
1. Problem Summary
2. Possible Causes
3. Troubleshooting Steps
4. If issue persists... (escalation path)
5. Related Resources`

// ComparisonPrompt is used when the query compares products.
const ComparisonPrompt = `You are helping compare multiple products.

**Create a comparison that includes:**
1. Key Specifications (side by side)
2. Price Differences
3. Finish Options
4. Use Case Recommendations
5. Installation Differences (if any)

Use tables for clear comparison when comparing 2-3 products.`

var troubleshootingKeywords = []string{"not working", "broken", "leak", "issue", "problem", "fix", "repair"}

var comparisonKeywords = []string{"compare", "difference", "versus", "vs", "better"}

// selectSystemPrompt picks the system prompt for a query. Comparison wins
// over troubleshooting when both kinds of keyword appear.
func selectSystemPrompt(query string) string {
	lower := strings.ToLower(query)
	prompt := SynthesisPrompt
	if containsAny(lower, troubleshootingKeywords) {
		prompt = TroubleshootingPrompt
	}
	if containsAny(lower, comparisonKeywords) {
		prompt = ComparisonPrompt
	}
	return prompt
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// buildPrompt assembles the combined prompt context: the query, the
// structured evidence when a product resolved, and the unstructured
// documentation excerpts.
func buildPrompt(query string, evidence *domain.EvidenceBundle, excerpts []domain.SearchExcerpt) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User Query: %s\n", query))

	if evidence == nil || !evidence.Matched() {
		sb.WriteString("\n**Note:** This is a general query about company policies, programs, or procedures. Do NOT include product-specific details. Answer using ONLY the documentation excerpts below.\n")
	} else {
		if len(evidence.Specs) > 0 {
			sb.WriteString("\n## Product Specifications:\n")
			sb.WriteString(fmt.Sprintf("- Model Number: %s\n", evidence.ModelNumber))
			for _, key := range sortedSpecKeys(evidence.Specs) {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", key, evidence.Specs[key]))
			}
		}
		if len(evidence.Videos) > 0 {
			sb.WriteString("\n## Available Videos:\n")
			for _, v := range evidence.Videos {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", titleOr(v.Title, "Video"), v.URL))
			}
		}
		if len(evidence.Images) > 0 {
			sb.WriteString("\n## Available Images:\n")
			for _, img := range evidence.Images {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", titleOr(img.Title, "Image"), img.URL))
			}
		}
		if len(evidence.Documents) > 0 {
			sb.WriteString("\n## Available Documents:\n")
			for _, doc := range evidence.Documents {
				sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", titleOr(doc.Title, "Document"), doc.Type, doc.URL))
			}
		}
	}

	if len(excerpts) > 0 {
		sb.WriteString("\n## Relevant Documentation Excerpts:\n")
		for i, ex := range excerpts {
			sb.WriteString(fmt.Sprintf("\n### Excerpt %d (from %s)\n", i+1, titleOr(ex.Title, "Unknown")))
			sb.WriteString(ex.Text)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// extractSources collects deduplicated source labels from the excerpts and
// evidence documents, in encounter order.
func extractSources(evidence *domain.EvidenceBundle, excerpts []domain.SearchExcerpt) []string {
	sources := []string{}
	seen := make(map[string]bool)
	add := func(label string) {
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		sources = append(sources, label)
	}

	for _, ex := range excerpts {
		add(titleOr(ex.Title, "Documentation"))
	}
	if evidence != nil {
		for _, doc := range evidence.Documents {
			add(doc.Title)
		}
	}
	return sources
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}

func sortedSpecKeys(specs map[string]string) []string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	// Stable prompt text regardless of map iteration order.
	sort.Strings(keys)
	return keys
}
