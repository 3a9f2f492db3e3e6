package domain

// GenerationResult is the text-generation collaborator's answer.
type GenerationResult struct {
	Text      string
	ModelUsed string
}

// SearchExcerpt is one unstructured retrieval hit from the collaborator's
// file-search capability.
type SearchExcerpt struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URI   string `json:"uri"`
}

// MediaAssets groups the evidence handed to the frontend alongside the
// synthesized answer.
type MediaAssets struct {
	Specs     map[string]string `json:"specs"`
	Videos    []MediaAsset      `json:"videos"`
	Images    []MediaAsset      `json:"images"`
	Documents []DocumentAsset   `json:"documents"`
}

// ResearchResult is the final output of the research pipeline.
type ResearchResult struct {
	MarkdownResponse string       `json:"markdown_response"`
	MediaAssets      *MediaAssets `json:"media_assets"`
	Sources          []string     `json:"sources"`
	ModelUsed        string       `json:"model_used"`
	MatchedProduct   string       `json:"matched_product,omitempty"`
	Confidence       float64      `json:"confidence"`
	Timestamp        string       `json:"timestamp"`
}

// NoteResult reports the outcome of a ticket-note export.
type NoteResult struct {
	Success bool   `json:"success"`
	NoteID  string `json:"note_id,omitempty"`
	Error   string `json:"error,omitempty"`
}
