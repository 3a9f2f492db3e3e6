package domain

import (
	"context"
	"time"
)

// TextGenerator defines the interface to the external text-generation
// collaborator. FileSearch is its unstructured retrieval capability; it is
// expected to degrade to empty results rather than fail the pipeline.
type TextGenerator interface {
	GenerateAnswer(ctx context.Context, mode, systemPrompt, prompt string) (*GenerationResult, error)
	FileSearch(ctx context.Context, query, modelFilter string, maxResults int) ([]SearchExcerpt, error)
}

// TicketNotes defines the interface to the ticketing collaborator used to
// attach research results to support tickets.
type TicketNotes interface {
	AddPrivateNote(ctx context.Context, ticketID, noteHTML string) (*NoteResult, error)
}

// AnswerCache defines the interface for caching synthesized research results.
type AnswerCache interface {
	Get(ctx context.Context, key string) (*ResearchResult, error)
	Set(ctx context.Context, key string, value *ResearchResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
