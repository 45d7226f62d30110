package enrich

import (
	"context"

	"github.com/echukwudebere/kachifo/models"
)

// Service is the external NLP capability the pipeline depends on but does
// not implement: summarization, entity extraction and conversational
// generation. It may fail or be slow at any time; callers never assume
// availability.
type Service interface {
	Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error)
	ExtractEntities(ctx context.Context, text string) ([]models.Entity, error)
	Converse(ctx context.Context, history []models.Turn) (string, error)
}
