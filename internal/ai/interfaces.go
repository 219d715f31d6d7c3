package ai

import (
	"context"

	"resumelens/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	ScoreResume(ctx context.Context, input types.ScoreRequest) (types.ResumeScore, *TokenUsage, error)
	FormatJobListing(ctx context.Context, input types.FormatJobInput) (types.SimplifiedJob, *TokenUsage, error)
	TailorResume(ctx context.Context, input types.TailorResumeInput) (types.SimplifiedResume, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
