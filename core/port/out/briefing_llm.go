package out

import "context"

// CompletionPort is the text-completion capability used by analysis.
type CompletionPort interface {
	// CompleteWithSystem sends a system prompt and a user prompt and
	// returns the raw model output.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
