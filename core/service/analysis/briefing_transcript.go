package analysis

import (
	"fmt"
	"strings"

	"briefing_worker/core/domain"
)

const (
	DefaultBodyCharLimit       = 800
	DefaultTranscriptCharLimit = 12000
)

// BuildTranscript renders a thread as numbered email blocks, oldest
// first. Each body is capped at bodyLimit characters. When the full
// transcript would exceed totalLimit, the oldest messages are dropped
// first; the newest message is always kept even if its block alone is
// over budget.
func BuildTranscript(t *domain.EmailThread, bodyLimit, totalLimit int) string {
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyCharLimit
	}
	if totalLimit <= 0 {
		totalLimit = DefaultTranscriptCharLimit
	}

	n := len(t.Messages)
	if n == 0 {
		return ""
	}

	blocks := make([]string, n)
	for i, m := range t.Messages {
		blocks[i] = renderBlock(&m, bodyLimit)
	}

	// Walk newest to oldest, keeping blocks while they fit.
	// headerOverhead covers the "--- Email N ---" line per block.
	const headerOverhead = 18
	kept := 0
	used := 0
	for i := n - 1; i >= 0; i-- {
		cost := len(blocks[i]) + headerOverhead
		if kept > 0 && used+cost > totalLimit {
			break
		}
		used += cost
		kept++
	}

	var b strings.Builder
	for i := n - kept; i < n; i++ {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		// Renumber so the transcript always starts at Email 1.
		b.WriteString(fmt.Sprintf("--- Email %d ---\n", i-(n-kept)+1))
		b.WriteString(blocks[i])
	}
	return b.String()
}

func renderBlock(m *domain.EmailMessage, bodyLimit int) string {
	body := strings.TrimSpace(m.Body)
	if body == "" {
		body = strings.TrimSpace(m.Preview)
	}
	if len(body) > bodyLimit {
		body = body[:bodyLimit] + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", m.From)
	fmt.Fprintf(&b, "Date: %s\n", m.Date.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Content: %s\n", body)
	return b.String()
}
