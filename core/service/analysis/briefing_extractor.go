package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
	"briefing_worker/pkg/logger"
)

const systemPrompt = `You are an executive assistant analyzing email conversations.
Given an email thread transcript, respond with exactly these labeled sections:

SUMMARY: one or two sentences describing what the thread is about.
OUTCOME: the current state or resolution of the discussion.
ACTION ITEMS: bullet list of concrete actions the reader must take. Write "none" if there are no actions.
FOLLOW_UP: yes or no, whether the reader should follow up.
PRIORITY: high, medium, or low.
CONTEXT: one sentence of background that makes the summary understandable.

Respond in plain text with these section labels only. Do not add other sections.`

// FallbackContext marks analyses produced without the model.
const FallbackContext = "automatic fallback, AI analysis unavailable"

// ExtractorConfig bounds the transcript sent to the model.
type ExtractorConfig struct {
	BodyCharLimit       int
	TranscriptCharLimit int
}

// Extractor turns a thread into a structured analysis via a completion
// call. Analysis is total: it always returns a usable analysis, falling
// back to a deterministic stub when the model cannot be reached or its
// output cannot be parsed.
type Extractor struct {
	completer out.CompletionPort
	cache     out.AnalysisCachePort
	cfg       ExtractorConfig
	log       *logger.Logger
}

func NewExtractor(completer out.CompletionPort, cache out.AnalysisCachePort, cfg ExtractorConfig) *Extractor {
	if cfg.BodyCharLimit <= 0 {
		cfg.BodyCharLimit = DefaultBodyCharLimit
	}
	if cfg.TranscriptCharLimit <= 0 {
		cfg.TranscriptCharLimit = DefaultTranscriptCharLimit
	}
	return &Extractor{
		completer: completer,
		cache:     cache,
		cfg:       cfg,
		log:       logger.Default().WithField("component", "extractor"),
	}
}

// AnalyzeThread analyzes one thread. It never returns an error; any
// failure downgrades to the fallback analysis.
func (e *Extractor) AnalyzeThread(ctx context.Context, thread *domain.EmailThread) *domain.ThreadAnalysis {
	cacheKey := e.cacheKey(thread)
	if e.cache != nil {
		if cached, ok, err := e.cache.Get(ctx, cacheKey); err == nil && ok {
			return cached
		}
	}

	transcript := BuildTranscript(thread, e.cfg.BodyCharLimit, e.cfg.TranscriptCharLimit)
	if transcript == "" {
		return e.fallback(thread)
	}

	start := time.Now()
	raw, err := e.completer.CompleteWithSystem(ctx, systemPrompt, transcript)
	if err != nil || strings.TrimSpace(raw) == "" {
		e.log.WithError(err).WithField("thread_key", thread.Key).
			Warn("completion failed, using fallback analysis")
		return e.fallback(thread)
	}

	parsed := parseSections(raw)
	if parsed.Summary == "" {
		e.log.WithField("thread_key", thread.Key).
			Warn("unparseable completion, using fallback analysis")
		return e.fallback(thread)
	}

	result := e.toAnalysis(thread, parsed)
	e.log.WithDuration(time.Since(start)).WithField("thread_key", thread.Key).
		Debug("thread analyzed")

	if e.cache != nil {
		if err := e.cache.Set(ctx, cacheKey, result); err != nil {
			e.log.WithError(err).Debug("analysis cache write failed")
		}
	}
	return result
}

func (e *Extractor) toAnalysis(thread *domain.EmailThread, p parsedResponse) *domain.ThreadAnalysis {
	a := &domain.ThreadAnalysis{
		ThreadKey:      thread.Key,
		Subject:        thread.Subject,
		Summary:        p.Summary,
		Outcome:        p.Outcome,
		ActionItems:    filterActionItems(p.ActionItems),
		FollowUp:       p.FollowUp,
		FollowUpReason: p.FollowUpReason,
		PriorityReason: p.PriorityReason,
		Context:        p.Context,
		EmailCount:     thread.Count(),
	}
	if newest := thread.Newest(); newest != nil {
		a.LatestSender = newest.From
		a.LatestDate = newest.Date
	}

	tier := strings.ToLower(strings.TrimSpace(p.Priority))
	if domain.ValidTier(tier) {
		a.Tier = domain.PriorityTier(tier)
	} else {
		a.Tier = domain.TierLow
		a.PriorityReason = "unparseable priority"
	}
	return a
}

// fallback builds the deterministic analysis used when the model is
// unavailable. Summary falls back to the first message preview.
func (e *Extractor) fallback(thread *domain.EmailThread) *domain.ThreadAnalysis {
	summary := ""
	if oldest := thread.Oldest(); oldest != nil {
		summary = strings.TrimSpace(oldest.Preview)
	}
	if summary == "" {
		summary = thread.Subject
	}
	a := &domain.ThreadAnalysis{
		ThreadKey:   thread.Key,
		Subject:     thread.Subject,
		Summary:     summary,
		ActionItems: []string{},
		FollowUp:    false,
		Tier:        domain.TierLow,
		Context:     FallbackContext,
		EmailCount:  thread.Count(),
		Fallback:    true,
	}
	if newest := thread.Newest(); newest != nil {
		a.LatestSender = newest.From
		a.LatestDate = newest.Date
	}
	return a
}

// cacheKey identifies a thread by key and newest message, so a thread
// with new mail misses the cache and gets re-analyzed.
func (e *Extractor) cacheKey(thread *domain.EmailThread) string {
	newestID := ""
	if newest := thread.Newest(); newest != nil {
		newestID = newest.ID
	}
	return fmt.Sprintf("analysis:%s:%s", thread.Key, newestID)
}

// nonActionablePhrases never survive action-item validation.
var nonActionablePhrases = map[string]bool{
	"none":    true,
	"n/a":     true,
	"na":      true,
	"nothing": true,
}

// genericPhrases mark advice with no concrete object. An item
// containing one is filler, not an action.
var genericPhrases = []string{
	"best practice",
	"keep in mind",
	"be mindful",
	"stay tuned",
	"as needed",
}

// filterActionItems drops placeholders, single-word items and generic
// advice the model emits when a thread has no real actions. The result
// is never nil.
func filterActionItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" || !strings.Contains(trimmed, " ") {
			continue
		}
		normalized := strings.ToLower(strings.TrimRight(trimmed, ". "))
		if nonActionablePhrases[normalized] || strings.HasPrefix(normalized, "no action") {
			continue
		}
		if containsGenericPhrase(normalized) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func containsGenericPhrase(s string) bool {
	for _, phrase := range genericPhrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
