package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"briefing_worker/core/domain"
)

// Default scoring parameters. Weights are tuned so a priority sender
// dominates message volume and volume dominates pure recency.
const (
	DefaultRecencyWeight = 30.0
	DefaultCountWeight   = 10.0
	DefaultSenderWeight  = 100.0
	DefaultKeywordWeight = 30.0
	DefaultCountCap      = 10
	DefaultTopThreads    = 15
	DefaultHalfLife      = 24 * time.Hour
)

// urgencyKeywords are scanned case-insensitively over subject and
// preview text. Each keyword counts at most once per thread.
var urgencyKeywords = []string{"urgent", "asap", "today", "deadline", "action required"}

// ScorerConfig tunes the weighted sum.
type ScorerConfig struct {
	RecencyWeight   float64
	CountWeight     float64
	SenderWeight    float64
	KeywordWeight   float64
	CountCap        int
	RecencyHalfLife time.Duration
	TopThreads      int
	PrioritySenders []string
	DeniedSenders   []string
}

// DefaultScorerConfig returns the standard weights.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		RecencyWeight:   DefaultRecencyWeight,
		CountWeight:     DefaultCountWeight,
		SenderWeight:    DefaultSenderWeight,
		KeywordWeight:   DefaultKeywordWeight,
		CountCap:        DefaultCountCap,
		RecencyHalfLife: DefaultHalfLife,
		TopThreads:      DefaultTopThreads,
	}
}

// ScoredThread pairs a thread with its computed score.
type ScoredThread struct {
	Thread domain.EmailThread
	Score  float64
}

// Scorer ranks threads with a deterministic weighted heuristic.
type Scorer struct {
	cfg ScorerConfig
	now func() time.Time
}

func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.CountCap <= 0 {
		cfg.CountCap = DefaultCountCap
	}
	if cfg.RecencyHalfLife <= 0 {
		cfg.RecencyHalfLife = DefaultHalfLife
	}
	if cfg.TopThreads <= 0 {
		cfg.TopThreads = DefaultTopThreads
	}
	return &Scorer{cfg: cfg, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// ScoreThreads scores every eligible thread and returns them ordered by
// score descending. Ties break on newest-message recency, then on the
// order threads arrived. Threads whose newest message comes from a
// denied sender are excluded entirely.
func (s *Scorer) ScoreThreads(threads []domain.EmailThread) []ScoredThread {
	now := s.now()
	scored := make([]ScoredThread, 0, len(threads))

	for _, t := range threads {
		newest := t.Newest()
		if newest == nil {
			continue
		}
		if s.isDenied(newest.From) {
			continue
		}
		scored = append(scored, ScoredThread{
			Thread: t,
			Score:  s.score(&t, now),
		})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].Thread.Newest().Date.After(scored[b].Thread.Newest().Date)
	})

	return scored
}

// TopThreads returns at most k scored threads; k <= 0 uses the
// configured default.
func (s *Scorer) TopThreads(threads []domain.EmailThread, k int) []ScoredThread {
	if k <= 0 {
		k = s.cfg.TopThreads
	}
	scored := s.ScoreThreads(threads)
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func (s *Scorer) score(t *domain.EmailThread, now time.Time) float64 {
	newest := t.Newest()

	score := s.cfg.RecencyWeight * recencyFactor(now.Sub(newest.Date), s.cfg.RecencyHalfLife)

	count := t.Count()
	if count > s.cfg.CountCap {
		count = s.cfg.CountCap
	}
	score += s.cfg.CountWeight * float64(count)

	if matchesSender(newest.From, s.cfg.PrioritySenders) {
		score += s.cfg.SenderWeight
	}

	score += s.cfg.KeywordWeight * float64(s.keywordHits(t))

	return score
}

// recencyFactor is an exponential half-life decay on message age.
// Non-positive ages clamp to 1.0.
func recencyFactor(age, halfLife time.Duration) float64 {
	if age <= 0 {
		return 1.0
	}
	return math.Pow(2, -age.Hours()/halfLife.Hours())
}

// keywordHits counts distinct urgency keywords appearing anywhere in
// the thread's subjects and previews.
func (s *Scorer) keywordHits(t *domain.EmailThread) int {
	var b strings.Builder
	for _, m := range t.Messages {
		b.WriteString(strings.ToLower(m.Subject))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(m.Preview))
		b.WriteByte(' ')
	}
	text := b.String()

	hits := 0
	for _, kw := range urgencyKeywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func (s *Scorer) isDenied(from string) bool {
	return matchesSender(from, s.cfg.DeniedSenders)
}

// matchesSender does a case-insensitive substring match so entries may
// be full addresses or bare domains.
func matchesSender(from string, senders []string) bool {
	lower := strings.ToLower(from)
	for _, sender := range senders {
		s := strings.ToLower(strings.TrimSpace(sender))
		if s != "" && strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
