package domain

import "time"

// PriorityTier classifies how urgently a thread needs attention.
type PriorityTier string

const (
	TierHigh   PriorityTier = "high"
	TierMedium PriorityTier = "medium"
	TierLow    PriorityTier = "low"
)

// ValidTier reports whether s names a known tier.
func ValidTier(s string) bool {
	switch PriorityTier(s) {
	case TierHigh, TierMedium, TierLow:
		return true
	}
	return false
}

// ThreadAnalysis is the structured outcome of analyzing one thread.
// An analysis always exists for every analyzed thread; when the
// AI call fails the fields hold fallback values and Fallback is set.
type ThreadAnalysis struct {
	ThreadKey      string       `json:"thread_key"`
	Subject        string       `json:"subject"`
	Summary        string       `json:"summary"`
	Outcome        string       `json:"outcome,omitempty"`
	ActionItems    []string     `json:"action_items"`
	FollowUp       bool         `json:"follow_up"`
	FollowUpReason string       `json:"follow_up_reason,omitempty"`
	Tier           PriorityTier `json:"tier"`
	PriorityReason string       `json:"priority_reason,omitempty"`
	Context        string       `json:"context,omitempty"`
	EmailCount     int          `json:"email_count"`
	LatestSender   string       `json:"latest_sender,omitempty"`
	LatestDate     time.Time    `json:"latest_date,omitempty"`
	Fallback       bool         `json:"fallback"`
}

// FirstActionItem returns the leading action item or the empty string.
func (a *ThreadAnalysis) FirstActionItem() string {
	if len(a.ActionItems) == 0 {
		return ""
	}
	return a.ActionItems[0]
}
