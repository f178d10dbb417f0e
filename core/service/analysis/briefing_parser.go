package analysis

import "strings"

// parsedResponse holds the raw section values of a model response
// before validation.
type parsedResponse struct {
	Summary        string
	Outcome        string
	ActionItems    []string
	FollowUp       bool
	FollowUpReason string
	Priority       string
	PriorityReason string
	Context        string
}

// sectionLabels maps recognized labels to canonical section names.
// Unknown labels are treated as continuation text.
var sectionLabels = map[string]string{
	"summary":      "summary",
	"outcome":      "outcome",
	"action items": "actions",
	"action_items": "actions",
	"actions":      "actions",
	"follow_up":    "followup",
	"follow up":    "followup",
	"followup":     "followup",
	"priority":     "priority",
	"context":      "context",
}

// parseSections reads a labeled plain-text response line by line.
// Bullet markers and numbering inside ACTION ITEMS become individual
// items; other continuation lines fold into the current section.
func parseSections(raw string) parsedResponse {
	var p parsedResponse
	current := ""

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if section, rest, ok := matchLabel(trimmed); ok {
			current = section
			if rest != "" {
				appendToSection(&p, current, rest)
			}
			continue
		}

		if current != "" {
			appendToSection(&p, current, trimmed)
		}
	}

	return p
}

// matchLabel checks whether the line starts with "LABEL:" for a known
// label and returns the canonical section plus the remainder.
func matchLabel(line string) (section, rest string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	label := strings.ToLower(strings.TrimSpace(line[:idx]))
	section, known := sectionLabels[label]
	if !known {
		return "", "", false
	}
	return section, strings.TrimSpace(line[idx+1:]), true
}

func appendToSection(p *parsedResponse, section, text string) {
	switch section {
	case "summary":
		p.Summary = joinFragment(p.Summary, text)
	case "outcome":
		p.Outcome = joinFragment(p.Outcome, text)
	case "context":
		p.Context = joinFragment(p.Context, text)
	case "priority":
		if p.Priority == "" {
			p.Priority, p.PriorityReason = splitValueReason(text)
		}
	case "followup":
		var value string
		value, p.FollowUpReason = splitValueReason(text)
		p.FollowUp = parseYes(value)
	case "actions":
		if item, isBullet := stripBullet(text); isBullet || len(p.ActionItems) == 0 {
			p.ActionItems = append(p.ActionItems, item)
		} else {
			// Continuation of the previous item.
			last := len(p.ActionItems) - 1
			p.ActionItems[last] = joinFragment(p.ActionItems[last], item)
		}
	}
}

func joinFragment(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + " " + text
}

// stripBullet removes a leading bullet or numbering marker and reports
// whether one was present.
func stripBullet(s string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(s, marker) {
			return strings.TrimSpace(s[len(marker):]), true
		}
	}
	// Numbered items like "1. " or "2) "
	for i, r := range s {
		if r >= '0' && r <= '9' {
			continue
		}
		if i > 0 && (r == '.' || r == ')') {
			return strings.TrimSpace(s[i+1:]), true
		}
		break
	}
	return s, false
}

// splitValueReason separates "high - deadline tomorrow" into the value
// and an optional trailing reason.
func splitValueReason(s string) (value, reason string) {
	value = s
	for _, sep := range []string{" - ", " — ", ": ", ", "} {
		if idx := strings.Index(s, sep); idx > 0 {
			return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(sep):])
		}
	}
	return strings.TrimSpace(value), ""
}

func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "y":
		return true
	}
	return false
}
