package analysis

import (
	"reflect"
	"testing"
)

func TestParseSectionsFull(t *testing.T) {
	raw := `SUMMARY: The team is finalizing the Q3 budget.
OUTCOME: Awaiting sign-off from finance.
ACTION ITEMS:
- Send the revised spreadsheet to Dana
- Book a review meeting
FOLLOW_UP: yes
PRIORITY: high
CONTEXT: Third revision this quarter.`

	p := parseSections(raw)

	if p.Summary != "The team is finalizing the Q3 budget." {
		t.Errorf("summary = %q", p.Summary)
	}
	if p.Outcome != "Awaiting sign-off from finance." {
		t.Errorf("outcome = %q", p.Outcome)
	}
	wantItems := []string{"Send the revised spreadsheet to Dana", "Book a review meeting"}
	if !reflect.DeepEqual(p.ActionItems, wantItems) {
		t.Errorf("action items = %v, want %v", p.ActionItems, wantItems)
	}
	if !p.FollowUp {
		t.Error("follow up should be true")
	}
	if p.Priority != "high" {
		t.Errorf("priority = %q", p.Priority)
	}
	if p.Context != "Third revision this quarter." {
		t.Errorf("context = %q", p.Context)
	}
}

func TestParseSectionsVariants(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, p parsedResponse)
	}{
		{
			name: "continuation lines fold into summary",
			raw:  "SUMMARY: First part\nsecond part\nPRIORITY: low",
			check: func(t *testing.T, p parsedResponse) {
				if p.Summary != "First part second part" {
					t.Errorf("summary = %q", p.Summary)
				}
			},
		},
		{
			name: "numbered and starred bullets",
			raw:  "ACTION ITEMS:\n1. First thing\n2) Second thing\n* Third thing",
			check: func(t *testing.T, p parsedResponse) {
				want := []string{"First thing", "Second thing", "Third thing"}
				if !reflect.DeepEqual(p.ActionItems, want) {
					t.Errorf("items = %v, want %v", p.ActionItems, want)
				}
			},
		},
		{
			name: "inline single action item",
			raw:  "ACTION ITEMS: reply to the vendor",
			check: func(t *testing.T, p parsedResponse) {
				if len(p.ActionItems) != 1 || p.ActionItems[0] != "reply to the vendor" {
					t.Errorf("items = %v", p.ActionItems)
				}
			},
		},
		{
			name: "action item continuation",
			raw:  "ACTION ITEMS:\n- Start the migration\nbefore Friday",
			check: func(t *testing.T, p parsedResponse) {
				if len(p.ActionItems) != 1 || p.ActionItems[0] != "Start the migration before Friday" {
					t.Errorf("items = %v", p.ActionItems)
				}
			},
		},
		{
			name: "unknown labels ignored",
			raw:  "SUMMARY: ok\nSENTIMENT: positive\nPRIORITY: medium",
			check: func(t *testing.T, p parsedResponse) {
				if p.Summary != "ok SENTIMENT: positive" && p.Summary != "ok" {
					// unknown label line folds into the open section
					t.Errorf("summary = %q", p.Summary)
				}
				if p.Priority != "medium" {
					t.Errorf("priority = %q", p.Priority)
				}
			},
		},
		{
			name: "priority with reason",
			raw:  "PRIORITY: high - board deadline tomorrow",
			check: func(t *testing.T, p parsedResponse) {
				if p.Priority != "high" {
					t.Errorf("priority = %q", p.Priority)
				}
				if p.PriorityReason != "board deadline tomorrow" {
					t.Errorf("priority reason = %q", p.PriorityReason)
				}
			},
		},
		{
			name: "follow up with reason",
			raw:  "FOLLOW_UP: yes, waiting on finance sign-off",
			check: func(t *testing.T, p parsedResponse) {
				if !p.FollowUp {
					t.Error("follow up should be true")
				}
				if p.FollowUpReason != "waiting on finance sign-off" {
					t.Errorf("follow up reason = %q", p.FollowUpReason)
				}
			},
		},
		{
			name: "follow up no",
			raw:  "FOLLOW_UP: no",
			check: func(t *testing.T, p parsedResponse) {
				if p.FollowUp {
					t.Error("follow up should be false")
				}
			},
		},
		{
			name: "lowercase labels",
			raw:  "summary: fine\npriority: LOW",
			check: func(t *testing.T, p parsedResponse) {
				if p.Summary != "fine" || p.Priority != "LOW" {
					t.Errorf("parsed = %+v", p)
				}
			},
		},
		{
			name: "empty input",
			raw:  "",
			check: func(t *testing.T, p parsedResponse) {
				if p.Summary != "" || len(p.ActionItems) != 0 {
					t.Errorf("parsed = %+v", p)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parseSections(tt.raw))
		})
	}
}

func TestFilterActionItems(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  int
	}{
		{"real items kept", []string{"Reply to Dana", "Book room"}, 2},
		{"none dropped", []string{"none"}, 0},
		{"n/a dropped", []string{"N/A"}, 0},
		{"no action dropped", []string{"No action needed"}, 0},
		{"nothing dropped", []string{"Nothing."}, 0},
		{"mixed", []string{"none", "Reply to Dana", "n/a"}, 1},
		{"blank dropped", []string{"   ", ""}, 0},
		{"generic advice dropped", []string{"consider reviewing best practices", "submit the Q3 report by Friday"}, 1},
		{"keep in mind dropped", []string{"keep in mind the timeline"}, 0},
		{"single word dropped", []string{"Review"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterActionItems(tt.items)
			if got == nil {
				t.Fatal("filtered items must never be nil")
			}
			if len(got) != tt.want {
				t.Errorf("kept %d items, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}
