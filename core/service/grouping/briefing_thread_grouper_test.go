package grouping

import (
	"testing"
	"time"

	"briefing_worker/core/domain"
)

func TestNormalizeSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"plain", "Budget Review", "budget review"},
		{"single reply", "RE: Budget Review", "budget review"},
		{"lowercase reply", "re: Budget Review", "budget review"},
		{"forward", "FW: Budget Review", "budget review"},
		{"fwd", "Fwd: Budget Review", "budget review"},
		{"stacked prefixes", "RE: FW: Re: Budget Review", "budget review"},
		{"external tag", "RE: [External] Budget Review", "budget review"},
		{"whitespace", "  RE:   Budget Review  ", "budget review"},
		{"empty", "", ""},
		{"only prefixes", "RE: FW:", ""},
		{"prefix mid-subject untouched", "Update RE: Budget", "update re: budget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSubject(tt.subject)
			if got != tt.want {
				t.Errorf("NormalizeSubject(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}
}

func TestGroupThreadsBudgetReview(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	emails := []domain.EmailMessage{
		{ID: "1", Subject: "Budget Review", From: "alice@corp.com", Date: base},
		{ID: "2", Subject: "Lunch?", From: "bob@corp.com", Date: base.Add(time.Hour)},
		{ID: "3", Subject: "RE: Budget Review", From: "bob@corp.com", Date: base.Add(2 * time.Hour)},
		{ID: "4", Subject: "RE: RE: Budget Review", From: "alice@corp.com", Date: base.Add(3 * time.Hour)},
	}

	threads := NewGrouper().GroupThreads(emails)

	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}

	budget := threads[0]
	if budget.Key != "budget review" {
		t.Errorf("thread key = %q, want %q", budget.Key, "budget review")
	}
	if budget.Count() != 3 {
		t.Fatalf("budget thread has %d messages, want 3", budget.Count())
	}
	for i, wantID := range []string{"1", "3", "4"} {
		if budget.Messages[i].ID != wantID {
			t.Errorf("budget message %d = %s, want %s", i, budget.Messages[i].ID, wantID)
		}
	}
}

func TestGroupThreadsPartition(t *testing.T) {
	base := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	emails := []domain.EmailMessage{
		{ID: "a", Subject: "One", Date: base},
		{ID: "b", Subject: "RE: One", Date: base.Add(time.Minute)},
		{ID: "c", Subject: "Two", Date: base},
		{ID: "d", Subject: "", Date: base},
		{ID: "e", Subject: "FW:", Date: base},
	}

	threads := NewGrouper().GroupThreads(emails)

	seen := make(map[string]int)
	for _, th := range threads {
		for _, m := range th.Messages {
			seen[m.ID]++
		}
	}

	if len(seen) != len(emails) {
		t.Fatalf("partition lost messages: saw %d of %d", len(seen), len(emails))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("message %s appears %d times, want 1", id, n)
		}
	}
}

func TestGroupThreadsEmptySubjectsShareThread(t *testing.T) {
	emails := []domain.EmailMessage{
		{ID: "a", Subject: ""},
		{ID: "b", Subject: "RE: "},
		{ID: "c", Subject: "  "},
	}

	threads := NewGrouper().GroupThreads(emails)
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread for empty subjects, got %d", len(threads))
	}
	if threads[0].Key != "" {
		t.Errorf("empty key expected, got %q", threads[0].Key)
	}
}

func TestGroupThreadsStableForEqualTimestamps(t *testing.T) {
	// Zero-time dates sort equal; input order must survive.
	emails := []domain.EmailMessage{
		{ID: "first", Subject: "X"},
		{ID: "second", Subject: "re: X"},
		{ID: "third", Subject: "fwd: X"},
	}

	threads := NewGrouper().GroupThreads(emails)
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	for i, wantID := range []string{"first", "second", "third"} {
		if threads[0].Messages[i].ID != wantID {
			t.Errorf("message %d = %s, want %s", i, threads[0].Messages[i].ID, wantID)
		}
	}
}

func TestGroupThreadsNeverFails(t *testing.T) {
	if got := NewGrouper().GroupThreads(nil); len(got) != 0 {
		t.Errorf("nil input should yield no threads, got %d", len(got))
	}
	if got := NewGrouper().GroupThreads([]domain.EmailMessage{}); len(got) != 0 {
		t.Errorf("empty input should yield no threads, got %d", len(got))
	}
}
