package grouping

import (
	"sort"
	"strings"

	"briefing_worker/core/domain"
)

// replyPrefixes are the reply and forward markers stripped from subjects.
// Each may repeat any number of times in any order.
var replyPrefixes = []string{"re:", "fw:", "fwd:"}

// externalTag is a gateway annotation some mail systems inject after
// the reply marker. It never distinguishes conversations.
const externalTag = "[external]"

// NormalizeSubject strips reply and forward markers and case-folds the
// remainder. The empty string is a valid key; subjects that collapse to
// nothing group together under it.
func NormalizeSubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		lower := strings.ToLower(s)
		stripped := false
		for _, p := range replyPrefixes {
			if strings.HasPrefix(lower, p) {
				s = strings.TrimSpace(s[len(p):])
				stripped = true
				break
			}
		}
		if !stripped && strings.HasPrefix(strings.ToLower(s), externalTag) {
			s = strings.TrimSpace(s[len(externalTag):])
			stripped = true
		}
		if !stripped {
			break
		}
	}
	return strings.ToLower(s)
}

// Grouper partitions emails into threads by normalized subject.
type Grouper struct{}

func NewGrouper() *Grouper {
	return &Grouper{}
}

// GroupThreads partitions the input into threads. Every input message
// lands in exactly one thread. Threads appear in first-seen order and
// messages within a thread are sorted chronologically ascending, with
// input order preserved between equal timestamps.
func (g *Grouper) GroupThreads(emails []domain.EmailMessage) []domain.EmailThread {
	byKey := make(map[string]int, len(emails))
	threads := make([]domain.EmailThread, 0, len(emails))

	for i, msg := range emails {
		msg.InsertSeq = i
		key := NormalizeSubject(msg.Subject)

		idx, ok := byKey[key]
		if !ok {
			idx = len(threads)
			byKey[key] = idx
			subject := strings.TrimSpace(msg.Subject)
			threads = append(threads, domain.EmailThread{
				Key:     key,
				Subject: subject,
			})
		}
		threads[idx].Messages = append(threads[idx].Messages, msg)
	}

	for i := range threads {
		msgs := threads[i].Messages
		sort.SliceStable(msgs, func(a, b int) bool {
			return msgs[a].Date.Before(msgs[b].Date)
		})
	}

	return threads
}
