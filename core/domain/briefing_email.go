package domain

import "time"

// EmailMessage is a single message as returned by an email provider.
type EmailMessage struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id,omitempty"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	Date       time.Time `json:"date"`
	Preview    string    `json:"preview"`
	Body       string    `json:"body"`
	LabelIDs   []string  `json:"label_ids,omitempty"`
	Unread     bool      `json:"unread"`
	InsertSeq  int       `json:"-"`
}

// EmailThread is a group of messages sharing a normalized subject.
type EmailThread struct {
	Key      string         `json:"key"`
	Subject  string         `json:"subject"`
	Messages []EmailMessage `json:"messages"`
}

// Newest returns the chronologically last message of the thread.
// Messages are kept sorted ascending, so this is the final element.
func (t *EmailThread) Newest() *EmailMessage {
	if len(t.Messages) == 0 {
		return nil
	}
	return &t.Messages[len(t.Messages)-1]
}

// Oldest returns the chronologically first message of the thread.
func (t *EmailThread) Oldest() *EmailMessage {
	if len(t.Messages) == 0 {
		return nil
	}
	return &t.Messages[0]
}

// Count returns the number of messages in the thread.
func (t *EmailThread) Count() int {
	return len(t.Messages)
}
