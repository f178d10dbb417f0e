package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
	"briefing_worker/pkg/logger"
)

// GmailConfig holds Gmail credentials. The refresh token is provisioned
// out of band; there is no interactive OAuth flow in this process.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// GmailAdapter implements out.EmailProviderPort for Gmail.
type GmailAdapter struct {
	config *oauth2.Config
	token  *oauth2.Token
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger
}

var _ out.EmailProviderPort = (*GmailAdapter)(nil)

// NewGmailAdapter creates a new Gmail adapter.
func NewGmailAdapter(cfg *GmailConfig) *GmailAdapter {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}

	log := logger.Default().WithField("component", "gmail_adapter")

	cbSettings := gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			_, ok := err.(*nonCircuitError)
			return ok
		},
	}

	return &GmailAdapter{
		config: config,
		token:  &oauth2.Token{RefreshToken: cfg.RefreshToken},
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    log,
	}
}

func (a *GmailAdapter) service(ctx context.Context) (*gmail.Service, error) {
	source := a.config.TokenSource(ctx, a.token)
	return gmail.NewService(ctx, option.WithTokenSource(source))
}

// FetchRecent lists message IDs inside the lookback window and fetches
// each message in parallel, bounded to stay under the API rate limit.
// Partial fetch failures drop individual messages, not the batch.
func (a *GmailAdapter) FetchRecent(ctx context.Context, lookback time.Duration, max int) ([]domain.EmailMessage, error) {
	svc, err := a.service(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	if max <= 0 {
		max = 100
	}
	query := fmt.Sprintf("newer_than:%dh in:inbox", int(lookback.Hours())+1)

	var listResp *gmail.ListMessagesResponse
	cbErr := a.executeWithCircuitBreaker("ListMessages", func() error {
		var err error
		listResp, err = svc.Users.Messages.List("me").
			Q(query).
			MaxResults(int64(max)).
			Context(ctx).Do()
		return err
	})
	if cbErr != nil {
		return nil, fmt.Errorf("list messages: %w", cbErr)
	}

	return a.fetchMessagesParallel(ctx, svc, listResp.Messages), nil
}

// fetchMessagesParallel fetches full messages with bounded concurrency,
// preserving the listing order of the survivors.
func (a *GmailAdapter) fetchMessagesParallel(ctx context.Context, svc *gmail.Service, refs []*gmail.Message) []domain.EmailMessage {
	if len(refs) == 0 {
		return nil
	}

	const maxConcurrency = 10
	const perMessageTimeout = 15 * time.Second

	type result struct {
		index int
		msg   domain.EmailMessage
		err   error
	}

	results := make(chan result, len(refs))
	sem := make(chan struct{}, maxConcurrency)

	for i, ref := range refs {
		go func(idx int, id string) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- result{index: idx, err: ctx.Err()}
				return
			}

			msgCtx, cancel := context.WithTimeout(ctx, perMessageTimeout)
			defer cancel()

			full, err := svc.Users.Messages.Get("me", id).
				Format("full").
				Context(msgCtx).Do()
			if err != nil {
				results <- result{index: idx, err: err}
				return
			}
			results <- result{index: idx, msg: a.convertMessage(full)}
		}(i, ref.Id)
	}

	messages := make([]domain.EmailMessage, len(refs))
	failed := 0
	for collected := 0; collected < len(refs); collected++ {
		r := <-results
		if r.err != nil {
			failed++
			continue
		}
		messages[r.index] = r.msg
	}
	if failed > 0 {
		a.log.WithField("failed", failed).Warn("some messages could not be fetched")
	}

	filtered := make([]domain.EmailMessage, 0, len(messages)-failed)
	for _, msg := range messages {
		if msg.ID != "" {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func (a *GmailAdapter) convertMessage(msg *gmail.Message) domain.EmailMessage {
	result := domain.EmailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Preview:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}

	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			result.Unread = true
			break
		}
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				result.Subject = h.Value
			case "From":
				result.From = h.Value
			case "Date":
				if t, err := mail.ParseDate(h.Value); err == nil {
					result.Date = t
				}
			}
		}
		result.Body = extractPlainText(msg.Payload)
	}

	// Internal date is authoritative when the Date header is missing
	// or malformed.
	if result.Date.IsZero() && msg.InternalDate > 0 {
		result.Date = time.UnixMilli(msg.InternalDate).UTC()
	}

	return result
}

// extractPlainText walks the MIME tree for the first text/plain part,
// falling back to the top-level body.
func extractPlainText(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if strings.HasPrefix(payload.MimeType, "text/plain") && payload.Body != nil {
		return decodeBody(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if text := extractPlainText(part); text != "" {
			return text
		}
	}
	if payload.Body != nil {
		return decodeBody(payload.Body.Data)
	}
	return ""
}

func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// executeWithCircuitBreaker wraps an API call with circuit breaker
// protection. Client errors (4xx except 429) never trip the breaker.
func (a *GmailAdapter) executeWithCircuitBreaker(operation string, fn func() error) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		if err := fn(); err != nil {
			if apiErr, ok := err.(*googleapi.Error); ok {
				switch apiErr.Code {
				case 400, 401, 403, 404:
					return nil, &nonCircuitError{err: err}
				}
			}
			return nil, err
		}
		return nil, nil
	})

	if nce, ok := err.(*nonCircuitError); ok {
		return nce.err
	}

	if err != nil {
		a.log.WithError(err).WithField("operation", operation).
			Warn("gmail call failed (breaker state %s)", a.cb.State().String())
	}

	return err
}

// nonCircuitError wraps errors that should not trip the circuit breaker.
type nonCircuitError struct {
	err error
}

func (e *nonCircuitError) Error() string {
	return e.err.Error()
}
