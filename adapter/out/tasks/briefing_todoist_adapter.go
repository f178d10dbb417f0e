package tasks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
	"briefing_worker/pkg/apperr"
	"briefing_worker/pkg/logger"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

// TodoistAdapter implements out.TaskProviderPort against the Todoist
// REST API.
type TodoistAdapter struct {
	baseURL string
	token   string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	log     *logger.Logger
}

var _ out.TaskProviderPort = (*TodoistAdapter)(nil)

// NewTodoistAdapter creates an adapter for the given API token.
func NewTodoistAdapter(baseURL, token string) *TodoistAdapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	log := logger.Default().WithField("component", "todoist_adapter")

	cbSettings := gobreaker.Settings{
		Name:        "todoist-api",
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

	return &TodoistAdapter{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		cb:      gobreaker.NewCircuitBreaker(cbSettings),
		log:     log,
	}
}

// todoistTask mirrors the REST task representation.
type todoistTask struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Priority int      `json:"priority"`
	Labels   []string `json:"labels"`
}

// createTaskRequest is the POST /tasks payload.
type createTaskRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
}

func (a *TodoistAdapter) ListTasks(ctx context.Context) ([]domain.RemoteTask, error) {
	body, err := a.do(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}

	var raw []todoistTask
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperr.ExternalError("todoist", err)
	}

	tasks := make([]domain.RemoteTask, 0, len(raw))
	for _, t := range raw {
		tasks = append(tasks, domain.RemoteTask{
			ID:       t.ID,
			Title:    t.Content,
			Priority: t.Priority,
			Labels:   t.Labels,
		})
	}
	return tasks, nil
}

func (a *TodoistAdapter) DeleteTask(ctx context.Context, id string) error {
	_, err := a.do(ctx, http.MethodDelete, "/tasks/"+id, nil)
	return err
}

func (a *TodoistAdapter) CreateTask(ctx context.Context, intent domain.TaskIntent) (*domain.RemoteTask, error) {
	req := createTaskRequest{
		Content:     intent.Title,
		Description: intent.Description,
		Priority:    intent.Priority,
		Labels:      intent.Labels,
	}
	if intent.DueDate != nil {
		req.DueDate = intent.DueDate.Format("2006-01-02")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Internal("marshal task", err)
	}

	body, err := a.do(ctx, http.MethodPost, "/tasks", payload)
	if err != nil {
		return nil, err
	}

	var created todoistTask
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, apperr.ExternalError("todoist", err)
	}
	return &domain.RemoteTask{
		ID:       created.ID,
		Title:    created.Content,
		Priority: created.Priority,
		Labels:   created.Labels,
	}, nil
}

// do issues one API call through the circuit breaker. POST requests
// carry an idempotency key so a retried create cannot duplicate tasks.
func (a *TodoistAdapter) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var responseBody []byte

	call := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+a.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if method == http.MethodPost {
			req.Header.Set("X-Request-Id", uuid.NewString())
		}

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 400 {
			err := apperr.ExternalError("todoist",
				fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
			if resp.StatusCode < 500 && resp.StatusCode != 429 {
				return &nonCircuitError{err: err}
			}
			return err
		}

		responseBody = body
		return nil
	}

	_, err := a.cb.Execute(func() (interface{}, error) {
		return nil, call()
	})

	if nce, ok := err.(*nonCircuitError); ok {
		return nil, nce.err
	}
	if err != nil {
		return nil, err
	}
	return responseBody, nil
}

// nonCircuitError wraps errors that should not trip the circuit breaker.
type nonCircuitError struct {
	err error
}

func (e *nonCircuitError) Error() string {
	return e.err.Error()
}
