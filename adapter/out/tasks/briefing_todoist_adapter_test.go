package tasks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"briefing_worker/core/domain"
)

func TestListTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/tasks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token123" {
			t.Errorf("authorization = %q", got)
		}
		io.WriteString(w, `[
			{"id":"1","content":"Pay invoice","priority":4,"labels":["auto-generated"]},
			{"id":"2","content":"My own task","priority":1,"labels":["personal"]}
		]`)
	}))
	defer srv.Close()

	a := NewTodoistAdapter(srv.URL, "token123")
	tasks, err := a.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
	if tasks[0].ID != "1" || tasks[0].Title != "Pay invoice" || tasks[0].Priority != 4 {
		t.Errorf("task[0] = %+v", tasks[0])
	}
	if !tasks[0].HasLabel(domain.LabelGenerated) {
		t.Error("task[0] should carry the generated label")
	}
	if tasks[1].HasLabel(domain.LabelGenerated) {
		t.Error("task[1] must not carry the generated label")
	}
}

func TestCreateTask(t *testing.T) {
	var gotBody createTaskRequest
	var gotIdempotency string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotIdempotency = r.Header.Get("X-Request-Id")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		io.WriteString(w, `{"id":"99","content":"Pay invoice","priority":4,"labels":["auto-generated"]}`)
	}))
	defer srv.Close()

	due := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	a := NewTodoistAdapter(srv.URL, "token123")
	created, err := a.CreateTask(context.Background(), domain.TaskIntent{
		Title:    "Pay invoice",
		Priority: domain.TaskPriorityUrgent,
		Labels:   []string{domain.LabelGenerated},
		DueDate:  &due,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if created.ID != "99" {
		t.Errorf("created id = %q", created.ID)
	}
	if gotBody.Content != "Pay invoice" || gotBody.Priority != 4 {
		t.Errorf("payload = %+v", gotBody)
	}
	if gotBody.DueDate != "2026-08-25" {
		t.Errorf("due_date = %q, want 2026-08-25", gotBody.DueDate)
	}
	if gotIdempotency == "" {
		t.Error("POST must carry an X-Request-Id header")
	}
}

func TestDeleteTask(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	a := NewTodoistAdapter(srv.URL, "token123")
	if err := a.DeleteTask(context.Background(), "42"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if gotPath != "DELETE /tasks/42" {
		t.Errorf("request = %q", gotPath)
	}
}

func TestDoClientErrorDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := NewTodoistAdapter(srv.URL, "token123")

	// Well past the consecutive-failure threshold; 4xx responses must
	// keep the breaker closed so later calls still reach the API.
	for i := 0; i < 10; i++ {
		if err := a.DeleteTask(context.Background(), "missing"); err == nil {
			t.Fatal("expected error for 404")
		}
	}

	if _, err := a.ListTasks(context.Background()); err == nil {
		t.Fatal("expected error for 404")
	} else if err.Error() == "circuit breaker is open" {
		t.Error("4xx responses must not open the circuit breaker")
	}
}

func TestDoServerErrorsTripBreaker(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewTodoistAdapter(srv.URL, "token123")

	for i := 0; i < 10; i++ {
		a.DeleteTask(context.Background(), "1")
	}

	if hits >= 10 {
		t.Errorf("hits = %d, breaker should have stopped reaching the server", hits)
	}
}
