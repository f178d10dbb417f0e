package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
	"briefing_worker/core/service/analysis"
	"briefing_worker/core/service/grouping"
	"briefing_worker/core/service/scoring"
	"briefing_worker/core/service/synthesis"
)

type fakeEmailProvider struct {
	messages []domain.EmailMessage
	err      error
}

func (f *fakeEmailProvider) FetchRecent(_ context.Context, _ time.Duration, _ int) ([]domain.EmailMessage, error) {
	return f.messages, f.err
}

type fakeCalendarProvider struct {
	events []domain.CalendarEvent
	err    error
}

func (f *fakeCalendarProvider) FetchUpcoming(_ context.Context, _ time.Duration) ([]domain.CalendarEvent, error) {
	return f.events, f.err
}

type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) CompleteWithSystem(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

type fakeTasks struct {
	remote    []domain.RemoteTask
	createErr error
	created   []domain.TaskIntent
	deleted   []string
}

func (f *fakeTasks) ListTasks(_ context.Context) ([]domain.RemoteTask, error) {
	return f.remote, nil
}

func (f *fakeTasks) DeleteTask(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeTasks) CreateTask(_ context.Context, intent domain.TaskIntent) (*domain.RemoteTask, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, intent)
	return &domain.RemoteTask{ID: "x"}, nil
}

type fakeArtifactStore struct {
	artifacts []*domain.RunArtifact
	err       error
}

func (f *fakeArtifactStore) Persist(_ context.Context, a *domain.RunArtifact) error {
	if f.err != nil {
		return f.err
	}
	f.artifacts = append(f.artifacts, a)
	return nil
}

type fakeRunRepo struct {
	saved []*domain.RunArtifact
	err   error
}

func (f *fakeRunRepo) SaveRun(_ context.Context, a *domain.RunArtifact) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, a)
	return nil
}

func (f *fakeRunRepo) LatestRun(_ context.Context) (*domain.RunResult, error) {
	if len(f.saved) == 0 {
		return nil, nil
	}
	r := f.saved[len(f.saved)-1].Result
	return &r, nil
}

const highResponse = `SUMMARY: something urgent came up.
OUTCOME: waiting on you.
ACTION ITEMS:
- Reply to the sender
FOLLOW_UP: yes
PRIORITY: high
CONTEXT: ongoing deal.`

func coordinatorMessages() []domain.EmailMessage {
	base := time.Now().Add(-2 * time.Hour)
	return []domain.EmailMessage{
		{ID: "a1", ThreadID: "A", Subject: "Deal Update", From: "vp@corp.com", Date: base, Body: "status"},
		{ID: "a2", ThreadID: "A", Subject: "RE: Deal Update", From: "me@corp.com", Date: base.Add(time.Hour), Body: "reply"},
		{ID: "b1", ThreadID: "B", Subject: "Newsletter", From: "news@list.com", Date: base, Body: "weekly digest"},
	}
}

type fixture struct {
	emails   *fakeEmailProvider
	calendar *fakeCalendarProvider
	tasks    *fakeTasks
	store    *fakeArtifactStore
	runs     *fakeRunRepo
}

func newFixture(completer *fakeCompleter) (*Coordinator, *fixture) {
	f := &fixture{
		emails:   &fakeEmailProvider{messages: coordinatorMessages()},
		calendar: &fakeCalendarProvider{},
		tasks:    &fakeTasks{},
		store:    &fakeArtifactStore{},
		runs:     &fakeRunRepo{},
	}
	c := NewCoordinator(
		f.emails,
		f.calendar,
		grouping.NewGrouper(),
		scoring.NewScorer(scoring.DefaultScorerConfig()),
		analysis.NewExtractor(completer, nil, analysis.ExtractorConfig{}),
		synthesis.NewSynthesizer(f.tasks, synthesis.SynthesizerConfig{}),
		[]out.ArtifactStorePort{f.store},
		f.runs,
		CoordinatorConfig{AnalysisWorkers: 2},
	)
	return c, f
}

func TestRunOnceCounts(t *testing.T) {
	c, _ := newFixture(&fakeCompleter{response: highResponse})

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if result.RunID == "" {
		t.Error("run id must be set")
	}
	if result.ThreadsFetched != 2 {
		t.Errorf("threads fetched = %d, want 2", result.ThreadsFetched)
	}
	if result.ThreadsAnalyzed != 2 {
		t.Errorf("threads analyzed = %d, want 2", result.ThreadsAnalyzed)
	}
	if result.AnalysesByTier[domain.TierHigh] != 2 {
		t.Errorf("high tier count = %d, want 2", result.AnalysesByTier[domain.TierHigh])
	}
	if result.AnalysesByTier[domain.TierMedium] != 0 || result.AnalysesByTier[domain.TierLow] != 0 {
		t.Errorf("tier counts = %v, want all tiers present", result.AnalysesByTier)
	}
	if result.TasksCreated != 2 {
		t.Errorf("tasks created = %d, want 2 (one per high analysis)", result.TasksCreated)
	}
	if result.GeneratedAtUTC.Location() != time.UTC {
		t.Error("generated at must be UTC")
	}
}

func TestRunOnceEmailFailureAborts(t *testing.T) {
	c, f := newFixture(&fakeCompleter{response: highResponse})
	f.emails.err = errors.New("gmail unreachable")

	result, err := c.RunOnce(context.Background())
	if err == nil {
		t.Fatal("email fetch failure must fail the run")
	}
	if result != nil {
		t.Errorf("result = %v, want nil", result)
	}
	if len(f.tasks.created) != 0 || len(f.tasks.deleted) != 0 {
		t.Error("no task mutation may happen after an aborted fetch")
	}
	if len(f.store.artifacts) != 0 {
		t.Error("no artifact may be persisted after an aborted fetch")
	}
}

func TestRunOnceCalendarFailureDegrades(t *testing.T) {
	c, f := newFixture(&fakeCompleter{response: highResponse})
	f.calendar.err = errors.New("calendar unreachable")

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("calendar failure must not fail the run: %v", err)
	}
	if result.ThreadsAnalyzed != 2 {
		t.Errorf("threads analyzed = %d, want 2", result.ThreadsAnalyzed)
	}
	if len(f.store.artifacts) != 1 {
		t.Fatal("artifact must still be persisted")
	}
	if len(f.store.artifacts[0].Events) != 0 {
		t.Error("degraded run must carry no events")
	}
}

func TestRunOnceCalendarEventsCreateTasks(t *testing.T) {
	c, f := newFixture(&fakeCompleter{response: highResponse})
	f.calendar.events = []domain.CalendarEvent{
		{ID: "ev1", Summary: "Dentist appointment", Start: time.Now().Add(24 * time.Hour)},
	}

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.TasksCreated != 3 {
		t.Errorf("tasks created = %d, want 3 (2 email + 1 calendar)", result.TasksCreated)
	}
}

func TestRunOnceTaskFailuresDoNotAbort(t *testing.T) {
	c, f := newFixture(&fakeCompleter{response: highResponse})
	f.tasks.createErr = errors.New("todoist down")

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("task failures must not fail the run: %v", err)
	}
	if result.TasksCreated != 0 {
		t.Errorf("tasks created = %d, want 0", result.TasksCreated)
	}
	if len(f.store.artifacts) != 1 {
		t.Error("artifact must still be persisted")
	}
	if len(f.runs.saved) != 1 {
		t.Error("run history must still be written")
	}
}

func TestRunOnceCompletionFailureFallsBack(t *testing.T) {
	c, f := newFixture(&fakeCompleter{err: errors.New("model down")})

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("completion failures must not fail the run: %v", err)
	}
	if result.ThreadsAnalyzed != 2 {
		t.Errorf("threads analyzed = %d, want 2", result.ThreadsAnalyzed)
	}
	if result.AnalysesByTier[domain.TierLow] != 2 {
		t.Errorf("fallback analyses must be low tier: %v", result.AnalysesByTier)
	}
	for _, a := range f.store.artifacts[0].Analyses {
		if !a.Fallback {
			t.Errorf("analysis %q not marked fallback", a.ThreadKey)
		}
	}
}

func TestRunOncePersistFailureIsNotFatal(t *testing.T) {
	c, f := newFixture(&fakeCompleter{response: highResponse})
	f.store.err = errors.New("disk full")
	f.runs.err = errors.New("postgres down")

	if _, err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("persist failures must not fail the run: %v", err)
	}
}

func TestRunOnceArtifactOrderMatchesScore(t *testing.T) {
	c, f := newFixture(&fakeCompleter{response: highResponse})

	if _, err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	analyses := f.store.artifacts[0].Analyses
	if len(analyses) != 2 {
		t.Fatalf("analyses = %d, want 2", len(analyses))
	}
	// "deal update" has two messages and a newer latest message, so it
	// outscores the single-message newsletter.
	if analyses[0].ThreadKey != "deal update" {
		t.Errorf("first analysis = %q, want deal update", analyses[0].ThreadKey)
	}
	if analyses[1].ThreadKey != "newsletter" {
		t.Errorf("second analysis = %q, want newsletter", analyses[1].ThreadKey)
	}
}

func TestRunOnceNoMessages(t *testing.T) {
	c, f := newFixture(&fakeCompleter{response: highResponse})
	f.emails.messages = nil

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("empty inbox must not fail the run: %v", err)
	}
	if result.ThreadsFetched != 0 || result.ThreadsAnalyzed != 0 {
		t.Errorf("result = %+v, want zero threads", result)
	}
	if len(f.store.artifacts) != 1 {
		t.Error("artifact must be persisted even for an empty run")
	}
}
