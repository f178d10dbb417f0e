package synthesis

import (
	"context"
	"strings"
	"time"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
	"briefing_worker/pkg/logger"
)

const (
	DefaultMediumTaskLimit = 3

	titleSoftLimit = 60
	titleHardLimit = 80
)

// SynthesizerConfig tunes task generation.
type SynthesizerConfig struct {
	MediumTaskLimit int
}

// SyncReport summarizes one reconciliation pass.
type SyncReport struct {
	Deleted int
	Created int
	Failed  int
	Intents []domain.TaskIntent
}

// Synthesizer reconciles the remote task list with the current
// analyses and events. Reconciliation is delete-then-create: every
// remote task labeled as generated is removed before any new task is
// written, so repeated runs converge on the same task set.
type Synthesizer struct {
	tasks out.TaskProviderPort
	cfg   SynthesizerConfig
	now   func() time.Time
	log   *logger.Logger
}

func NewSynthesizer(tasks out.TaskProviderPort, cfg SynthesizerConfig) *Synthesizer {
	if cfg.MediumTaskLimit <= 0 {
		cfg.MediumTaskLimit = DefaultMediumTaskLimit
	}
	return &Synthesizer{
		tasks: tasks,
		cfg:   cfg,
		now:   time.Now,
		log:   logger.Default().WithField("component", "synthesizer"),
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Synthesizer) WithClock(now func() time.Time) *Synthesizer {
	s.now = now
	return s
}

// Reconcile deletes previously generated tasks and creates tasks from
// the given analyses and events. Individual task failures are logged
// and skipped; Reconcile never returns an error for them. Analyses are
// expected in score order, highest first.
func (s *Synthesizer) Reconcile(ctx context.Context, analyses []domain.ThreadAnalysis, events []domain.CalendarEvent) *SyncReport {
	report := &SyncReport{}

	s.deleteGenerated(ctx, report)

	intents := s.Plan(analyses, events)
	report.Intents = intents

	for _, intent := range intents {
		if _, err := s.tasks.CreateTask(ctx, intent); err != nil {
			report.Failed++
			s.log.WithError(err).WithField("title", intent.Title).
				Warn("task create failed, skipping")
			continue
		}
		report.Created++
	}

	return report
}

// deleteGenerated removes every remote task carrying the generated
// label. Best effort: list or delete failures leave foreign tasks
// untouched and the run continues.
func (s *Synthesizer) deleteGenerated(ctx context.Context, report *SyncReport) {
	remote, err := s.tasks.ListTasks(ctx)
	if err != nil {
		s.log.WithError(err).Warn("task list failed, skipping delete phase")
		return
	}

	for _, t := range remote {
		if !t.HasLabel(domain.LabelGenerated) {
			continue
		}
		if err := s.tasks.DeleteTask(ctx, t.ID); err != nil {
			report.Failed++
			s.log.WithError(err).WithField("task_id", t.ID).
				Warn("task delete failed, skipping")
			continue
		}
		report.Deleted++
	}
}

// Plan computes the task intents for the given inputs without touching
// the remote service.
func (s *Synthesizer) Plan(analyses []domain.ThreadAnalysis, events []domain.CalendarEvent) []domain.TaskIntent {
	intents := make([]domain.TaskIntent, 0, len(analyses)+len(events))
	intents = append(intents, s.planEmailTasks(analyses)...)
	intents = append(intents, s.planCalendarTasks(events)...)
	return intents
}

// planEmailTasks applies the tier policy: every high-tier analysis
// yields one urgent task from its first action item; medium-tier
// analyses yield tasks up to the configured limit; low tier yields
// nothing.
func (s *Synthesizer) planEmailTasks(analyses []domain.ThreadAnalysis) []domain.TaskIntent {
	intents := make([]domain.TaskIntent, 0, len(analyses))
	today := s.today()
	mediumUsed := 0

	for _, a := range analyses {
		switch a.Tier {
		case domain.TierHigh:
			intents = append(intents, domain.TaskIntent{
				Title:       truncateTitle(emailTaskTitle(&a)),
				Description: emailTaskDescription(&a),
				Priority:    domain.TaskPriorityUrgent,
				Labels:      []string{domain.LabelGenerated},
				DueDate:     &today,
				Source:      "email",
			})
		case domain.TierMedium:
			if mediumUsed >= s.cfg.MediumTaskLimit {
				continue
			}
			mediumUsed++
			intents = append(intents, domain.TaskIntent{
				Title:       truncateTitle(emailTaskTitle(&a)),
				Description: emailTaskDescription(&a),
				Priority:    domain.TaskPriorityHigh,
				Labels:      []string{domain.LabelGenerated},
				Source:      "email",
			})
		}
	}
	return intents
}

func (s *Synthesizer) planCalendarTasks(events []domain.CalendarEvent) []domain.TaskIntent {
	intents := make([]domain.TaskIntent, 0, len(events))
	for _, e := range events {
		priority, ok := classifyEvent(&e)
		if !ok {
			continue
		}
		due := e.Start
		intents = append(intents, domain.TaskIntent{
			Title:       truncateTitle(e.Summary),
			Description: calendarTaskDescription(&e),
			Priority:    priority,
			Labels:      []string{domain.LabelGenerated, domain.LabelCalendar},
			DueDate:     &due,
			Source:      "calendar",
		})
	}
	return intents
}

func emailTaskTitle(a *domain.ThreadAnalysis) string {
	if item := a.FirstActionItem(); item != "" {
		return item
	}
	return a.Subject
}

// emailTaskDescription folds the analysis fields that did not make the
// title into the task body.
func emailTaskDescription(a *domain.ThreadAnalysis) string {
	parts := make([]string, 0, 4)
	if a.Summary != "" {
		parts = append(parts, a.Summary)
	}
	if a.Outcome != "" {
		parts = append(parts, "Outcome: "+a.Outcome)
	}
	if a.Context != "" {
		parts = append(parts, "Context: "+a.Context)
	}
	if a.LatestSender != "" {
		parts = append(parts, "Latest message from "+a.LatestSender)
	}
	return strings.Join(parts, "\n")
}

func calendarTaskDescription(e *domain.CalendarEvent) string {
	parts := make([]string, 0, 2)
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Location != "" {
		parts = append(parts, "Location: "+e.Location)
	}
	return strings.Join(parts, "\n")
}

// truncateTitle cuts titles past the soft limit at a hard maximum of
// 80 characters, appending an ellipsis.
func truncateTitle(title string) string {
	if len(title) <= titleHardLimit {
		return title
	}
	return title[:titleSoftLimit] + "..."
}

func (s *Synthesizer) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
