package domain

import "time"

// RunResult summarizes a single pipeline run.
type RunResult struct {
	RunID           string               `json:"run_id"`
	ThreadsFetched  int                  `json:"threads_fetched"`
	ThreadsAnalyzed int                  `json:"threads_analyzed"`
	TasksCreated    int                  `json:"tasks_created"`
	TasksDeleted    int                  `json:"tasks_deleted"`
	AnalysesByTier  map[PriorityTier]int `json:"analyses_by_tier"`
	GeneratedAtUTC  time.Time            `json:"generated_at_utc"`
	DurationMS      int64                `json:"duration_ms"`
}

// RunArtifact is the full briefing document persisted after a run.
type RunArtifact struct {
	Result   RunResult        `json:"result"`
	Analyses []ThreadAnalysis `json:"analyses"`
	Events   []CalendarEvent  `json:"events"`
	Tasks    []TaskIntent     `json:"tasks"`
}
