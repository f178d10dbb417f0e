package out

import (
	"context"

	"briefing_worker/core/domain"
)

// TaskProviderPort is the external task service used by synthesis.
type TaskProviderPort interface {
	ListTasks(ctx context.Context) ([]domain.RemoteTask, error)
	DeleteTask(ctx context.Context, id string) error
	CreateTask(ctx context.Context, intent domain.TaskIntent) (*domain.RemoteTask, error)
}
