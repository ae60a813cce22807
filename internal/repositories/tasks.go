package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"growtasks/internal/models"
	"growtasks/internal/storage"
)

const (
	// DefaultKey is the current schema key. Schema versions live in the key
	// suffix; older keys are never read or migrated.
	DefaultKey = "tasks_v2"
	LegacyKey  = "tasks_v1"
)

var (
	ErrStorageUnavailable = errors.New("task storage unavailable")
	ErrCorruptData        = errors.New("stored task data is corrupt")
)

type TaskRepository interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
	Key() string
}

type taskRepository struct {
	backend storage.Backend
	key     string
}

func NewTaskRepository(backend storage.Backend, key string) TaskRepository {
	if key == "" {
		key = DefaultKey
	}
	return &taskRepository{backend: backend, key: key}
}

func (r *taskRepository) Key() string {
	return r.key
}

// Load returns the stored collection in order. A key that was never written
// yields an empty collection.
func (r *taskRepository) Load(ctx context.Context) ([]models.Task, error) {
	data, err := r.backend.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	tasks := []models.Task{}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (r *taskRepository) Save(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to serialize tasks: %w", err)
	}

	if err := r.backend.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// WriteJSON writes tasks in the export format: an indented JSON array.
func WriteJSON(w io.Writer, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}
