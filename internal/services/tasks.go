package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"growtasks/internal/models"
	"growtasks/internal/repositories"
	"growtasks/pkg/log"

	"github.com/gofrs/uuid"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrEmptyTitle      = errors.New("task title must not be empty")
	ErrInvalidCategory = errors.New("invalid task category")
	ErrInvalidPriority = errors.New("invalid task priority")
)

type AddTaskInput struct {
	Title       string
	Description string
	Priority    models.Priority
	Category    models.Category
	DueDate     *models.Date
}

// UpdateTaskInput is a shallow patch: nil fields are left untouched.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *models.Priority
	Category     *models.Category
	DueDate      *models.Date
	ClearDueDate bool
}

type TaskService interface {
	Add(ctx context.Context, input AddTaskInput) (models.Task, error)
	ToggleComplete(ctx context.Context, id string) (models.Task, error)
	Update(ctx context.Context, id string, input UpdateTaskInput) (models.Task, error)
	SoftDelete(ctx context.Context, id string) (models.Task, error)
	Restore(ctx context.Context, id string) (models.Task, error)
	PermanentlyDelete(ctx context.Context, id string) error
	ClearTrash(ctx context.Context) (int, error)

	View(t models.Task) TaskView
	Get(ctx context.Context, id string) (TaskView, error)
	All(ctx context.Context) []TaskView
	Active(ctx context.Context) []TaskView
	Completed(ctx context.Context) []TaskView
	Deleted(ctx context.Context) []TaskView
	ByCategory(ctx context.Context, category models.Category) []TaskView
	ActiveByCategory(ctx context.Context, category models.Category) []TaskView
	Groups(ctx context.Context) []CategoryGroup
	Counts(ctx context.Context) map[models.Category]int
	CompletedByDay(ctx context.Context) []DayGroup
	TodayStats(ctx context.Context) DailyStats
	Garden(ctx context.Context) GardenState
	Export(ctx context.Context, w io.Writer) error
}

// TaskServiceImpl owns the task collection. The stored collection is re-read
// at the start of every operation, so other processes sharing the backend
// are never overwritten, and the whole of it is saved after every mutation.
// All access goes through mu.
type TaskServiceImpl struct {
	repo  repositories.TaskRepository
	l     log.Logger
	now   func() time.Time
	loc   *time.Location
	newID func() (string, error)

	mu     sync.Mutex
	loaded bool
	// unsaved is set while the last write was dropped; memory stays
	// authoritative until a write succeeds.
	unsaved bool
	tasks   []models.Task
}

var _ TaskService = (*TaskServiceImpl)(nil)

type Option func(*TaskServiceImpl)

func WithClock(now func() time.Time) Option {
	return func(s *TaskServiceImpl) { s.now = now }
}

// WithLocation sets the zone whose calendar decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *TaskServiceImpl) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *TaskServiceImpl) { s.newID = gen }
}

func NewTaskService(repo repositories.TaskRepository, l log.Logger, opts ...Option) *TaskServiceImpl {
	s := &TaskServiceImpl{
		repo:  repo,
		l:     l,
		now:   time.Now,
		loc:   time.Local,
		newID: newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *TaskServiceImpl) clock() time.Time {
	return s.now().In(s.loc)
}

// refresh must be called with mu held. It replaces the collection with the
// stored one. Unreadable or corrupt storage starts an empty collection on the
// first load and keeps the current one afterwards.
func (s *TaskServiceImpl) refresh(ctx context.Context) {
	if s.unsaved {
		return
	}

	tasks, err := s.repo.Load(ctx)
	if err != nil {
		if !s.loaded {
			s.l.Errorf(ctx, "services.TaskService.load %s: %v; starting with an empty collection", s.repo.Key(), err)
			s.tasks = []models.Task{}
			s.loaded = true
		} else {
			s.l.Warnf(ctx, "services.TaskService.load %s: %v; keeping %d tasks in memory", s.repo.Key(), err, len(s.tasks))
		}
		return
	}
	if !s.loaded {
		s.l.Debugf(ctx, "services.TaskService.load: %d tasks from %s", len(tasks), s.repo.Key())
	}
	s.tasks = tasks
	s.loaded = true
}

// persist must be called with mu held. A failed write is logged and dropped;
// the in-memory collection stays authoritative until a later write succeeds.
func (s *TaskServiceImpl) persist(ctx context.Context) {
	if err := s.repo.Save(ctx, s.tasks); err != nil {
		s.l.Errorf(ctx, "services.TaskService.persist %s: %v", s.repo.Key(), err)
		s.unsaved = true
		return
	}
	s.unsaved = false
}

func (s *TaskServiceImpl) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskServiceImpl) Add(ctx context.Context, input AddTaskInput) (models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}

	category := input.Category
	if category == "" {
		category = models.CategoryToday
	}
	if !category.Valid() {
		return models.Task{}, ErrInvalidCategory
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return models.Task{}, ErrInvalidPriority
	}

	id, err := s.newID()
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Priority:    priority,
		Category:    category,
		CreatedAt:   s.clock(),
	}
	if input.DueDate != nil {
		d := *input.DueDate
		task.DueDate = &d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	if s.indexOf(task.ID) >= 0 {
		return models.Task{}, errors.New("generated task id already exists")
	}

	s.tasks = append([]models.Task{task}, s.tasks...)
	s.persist(ctx)

	return task.Clone(), nil
}

func (s *TaskServiceImpl) ToggleComplete(ctx context.Context, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	t := &s.tasks[i]
	t.Completed = !t.Completed
	if t.Completed {
		ts := s.clock()
		t.CompletedAt = &ts
	} else {
		t.CompletedAt = nil
	}
	s.persist(ctx)

	return t.Clone(), nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, id string, input UpdateTaskInput) (models.Task, error) {
	var title string
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			return models.Task{}, ErrEmptyTitle
		}
	}
	if input.Category != nil && !input.Category.Valid() {
		return models.Task{}, ErrInvalidCategory
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return models.Task{}, ErrInvalidPriority
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	t := &s.tasks[i]
	if input.Title != nil {
		t.Title = title
	}
	if input.Description != nil {
		t.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		t.Priority = *input.Priority
	}
	if input.Category != nil {
		t.Category = *input.Category
	}
	switch {
	case input.ClearDueDate:
		t.DueDate = nil
	case input.DueDate != nil:
		d := *input.DueDate
		t.DueDate = &d
	}
	s.persist(ctx)

	return t.Clone(), nil
}

func (s *TaskServiceImpl) SoftDelete(ctx context.Context, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	t := &s.tasks[i]
	if t.Deleted {
		return t.Clone(), nil
	}
	ts := s.clock()
	t.Deleted = true
	t.DeletedAt = &ts
	s.persist(ctx)

	return t.Clone(), nil
}

func (s *TaskServiceImpl) Restore(ctx context.Context, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrTaskNotFound
	}

	t := &s.tasks[i]
	if !t.Deleted {
		return t.Clone(), nil
	}
	t.Deleted = false
	t.DeletedAt = nil
	s.persist(ctx)

	return t.Clone(), nil
}

func (s *TaskServiceImpl) PermanentlyDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	i := s.indexOf(id)
	if i < 0 {
		return ErrTaskNotFound
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.persist(ctx)
	return nil
}

// ClearTrash purges every soft-deleted task and reports how many were removed.
func (s *TaskServiceImpl) ClearTrash(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	kept := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Deleted {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	s.persist(ctx)

	return removed, nil
}
