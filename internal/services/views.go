package services

import (
	"context"
	"io"
	"sort"
	"time"

	"growtasks/internal/models"
	"growtasks/internal/repositories"
)

// TaskView is a task together with the category it is displayed under right now.
type TaskView struct {
	models.Task
	EffectiveCategory models.Category `json:"effectiveCategory"`
}

type CategoryGroup struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
	Tasks    []TaskView      `json:"tasks"`
}

// DayGroup holds the tasks completed on one calendar day.
type DayGroup struct {
	Date    models.Date `json:"date"`
	IsToday bool        `json:"isToday"`
	Tasks   []TaskView  `json:"tasks"`
}

// snapshot copies the collection and reads the clock under the lock so every
// view is computed against one consistent state.
func (s *TaskServiceImpl) snapshot(ctx context.Context) ([]models.Task, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)

	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out, s.clock()
}

// View pairs t with the category it is displayed under now.
func (s *TaskServiceImpl) View(t models.Task) TaskView {
	return view(t, s.clock())
}

func view(t models.Task, now time.Time) TaskView {
	return TaskView{Task: t, EffectiveCategory: models.SafeEffectiveCategory(t, now)}
}

func filterViews(tasks []models.Task, now time.Time, keep func(models.Task) bool) []TaskView {
	out := []TaskView{}
	for _, t := range tasks {
		if keep(t) {
			out = append(out, view(t, now))
		}
	}
	return out
}

func (s *TaskServiceImpl) Get(ctx context.Context, id string) (TaskView, error) {
	tasks, now := s.snapshot(ctx)
	for _, t := range tasks {
		if t.ID == id {
			return view(t, now), nil
		}
	}
	return TaskView{}, ErrTaskNotFound
}

// Export writes the collection the service is serving, trash included, as
// indented JSON.
func (s *TaskServiceImpl) Export(ctx context.Context, w io.Writer) error {
	tasks, _ := s.snapshot(ctx)
	return repositories.WriteJSON(w, tasks)
}

// All returns every task in collection order, trash included.
func (s *TaskServiceImpl) All(ctx context.Context) []TaskView {
	tasks, now := s.snapshot(ctx)
	return filterViews(tasks, now, func(models.Task) bool { return true })
}

func (s *TaskServiceImpl) Active(ctx context.Context) []TaskView {
	tasks, now := s.snapshot(ctx)
	return filterViews(tasks, now, models.Task.IsActive)
}

func (s *TaskServiceImpl) Completed(ctx context.Context) []TaskView {
	tasks, now := s.snapshot(ctx)
	return filterViews(tasks, now, func(t models.Task) bool { return !t.Deleted && t.Completed })
}

// Deleted returns the trash, most recently deleted first.
func (s *TaskServiceImpl) Deleted(ctx context.Context) []TaskView {
	tasks, now := s.snapshot(ctx)
	out := filterViews(tasks, now, func(t models.Task) bool { return t.Deleted })
	sort.SliceStable(out, func(i, j int) bool {
		return deletedAt(out[i]).After(deletedAt(out[j]))
	})
	return out
}

func deletedAt(v TaskView) time.Time {
	if v.DeletedAt == nil {
		return time.Time{}
	}
	return *v.DeletedAt
}

func byCategory(tasks []models.Task, now time.Time, category models.Category) []TaskView {
	out := filterViews(tasks, now, func(t models.Task) bool {
		return !t.Deleted && models.SafeEffectiveCategory(t, now) == category
	})
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Completed && out[j].Completed
	})
	return out
}

// ByCategory returns non-deleted tasks displayed under category, open tasks first.
func (s *TaskServiceImpl) ByCategory(ctx context.Context, category models.Category) []TaskView {
	tasks, now := s.snapshot(ctx)
	return byCategory(tasks, now, category)
}

// ActiveByCategory returns the open tasks displayed under category.
func (s *TaskServiceImpl) ActiveByCategory(ctx context.Context, category models.Category) []TaskView {
	tasks, now := s.snapshot(ctx)
	out := []TaskView{}
	for _, v := range byCategory(tasks, now, category) {
		if !v.Completed {
			out = append(out, v)
		}
	}
	return out
}

func (s *TaskServiceImpl) Groups(ctx context.Context) []CategoryGroup {
	tasks, now := s.snapshot(ctx)
	groups := make([]CategoryGroup, 0, len(models.Categories))
	for _, c := range models.Categories {
		views := byCategory(tasks, now, c)
		groups = append(groups, CategoryGroup{Category: c, Count: len(views), Tasks: views})
	}
	return groups
}

func (s *TaskServiceImpl) Counts(ctx context.Context) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, g := range s.Groups(ctx) {
		counts[g.Category] = g.Count
	}
	return counts
}

// CompletedByDay groups completed tasks by the day they were completed:
// today first, then older days newest first.
func (s *TaskServiceImpl) CompletedByDay(ctx context.Context) []DayGroup {
	tasks, now := s.snapshot(ctx)
	today := models.DateOf(now)

	index := map[models.Date]int{}
	groups := []DayGroup{}
	for _, t := range tasks {
		if t.Deleted || !t.Completed || t.CompletedAt == nil {
			continue
		}
		day := models.DateOf(t.CompletedAt.In(now.Location()))
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Date: day, IsToday: day == today})
		}
		groups[i].Tasks = append(groups[i].Tasks, view(t, now))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].IsToday != groups[j].IsToday {
			return groups[i].IsToday
		}
		return groups[i].Date.DaysSince(groups[j].Date) > 0
	})
	for _, g := range groups {
		sort.SliceStable(g.Tasks, func(i, j int) bool {
			return g.Tasks[i].CompletedAt.After(*g.Tasks[j].CompletedAt)
		})
	}
	return groups
}
