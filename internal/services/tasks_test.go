package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"growtasks/internal/models"
	"growtasks/internal/repositories"
	"growtasks/internal/services"
	"growtasks/internal/storage"
	"growtasks/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// recordingRepo counts saves and can be told to fail.
type recordingRepo struct {
	repositories.TaskRepository
	saves    int
	failSave bool
	failLoad error
}

func (r *recordingRepo) Load(ctx context.Context) ([]models.Task, error) {
	if r.failLoad != nil {
		return nil, r.failLoad
	}
	return r.TaskRepository.Load(ctx)
}

func (r *recordingRepo) Save(ctx context.Context, tasks []models.Task) error {
	r.saves++
	if r.failSave {
		return repositories.ErrStorageUnavailable
	}
	return r.TaskRepository.Save(ctx, tasks)
}

type TaskServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	backend *storage.MemoryBackend
	repo    *recordingRepo
	service *services.TaskServiceImpl
	now     time.Time
	nextID  int
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = storage.NewMemoryBackend()
	s.repo = &recordingRepo{TaskRepository: repositories.NewTaskRepository(s.backend, repositories.DefaultKey)}
	s.now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	s.nextID = 0
	s.service = s.newService()
}

func (s *TaskServiceTestSuite) newService() *services.TaskServiceImpl {
	return services.NewTaskService(s.repo, log.NewNop(),
		services.WithClock(func() time.Time { return s.now }),
		services.WithLocation(time.UTC),
		services.WithIDGenerator(func() (string, error) {
			s.nextID++
			return fmt.Sprintf("task-%d", s.nextID), nil
		}),
	)
}

func (s *TaskServiceTestSuite) date(offset int) *models.Date {
	d := models.DateOf(s.now).AddDays(offset)
	return &d
}

func (s *TaskServiceTestSuite) add(title string, category models.Category) models.Task {
	task, err := s.service.Add(s.ctx, services.AddTaskInput{Title: title, Category: category})
	s.Require().NoError(err)
	return task
}

func (s *TaskServiceTestSuite) ids(views []services.TaskView) []string {
	out := []string{}
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func (s *TaskServiceTestSuite) TestAdd_DefaultsAndOrdering() {
	first := s.add("  first  ", models.CategoryWeek)
	second := s.add("second", "")

	s.Equal("first", first.Title)
	s.Equal(models.PriorityMedium, first.Priority)
	s.Equal(models.CategoryToday, second.Category)
	s.False(first.Completed)
	s.False(first.Deleted)
	s.Nil(first.CompletedAt)
	s.Nil(first.DeletedAt)
	s.True(first.CreatedAt.Equal(s.now))

	s.Equal([]string{"task-2", "task-1"}, s.ids(s.service.All(s.ctx)), "new tasks go to the front")
	s.Equal(2, s.repo.saves)
}

func (s *TaskServiceTestSuite) TestAdd_Validation() {
	_, err := s.service.Add(s.ctx, services.AddTaskInput{Title: "   "})
	s.ErrorIs(err, services.ErrEmptyTitle)

	_, err = s.service.Add(s.ctx, services.AddTaskInput{Title: "x", Category: "later"})
	s.ErrorIs(err, services.ErrInvalidCategory)

	_, err = s.service.Add(s.ctx, services.AddTaskInput{Title: "x", Priority: "urgent"})
	s.ErrorIs(err, services.ErrInvalidPriority)

	s.Empty(s.service.All(s.ctx))
	s.Equal(0, s.repo.saves, "rejected input is a no-op")
}

func (s *TaskServiceTestSuite) TestToggleComplete_TwiceRestoresState() {
	task := s.add("t", models.CategoryToday)

	toggled, err := s.service.ToggleComplete(s.ctx, task.ID)
	s.Require().NoError(err)
	s.True(toggled.Completed)
	s.Require().NotNil(toggled.CompletedAt)
	s.True(toggled.CompletedAt.Equal(s.now))

	back, err := s.service.ToggleComplete(s.ctx, task.ID)
	s.Require().NoError(err)
	s.False(back.Completed)
	s.Nil(back.CompletedAt)
}

func (s *TaskServiceTestSuite) TestToggleComplete_UnknownID() {
	s.add("t", models.CategoryToday)
	saves := s.repo.saves

	_, err := s.service.ToggleComplete(s.ctx, "missing")
	s.ErrorIs(err, services.ErrTaskNotFound)
	s.Equal(saves, s.repo.saves)
}

func (s *TaskServiceTestSuite) TestUpdate_ShallowMerge() {
	task, err := s.service.Add(s.ctx, services.AddTaskInput{
		Title:       "draft",
		Description: "keep me",
		Category:    models.CategorySomeday,
		DueDate:     s.date(20),
	})
	s.Require().NoError(err)

	title := "final"
	high := models.PriorityHigh
	updated, err := s.service.Update(s.ctx, task.ID, services.UpdateTaskInput{Title: &title, Priority: &high})
	s.Require().NoError(err)

	s.Equal("final", updated.Title)
	s.Equal(models.PriorityHigh, updated.Priority)
	s.Equal("keep me", updated.Description)
	s.Equal(models.CategorySomeday, updated.Category)
	s.Equal(s.date(20), updated.DueDate)
	s.Equal(task.ID, updated.ID)
	s.True(task.CreatedAt.Equal(updated.CreatedAt))
}

func (s *TaskServiceTestSuite) TestUpdate_DueDateAndCategory() {
	task := s.add("t", models.CategorySomeday)

	updated, err := s.service.Update(s.ctx, task.ID, services.UpdateTaskInput{DueDate: s.date(3)})
	s.Require().NoError(err)
	s.Equal(s.date(3), updated.DueDate)

	week := models.CategoryWeek
	updated, err = s.service.Update(s.ctx, task.ID, services.UpdateTaskInput{Category: &week, ClearDueDate: true})
	s.Require().NoError(err)
	s.Nil(updated.DueDate)
	s.Equal(models.CategoryWeek, updated.Category)
}

func (s *TaskServiceTestSuite) TestUpdate_RejectsBlankTitle() {
	task := s.add("keep", models.CategoryToday)
	blank := " "
	desc := "changed"

	_, err := s.service.Update(s.ctx, task.ID, services.UpdateTaskInput{Title: &blank, Description: &desc})
	s.ErrorIs(err, services.ErrEmptyTitle)

	got, err := s.service.Get(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("keep", got.Title)
	s.Empty(got.Description, "rejected updates apply nothing")
}

func (s *TaskServiceTestSuite) TestUpdate_UnknownID() {
	title := "x"
	_, err := s.service.Update(s.ctx, "missing", services.UpdateTaskInput{Title: &title})
	s.ErrorIs(err, services.ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestSoftDeleteThenRestore() {
	task := s.add("t", models.CategoryToday)

	deleted, err := s.service.SoftDelete(s.ctx, task.ID)
	s.Require().NoError(err)
	s.True(deleted.Deleted)
	s.Require().NotNil(deleted.DeletedAt)
	s.Empty(s.service.Active(s.ctx))
	s.Equal([]string{task.ID}, s.ids(s.service.Deleted(s.ctx)))

	restored, err := s.service.Restore(s.ctx, task.ID)
	s.Require().NoError(err)
	s.False(restored.Deleted)
	s.Nil(restored.DeletedAt)
	s.Equal([]string{task.ID}, s.ids(s.service.Active(s.ctx)))
	s.Empty(s.service.Deleted(s.ctx))
}

func (s *TaskServiceTestSuite) TestRestore_NotDeletedIsNoop() {
	task := s.add("t", models.CategoryToday)
	saves := s.repo.saves

	restored, err := s.service.Restore(s.ctx, task.ID)
	s.Require().NoError(err)
	s.False(restored.Deleted)
	s.Equal(saves, s.repo.saves)
}

func (s *TaskServiceTestSuite) TestSoftDeleteThenPermanentlyDelete() {
	task := s.add("t", models.CategoryToday)
	_, err := s.service.SoftDelete(s.ctx, task.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.service.PermanentlyDelete(s.ctx, task.ID))

	s.Empty(s.service.All(s.ctx))
	s.Empty(s.service.Deleted(s.ctx))
	s.Empty(s.service.ByCategory(s.ctx, models.CategoryToday))
	_, err = s.service.Get(s.ctx, task.ID)
	s.ErrorIs(err, services.ErrTaskNotFound)

	s.ErrorIs(s.service.PermanentlyDelete(s.ctx, task.ID), services.ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestClearTrash_RemovesExactlyDeleted() {
	keep1 := s.add("keep1", models.CategoryToday)
	drop1 := s.add("drop1", models.CategoryWeek)
	keep2 := s.add("keep2", models.CategorySomeday)
	drop2 := s.add("drop2", models.CategoryToday)
	_, _ = s.service.ToggleComplete(s.ctx, keep2.ID)
	_, _ = s.service.SoftDelete(s.ctx, drop1.ID)
	_, _ = s.service.SoftDelete(s.ctx, drop2.ID)

	removed, err := s.service.ClearTrash(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, removed)

	s.Equal([]string{keep2.ID, keep1.ID}, s.ids(s.service.All(s.ctx)))
	kept, _ := s.service.Get(s.ctx, keep2.ID)
	s.True(kept.Completed, "untouched tasks keep their state")
}

func (s *TaskServiceTestSuite) TestClearTrash_ThenRestoreIsNoop() {
	task := s.add("t", models.CategoryToday)
	_, _ = s.service.SoftDelete(s.ctx, task.ID)
	_, err := s.service.ClearTrash(s.ctx)
	s.Require().NoError(err)

	saves := s.repo.saves
	_, err = s.service.Restore(s.ctx, task.ID)
	s.ErrorIs(err, services.ErrTaskNotFound)
	s.Empty(s.service.All(s.ctx))
	s.Equal(saves, s.repo.saves)
}

func (s *TaskServiceTestSuite) TestScenario_DueTomorrowThenCompleted() {
	task, err := s.service.Add(s.ctx, services.AddTaskInput{
		Title:    "dentist",
		Category: models.CategorySomeday,
		DueDate:  s.date(1),
	})
	s.Require().NoError(err)

	v, err := s.service.Get(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(models.CategoryTomorrow, v.EffectiveCategory)
	s.Equal(models.CategorySomeday, v.Category, "stored category never changes on read")

	_, err = s.service.ToggleComplete(s.ctx, task.ID)
	s.Require().NoError(err)
	v, _ = s.service.Get(s.ctx, task.ID)
	s.Equal(models.CategorySomeday, v.EffectiveCategory)
}

func (s *TaskServiceTestSuite) TestEffectiveCategoryFollowsClock() {
	task, err := s.service.Add(s.ctx, services.AddTaskInput{
		Title:    "report",
		Category: models.CategorySomeday,
		DueDate:  s.date(9),
	})
	s.Require().NoError(err)

	s.Equal([]string{task.ID}, s.ids(s.service.ByCategory(s.ctx, models.CategorySomeday)))

	s.now = s.now.AddDate(0, 0, 3)
	s.Equal([]string{task.ID}, s.ids(s.service.ByCategory(s.ctx, models.CategoryWeek)))

	s.now = s.now.AddDate(0, 0, 5)
	s.Equal([]string{task.ID}, s.ids(s.service.ByCategory(s.ctx, models.CategoryTomorrow)))

	s.now = s.now.AddDate(0, 0, 4)
	s.Equal([]string{task.ID}, s.ids(s.service.ByCategory(s.ctx, models.CategoryToday)), "overdue tasks show as today")

	stored, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.CategorySomeday, stored[0].Category, "derived category is never persisted")
}

func (s *TaskServiceTestSuite) TestGroupsAndCounts() {
	a := s.add("a", models.CategoryToday)
	s.add("b", models.CategoryToday)
	s.add("c", models.CategoryWeek)
	d := s.add("d", models.CategorySomeday)
	_, _ = s.service.ToggleComplete(s.ctx, a.ID)
	_, _ = s.service.SoftDelete(s.ctx, d.ID)

	groups := s.service.Groups(s.ctx)
	s.Require().Len(groups, 4)
	s.Equal(models.CategoryToday, groups[0].Category)
	s.Equal([]string{"task-2", "task-1"}, s.ids(groups[0].Tasks), "open tasks sort before completed ones")
	s.Equal(models.CategorySomeday, groups[3].Category)
	s.Empty(groups[3].Tasks)

	counts := s.service.Counts(s.ctx)
	s.Equal(map[models.Category]int{
		models.CategoryToday:    2,
		models.CategoryTomorrow: 0,
		models.CategoryWeek:     1,
		models.CategorySomeday:  0,
	}, counts)
}

func (s *TaskServiceTestSuite) TestActiveCompletedDeletedViews() {
	open := s.add("open", models.CategoryToday)
	done := s.add("done", models.CategoryToday)
	gone := s.add("gone", models.CategoryToday)
	_, _ = s.service.ToggleComplete(s.ctx, done.ID)
	_, _ = s.service.SoftDelete(s.ctx, gone.ID)

	s.Equal([]string{open.ID}, s.ids(s.service.Active(s.ctx)))
	s.Equal([]string{done.ID}, s.ids(s.service.Completed(s.ctx)))
	s.Equal([]string{gone.ID}, s.ids(s.service.Deleted(s.ctx)))
}

func (s *TaskServiceTestSuite) TestDeleted_NewestFirst() {
	first := s.add("first", models.CategoryToday)
	second := s.add("second", models.CategoryToday)

	_, _ = s.service.SoftDelete(s.ctx, first.ID)
	s.now = s.now.Add(time.Minute)
	_, _ = s.service.SoftDelete(s.ctx, second.ID)
	s.now = s.now.Add(time.Minute)

	s.Equal([]string{second.ID, first.ID}, s.ids(s.service.Deleted(s.ctx)))
}

func (s *TaskServiceTestSuite) TestCompletedByDay() {
	older := s.add("older", models.CategoryToday)
	yesterday := s.add("yesterday", models.CategoryToday)
	today1 := s.add("today1", models.CategoryToday)
	today2 := s.add("today2", models.CategoryToday)

	base := s.now
	s.now = base.AddDate(0, 0, -3)
	_, _ = s.service.ToggleComplete(s.ctx, older.ID)
	s.now = base.AddDate(0, 0, -1)
	_, _ = s.service.ToggleComplete(s.ctx, yesterday.ID)
	s.now = base
	_, _ = s.service.ToggleComplete(s.ctx, today1.ID)
	s.now = base.Add(time.Hour)
	_, _ = s.service.ToggleComplete(s.ctx, today2.ID)

	groups := s.service.CompletedByDay(s.ctx)
	s.Require().Len(groups, 3)
	s.True(groups[0].IsToday)
	s.Equal([]string{today2.ID, today1.ID}, s.ids(groups[0].Tasks))
	s.Equal(models.DateOf(base.AddDate(0, 0, -1)), groups[1].Date)
	s.Equal(models.DateOf(base.AddDate(0, 0, -3)), groups[2].Date)
}

func (s *TaskServiceTestSuite) TestTodayStats() {
	a := s.add("a", models.CategoryToday)
	s.add("b", models.CategoryToday)
	s.add("c", models.CategoryToday)
	w := s.add("w", models.CategoryWeek)
	gone := s.add("gone", models.CategoryToday)
	_, _ = s.service.SoftDelete(s.ctx, gone.ID)
	_, _ = s.service.ToggleComplete(s.ctx, a.ID)
	_, _ = s.service.ToggleComplete(s.ctx, w.ID)

	stats := s.service.TodayStats(s.ctx)
	s.Equal(2, stats.Completed)
	s.Equal(3, stats.Total)
	s.Equal(66, stats.Percent)

	s.now = s.now.AddDate(0, 0, 1)
	stats = s.service.TodayStats(s.ctx)
	s.Equal(0, stats.Completed, "yesterday's completions do not count today")
}

func (s *TaskServiceTestSuite) TestTodayStats_Empty() {
	s.Equal(services.DailyStats{}, s.service.TodayStats(s.ctx))
}

func (s *TaskServiceTestSuite) TestGarden() {
	g := s.service.Garden(s.ctx)
	s.Equal(services.StageSeed, g.Stage)
	s.Equal(1, g.NextStageAt)

	for i := 0; i < 5; i++ {
		task := s.add(fmt.Sprintf("t%d", i), models.CategoryToday)
		_, _ = s.service.ToggleComplete(s.ctx, task.ID)
	}
	g = s.service.Garden(s.ctx)
	s.Equal(services.StageSapling, g.Stage)
	s.Equal(5, g.TotalCompleted)
	s.Equal(5, g.CompletedToday)
	s.Equal(15, g.NextStageAt)
}

func (s *TaskServiceTestSuite) TestPersistsAcrossInstances() {
	task, err := s.service.Add(s.ctx, services.AddTaskInput{Title: "persisted", Category: models.CategoryWeek, DueDate: s.date(2)})
	s.Require().NoError(err)
	_, _ = s.service.ToggleComplete(s.ctx, task.ID)

	reloaded := s.newService()
	v, err := reloaded.Get(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("persisted", v.Title)
	s.True(v.Completed)
	s.NotNil(v.CompletedAt)
	s.Equal(s.date(2), v.DueDate)
}

func (s *TaskServiceTestSuite) TestSharedBackendSeesOtherWriters() {
	server := s.newService()
	cli := s.newService()

	s.Empty(server.Active(s.ctx))
	fromCLI, err := cli.Add(s.ctx, services.AddTaskInput{Title: "added from the cli"})
	s.Require().NoError(err)

	s.Equal([]string{fromCLI.ID}, s.ids(server.Active(s.ctx)), "writes by another instance are visible")

	fromServer, err := server.Add(s.ctx, services.AddTaskInput{Title: "added over http"})
	s.Require().NoError(err)

	fresh := s.newService()
	_, err = fresh.Get(s.ctx, fromCLI.ID)
	s.NoError(err, "a later write must not drop the other instance's task")
	_, err = fresh.Get(s.ctx, fromServer.ID)
	s.NoError(err)

	_, err = cli.ToggleComplete(s.ctx, fromServer.ID)
	s.Require().NoError(err)
	v, err := server.Get(s.ctx, fromServer.ID)
	s.Require().NoError(err)
	s.True(v.Completed)
}

func (s *TaskServiceTestSuite) TestUnreadableStorageKeepsLoadedTasks() {
	task := s.add("kept", models.CategoryToday)

	s.repo.failLoad = errors.New("storage disabled")
	v, err := s.service.Get(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("kept", v.Title)
}

func (s *TaskServiceTestSuite) TestFailedWriteNotReplacedByStoredState() {
	s.add("saved", models.CategoryToday)

	s.repo.failSave = true
	unsaved := s.add("unsaved", models.CategoryToday)
	s.Len(s.service.All(s.ctx), 2)

	s.repo.failSave = false
	_, err := s.service.ToggleComplete(s.ctx, unsaved.ID)
	s.Require().NoError(err)

	stored, err := s.repo.TaskRepository.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(stored, 2, "the next successful write carries the dropped change")
}

func (s *TaskServiceTestSuite) TestCorruptStorageStartsEmpty() {
	s.Require().NoError(s.backend.Set(s.ctx, repositories.DefaultKey, []byte("{{{")))
	service := s.newService()

	s.Empty(service.All(s.ctx))
	task, err := service.Add(s.ctx, services.AddTaskInput{Title: "fresh"})
	s.Require().NoError(err)
	s.Equal([]string{task.ID}, s.ids(service.All(s.ctx)))
}

func (s *TaskServiceTestSuite) TestUnreadableStorageStartsEmpty() {
	s.repo.failLoad = errors.New("storage disabled")
	service := s.newService()

	s.Empty(service.All(s.ctx))
}

func (s *TaskServiceTestSuite) TestFailedWriteKeepsMemoryState() {
	s.repo.failSave = true

	task := s.add("unsaved", models.CategoryToday)
	_, err := s.service.ToggleComplete(s.ctx, task.ID)
	s.Require().NoError(err)

	v, err := s.service.Get(s.ctx, task.ID)
	s.Require().NoError(err)
	s.True(v.Completed)

	stored, err := s.repo.TaskRepository.Load(s.ctx)
	s.Require().NoError(err)
	s.Empty(stored, "dropped writes never reach storage")
}

func (s *TaskServiceTestSuite) TestExportFollowsServedCollection() {
	s.add("saved", models.CategoryToday)
	s.repo.failSave = true
	s.add("unsaved", models.CategoryToday)

	var buf bytes.Buffer
	s.Require().NoError(s.service.Export(s.ctx, &buf))
	var exported []models.Task
	s.Require().NoError(json.Unmarshal(buf.Bytes(), &exported))
	s.Len(exported, 2, "export shows what the service serves, not the last stored write")
}

func (s *TaskServiceTestSuite) TestActiveByCategorySkipsCompleted() {
	open := s.add("open", models.CategoryToday)
	done := s.add("done", models.CategoryToday)
	_, _ = s.service.ToggleComplete(s.ctx, done.ID)

	s.Equal([]string{open.ID, done.ID}, s.ids(s.service.ByCategory(s.ctx, models.CategoryToday)))
	s.Equal([]string{open.ID}, s.ids(s.service.ActiveByCategory(s.ctx, models.CategoryToday)))
}

func (s *TaskServiceTestSuite) TestViewAddsEffectiveCategory() {
	task, err := s.service.Add(s.ctx, services.AddTaskInput{Title: "soon", Category: models.CategorySomeday, DueDate: s.date(1)})
	s.Require().NoError(err)
	s.Equal(models.CategoryTomorrow, s.service.View(task).EffectiveCategory)
}

func (s *TaskServiceTestSuite) TestReturnedTasksAreCopies() {
	task := s.add("t", models.CategorySomeday)
	views := s.service.All(s.ctx)
	views[0].Title = "mutated"

	v, _ := s.service.Get(s.ctx, task.ID)
	s.Equal("t", v.Title)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func TestStageFor(t *testing.T) {
	tests := []struct {
		completed int
		stage     services.GardenStage
		next      int
	}{
		{0, services.StageSeed, 1},
		{1, services.StageSprout, 5},
		{4, services.StageSprout, 5},
		{5, services.StageSapling, 15},
		{14, services.StageSapling, 15},
		{15, services.StageBlooming, 30},
		{30, services.StageTree, 0},
		{500, services.StageTree, 0},
	}

	for _, tt := range tests {
		stage, next := services.StageFor(tt.completed)
		assert.Equal(t, tt.stage, stage, "completed=%d", tt.completed)
		assert.Equal(t, tt.next, next, "completed=%d", tt.completed)
	}
}

func TestTaskService_DefaultIDsAreUUIDs(t *testing.T) {
	repo := repositories.NewTaskRepository(storage.NewMemoryBackend(), "")
	service := services.NewTaskService(repo, log.NewNop())

	a, err := service.Add(context.Background(), services.AddTaskInput{Title: "a"})
	require.NoError(t, err)
	b, err := service.Add(context.Background(), services.AddTaskInput{Title: "b"})
	require.NoError(t, err)

	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}
