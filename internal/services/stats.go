package services

import (
	"context"
	"time"

	"growtasks/internal/models"
)

// DailyStats compares tasks completed today with the tasks planned for today.
type DailyStats struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

type GardenStage string

const (
	StageSeed     GardenStage = "seed"
	StageSprout   GardenStage = "sprout"
	StageSapling  GardenStage = "sapling"
	StageBlooming GardenStage = "blooming"
	StageTree     GardenStage = "tree"
)

// gardenStages maps completion counts to growth stages, lowest threshold first.
var gardenStages = []struct {
	from  int
	stage GardenStage
}{
	{0, StageSeed},
	{1, StageSprout},
	{5, StageSapling},
	{15, StageBlooming},
	{30, StageTree},
}

type GardenState struct {
	Stage          GardenStage `json:"stage"`
	TotalCompleted int         `json:"totalCompleted"`
	CompletedToday int         `json:"completedToday"`
	NextStageAt    int         `json:"nextStageAt"`
}

func completedOn(t models.Task, day models.Date, loc *time.Location) bool {
	return !t.Deleted && t.Completed && t.CompletedAt != nil &&
		models.DateOf(t.CompletedAt.In(loc)) == day
}

func (s *TaskServiceImpl) TodayStats(ctx context.Context) DailyStats {
	tasks, now := s.snapshot(ctx)
	today := models.DateOf(now)

	var stats DailyStats
	for _, t := range tasks {
		if completedOn(t, today, now.Location()) {
			stats.Completed++
		}
		if !t.Deleted && t.Category == models.CategoryToday {
			stats.Total++
		}
	}
	if stats.Total > 0 {
		stats.Percent = stats.Completed * 100 / stats.Total
		if stats.Percent > 100 {
			stats.Percent = 100
		}
	}
	return stats
}

// StageFor returns the growth stage reached with completed tasks and the
// count at which the next stage starts (0 once fully grown).
func StageFor(completed int) (GardenStage, int) {
	stage := StageSeed
	next := 0
	for i, s := range gardenStages {
		if completed >= s.from {
			stage = s.stage
			next = 0
			if i+1 < len(gardenStages) {
				next = gardenStages[i+1].from
			}
		}
	}
	return stage, next
}

func (s *TaskServiceImpl) Garden(ctx context.Context) GardenState {
	tasks, now := s.snapshot(ctx)
	today := models.DateOf(now)

	var g GardenState
	for _, t := range tasks {
		if t.Deleted || !t.Completed {
			continue
		}
		g.TotalCompleted++
		if completedOn(t, today, now.Location()) {
			g.CompletedToday++
		}
	}
	g.Stage, g.NextStageAt = StageFor(g.TotalCompleted)
	return g
}
