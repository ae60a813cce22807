package models

import "time"

// EffectiveCategory derives the category a task is displayed under at now.
// A stored "today" always wins. Otherwise an open task with a due date is
// placed by its calendar-day distance from now; everything else keeps its
// stored category.
func EffectiveCategory(task Task, now time.Time) Category {
	if task.Category == CategoryToday {
		return CategoryToday
	}
	if task.DueDate == nil || task.Completed {
		return task.Category
	}

	days := task.DueDate.DaysSince(DateOf(now))
	switch {
	case days <= 0:
		return CategoryToday
	case days == 1:
		return CategoryTomorrow
	case days <= 7:
		return CategoryWeek
	default:
		return CategorySomeday
	}
}

// SafeEffectiveCategory never panics; on any failure it falls back to the
// stored category.
func SafeEffectiveCategory(task Task, now time.Time) (c Category) {
	defer func() {
		if r := recover(); r != nil {
			c = task.Category
		}
	}()
	return EffectiveCategory(task, now)
}
