package models

import (
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryToday    Category = "today"
	CategoryTomorrow Category = "tomorrow"
	CategoryWeek     Category = "week"
	CategorySomeday  Category = "someday"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryToday, CategoryTomorrow, CategoryWeek, CategorySomeday}

func (c Category) Valid() bool {
	switch c {
	case CategoryToday, CategoryTomorrow, CategoryWeek, CategorySomeday:
		return true
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// Task is one record of the persisted collection. Category is the
// user-chosen category; the displayed one comes from EffectiveCategory.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Category    Category   `json:"category"`
	DueDate     *Date      `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Deleted     bool       `json:"deleted"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Clone returns a deep copy so callers never share pointers with the store.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	if t.DeletedAt != nil {
		ts := *t.DeletedAt
		c.DeletedAt = &ts
	}
	return c
}

// IsActive reports whether the task belongs in the active view.
func (t Task) IsActive() bool {
	return !t.Deleted && !t.Completed
}
