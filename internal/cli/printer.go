package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"growtasks/internal/models"
	"growtasks/internal/services"
)

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) emit(v interface{}, text func()) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func (p *printer) taskLine(t models.Task, effective models.Category) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s", checkbox(t.Completed), t.ID, t.Title)
	if t.Priority == models.PriorityHigh {
		b.WriteString("  !")
	}
	if effective != "" && effective != t.Category {
		fmt.Fprintf(&b, "  (%s, filed under %s)", effective, t.Category)
	} else {
		fmt.Fprintf(&b, "  (%s)", t.Category)
	}
	if t.DueDate != nil {
		fmt.Fprintf(&b, "  due %s", t.DueDate)
	}
	fmt.Fprintln(p.w, b.String())
}

func (p *printer) task(v services.TaskView) error {
	return p.emit(v, func() { p.taskLine(v.Task, v.EffectiveCategory) })
}

func (p *printer) views(views []services.TaskView, empty string) error {
	return p.emit(views, func() {
		if len(views) == 0 {
			fmt.Fprintln(p.w, empty)
			return
		}
		for _, v := range views {
			p.taskLine(v.Task, v.EffectiveCategory)
		}
	})
}

func (p *printer) groups(groups []services.CategoryGroup) error {
	return p.emit(groups, func() {
		for _, g := range groups {
			fmt.Fprintf(p.w, "%s (%d)\n", strings.ToUpper(string(g.Category)), g.Count)
			for _, v := range g.Tasks {
				fmt.Fprint(p.w, "  ")
				p.taskLine(v.Task, v.EffectiveCategory)
			}
		}
	})
}

func (p *printer) days(days []services.DayGroup) error {
	return p.emit(days, func() {
		if len(days) == 0 {
			fmt.Fprintln(p.w, "Nothing completed yet.")
			return
		}
		for _, d := range days {
			label := d.Date.String()
			if d.IsToday {
				label = "Today"
			}
			fmt.Fprintf(p.w, "%s (%d)\n", label, len(d.Tasks))
			for _, v := range d.Tasks {
				fmt.Fprintf(p.w, "  %s  %s\n", v.ID, v.Title)
			}
		}
	})
}

func (p *printer) stats(s services.DailyStats) error {
	return p.emit(s, func() {
		fmt.Fprintf(p.w, "Today: %d of %d done (%d%%)\n", s.Completed, s.Total, s.Percent)
	})
}

func (p *printer) garden(g services.GardenState) error {
	return p.emit(g, func() {
		fmt.Fprintf(p.w, "Garden: %s (%d completed, %d today)\n", g.Stage, g.TotalCompleted, g.CompletedToday)
		if g.NextStageAt > 0 {
			fmt.Fprintf(p.w, "Next stage at %d completed tasks\n", g.NextStageAt)
		}
	})
}

func (p *printer) removed(n int) error {
	return p.emit(map[string]int{"removed": n}, func() {
		fmt.Fprintf(p.w, "Removed %d task(s) from the trash\n", n)
	})
}

func (p *printer) purged(id string) error {
	return p.emit(map[string]string{"purged": id}, func() {
		fmt.Fprintf(p.w, "Permanently deleted %s\n", id)
	})
}
