package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"weekly-planner/internal/model"
	"weekly-planner/internal/service"
)

// Column colours of the weekly board.
var dayColors = map[model.Weekday]lipgloss.Color{
	model.Sunday:    lipgloss.Color("#F94144"),
	model.Monday:    lipgloss.Color("#F3722C"),
	model.Tuesday:   lipgloss.Color("#F8961E"),
	model.Wednesday: lipgloss.Color("#F9C74F"),
	model.Thursday:  lipgloss.Color("#90BE6D"),
	model.Friday:    lipgloss.Color("#43AA8B"),
	model.Saturday:  lipgloss.Color("#577590"),
}

var (
	idStyle        = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Faint(true)
	completedStyle = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	labelStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
)

func dayStyle(day model.Weekday) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(dayColors[day])
}

func dayHeader(bucket service.DayBucket, today bool) string {
	header := dayStyle(bucket.Day).Render(bucket.Day.String()) + " " + mutedStyle.Render(bucket.Date.Format("01/02"))
	if today {
		header += " " + mutedStyle.Render("(today)")
	}
	return header
}

func renderWeek(w io.Writer, week service.Week, now time.Time) {
	today := week.Today(now).Day
	_, _ = fmt.Fprintf(w, "%s\n", labelStyle.Render("Week of "+week.Start.Format("Jan 2, 2006")))
	for _, bucket := range week.Days {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, dayHeader(bucket, bucket.Day == today))
		renderSummaries(w, bucket.Tasks)
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", mutedStyle.Render(fmt.Sprintf("%d active", week.ActiveCount())))
	if n := len(week.Completed); n > 0 {
		_, _ = fmt.Fprintf(w, "%s\n", mutedStyle.Render(fmt.Sprintf("%d completed, see 'completed'", n)))
	}
}

func renderDay(w io.Writer, bucket service.DayBucket, now time.Time) {
	_, _ = fmt.Fprintln(w, dayHeader(bucket, bucket.Day == model.WeekdayOf(now)))
	renderSummaries(w, bucket.Tasks)
}

func renderSummaries(w io.Writer, tasks []model.TaskSummary) {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", mutedStyle.Render("no tasks"))
		return
	}
	for _, task := range tasks {
		_, _ = fmt.Fprintf(w, "  %s %s\n", idStyle.Render(fmt.Sprintf("#%-3d", task.ID)), oneLine(task.Title))
	}
}

func renderCompleted(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("nothing completed yet"))
		return
	}
	for _, task := range tasks {
		_, _ = fmt.Fprintf(w, "  %s %s %s\n",
			idStyle.Render(fmt.Sprintf("#%-3d", task.ID)),
			completedStyle.Render(oneLine(task.Title)),
			dayStyle(task.Day).Render(task.Day.String()),
		)
	}
}

func renderTask(w io.Writer, task model.Task) {
	status := "active"
	if task.IsCompleted() {
		status = "completed"
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", idStyle.Render(fmt.Sprintf("#%d", task.ID)), task.Title)
	_, _ = fmt.Fprintf(w, "%s  %s\n", dayStyle(task.Day).Render(task.Day.String()), mutedStyle.Render(status))
	if task.Content != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", strings.TrimRight(task.Content, "\n"))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
