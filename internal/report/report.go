// Package report renders the collections as terminal tables, running them
// through the same query layer the HTTP API uses.
package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"lifeboard/internal/core"
	"lifeboard/internal/query"
)

// Section names one block of the report.
type Section string

const (
	SectionTasks        Section = "tasks"
	SectionBudgets      Section = "budgets"
	SectionTransactions Section = "transactions"
	SectionJournal      Section = "journal"
)

var allSections = []Section{SectionTasks, SectionBudgets, SectionTransactions, SectionJournal}

// ParseSections parses a comma separated section list. Blank means all.
func ParseSections(s string) ([]Section, error) {
	if strings.TrimSpace(s) == "" {
		return allSections, nil
	}
	var out []Section
	for _, name := range strings.Split(s, ",") {
		sec := Section(strings.ToLower(strings.TrimSpace(name)))
		found := false
		for _, known := range allSections {
			if sec == known {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown report section %q", name)
		}
		out = append(out, sec)
	}
	return out, nil
}

// Source is the read side of a store.Backend.
type Source interface {
	ListTasks(ctx context.Context) ([]core.Task, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListJournal(ctx context.Context) ([]core.JournalEntry, error)
}

type Options struct {
	Now                 time.Time
	Sections            []Section
	TaskFilter          query.TaskFilter
	TaskSort            query.TaskSort
	BudgetSort          query.BudgetSort
	Range               query.DateRange
	JournalFilter       query.JournalFilter
	WeekStart           time.Weekday
	ZombieThresholdDays int
	// Limit caps the rows per table; 0 shows everything.
	Limit int
}

// Render writes the selected sections of src to w.
func Render(ctx context.Context, w io.Writer, src Source, opts Options) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if len(opts.Sections) == 0 {
		opts.Sections = allSections
	}
	r := &renderer{
		w:    w,
		st:   newStyles(lipgloss.NewRenderer(w), tokyoNight),
		opts: opts,
		ages: query.NewAgeFormatter(query.DefaultAgeCacheSize),
	}

	for _, sec := range opts.Sections {
		var err error
		switch sec {
		case SectionTasks:
			err = r.tasks(ctx, src)
		case SectionBudgets:
			err = r.budgets(ctx, src)
		case SectionTransactions:
			err = r.transactions(ctx, src)
		case SectionJournal:
			err = r.journal(ctx, src)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", sec, err)
		}
	}
	return nil
}

type renderer struct {
	w    io.Writer
	st   styles
	opts Options
	ages *query.AgeFormatter
}

func (r *renderer) tasks(ctx context.Context, src Source) error {
	tasks, err := src.ListTasks(ctx)
	if err != nil {
		return err
	}
	now := r.opts.Now
	view := query.SortTasks(query.FilterTasks(tasks, query.TaskQuery{Filter: r.opts.TaskFilter}), r.opts.TaskSort)
	stats := query.SummarizeTasks(tasks, now)

	rows := make([][]string, 0, len(view))
	for _, t := range r.limit(len(view)) {
		task := view[t]
		status := "open"
		switch {
		case task.Completed:
			status = r.st.ok.Render("done")
		case query.IsZombie(task, now, r.opts.ZombieThresholdDays):
			status = r.st.bad.Render("zombie " + r.ages.Since(task.CreatedAt, now))
		}
		rows = append(rows, []string{task.Title, string(task.Priority), dateOrDash(task.DueDate), task.Project, status})
	}

	r.title("Tasks")
	r.line(fmt.Sprintf("%d total, %d done, %d pending, %d overdue, %d high priority, %.0f%% complete",
		stats.Total, stats.Completed, stats.Pending, stats.Overdue, stats.HighPriority, stats.CompletionRate))
	r.table([]string{"Title", "Priority", "Due", "Project", "Status"}, rows)
	return nil
}

func (r *renderer) budgets(ctx context.Context, src Source) error {
	budgets, err := src.ListBudgets(ctx)
	if err != nil {
		return err
	}
	txs, err := src.ListTransactions(ctx)
	if err != nil {
		return err
	}
	now := r.opts.Now
	view := query.SortBudgets(budgets, r.opts.BudgetSort)
	stats := query.SummarizeBudgets(budgets, txs, now)

	rows := make([][]string, 0, len(view))
	for _, i := range r.limit(len(view)) {
		b := view[i]
		pct := query.UsagePercent(b)
		usage := fmt.Sprintf("%s %5.1f%%", bar(pct, 10), pct)
		switch {
		case query.IsOverBudget(b):
			usage = r.st.bad.Render(usage)
		case query.IsNearLimit(b):
			usage = r.st.warn.Render(usage)
		}
		state := r.st.dim.Render("inactive")
		if query.IsActive(b, now) {
			state = r.st.ok.Render("active")
		}
		rows = append(rows, []string{b.Name, b.Category, b.Spent.String() + " / " + b.Amount.String(), usage, state})
	}

	r.title("Budgets")
	r.line(fmt.Sprintf("budgeted %s, spent %s (quick %s), remaining %s, %.1f%% used",
		stats.TotalBudget, stats.TotalSpent, stats.QuickExpenses, stats.Remaining, stats.PercentageUsed))
	r.line(fmt.Sprintf("%d active, %d over budget, %d near limit",
		stats.ActiveCount, stats.OverBudgetCount, stats.NearLimitCount))
	r.table([]string{"Name", "Category", "Spent", "Usage", "State"}, rows)
	return nil
}

func (r *renderer) transactions(ctx context.Context, src Source) error {
	txs, err := src.ListTransactions(ctx)
	if err != nil {
		return err
	}
	view := query.FilterTransactions(txs, query.TransactionQuery{Range: r.opts.Range}, r.opts.Now)
	stats := query.SummarizeTransactions(view)

	rows := make([][]string, 0, len(stats.ByCategory))
	for _, i := range r.limit(len(stats.ByCategory)) {
		c := stats.ByCategory[i]
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Count), c.Amount.String()})
	}

	rangeName := string(r.opts.Range)
	if rangeName == "" {
		rangeName = string(query.RangeAll)
	}
	r.title("Transactions (" + rangeName + ")")
	r.line(fmt.Sprintf("%d transactions, total %s: budgeted %s, quick %s",
		stats.Count, stats.Total, stats.Budgeted, stats.Quick))
	r.table([]string{"Category", "Count", "Amount"}, rows)
	return nil
}

func (r *renderer) journal(ctx context.Context, src Source) error {
	entries, err := src.ListJournal(ctx)
	if err != nil {
		return err
	}
	view := query.SortJournal(query.FilterJournal(entries, query.JournalQuery{
		Filter:    r.opts.JournalFilter,
		WeekStart: r.opts.WeekStart,
	}, r.opts.Now), query.JournalNewest)
	stats := query.SummarizeJournal(view)

	rows := make([][]string, 0, len(view))
	for _, i := range r.limit(len(view)) {
		e := view[i]
		rows = append(rows, []string{e.EntryDate.Format(time.DateOnly), e.Title, score(e.Mood), score(e.EnergyLevel), strings.Join(e.Tags, ", ")})
	}

	tags := make([]string, 0, len(stats.TopTags))
	for _, t := range stats.TopTags {
		tags = append(tags, fmt.Sprintf("%s (%d)", t.Tag, t.Count))
	}

	r.title("Journal")
	r.line(fmt.Sprintf("%d entries, mood %.1f, energy %.1f", stats.Count, stats.AverageMood, stats.AverageEnergy))
	if len(tags) > 0 {
		r.line("top tags: " + strings.Join(tags, ", "))
	}
	r.table([]string{"Date", "Title", "Mood", "Energy", "Tags"}, rows)
	return nil
}

// limit returns the row indexes to show.
func (r *renderer) limit(n int) []int {
	if r.opts.Limit > 0 && n > r.opts.Limit {
		n = r.opts.Limit
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (r *renderer) title(s string) {
	fmt.Fprintln(r.w, r.st.title.Render(s))
}

func (r *renderer) line(s string) {
	fmt.Fprintln(r.w, r.st.section.Render(s))
}

func (r *renderer) table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(r.w, r.st.section.Inherit(r.st.dim).Render("(nothing to show)"))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.st.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.st.header
			}
			return r.st.cell
		})
	fmt.Fprintln(r.w, t.Render())
}

// bar draws a fixed-width usage bar, clamped at 100%.
func bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func score(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
