package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"lifeboard/internal/core"
)

// topTagLimit caps JournalStats.TopTags.
const topTagLimit = 5

// JournalFilter selects journal entries by calendar period or project.
type JournalFilter string

const (
	JournalAll       JournalFilter = "all"
	JournalToday     JournalFilter = "today"
	JournalThisWeek  JournalFilter = "this-week"
	JournalThisMonth JournalFilter = "this-month"
	JournalProject   JournalFilter = "project"
)

// ParseJournalFilter maps a name onto a JournalFilter; blank input means JournalAll.
func ParseJournalFilter(s string) (JournalFilter, error) {
	return parseEnum("journal filter", s, JournalAll,
		JournalAll, JournalToday, JournalThisWeek, JournalThisMonth, JournalProject)
}

// JournalSort names a journal ordering.
type JournalSort string

const (
	JournalNewest   JournalSort = "newest"
	JournalOldest   JournalSort = "oldest"
	JournalByTitle  JournalSort = "title"
	JournalByMood   JournalSort = "mood"
	JournalByEnergy JournalSort = "energy"
)

// ParseJournalSort maps a name onto a JournalSort; blank input means JournalNewest.
func ParseJournalSort(s string) (JournalSort, error) {
	return parseEnum("journal sort", s, JournalNewest,
		JournalNewest, JournalOldest, JournalByTitle, JournalByMood, JournalByEnergy)
}

// JournalQuery holds every active journal predicate. Project only applies in
// the JournalProject mode, and an empty Project selects every entry.
// WeekStart is the first day of the week for JournalThisWeek.
type JournalQuery struct {
	Filter    JournalFilter
	Project   string
	Search    string
	WeekStart time.Weekday
}

// FilterJournal returns the entries matching every predicate of q, in input order.
func FilterJournal(entries []core.JournalEntry, q JournalQuery, now time.Time) []core.JournalEntry {
	out := make([]core.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if matchJournalFilter(e, q, now) && matchesSearch(q.Search, e.Title, e.Content) {
			out = append(out, e)
		}
	}
	return out
}

func matchJournalFilter(e core.JournalEntry, q JournalQuery, now time.Time) bool {
	switch q.Filter {
	case JournalAll, "":
		return true
	case JournalToday:
		return CalendarDay{}.Contains(e.EntryDate, now)
	case JournalThisWeek:
		return CalendarWeek{Start: q.WeekStart}.Contains(e.EntryDate, now)
	case JournalThisMonth:
		return CalendarMonth{}.Contains(e.EntryDate, now)
	case JournalProject:
		return q.Project == "" || e.ProjectID == q.Project
	default:
		return false
	}
}

// SortJournal returns a stably sorted copy of entries. Unknown keys keep input order.
func SortJournal(entries []core.JournalEntry, key JournalSort) []core.JournalEntry {
	out := slices.Clone(entries)
	var order func(a, b core.JournalEntry) int
	switch key {
	case JournalNewest:
		order = func(a, b core.JournalEntry) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case JournalOldest:
		order = func(a, b core.JournalEntry) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case JournalByTitle:
		compare := newTextComparer()
		order = func(a, b core.JournalEntry) int { return compare(a.Title, b.Title) }
	case JournalByMood:
		order = func(a, b core.JournalEntry) int { return cmp.Compare(score(b.Mood), score(a.Mood)) }
	case JournalByEnergy:
		order = func(a, b core.JournalEntry) int { return cmp.Compare(score(b.EnergyLevel), score(a.EnergyLevel)) }
	default:
		return out
	}
	slices.SortStableFunc(out, order)
	return out
}

// score treats a missing rating as 0.
func score(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// JournalStats summarizes a set of journal entries. Averages only include
// entries that carry the rating and are 0 when none do.
type JournalStats struct {
	Count         int             `json:"count"`
	AverageMood   float64         `json:"average_mood"`
	AverageEnergy float64         `json:"average_energy"`
	TopTags       []core.TagCount `json:"top_tags"`
}

// SummarizeJournal computes rating averages and the most used tags.
func SummarizeJournal(entries []core.JournalEntry) JournalStats {
	s := JournalStats{Count: len(entries), TopTags: []core.TagCount{}}
	var moodSum, moodN, energySum, energyN int
	counts := make(map[string]int)
	for _, e := range entries {
		if e.Mood != nil {
			moodSum += *e.Mood
			moodN++
		}
		if e.EnergyLevel != nil {
			energySum += *e.EnergyLevel
			energyN++
		}
		seen := make(map[string]bool, len(e.Tags))
		for _, tag := range e.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			counts[tag]++
		}
	}
	if moodN > 0 {
		s.AverageMood = float64(moodSum) / float64(moodN)
	}
	if energyN > 0 {
		s.AverageEnergy = float64(energySum) / float64(energyN)
	}
	for tag, n := range counts {
		s.TopTags = append(s.TopTags, core.TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(s.TopTags, func(a, b core.TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	if len(s.TopTags) > topTagLimit {
		s.TopTags = s.TopTags[:topTagLimit]
	}
	return s
}
