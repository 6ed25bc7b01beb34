package query

import (
	"slices"
	"testing"
	"time"

	"lifeboard/internal/core"
)

func sampleJournal() []core.JournalEntry {
	return []core.JournalEntry{
		{ID: "j1", Title: "Morning pages", Content: "slept well", EntryDate: testNow.Add(-6 * time.Hour), ProjectID: "p1", Mood: intPtr(4), EnergyLevel: intPtr(3), Tags: []string{"Sleep", "routine"}, CreatedAt: testNow.Add(-6 * time.Hour)},
		{ID: "j2", Title: "sprint retro", Content: "Shipped the importer", EntryDate: time.Date(2025, time.March, 9, 10, 0, 0, 0, time.UTC), ProjectID: "p2", Mood: intPtr(2), Tags: []string{"work", "Routine", "routine"}, CreatedAt: daysAgo(3)},
		{ID: "j3", Title: "Long walk", Content: "", EntryDate: time.Date(2025, time.March, 2, 18, 0, 0, 0, time.UTC), ProjectID: "p1", EnergyLevel: intPtr(5), Tags: []string{"outdoors"}, CreatedAt: daysAgo(10)},
		{ID: "j4", Title: "Budget review", Content: "too much coffee", EntryDate: time.Date(2025, time.February, 27, 9, 0, 0, 0, time.UTC), Tags: []string{"money", "work"}, CreatedAt: daysAgo(13)},
	}
}

func TestFilterJournal(t *testing.T) {
	tests := []struct {
		name string
		q    JournalQuery
		want []string
	}{
		{"all", JournalQuery{}, []string{"j1", "j2", "j3", "j4"}},
		{"today", JournalQuery{Filter: JournalToday}, []string{"j1"}},
		{"this week from sunday", JournalQuery{Filter: JournalThisWeek}, []string{"j1", "j2"}},
		{"this week from monday", JournalQuery{Filter: JournalThisWeek, WeekStart: time.Monday}, []string{"j1"}},
		{"this month", JournalQuery{Filter: JournalThisMonth}, []string{"j1", "j2", "j3"}},
		{"project selected", JournalQuery{Filter: JournalProject, Project: "p1"}, []string{"j1", "j3"}},
		{"project not selected selects all", JournalQuery{Filter: JournalProject}, []string{"j1", "j2", "j3", "j4"}},
		{"project ignored outside its mode", JournalQuery{Filter: JournalToday, Project: "p2"}, []string{"j1"}},
		{"search title", JournalQuery{Search: "RETRO"}, []string{"j2"}},
		{"search content", JournalQuery{Search: "coffee"}, []string{"j4"}},
		{"search and mode", JournalQuery{Filter: JournalThisMonth, Search: "walk"}, []string{"j3"}},
		{"unknown mode", JournalQuery{Filter: "yesterday"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := journalIDs(FilterJournal(sampleJournal(), tt.q, testNow))
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterJournal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterJournal_Idempotent(t *testing.T) {
	q := JournalQuery{Filter: JournalThisWeek, Search: "r"}
	once := FilterJournal(sampleJournal(), q, testNow)
	twice := FilterJournal(once, q, testNow)
	if !slices.Equal(journalIDs(once), journalIDs(twice)) {
		t.Errorf("not idempotent: %v then %v", journalIDs(once), journalIDs(twice))
	}
}

func TestSortJournal(t *testing.T) {
	tests := []struct {
		key  JournalSort
		want []string
	}{
		{JournalNewest, []string{"j1", "j2", "j3", "j4"}},
		{JournalOldest, []string{"j4", "j3", "j2", "j1"}},
		{JournalByTitle, []string{"j4", "j3", "j1", "j2"}},
		{JournalByMood, []string{"j1", "j2", "j3", "j4"}},
		{JournalByEnergy, []string{"j3", "j1", "j2", "j4"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := SortJournal(sampleJournal(), tt.key)
			if !slices.Equal(journalIDs(got), tt.want) {
				t.Errorf("SortJournal(%s) = %v, want %v", tt.key, journalIDs(got), tt.want)
			}
			if again := SortJournal(got, tt.key); !slices.Equal(journalIDs(again), tt.want) {
				t.Errorf("SortJournal(%s) is not stable: %v", tt.key, journalIDs(again))
			}
		})
	}
}

func TestSummarizeJournal(t *testing.T) {
	got := SummarizeJournal(sampleJournal())

	if got.Count != 4 {
		t.Errorf("Count = %d, want 4", got.Count)
	}
	if got.AverageMood != 3 {
		t.Errorf("AverageMood = %v, want 3", got.AverageMood)
	}
	if got.AverageEnergy != 4 {
		t.Errorf("AverageEnergy = %v, want 4", got.AverageEnergy)
	}
	want := []core.TagCount{
		{Tag: "routine", Count: 2},
		{Tag: "work", Count: 2},
		{Tag: "money", Count: 1},
		{Tag: "outdoors", Count: 1},
		{Tag: "sleep", Count: 1},
	}
	if !slices.Equal(got.TopTags, want) {
		t.Errorf("TopTags = %+v, want %+v", got.TopTags, want)
	}
}

func TestSummarizeJournal_CapsTopTags(t *testing.T) {
	entries := []core.JournalEntry{{Tags: []string{"a", "b", "c", "d", "e", "f", "g"}}}
	got := SummarizeJournal(entries)
	if len(got.TopTags) != topTagLimit {
		t.Fatalf("len(TopTags) = %d, want %d", len(got.TopTags), topTagLimit)
	}
	if got.TopTags[0].Tag != "a" || got.TopTags[4].Tag != "e" {
		t.Errorf("TopTags = %+v", got.TopTags)
	}
	if empty := SummarizeJournal(nil); empty.AverageMood != 0 || empty.AverageEnergy != 0 {
		t.Errorf("empty averages = %v/%v", empty.AverageMood, empty.AverageEnergy)
	}
}
