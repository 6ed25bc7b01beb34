package storage

import "database/sql"

// Row types mirror the tables one to one. Timestamps are RFC 3339 text in UTC.

type TaskRow struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	CompletedAt sql.NullString
	Priority    string
	DueDate     sql.NullString
	Project     string
	Labels      string
	CreatedAt   string
}

type BudgetRow struct {
	ID          string
	Name        string
	Category    string
	AmountCents int64
	SpentCents  int64
	Period      string
	StartDate   string
	EndDate     sql.NullString
	CreatedAt   string
}

type TransactionRow struct {
	ID              string
	AmountCents     int64
	Category        string
	Description     string
	BudgetID        sql.NullString
	TransactionDate string
	CreatedAt       string
	Applied         bool
	AppliedAt       sql.NullString
}

type JournalEntryRow struct {
	ID          string
	Title       string
	Content     string
	EntryDate   string
	ProjectID   string
	Mood        sql.NullInt64
	EnergyLevel sql.NullInt64
	Tags        string
	CreatedAt   string
}
