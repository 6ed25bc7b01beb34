package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"lifeboard/internal/core"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func encodeList(items []string) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(s string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func convertAll[R, T any](rows []R, convert func(R) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := convert(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func taskToRow(t core.Task) (TaskRow, error) {
	labels, err := encodeList(t.Labels)
	if err != nil {
		return TaskRow{}, err
	}
	return TaskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CompletedAt: nullTime(t.CompletedAt),
		Priority:    string(t.Priority),
		DueDate:     nullTime(t.DueDate),
		Project:     t.Project,
		Labels:      labels,
		CreatedAt:   formatTime(t.CreatedAt),
	}, nil
}

func taskFromRow(r TaskRow) (core.Task, error) {
	t := core.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    core.Priority(r.Priority),
		Project:     r.Project,
	}
	var err error
	if t.CompletedAt, err = parseNullTime(r.CompletedAt); err != nil {
		return core.Task{}, err
	}
	if t.DueDate, err = parseNullTime(r.DueDate); err != nil {
		return core.Task{}, err
	}
	if t.Labels, err = decodeList(r.Labels); err != nil {
		return core.Task{}, err
	}
	if t.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return core.Task{}, err
	}
	return t, nil
}

func budgetToRow(b core.Budget) BudgetRow {
	return BudgetRow{
		ID:          b.ID,
		Name:        b.Name,
		Category:    b.Category,
		AmountCents: b.Amount.Cents,
		SpentCents:  b.Spent.Cents,
		Period:      string(b.Period),
		StartDate:   formatTime(b.StartDate),
		EndDate:     nullTime(b.EndDate),
		CreatedAt:   formatTime(b.CreatedAt),
	}
}

func budgetFromRow(r BudgetRow) (core.Budget, error) {
	b := core.Budget{
		ID:       r.ID,
		Name:     r.Name,
		Category: r.Category,
		Amount:   core.Money{Cents: r.AmountCents},
		Spent:    core.Money{Cents: r.SpentCents},
		Period:   core.Period(r.Period),
	}
	var err error
	if b.StartDate, err = parseTime(r.StartDate); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseNullTime(r.EndDate); err != nil {
		return core.Budget{}, err
	}
	if b.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func transactionToRow(tx core.Transaction) TransactionRow {
	return TransactionRow{
		ID:              tx.ID,
		AmountCents:     tx.Amount.Cents,
		Category:        tx.Category,
		Description:     tx.Description,
		BudgetID:        nullString(tx.BudgetID),
		TransactionDate: formatTime(tx.TransactionDate),
		CreatedAt:       formatTime(tx.CreatedAt),
	}
}

func transactionFromRow(r TransactionRow) (core.Transaction, error) {
	tx := core.Transaction{
		ID:          r.ID,
		Amount:      core.Money{Cents: r.AmountCents},
		Category:    r.Category,
		Description: r.Description,
	}
	if r.BudgetID.Valid {
		id := r.BudgetID.String
		tx.BudgetID = &id
	}
	var err error
	if tx.TransactionDate, err = parseTime(r.TransactionDate); err != nil {
		return core.Transaction{}, err
	}
	if tx.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func journalEntryToRow(e core.JournalEntry) (JournalEntryRow, error) {
	tags, err := encodeList(e.Tags)
	if err != nil {
		return JournalEntryRow{}, err
	}
	return JournalEntryRow{
		ID:          e.ID,
		Title:       e.Title,
		Content:     e.Content,
		EntryDate:   formatTime(e.EntryDate),
		ProjectID:   e.ProjectID,
		Mood:        nullInt(e.Mood),
		EnergyLevel: nullInt(e.EnergyLevel),
		Tags:        tags,
		CreatedAt:   formatTime(e.CreatedAt),
	}, nil
}

func journalEntryFromRow(r JournalEntryRow) (core.JournalEntry, error) {
	e := core.JournalEntry{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		ProjectID:   r.ProjectID,
		Mood:        intFromNull(r.Mood),
		EnergyLevel: intFromNull(r.EnergyLevel),
	}
	var err error
	if e.EntryDate, err = parseTime(r.EntryDate); err != nil {
		return core.JournalEntry{}, err
	}
	if e.Tags, err = decodeList(r.Tags); err != nil {
		return core.JournalEntry{}, err
	}
	if e.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return core.JournalEntry{}, err
	}
	return e, nil
}
