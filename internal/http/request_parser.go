package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lifeboard/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed request bodies and query parameters.
var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// date accepts either a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
// A calendar date has no zone of its own; it is anchored at midnight in the
// location passed to ptr or value.
type date struct {
	time.Time
	dateOnly bool
}

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time, d.dateOnly = t, true
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	d.Time, d.dateOnly = t, false
	return nil
}

func (d *date) in(loc *time.Location) time.Time {
	if !d.dateOnly || loc == nil {
		return d.Time
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func (d *date) ptr(loc *time.Location) *time.Time {
	if d == nil {
		return nil
	}
	t := d.in(loc)
	return &t
}

func (d *date) value(loc *time.Location) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.in(loc)
}

// decimal is a money amount given as a decimal string ("12.34" or "12,34").
// Plain JSON numbers are accepted too.
type decimal struct {
	core.Money
}

func (m *decimal) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	// zero is a valid budget limit; positivity is checked by validation
	if raw != "" && strings.Trim(raw, "0.,") == "" {
		m.Cents = 0
		return nil
	}
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return fmt.Errorf("amount %q: %w", raw, err)
	}
	m.Cents = cents
	return nil
}

type taskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	Priority    string   `json:"priority"`
	DueDate     *date    `json:"due_date"`
	Project     string   `json:"project"`
	Labels      []string `json:"labels"`
}

func (req taskRequest) task(id string, loc *time.Location) core.Task {
	return core.Task{
		ID:          id,
		Title:       sanitizeInput(req.Title),
		Description: sanitizeInput(req.Description),
		Completed:   req.Completed,
		Priority:    core.Priority(strings.ToLower(sanitizeInput(req.Priority))),
		DueDate:     req.DueDate.ptr(loc),
		Project:     sanitizeInput(req.Project),
		Labels:      sanitizeAll(req.Labels),
	}
}

type budgetRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Amount    decimal `json:"amount"`
	Period    string  `json:"period"`
	StartDate *date   `json:"start_date"`
	EndDate   *date   `json:"end_date"`
}

func (req budgetRequest) budget(id string, loc *time.Location) core.Budget {
	return core.Budget{
		ID:        id,
		Name:      sanitizeInput(req.Name),
		Category:  sanitizeInput(req.Category),
		Amount:    req.Amount.Money,
		Period:    core.Period(strings.ToLower(sanitizeInput(req.Period))),
		StartDate: req.StartDate.value(loc),
		EndDate:   req.EndDate.ptr(loc),
	}
}

type transactionRequest struct {
	Amount          decimal `json:"amount"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	BudgetID        *string `json:"budget_id"`
	TransactionDate *date   `json:"transaction_date"`
}

func (req transactionRequest) transaction(loc *time.Location) core.Transaction {
	tx := core.Transaction{
		Amount:          req.Amount.Money,
		Category:        sanitizeInput(req.Category),
		Description:     sanitizeInput(req.Description),
		TransactionDate: req.TransactionDate.value(loc),
	}
	if req.BudgetID != nil {
		id := sanitizeInput(*req.BudgetID)
		tx.BudgetID = &id
	}
	return tx
}

type journalRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	EntryDate   *date    `json:"entry_date"`
	ProjectID   string   `json:"project_id"`
	Mood        *int     `json:"mood"`
	EnergyLevel *int     `json:"energy_level"`
	Tags        []string `json:"tags"`
}

func (req journalRequest) entry(id string, loc *time.Location) core.JournalEntry {
	return core.JournalEntry{
		ID:          id,
		Title:       sanitizeInput(req.Title),
		Content:     strings.TrimSpace(req.Content),
		EntryDate:   req.EntryDate.value(loc),
		ProjectID:   sanitizeInput(req.ProjectID),
		Mood:        req.Mood,
		EnergyLevel: req.EnergyLevel,
		Tags:        sanitizeAll(req.Tags),
	}
}
