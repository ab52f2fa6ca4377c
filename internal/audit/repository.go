// Package audit keeps an append-only history of control cycles and the
// device interactions they made.
//
// The history is for people: the events API and ad-hoc SQL. The control
// loop never reads it back, so a restart always starts with an empty ledger.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Page size bounds for List queries.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// ErrInvalidRecord is returned for records missing required fields.
var ErrInvalidRecord = errors.New("audit: invalid record")

// Cycle is one control cycle.
type Cycle struct {
	ID              string    `json:"id"`
	SiteID          string    `json:"site_id"`
	Cycle           uint64    `json:"cycle"`
	StartedAt       time.Time `json:"started_at"`
	DurationMS      int64     `json:"duration_ms"`
	Status          string    `json:"hvac_status,omitempty"`
	PreviousStatus  string    `json:"previous_status,omitempty"`
	StatusChanged   bool      `json:"status_changed"`
	AmbientCelsius  *float64  `json:"ambient_celsius,omitempty"`
	SetpointCelsius *float64  `json:"setpoint_celsius,omitempty"`
	HumidityPercent *float64  `json:"humidity_percent,omitempty"`
	SkipReason      string    `json:"skip_reason,omitempty"`
	DiscoveryError  string    `json:"discovery_error,omitempty"`
	KnownSwitches   int       `json:"known_switches"`
	Outcomes        int       `json:"outcomes"`
	Failures        int       `json:"failures"`
}

// Actuation is one device interaction made during a cycle.
type Actuation struct {
	ID         string    `json:"id"`
	CycleID    string    `json:"cycle_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Action     string    `json:"action"`
	Address    string    `json:"address"`
	Name       string    `json:"name,omitempty"`
	Purpose    string    `json:"purpose,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Error      string    `json:"error,omitempty"`
	GaveUp     bool      `json:"gave_up,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
}

// Filter controls which actuations List returns.
type Filter struct {
	Action  string    // optional: turn_on, turn_off, query, override, fan_speed, fan_off
	Address string    // optional: one switch or fan
	Purpose string    // optional: heating, cooling, humidifying
	Since   time.Time // optional: occurred at or after
	Failed  bool      // only interactions that returned an error
	Limit   int       // default 50, max 200
	Offset  int
}

// ListResult is one page of actuations, most recent first.
type ListResult struct {
	Actuations []Actuation `json:"actuations"`
	Total      int         `json:"total"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

// Repository stores and queries the audit trail.
type Repository interface {
	RecordCycle(ctx context.Context, cycle *Cycle, actuations []Actuation) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores the audit trail in the cycles and actuations tables.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new audit repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordCycle inserts a cycle and its actuations in one transaction.
// Missing IDs are generated and written back; actuations inherit the cycle ID.
func (r *SQLiteRepository) RecordCycle(ctx context.Context, cycle *Cycle, actuations []Actuation) error {
	if cycle == nil || cycle.StartedAt.IsZero() {
		return fmt.Errorf("%w: cycle start time required", ErrInvalidRecord)
	}
	if cycle.ID == "" {
		cycle.ID = "cyc-" + uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting audit transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cycles (id, site_id, cycle, started_at, duration_ms, hvac_status, previous_status,
			status_changed, ambient_celsius, setpoint_celsius, humidity_percent, skip_reason,
			discovery_error, known_switches, outcomes, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.ID, cycle.SiteID, int64(cycle.Cycle), //nolint:gosec // cycle counter never approaches 2^63
		cycle.StartedAt.UTC().Format(timeLayout), cycle.DurationMS,
		nullableString(cycle.Status), nullableString(cycle.PreviousStatus), cycle.StatusChanged,
		cycle.AmbientCelsius, cycle.SetpointCelsius, cycle.HumidityPercent,
		nullableString(cycle.SkipReason), nullableString(cycle.DiscoveryError),
		cycle.KnownSwitches, cycle.Outcomes, cycle.Failures,
	)
	if err != nil {
		return fmt.Errorf("inserting cycle: %w", err)
	}

	for i := range actuations {
		a := &actuations[i]
		if a.Action == "" || a.Address == "" {
			return fmt.Errorf("%w: actuation needs action and address", ErrInvalidRecord)
		}
		if a.ID == "" {
			a.ID = "act-" + uuid.NewString()
		}
		a.CycleID = cycle.ID
		if a.OccurredAt.IsZero() {
			a.OccurredAt = cycle.StartedAt
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO actuations (id, cycle_id, occurred_at, action, address, name, purpose, detail, error, gave_up, attempt)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.CycleID, a.OccurredAt.UTC().Format(timeLayout), a.Action, a.Address,
			nullableString(a.Name), nullableString(a.Purpose), nullableString(a.Detail),
			nullableString(a.Error), a.GaveUp, a.Attempt,
		)
		if err != nil {
			return fmt.Errorf("inserting actuation %s: %w", a.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing audit transaction: %w", err)
	}
	return nil
}

// nullableString returns nil for empty strings so nullable TEXT columns stay NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns actuations matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Address != "" {
		conditions = append(conditions, "address = ?")
		args = append(args, filter.Address)
	}
	if filter.Purpose != "" {
		conditions = append(conditions, "purpose = ?")
		args = append(args, filter.Purpose)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	if filter.Failed {
		conditions = append(conditions, "error IS NOT NULL")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM actuations " + where //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting actuations: %w", err)
	}

	query := "SELECT id, cycle_id, occurred_at, action, address, name, purpose, detail, error, gave_up, attempt " + //nolint:gosec // as above
		"FROM actuations " + where + " ORDER BY occurred_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying actuations: %w", err)
	}
	defer rows.Close()

	actuations := []Actuation{}
	for rows.Next() {
		var a Actuation
		var name, purpose, detail, errText sql.NullString
		var occurredAt string

		if err := rows.Scan(&a.ID, &a.CycleID, &occurredAt, &a.Action, &a.Address,
			&name, &purpose, &detail, &errText, &a.GaveUp, &a.Attempt); err != nil {
			return nil, fmt.Errorf("scanning actuation: %w", err)
		}
		a.Name, a.Purpose, a.Detail, a.Error = name.String, purpose.String, detail.String, errText.String

		t, err := time.Parse(timeLayout, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parsing actuation timestamp %q: %w", occurredAt, err)
		}
		a.OccurredAt = t

		actuations = append(actuations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actuations: %w", err)
	}

	return &ListResult{
		Actuations: actuations,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
