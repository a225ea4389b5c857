package store

// #region imports
import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"refocusd/internal/profile"
)

// #endregion

// #region types

// InterventionRow mirrors one behavior-ledger entry for reporting and
// retention. The profile document stays the source of truth for learning.
type InterventionRow struct {
	ID             string
	CreatedAt      time.Time
	Trigger        profile.Trigger
	Strategy       profile.Strategy
	Action         string
	Message        string
	Response       profile.Response
	RefocusSeconds int
}

// DecisionEntry is one gate decision provenance row.
type DecisionEntry struct {
	CreatedAt  time.Time
	Pattern    string
	Confidence float64
	Decision   string
	Reason     string
}

// #endregion

// #region insert-intervention

// InsertIntervention mirrors a resolved intervention.
func (s *Store) InsertIntervention(row InterventionRow) (string, error) {
	id := row.ID
	if id == "" {
		id = uuid.New().String()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO interventions
		 (intervention_id, created_at, trigger_type, strategy, action, message, response, refocus_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		row.CreatedAt.UTC().Format(timeFormat),
		string(row.Trigger),
		string(row.Strategy),
		row.Action,
		nullIfEmpty(row.Message),
		string(row.Response),
		row.RefocusSeconds,
	)
	if err != nil {
		return "", fmt.Errorf("insert intervention: %w", err)
	}
	return id, nil
}

// RecentInterventions returns the newest rows first.
func (s *Store) RecentInterventions(limit int) ([]InterventionRow, error) {
	rows, err := s.db.Query(
		`SELECT intervention_id, created_at, trigger_type, strategy, action, message, response, refocus_seconds
		 FROM interventions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query interventions: %w", err)
	}
	defer rows.Close()

	var out []InterventionRow
	for rows.Next() {
		var row InterventionRow
		var createdStr string
		var message sql.NullString
		if err := rows.Scan(&row.ID, &createdStr, (*string)(&row.Trigger), (*string)(&row.Strategy),
			&row.Action, &message, (*string)(&row.Response), &row.RefocusSeconds); err != nil {
			return nil, fmt.Errorf("scan intervention: %w", err)
		}
		row.CreatedAt, _ = time.Parse(timeFormat, createdStr)
		row.Message = message.String
		out = append(out, row)
	}
	return out, rows.Err()
}

// #endregion insert-intervention

// #region decision-log

// LogDecision writes a gate decision provenance row.
func (s *Store) LogDecision(entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO gate_decisions (created_at, pattern, confidence, decision, reason)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.CreatedAt.UTC().Format(timeFormat),
		entry.Pattern,
		entry.Confidence,
		entry.Decision,
		nullIfEmpty(entry.Reason),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// RecentDecisions returns the newest gate decisions first.
func (s *Store) RecentDecisions(limit int) ([]DecisionEntry, error) {
	rows, err := s.db.Query(
		`SELECT created_at, pattern, confidence, decision, reason
		 FROM gate_decisions ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var entry DecisionEntry
		var createdStr string
		var reason sql.NullString
		if err := rows.Scan(&createdStr, &entry.Pattern, &entry.Confidence, &entry.Decision, &reason); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		entry.CreatedAt, _ = time.Parse(timeFormat, createdStr)
		entry.Reason = reason.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

// #endregion decision-log
