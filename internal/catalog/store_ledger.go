package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func validateChange(change FieldChange) error {
	if change.ChangeID == "" {
		return errors.New("change id is required")
	}
	if change.EntityID <= 0 {
		return errors.New("entity id is required")
	}
	if change.Field == "" {
		return errors.New("field is required")
	}
	return nil
}

// ApplyFieldChange updates one entity field and appends the applied ledger
// entry within a single transaction. When the change identifier already has an
// applied entry the call is a no-op and reports false, so retried batches never
// double-apply or duplicate ledger history.
func (s *Store) ApplyFieldChange(ctx context.Context, change FieldChange) (bool, error) {
	if err := validateChange(change); err != nil {
		return false, err
	}
	ctx = ensureContext(ctx)

	var applied bool
	err := retryOnBusy(ctx, func() error {
		ok, txErr := s.applyFieldChangeTx(ctx, change)
		applied = ok
		return txErr
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) applyFieldChangeTx(ctx context.Context, change FieldChange) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin apply tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	row := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM ledger_entries WHERE change_id = ? AND action = ?`, change.ChangeID, ActionApplied)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check applied entries: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	row = tx.QueryRowContext(ctx, `SELECT fields FROM entities WHERE id = ?`, change.EntityID)
	var fieldsRaw string
	if err := row.Scan(&fieldsRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("entity %d not found", change.EntityID)
		}
		return false, fmt.Errorf("load entity: %w", err)
	}

	fields := make(map[string]string)
	if fieldsRaw != "" {
		if err := json.Unmarshal([]byte(fieldsRaw), &fields); err != nil {
			return false, fmt.Errorf("decode fields for entity %d: %w", change.EntityID, err)
		}
	}
	if current := fields[change.Field]; current != change.OldValue {
		return false, fmt.Errorf("field %q changed since analysis (have %q, expected %q)", change.Field, current, change.OldValue)
	}

	fields[change.Field] = change.NewValue
	fieldsJSON, err := encodeFields(fields)
	if err != nil {
		return false, err
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE entities SET fields = ?, updated_at = ? WHERE id = ?`,
		fieldsJSON,
		timestamp,
		change.EntityID,
	); err != nil {
		return false, fmt.Errorf("update entity field: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO ledger_entries (`+ledgerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		change.ChangeID,
		change.EntityID,
		change.Category,
		ActionApplied,
		change.Field,
		nullableString(change.OldValue),
		nullableString(change.NewValue),
		change.Confidence,
		nullableString(change.Rationale),
		timestamp,
	); err != nil {
		return false, fmt.Errorf("append ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit apply: %w", err)
	}
	return true, nil
}

// RecordRejection appends a rejected ledger entry without touching the entity.
// The same proposal resurfaces on the next analysis run.
func (s *Store) RecordRejection(ctx context.Context, change FieldChange) error {
	return s.appendEntry(ctx, change, ActionRejected, change.Rationale)
}

// RecordFailure appends a failed ledger entry preserving the change snapshot
// and the reason it could not be applied.
func (s *Store) RecordFailure(ctx context.Context, change FieldChange, reason string) error {
	return s.appendEntry(ctx, change, ActionFailed, reason)
}

func (s *Store) appendEntry(ctx context.Context, change FieldChange, action Action, note string) error {
	if change.ChangeID == "" {
		return errors.New("change id is required")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO ledger_entries (`+ledgerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		change.ChangeID,
		change.EntityID,
		change.Category,
		action,
		nullableString(change.Field),
		nullableString(change.OldValue),
		nullableString(change.NewValue),
		change.Confidence,
		nullableString(note),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("append %s entry: %w", action, err)
	}
	return nil
}

// HasEntry reports whether a change identifier already has a ledger entry
// with the given action.
func (s *Store) HasEntry(ctx context.Context, changeID string, action Action) (bool, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM ledger_entries WHERE change_id = ? AND action = ?`, changeID, action)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check %s entries: %w", action, err)
	}
	return count > 0, nil
}

// ListLedgerEntries returns ledger entries newest first, optionally filtered
// by action. A non-positive limit returns every entry.
func (s *Store) ListLedgerEntries(ctx context.Context, limit int, actions ...Action) ([]*LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries`
	args := []any{}
	if len(actions) > 0 {
		query += ` WHERE action IN (` + makePlaceholders(len(actions)) + `)`
		for _, action := range actions {
			args = append(args, action)
		}
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// EntriesForChange returns all ledger entries for a change identifier in the
// order they were recorded.
func (s *Store) EntriesForChange(ctx context.Context, changeID string) ([]*LedgerEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE change_id = ? ORDER BY created_at, id`,
		changeID,
	)
	if err != nil {
		return nil, fmt.Errorf("entries for change: %w", err)
	}
	defer rows.Close()

	var entries []*LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LedgerStats returns a count of ledger entries grouped by action.
func (s *Store) LedgerStats(ctx context.Context) (map[Action]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT action, COUNT(1) FROM ledger_entries GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Action]int)
	for rows.Next() {
		var action Action
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		stats[action] = count
	}
	return stats, rows.Err()
}
