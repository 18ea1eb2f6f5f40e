package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AddEntity inserts a new catalog entity.
func (s *Store) AddEntity(ctx context.Context, category Category, fields map[string]string) (*Entity, error) {
	if _, ok := categorySet[category]; !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	fieldsJSON, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO entities (category, fields, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		category,
		fieldsJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetEntityByID(ctx, id)
}

// GetEntityByID fetches an entity by identifier.
func (s *Store) GetEntityByID(ctx context.Context, id int64) (*Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)
	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return entity, nil
}

// UpdateEntity persists changes to an existing entity.
func (s *Store) UpdateEntity(ctx context.Context, entity *Entity) error {
	if entity == nil {
		return errors.New("entity is nil")
	}
	fieldsJSON, err := encodeFields(entity.Fields)
	if err != nil {
		return err
	}
	entity.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE entities SET category = ?, fields = ?, updated_at = ? WHERE id = ?`,
		entity.Category,
		fieldsJSON,
		entity.UpdatedAt.Format(time.RFC3339Nano),
		entity.ID,
	); err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	return nil
}

// ListEntities returns entities filtered by category set (or all entities when
// no category is provided), ordered by identifier.
func (s *Store) ListEntities(ctx context.Context, categories ...Category) ([]*Entity, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + entityColumns + ` FROM entities`
	orderClause := ` ORDER BY id`

	if len(categories) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(categories))
		args := make([]any, len(categories))
		for i, category := range categories {
			args[i] = category
		}
		query := baseQuery + ` WHERE category IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// RemoveEntity deletes an entity by identifier.
func (s *Store) RemoveEntity(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns a count of entities grouped by category.
func (s *Store) Stats(ctx context.Context) (map[Category]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(1) FROM entities GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("entity stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Category]int)
	for rows.Next() {
		var category Category
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats[category] = count
	}
	return stats, rows.Err()
}

// Health aggregates catalog state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	health := HealthSummary{
		ByCategory: make(map[Category]int),
		ByAction:   make(map[Action]int),
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return health, err
	}
	for category, count := range stats {
		health.Entities += count
		health.ByCategory[category] = count
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM areas`)
	if err := row.Scan(&health.Areas); err != nil {
		return health, fmt.Errorf("count areas: %w", err)
	}

	actions, err := s.LedgerStats(ctx)
	if err != nil {
		return health, err
	}
	for action, count := range actions {
		health.LedgerTotal += count
		health.ByAction[action] = count
	}
	return health, nil
}
