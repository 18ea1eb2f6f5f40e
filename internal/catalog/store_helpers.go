package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const areaColumns = "id, name, region_id, postal_codes, created_at, updated_at"

const entityColumns = "id, category, fields, created_at, updated_at"

const ledgerColumns = "id, change_id, entity_id, category, action, field, old_value, new_value, confidence, note, created_at"

func scanArea(scanner interface{ Scan(dest ...any) error }) (*Area, error) {
	var (
		id         int64
		name       string
		regionID   int64
		postalsRaw string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &name, &regionID, &postalsRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	area := &Area{ID: id, Name: name, RegionID: regionID}
	if postalsRaw != "" {
		if err := json.Unmarshal([]byte(postalsRaw), &area.PostalCodes); err != nil {
			return nil, fmt.Errorf("decode postal codes for area %d: %w", id, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		area.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		area.UpdatedAt = updated
	}
	return area, nil
}

func scanEntity(scanner interface{ Scan(dest ...any) error }) (*Entity, error) {
	var (
		id          int64
		categoryStr string
		fieldsRaw   string
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&id, &categoryStr, &fieldsRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	entity := &Entity{ID: id, Category: Category(categoryStr)}
	if fieldsRaw != "" {
		if err := json.Unmarshal([]byte(fieldsRaw), &entity.Fields); err != nil {
			return nil, fmt.Errorf("decode fields for entity %d: %w", id, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entity.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entity.UpdatedAt = updated
	}
	return entity, nil
}

func scanLedgerEntry(scanner interface{ Scan(dest ...any) error }) (*LedgerEntry, error) {
	var (
		id          string
		changeID    string
		entityID    int64
		categoryStr string
		actionStr   string
		field       sql.NullString
		oldValue    sql.NullString
		newValue    sql.NullString
		confidence  float64
		note        sql.NullString
		createdRaw  string
	)
	if err := scanner.Scan(&id, &changeID, &entityID, &categoryStr, &actionStr, &field, &oldValue, &newValue, &confidence, &note, &createdRaw); err != nil {
		return nil, err
	}

	entry := &LedgerEntry{
		ID:         id,
		ChangeID:   changeID,
		EntityID:   entityID,
		Category:   Category(categoryStr),
		Action:     Action(actionStr),
		Field:      field.String,
		OldValue:   oldValue.String,
		NewValue:   newValue.String,
		Confidence: confidence,
		Note:       note.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}

func encodeFields(fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(data), nil
}

func encodePostalCodes(codes []string) (string, error) {
	if len(codes) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(codes)
	if err != nil {
		return "", fmt.Errorf("encode postal codes: %w", err)
	}
	return string(data), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
