package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AddArea inserts a new service area.
func (s *Store) AddArea(ctx context.Context, name string, regionID int64, postalCodes []string) (*Area, error) {
	if name == "" {
		return nil, errors.New("area name is required")
	}
	postalsJSON, err := encodePostalCodes(postalCodes)
	if err != nil {
		return nil, err
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO areas (name, region_id, postal_codes, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		name,
		regionID,
		postalsJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert area: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetAreaByID(ctx, id)
}

// GetAreaByID fetches an area by identifier.
func (s *Store) GetAreaByID(ctx context.Context, id int64) (*Area, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+areaColumns+` FROM areas WHERE id = ?`, id)
	area, err := scanArea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get area: %w", err)
	}
	return area, nil
}

// GetAreaByName fetches an area by its unique name.
func (s *Store) GetAreaByName(ctx context.Context, name string) (*Area, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+areaColumns+` FROM areas WHERE name = ?`, name)
	area, err := scanArea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get area by name: %w", err)
	}
	return area, nil
}

// EnsureArea returns the named area, creating it when absent.
func (s *Store) EnsureArea(ctx context.Context, name string, regionID int64) (*Area, error) {
	area, err := s.GetAreaByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if area != nil {
		return area, nil
	}
	return s.AddArea(ctx, name, regionID, nil)
}

// UpdateArea persists changes to an existing area.
func (s *Store) UpdateArea(ctx context.Context, area *Area) error {
	if area == nil {
		return errors.New("area is nil")
	}
	postalsJSON, err := encodePostalCodes(area.PostalCodes)
	if err != nil {
		return err
	}
	area.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE areas SET name = ?, region_id = ?, postal_codes = ?, updated_at = ? WHERE id = ?`,
		area.Name,
		area.RegionID,
		postalsJSON,
		area.UpdatedAt.Format(time.RFC3339Nano),
		area.ID,
	); err != nil {
		return fmt.Errorf("update area: %w", err)
	}
	return nil
}

// ListAreas returns all areas ordered by identifier.
func (s *Store) ListAreas(ctx context.Context) ([]*Area, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+areaColumns+` FROM areas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	var areas []*Area
	for rows.Next() {
		area, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, rows.Err()
}

// PostalIndex returns a snapshot mapping postal codes to their areas. When two
// areas claim the same code the lower-numbered area wins.
func (s *Store) PostalIndex(ctx context.Context) (map[string]Area, error) {
	areas, err := s.ListAreas(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]Area)
	for _, area := range areas {
		for _, code := range area.PostalCodes {
			if code == "" {
				continue
			}
			if _, exists := index[code]; exists {
				continue
			}
			index[code] = *area
		}
	}
	return index, nil
}

// AppendPostalCode adds a postal code to an area unless it is already present.
func (s *Store) AppendPostalCode(ctx context.Context, areaID int64, code string) error {
	if code == "" {
		return errors.New("postal code is required")
	}
	area, err := s.GetAreaByID(ctx, areaID)
	if err != nil {
		return err
	}
	if area == nil {
		return fmt.Errorf("area %d not found", areaID)
	}
	if area.CoversPostalCode(code) {
		return nil
	}
	area.PostalCodes = append(area.PostalCodes, code)
	return s.UpdateArea(ctx, area)
}
