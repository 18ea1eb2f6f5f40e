package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"relish/internal/services"
)

// ParseBatch reads one record per line. Fields are pipe-separated:
//
//	name | category | location | tags
//
// Only the name is required; tags are comma-separated. Blank lines and lines
// starting with # are skipped. Line numbers refer to the input so operators
// can trace every result back to the line they pasted. A line with no name
// comes back as an error record rather than aborting the batch.
func ParseBatch(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		records = append(records, parseLine(line, text))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "parse", "batch contains no records", nil)
	}
	return records, nil
}

func parseLine(line int, text string) Record {
	record := Record{Line: line, Status: StatusUnprocessed}
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	record.Name = parts[0]
	if len(parts) > 1 {
		record.Category = parts[1]
	}
	if len(parts) > 2 {
		record.Location = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		for _, tag := range strings.Split(parts[3], ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				record.Tags = append(record.Tags, tag)
			}
		}
	}
	if record.Name == "" {
		record.fail("name is required")
	}
	return record
}
