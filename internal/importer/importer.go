// Package importer normalizes bulk feature uploads (CSV or JSON) into a
// uniform shape ready for persistence.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/productcompass/compass/internal/models"
)

// Header is the canonical CSV column order, shared with the exporter.
var Header = []string{"Title", "Description", "Priority", "Status", "Release", "Date"}

// Row is a normalized feature ready for insertion.
type Row struct {
	Title       string
	Description string
	Priority    string
	Status      string
	Release     string
	Date        time.Time
}

// Result reports what a parse pass produced.
type Result struct {
	Rows    []Row
	Skipped int // rows dropped for missing a title
}

type jsonFeature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Release     string `json:"release"`
	Date        string `json:"date"`
}

type jsonEnvelope struct {
	Features []jsonFeature `json:"features"`
}

// ParseCSV reads a CSV upload. Column matching against Header is
// case-insensitive; unknown columns are ignored.
func ParseCSV(r io.Reader, now time.Time) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("import: empty file")
		}
		return nil, fmt.Errorf("import: read header: %w", err)
	}

	index := map[string]int{}
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := index["title"]; !ok {
		return nil, errors.New("import: missing required Title column")
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	result := &Result{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("import: read row: %w", err)
		}

		row := normalize(jsonFeature{
			Title:       field(record, "title"),
			Description: field(record, "description"),
			Priority:    field(record, "priority"),
			Status:      field(record, "status"),
			Release:     field(record, "release"),
			Date:        field(record, "date"),
		}, now)
		if row == nil {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, *row)
	}

	return result, nil
}

// ParseJSON reads a JSON upload: either a bare array of features or an
// object with a "features" array.
func ParseJSON(r io.Reader, now time.Time) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("import: read body: %w", err)
	}

	var items []jsonFeature
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope jsonEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("import: decode json: %w", err)
		}
		items = envelope.Features
	} else {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("import: decode json: %w", err)
		}
	}

	result := &Result{}
	for _, item := range items {
		row := normalize(item, now)
		if row == nil {
			result.Skipped++
			continue
		}
		result.Rows = append(result.Rows, *row)
	}

	return result, nil
}

func normalize(in jsonFeature, now time.Time) *Row {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil
	}

	return &Row{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    NormalizePriority(in.Priority),
		Status:      NormalizeStatus(in.Status),
		Release:     strings.TrimSpace(in.Release),
		Date:        parseDate(in.Date, now),
	}
}

// NormalizePriority maps free-form priority text onto the fixed enumeration,
// defaulting to medium.
func NormalizePriority(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case models.PriorityLow:
		return models.PriorityLow
	case models.PriorityHigh, "critical", "urgent":
		return models.PriorityHigh
	case models.PriorityMedium, "normal":
		return models.PriorityMedium
	default:
		return models.PriorityMedium
	}
}

// NormalizeStatus maps free-form status text onto the fixed enumeration,
// defaulting to planned.
func NormalizeStatus(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case models.StatusInProgress, "in progress", "in_progress", "active", "started":
		return models.StatusInProgress
	case models.StatusCompleted, "done", "complete", "shipped":
		return models.StatusCompleted
	case models.StatusPlanned, "backlog", "todo":
		return models.StatusPlanned
	default:
		return models.StatusPlanned
	}
}

func parseDate(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.Truncate(24 * time.Hour)
	}
	if d, err := time.Parse(models.DateLayout, value); err == nil {
		return d
	}
	if d, err := time.Parse(time.RFC3339, value); err == nil {
		return d.Truncate(24 * time.Hour)
	}
	return now.Truncate(24 * time.Hour)
}
