package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zyntel-ai/labops/pkg/analytics/records"
)

// CSVSource reads a static CSV export with a header row. Every cell is kept
// as a string; empty cells stay empty and read as missing downstream.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: strings.TrimSpace(path)}
}

func (c *CSVSource) Describe() string {
	return "csv:" + c.path
}

func (c *CSVSource) Load(ctx context.Context) ([]records.Record, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()
	return ReadCSV(ctx, f)
}

// ReadCSV parses header-keyed rows. Short rows are padded as missing fields;
// cells beyond the header are dropped.
func ReadCSV(ctx context.Context, r io.Reader) ([]records.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []records.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		headers[i] = h
	}

	out := []records.Record{}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv read error at line %d: %w", line, err)
		}
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blank(row) {
			continue
		}

		rec := make(records.Record, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = nil
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
