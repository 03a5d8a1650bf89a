package source

import (
	"context"
	"fmt"
	"regexp"

	"github.com/zyntel-ai/labops/pkg/analytics/records"
	"gorm.io/gorm"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// TableSource reads every row of a reporting table or view. Filtering is the
// engine's job, so no predicate is pushed down.
type TableSource struct {
	db    *gorm.DB
	table string
}

func NewTableSource(db *gorm.DB, table string) (*TableSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrUnsupportedSource, table)
	}
	return &TableSource{db: db, table: table}, nil
}

func (t *TableSource) Describe() string {
	return "table:" + t.table
}

func (t *TableSource) Load(ctx context.Context) ([]records.Record, error) {
	var rows []map[string]interface{}
	if err := t.db.WithContext(ctx).Table(t.table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", t.table, err)
	}
	out := make([]records.Record, len(rows))
	for i, row := range rows {
		for k, v := range row {
			// some drivers hand text columns back as bytes
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out[i] = records.Record(row)
	}
	return out, nil
}
