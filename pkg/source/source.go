// Package source loads raw dashboard rows from CSV exports, reporting tables
// and upstream JSON APIs. Sources do I/O only; rows are handed to the engine
// untouched.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zyntel-ai/labops/pkg/analytics/records"
	"gorm.io/gorm"
)

var ErrUnsupportedSource = errors.New("unsupported source")

type Source interface {
	Load(ctx context.Context) ([]records.Record, error)
	// Describe names the backing location for logs and health output.
	Describe() string
}

// Deps are the shared clients a source spec may need.
type Deps struct {
	DB          *gorm.DB
	HTTP        *http.Client
	Retries     int
	RetryDelay  time.Duration
	BearerToken string
}

// Open builds a source from a spec of the form csv:<path>, table:<name> or
// an http(s) URL.
func Open(spec string, deps Deps) (Source, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case strings.HasPrefix(spec, "csv:"):
		return NewCSVSource(strings.TrimPrefix(spec, "csv:")), nil
	case strings.HasPrefix(spec, "table:"):
		if deps.DB == nil {
			return nil, fmt.Errorf("%w: %q needs a database connection", ErrUnsupportedSource, spec)
		}
		return NewTableSource(deps.DB, strings.TrimPrefix(spec, "table:"))
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		opts := []HTTPOption{WithRetries(deps.Retries, deps.RetryDelay)}
		if deps.BearerToken != "" {
			opts = append(opts, WithBearerToken(deps.BearerToken))
		}
		return NewHTTPSource(spec, deps.HTTP, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, spec)
	}
}

// Static serves a fixed row set.
type Static struct {
	Rows []records.Record
	Name string
}

func (s Static) Load(ctx context.Context) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Rows, nil
}

func (s Static) Describe() string {
	if s.Name == "" {
		return "static"
	}
	return s.Name
}
