package models

import "time"

// Dataset event types published by the import jobs.
const (
	DatasetImported = "dataset.imported"
	DatasetPurged   = "dataset.purged"
	DatasetRefresh  = "dataset.refresh"
)

// DatasetEvent announces that the rows behind a dashboard changed.
type DatasetEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Dataset   string            `json:"dataset"` // tat, revenue, numbers
	Source    string            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Sources   map[string]string `json:"sources,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
