package entity

import "time"

// SkipKind classifies why a node was skipped.
type SkipKind string

const (
	SkipNavigationTimeout SkipKind = "navigation_timeout"
	SkipNavigationFailed  SkipKind = "navigation_failed"
	SkipStructureNotFound SkipKind = "structure_not_found"
	SkipExtractionFailed  SkipKind = "extraction_failed"
)

// SkippedNode mirrors the `skipped_nodes` PostgreSQL table schema.
type SkippedNode struct {
	ID                   int64
	URL                  string
	Role                 Role
	Kind                 SkipKind
	Reason               string
	DiagnosticPath       string
	LastAttemptTimestamp time.Time
	RetryCount           int
}
