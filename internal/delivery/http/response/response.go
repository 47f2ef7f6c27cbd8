package response

import "time"

type SkippedNodeResponse struct {
	URL            string    `json:"url"`
	Role           string    `json:"role"`
	Kind           string    `json:"kind"`
	Reason         string    `json:"reason"`
	DiagnosticPath string    `json:"diagnostic_path,omitempty"`
	LastAttemptAt  time.Time `json:"last_attempt_at"`
}

// StatusResponse is a DTO for the live harvest counters, mirroring entity.HarvestSummary.
type StatusResponse struct {
	RunID                string                `json:"run_id"`
	State                string                `json:"state"` // "idle", "at_unit", ..., "done"
	UnitsFound           int                   `json:"units_found"`
	LessonsFound         int                   `json:"lessons_found"`
	ActivitiesDiscovered int                   `json:"activities_discovered"`
	ActivitiesExtracted  int                   `json:"activities_extracted"`
	ActivitiesCached     int                   `json:"activities_cached"`
	CardsExtracted       int                   `json:"cards_extracted"`
	SkippedCount         int                   `json:"skipped_count"`
	Skipped              []SkippedNodeResponse `json:"skipped"`
	StartedAt            *time.Time            `json:"started_at,omitempty"`
	FinishedAt           *time.Time            `json:"finished_at,omitempty"`
	ElapsedSeconds       float64               `json:"elapsed_seconds"`
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}
