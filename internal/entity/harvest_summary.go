package entity

import "time"

type HarvestSummary struct {
	State                string
	UnitsFound           int
	LessonsFound         int
	ActivitiesDiscovered int
	ActivitiesExtracted  int
	ActivitiesCached     int
	CardsExtracted       int
	Skipped              []SkippedNode
	StartedAt            time.Time
	FinishedAt           *time.Time
}
