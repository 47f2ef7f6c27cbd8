package usecase

import (
	"sync"
	"time"

	"github.com/user/lesson-harvester/internal/entity"
)

// State is the position of the orchestrator in the catalog walk.
type State string

const (
	StateIdle                 State = "idle"
	StateBootstrapping        State = "bootstrapping"
	StateAtGrade              State = "at_grade"
	StateAtUnit               State = "at_unit"
	StateAtLessonOrCollection State = "at_lesson_or_collection"
	StateAtActivity           State = "at_activity"
	StateDone                 State = "done"
)

// Progress holds the live counters of a run. The orchestrator is the only
// writer; the status endpoint and the spinner read it from other goroutines.
type Progress struct {
	mu      sync.RWMutex
	summary entity.HarvestSummary
}

func NewProgress() *Progress {
	return &Progress{summary: entity.HarvestSummary{State: string(StateIdle)}}
}

func (p *Progress) start(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.summary.StartedAt.IsZero() {
		p.summary.StartedAt = now
	}
	p.summary.FinishedAt = nil
}

func (p *Progress) setState(s State) {
	p.mu.Lock()
	p.summary.State = string(s)
	p.mu.Unlock()
}

func (p *Progress) finish(now time.Time) {
	p.mu.Lock()
	p.summary.State = string(StateDone)
	p.summary.FinishedAt = &now
	p.mu.Unlock()
}

func (p *Progress) add(role entity.Role, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch role {
	case entity.RoleUnit:
		p.summary.UnitsFound += n
	case entity.RoleLesson:
		p.summary.LessonsFound += n
	case entity.RoleActivity:
		p.summary.ActivitiesDiscovered += n
	}
}

func (p *Progress) extracted(cards int) {
	p.mu.Lock()
	p.summary.ActivitiesExtracted++
	p.summary.CardsExtracted += cards
	p.mu.Unlock()
}

func (p *Progress) cached() {
	p.mu.Lock()
	p.summary.ActivitiesCached++
	p.mu.Unlock()
}

func (p *Progress) skipped(node entity.SkippedNode) {
	p.mu.Lock()
	p.summary.Skipped = append(p.summary.Skipped, node)
	p.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() entity.HarvestSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.summary
	s.Skipped = append([]entity.SkippedNode(nil), p.summary.Skipped...)
	if p.summary.FinishedAt != nil {
		t := *p.summary.FinishedAt
		s.FinishedAt = &t
	}
	return s
}
