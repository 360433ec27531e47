package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"articleforge/internal/domain"
)

// MemoryStore is an in-process SectionStore used by tests and stateless requests.
type MemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string]*domain.GenerationJob
	sections map[string]map[string]domain.Section
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     make(map[string]*domain.GenerationJob),
		sections: make(map[string]map[string]domain.Section),
		now:      time.Now,
	}
}

func (m *MemoryStore) CreateJob(ctx context.Context, job *domain.GenerationJob) error {
	prepareNewJob(job)
	now := m.now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *MemoryStore) GetJob(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneJob(job), nil
}

func (m *MemoryStore) UpdateJob(ctx context.Context, jobID string, patch domain.JobPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	patch.Apply(job)
	job.UpdatedAt = m.now().UTC()
	return nil
}

func (m *MemoryStore) GetSections(ctx context.Context, jobID string) ([]domain.Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byKey := m.sections[jobID]
	out := make([]domain.Section, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, cloneSection(s))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (m *MemoryStore) UpsertSection(ctx context.Context, s domain.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.sections[s.JobID]
	if !ok {
		byKey = make(map[string]domain.Section)
		m.sections[s.JobID] = byKey
	}
	next := cloneSection(s)
	if prev, ok := byKey[s.Key]; ok {
		merged := make(map[int]string, len(prev.PassContents)+len(next.PassContents))
		for k, v := range prev.PassContents {
			merged[k] = v
		}
		for k, v := range next.PassContents {
			merged[k] = v
		}
		next.PassContents = merged
	}
	if next.Status == "" {
		next.Status = domain.SectionPending
	}
	next.UpdatedAt = m.now().UTC()
	byKey[s.Key] = next
	return nil
}

func (m *MemoryStore) CountCompletedSections(ctx context.Context, jobID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sections[jobID] {
		if s.Status == domain.SectionCompleted {
			n++
		}
	}
	return n, nil
}

// ClaimNextJob moves the oldest pending job to in_progress, or returns nil.
func (m *MemoryStore) ClaimNextJob(ctx context.Context) (*domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var next *domain.GenerationJob
	for _, job := range m.jobs {
		if job.Status != domain.JobStatusPending {
			continue
		}
		if next == nil || job.CreatedAt.Before(next.CreatedAt) {
			next = job
		}
	}
	if next == nil {
		return nil, nil
	}
	next.Status = domain.JobStatusInProgress
	next.UpdatedAt = m.now().UTC()
	return cloneJob(next), nil
}

// JobStatus returns only the job status.
func (m *MemoryStore) JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return job.Status, nil
}

func cloneJob(job *domain.GenerationJob) *domain.GenerationJob {
	cp := *job
	if job.PassesStatus != nil {
		cp.PassesStatus = make(map[domain.PassKey]domain.PassStatus, len(job.PassesStatus))
		for k, v := range job.PassesStatus {
			cp.PassesStatus[k] = v
		}
	}
	if job.FinalAuditScore != nil {
		score := *job.FinalAuditScore
		cp.FinalAuditScore = &score
	}
	return &cp
}

func cloneSection(s domain.Section) domain.Section {
	if s.PassContents != nil {
		contents := make(map[int]string, len(s.PassContents))
		for k, v := range s.PassContents {
			contents[k] = v
		}
		s.PassContents = contents
	}
	return s
}

var (
	_ domain.SectionStore = (*MemoryStore)(nil)
	_ domain.JobQueue     = (*MemoryStore)(nil)
)
