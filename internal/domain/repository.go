package domain

import "context"

// SectionStore persists jobs and their sections. Every section write is an
// idempotent upsert keyed by (job_id, section_key).
type SectionStore interface {
	CreateJob(ctx context.Context, job *GenerationJob) error
	GetJob(ctx context.Context, jobID string) (*GenerationJob, error)
	UpdateJob(ctx context.Context, jobID string, patch JobPatch) error
	GetSections(ctx context.Context, jobID string) ([]Section, error)
	UpsertSection(ctx context.Context, section Section) error
	CountCompletedSections(ctx context.Context, jobID string) (int, error)
}

// JobQueue hands pending jobs to workers.
type JobQueue interface {
	ClaimNextJob(ctx context.Context) (*GenerationJob, error)
}
