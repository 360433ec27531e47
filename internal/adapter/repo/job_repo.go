package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/sqlinline"
)

// JobStorePG implements domain.SectionStore and domain.JobQueue on PostgreSQL.
type JobStorePG struct {
	sql infra.SQLExecutor
}

// NewJobStore creates a Postgres-backed store using the marker-checked SQL runner.
func NewJobStore(sql infra.SQLExecutor) *JobStorePG {
	return &JobStorePG{sql: sql}
}

// CreateJob inserts a pending job. ID, status and passes_status are filled when unset.
func (r *JobStorePG) CreateJob(ctx context.Context, job *domain.GenerationJob) error {
	prepareNewJob(job)
	brief, err := json.Marshal(job.Brief)
	if err != nil {
		return fmt.Errorf("encode brief: %w", err)
	}
	bc, err := json.Marshal(job.BusinessContext)
	if err != nil {
		return fmt.Errorf("encode business context: %w", err)
	}
	passes, err := json.Marshal(job.PassesStatus)
	if err != nil {
		return fmt.Errorf("encode passes status: %w", err)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertJob,
		job.ID,
		brief,
		bc,
		job.TotalSections,
		string(job.Status),
		job.CurrentPass,
		passes,
	)
	if err := row.Scan(&job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob fetches a job by id.
func (r *JobStorePG) GetJob(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJob, jobID)
	var (
		job        domain.GenerationJob
		brief      []byte
		bc         []byte
		passes     []byte
		status     string
		score      *int
		auditBytes []byte
	)
	if err := row.Scan(
		&job.ID,
		&brief,
		&bc,
		&job.TotalSections,
		&job.CompletedSections,
		&status,
		&job.CurrentPass,
		&job.CurrentSectionKey,
		&passes,
		&job.DraftContent,
		&score,
		&auditBytes,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	job.Status = domain.JobStatus(status)
	job.FinalAuditScore = score
	if err := decodeJobDocuments(&job, brief, bc, passes, auditBytes); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJob applies patch; nil fields are left untouched.
func (r *JobStorePG) UpdateJob(ctx context.Context, jobID string, patch domain.JobPatch) error {
	var passes []byte
	if len(patch.PassStatus) > 0 {
		raw, err := json.Marshal(patch.PassStatus)
		if err != nil {
			return fmt.Errorf("encode passes status: %w", err)
		}
		passes = raw
	}
	var audit []byte
	if patch.AuditDetails != nil {
		raw, err := json.Marshal(patch.AuditDetails)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		audit = raw
	}
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateJob,
		jobID,
		patch.TotalSections,
		patch.CompletedSections,
		status,
		patch.CurrentPass,
		patch.CurrentSectionKey,
		passes,
		patch.DraftContent,
		patch.FinalAuditScore,
		audit,
		patch.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetSections returns the job's sections ordered by section_order.
func (r *JobStorePG) GetSections(ctx context.Context, jobID string) ([]domain.Section, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectSections, jobID)
	if err != nil {
		return nil, fmt.Errorf("select sections: %w", err)
	}
	defer rows.Close()

	var out []domain.Section
	for rows.Next() {
		var (
			s        domain.Section
			contents []byte
			status   string
		)
		if err := rows.Scan(
			&s.JobID,
			&s.Key,
			&s.Heading,
			&s.Order,
			&s.Level,
			&contents,
			&s.CurrentContent,
			&s.CurrentPass,
			&status,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		s.Status = domain.SectionStatus(status)
		if s.PassContents, err = decodePassContents(contents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}

// UpsertSection writes a section keyed by (job_id, section_key).
func (r *JobStorePG) UpsertSection(ctx context.Context, s domain.Section) error {
	contents, err := encodePassContents(s.PassContents)
	if err != nil {
		return err
	}
	status := s.Status
	if status == "" {
		status = domain.SectionPending
	}
	_, err = r.sql.Exec(ctx, sqlinline.QUpsertSection,
		s.JobID,
		s.Key,
		s.Heading,
		s.Order,
		s.Level,
		contents,
		s.CurrentContent,
		s.CurrentPass,
		string(status),
	)
	if err != nil {
		return fmt.Errorf("upsert section %s: %w", s.Key, err)
	}
	return nil
}

// CountCompletedSections counts sections whose status is completed.
func (r *JobStorePG) CountCompletedSections(ctx context.Context, jobID string) (int, error) {
	var n int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountCompletedSections, jobID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sections: %w", err)
	}
	return n, nil
}

// ClaimNextJob moves the oldest pending job to in_progress. It returns nil
// without error when the queue is empty.
func (r *JobStorePG) ClaimNextJob(ctx context.Context) (*domain.GenerationJob, error) {
	var id string
	if err := r.sql.QueryRow(ctx, sqlinline.QWorkerClaimJob).Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return r.GetJob(ctx, id)
}

// JobStatus reads only the status column; used by abort polling.
func (r *JobStorePG) JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	var status string
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectJobStatus, jobID).Scan(&status); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("select job status: %w", err)
	}
	return domain.JobStatus(status), nil
}

// RequeueStale returns jobs stuck in_progress for longer than olderThan to pending.
func (r *JobStorePG) RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QWorkerRequeueStale, int(olderThan.Seconds()))
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func prepareNewJob(job *domain.GenerationJob) {
	if strings.TrimSpace(job.ID) == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = domain.JobStatusPending
	}
	if job.CurrentPass < 1 {
		job.CurrentPass = 1
	}
	if job.PassesStatus == nil {
		job.PassesStatus = domain.NewPassesStatus()
	}
	if job.TotalSections == 0 {
		job.TotalSections = len(job.Brief.StructuredOutline)
	}
}

func decodeJobDocuments(job *domain.GenerationJob, brief, bc, passes, audit []byte) error {
	if len(brief) > 0 {
		if err := json.Unmarshal(brief, &job.Brief); err != nil {
			return fmt.Errorf("decode brief: %w", err)
		}
	}
	if len(bc) > 0 {
		if err := json.Unmarshal(bc, &job.BusinessContext); err != nil {
			return fmt.Errorf("decode business context: %w", err)
		}
	}
	job.PassesStatus = domain.NewPassesStatus()
	if len(passes) > 0 {
		stored := map[domain.PassKey]domain.PassStatus{}
		if err := json.Unmarshal(passes, &stored); err != nil {
			return fmt.Errorf("decode passes status: %w", err)
		}
		for k, v := range stored {
			job.PassesStatus[k] = v
		}
	}
	if len(audit) > 0 && string(audit) != "null" {
		var report domain.AuditReport
		if err := json.Unmarshal(audit, &report); err != nil {
			return fmt.Errorf("decode audit details: %w", err)
		}
		job.AuditDetails = &report
	}
	return nil
}

func encodePassContents(contents map[int]string) ([]byte, error) {
	if contents == nil {
		contents = map[int]string{}
	}
	raw, err := json.Marshal(contents)
	if err != nil {
		return nil, fmt.Errorf("encode pass contents: %w", err)
	}
	return raw, nil
}

func decodePassContents(raw []byte) (map[int]string, error) {
	out := map[int]string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode pass contents: %w", err)
	}
	return out, nil
}

var (
	_ domain.SectionStore = (*JobStorePG)(nil)
	_ domain.JobQueue     = (*JobStorePG)(nil)
)
