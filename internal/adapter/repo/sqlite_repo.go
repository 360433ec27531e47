package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"articleforge/internal/db"
	"articleforge/internal/domain"
)

const (
	sqliteInsertJob = `
insert into generation_jobs (
  id, brief, business_context, total_sections, completed_sections, status,
  current_pass, current_section_key, passes_status, draft_content, error_message,
  created_at, updated_at
) values (?, ?, ?, ?, 0, ?, ?, '', ?, '', '', ?, ?);`

	sqliteSelectJob = `
select id, brief, business_context, total_sections, completed_sections, status,
  current_pass, current_section_key, passes_status, draft_content, final_audit_score,
  audit_details, error_message, created_at, updated_at
from generation_jobs
where id = ?;`

	sqliteUpdateJob = `
update generation_jobs
set total_sections = ?, completed_sections = ?, status = ?, current_pass = ?,
  current_section_key = ?, passes_status = ?, draft_content = ?, final_audit_score = ?,
  audit_details = ?, error_message = ?, updated_at = ?
where id = ?;`

	sqliteSelectSections = `
select job_id, section_key, section_heading, section_order, section_level, pass_contents,
  current_content, current_pass, status, updated_at
from job_sections
where job_id = ?
order by section_order asc, section_key asc;`

	sqliteSelectSection = `
select pass_contents from job_sections where job_id = ? and section_key = ?;`

	sqliteUpsertSection = `
insert into job_sections (
  job_id, section_key, section_heading, section_order, section_level, pass_contents,
  current_content, current_pass, status, updated_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (job_id, section_key) do update set
  section_heading = excluded.section_heading,
  section_order = excluded.section_order,
  section_level = excluded.section_level,
  pass_contents = excluded.pass_contents,
  current_content = excluded.current_content,
  current_pass = excluded.current_pass,
  status = excluded.status,
  updated_at = excluded.updated_at;`

	sqliteCountCompleted = `
select count(*) from job_sections where job_id = ? and status = 'completed';`
)

// SQLiteStore is a SectionStore on a local SQLite file, used by the CLI.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxIdleTime(0)
	if _, err := conn.ExecContext(ctx, "pragma foreign_keys = on;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.Migrate(ctx, conn, db.DialectSQLite); err != nil {
		conn.Close()
		return nil, err
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job *domain.GenerationJob) error {
	prepareNewJob(job)
	now := s.now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now

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
	_, err = s.db.ExecContext(ctx, sqliteInsertJob,
		job.ID, string(brief), string(bc), job.TotalSections, string(job.Status),
		job.CurrentPass, string(passes), now, now)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*domain.GenerationJob, error) {
	return getSQLiteJob(ctx, s.db, jobID)
}

// UpdateJob runs a read-modify-write inside a transaction so the patch merge
// rules stay identical to the other stores.
func (s *SQLiteStore) UpdateJob(ctx context.Context, jobID string, patch domain.JobPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	job, err := getSQLiteJob(ctx, tx, jobID)
	if err != nil {
		return err
	}
	patch.Apply(job)

	passes, err := json.Marshal(job.PassesStatus)
	if err != nil {
		return fmt.Errorf("encode passes status: %w", err)
	}
	var audit sql.NullString
	if job.AuditDetails != nil {
		raw, err := json.Marshal(job.AuditDetails)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		audit = sql.NullString{String: string(raw), Valid: true}
	}
	var score sql.NullInt64
	if job.FinalAuditScore != nil {
		score = sql.NullInt64{Int64: int64(*job.FinalAuditScore), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, sqliteUpdateJob,
		job.TotalSections, job.CompletedSections, string(job.Status), job.CurrentPass,
		job.CurrentSectionKey, string(passes), job.DraftContent, score, audit,
		job.ErrorMessage, s.now().UTC(), jobID,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetSections(ctx context.Context, jobID string) ([]domain.Section, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectSections, jobID)
	if err != nil {
		return nil, fmt.Errorf("select sections: %w", err)
	}
	defer rows.Close()

	var out []domain.Section
	for rows.Next() {
		var (
			sec      domain.Section
			contents string
			status   string
		)
		if err := rows.Scan(&sec.JobID, &sec.Key, &sec.Heading, &sec.Order, &sec.Level,
			&contents, &sec.CurrentContent, &sec.CurrentPass, &status, &sec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sec.Status = domain.SectionStatus(status)
		if sec.PassContents, err = decodePassContents([]byte(contents)); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// UpsertSection merges pass contents with the stored row, matching the
// jsonb merge the Postgres store performs.
func (s *SQLiteStore) UpsertSection(ctx context.Context, sec domain.Section) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	merged := map[int]string{}
	var existing string
	switch err := tx.QueryRowContext(ctx, sqliteSelectSection, sec.JobID, sec.Key).Scan(&existing); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("select section: %w", err)
	default:
		if merged, err = decodePassContents([]byte(existing)); err != nil {
			return err
		}
	}
	for k, v := range sec.PassContents {
		merged[k] = v
	}
	contents, err := encodePassContents(merged)
	if err != nil {
		return err
	}
	status := sec.Status
	if status == "" {
		status = domain.SectionPending
	}
	if _, err := tx.ExecContext(ctx, sqliteUpsertSection,
		sec.JobID, sec.Key, sec.Heading, sec.Order, sec.Level, string(contents),
		sec.CurrentContent, sec.CurrentPass, string(status), s.now().UTC(),
	); err != nil {
		return fmt.Errorf("upsert section %s: %w", sec.Key, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountCompletedSections(ctx context.Context, jobID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, sqliteCountCompleted, jobID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sections: %w", err)
	}
	return n, nil
}

type sqliteQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSQLiteJob(ctx context.Context, q sqliteQuerier, jobID string) (*domain.GenerationJob, error) {
	var (
		job    domain.GenerationJob
		brief  string
		bc     string
		passes string
		status string
		score  sql.NullInt64
		audit  sql.NullString
	)
	err := q.QueryRowContext(ctx, sqliteSelectJob, jobID).Scan(
		&job.ID, &brief, &bc, &job.TotalSections, &job.CompletedSections, &status,
		&job.CurrentPass, &job.CurrentSectionKey, &passes, &job.DraftContent, &score,
		&audit, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}
	job.Status = domain.JobStatus(status)
	if score.Valid {
		v := int(score.Int64)
		job.FinalAuditScore = &v
	}
	var auditBytes []byte
	if audit.Valid {
		auditBytes = []byte(audit.String)
	}
	if err := decodeJobDocuments(&job, []byte(brief), []byte(bc), []byte(passes), auditBytes); err != nil {
		return nil, err
	}
	return &job, nil
}

var _ domain.SectionStore = (*SQLiteStore)(nil)
