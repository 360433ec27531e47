package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"articleforge/internal/domain"
	"articleforge/internal/sqlinline"
)

type stubExecutor struct {
	tag      pgconn.CommandTag
	rowErr   error
	rowVals  []any
	queries  []string
	lastArgs []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.queries = append(s.queries, query)
	s.lastArgs = args
	return s.tag, nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queries = append(s.queries, query)
	s.lastArgs = args
	return stubRow{vals: s.rowVals, err: s.rowErr}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	vals []any
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		if i >= len(r.vals) {
			break
		}
		switch d := dest[i].(type) {
		case *string:
			*d = r.vals[i].(string)
		case *int:
			*d = r.vals[i].(int)
		}
	}
	return nil
}

func TestJobStorePGUpdateJobArgs(t *testing.T) {
	exec := &stubExecutor{tag: pgconn.NewCommandTag("UPDATE 1")}
	store := NewJobStore(exec)
	status := domain.JobStatusAborted
	err := store.UpdateJob(context.Background(), "job-1", domain.JobPatch{
		Status:     &status,
		PassStatus: map[domain.PassKey]domain.PassStatus{domain.PassLists: domain.PassInProgress},
	})
	if err != nil {
		t.Fatalf("UpdateJob error: %v", err)
	}
	if exec.queries[0] != sqlinline.QUpdateJob {
		t.Fatal("UpdateJob did not use the marker-tagged statement")
	}
	if len(exec.lastArgs) != 11 {
		t.Fatalf("expected 11 args, got %d", len(exec.lastArgs))
	}
	if v, ok := exec.lastArgs[3].(*string); !ok || v == nil || *v != "aborted" {
		t.Fatalf("status arg = %#v", exec.lastArgs[3])
	}
	passes, ok := exec.lastArgs[6].([]byte)
	if !ok || !strings.Contains(string(passes), `"pass_3_lists":"in_progress"`) {
		t.Fatalf("passes arg = %s", passes)
	}
	if audit, _ := exec.lastArgs[9].([]byte); audit != nil {
		t.Fatalf("audit arg should be nil, got %s", audit)
	}
}

func TestJobStorePGUpdateJobNotFound(t *testing.T) {
	store := NewJobStore(&stubExecutor{tag: pgconn.NewCommandTag("UPDATE 0")})
	status := domain.JobStatusAborted
	if err := store.UpdateJob(context.Background(), "missing", domain.JobPatch{Status: &status}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateJob error = %v, want ErrNotFound", err)
	}
}

func TestJobStorePGGetJobNoRows(t *testing.T) {
	store := NewJobStore(&stubExecutor{rowErr: pgx.ErrNoRows})
	if _, err := store.GetJob(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetJob error = %v, want ErrNotFound", err)
	}
}

func TestJobStorePGClaimEmptyQueue(t *testing.T) {
	store := NewJobStore(&stubExecutor{rowErr: pgx.ErrNoRows})
	job, err := store.ClaimNextJob(context.Background())
	if err != nil || job != nil {
		t.Fatalf("ClaimNextJob = %v, %v; want nil, nil", job, err)
	}
}

func TestJobStorePGJobStatus(t *testing.T) {
	store := NewJobStore(&stubExecutor{rowVals: []any{"aborted"}})
	status, err := store.JobStatus(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("JobStatus error: %v", err)
	}
	if status != domain.JobStatusAborted {
		t.Fatalf("JobStatus = %q, want aborted", status)
	}
}
