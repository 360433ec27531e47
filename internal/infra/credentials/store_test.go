package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token string
	err   error
	calls int
	exec  struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls++
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestToken(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		stub     *stubExecutor
		want     string
	}{
		{name: "gemini", provider: ProviderGemini, stub: &stubExecutor{token: " abc123 "}, want: "abc123"},
		{name: "openai uppercase", provider: "OpenAI", stub: &stubExecutor{token: "sk-test"}, want: "sk-test"},
		{name: "no rows", provider: ProviderQwen, stub: &stubExecutor{err: pgx.ErrNoRows}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStore(tt.stub).Token(context.Background(), tt.provider)
			if err != nil {
				t.Fatalf("Token error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenPropagatesErrors(t *testing.T) {
	store := NewStore(&stubExecutor{err: errors.New("connection refused")})
	if _, err := store.Token(context.Background(), ProviderGemini); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetToken(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	if err := store.SetToken(context.Background(), "Qwen", "secret", nil); err != nil {
		t.Fatalf("SetToken error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderQwen {
		t.Fatalf("expected qwen provider, got %v", exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != "secret" {
		t.Fatalf("expected secret argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
}

func TestSetTokenRejects(t *testing.T) {
	store := NewStore(&stubExecutor{})
	if err := store.SetToken(context.Background(), ProviderOpenAI, " ", nil); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := store.SetToken(context.Background(), "static", "x", nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestResolveKeyPrefersEnvironment(t *testing.T) {
	exec := &stubExecutor{token: "stored"}
	store := NewStore(exec)
	key, err := ResolveKey(context.Background(), store, ProviderGemini, " env-key ")
	if err != nil {
		t.Fatalf("ResolveKey error: %v", err)
	}
	if key != "env-key" {
		t.Fatalf("ResolveKey = %q, want env-key", key)
	}
	if exec.calls != 0 {
		t.Fatalf("expected no store lookups, got %d", exec.calls)
	}

	key, err = ResolveKey(context.Background(), store, ProviderGemini, "")
	if err != nil {
		t.Fatalf("ResolveKey error: %v", err)
	}
	if key != "stored" {
		t.Fatalf("ResolveKey = %q, want stored", key)
	}

	key, err = ResolveKey(context.Background(), nil, ProviderGemini, "")
	if err != nil || key != "" {
		t.Fatalf("ResolveKey without store = %q, %v", key, err)
	}
}
