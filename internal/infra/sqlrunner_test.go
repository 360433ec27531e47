package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b0cf0d8-3c36-4c4f-9d0b-6d1f0a7e1c11\nSELECT 1"
	marker, body, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "0b0cf0d8-3c36-4c4f-9d0b-6d1f0a7e1c11" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "SELECT 1" {
		t.Fatalf("body = %q, want %q", body, "SELECT 1")
	}
}

func TestExtractMarkerRejectsUntagged(t *testing.T) {
	cases := []string{"", "SELECT 1", "--sql not-a-uuid\nSELECT 1"}
	for _, q := range cases {
		if _, _, err := extractMarker(q); err == nil {
			t.Fatalf("expected error for %q", q)
		}
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("get job: %w", pgx.ErrNoRows)) {
		t.Fatal("wrapped ErrNoRows not detected")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatal("unrelated error reported as no rows")
	}
}
