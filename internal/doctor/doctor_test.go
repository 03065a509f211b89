package doctor_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creyno/genomemeta/internal/doctor"
)

func writeTool(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyReportsMissingTools(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "esearch")
	t.Setenv("PATH", dir)

	err := doctor.Verify()
	if err == nil {
		t.Fatal("expected error with efetch and datasets missing")
	}
	if !strings.Contains(err.Error(), "efetch") || !strings.Contains(err.Error(), "datasets") {
		t.Fatalf("error must name every missing tool, got: %v", err)
	}
	if strings.Contains(err.Error(), "esearch") {
		t.Fatalf("present tool reported as missing: %v", err)
	}
}

func TestVerifyPassesWhenAllPresent(t *testing.T) {
	dir := t.TempDir()
	for _, tool := range doctor.RequiredTools {
		writeTool(t, dir, tool)
	}
	t.Setenv("PATH", dir)

	if err := doctor.Verify(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckCoversEveryTool(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	results := doctor.Check()
	if len(results) != len(doctor.RequiredTools) {
		t.Fatalf("expected %d results, got %d", len(doctor.RequiredTools), len(results))
	}
	for i, r := range results {
		if r.Tool != doctor.RequiredTools[i] {
			t.Fatalf("result %d: got %q, want %q", i, r.Tool, doctor.RequiredTools[i])
		}
		if r.Err == nil {
			t.Fatalf("tool %q unexpectedly found on empty PATH", r.Tool)
		}
	}
}
