package ci

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAppendsOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	if err := os.WriteFile(path, []byte("existing=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GITHUB_OUTPUT", path)

	if err := Write(Outputs{TotalActive: 7, NewCalls: 2, ResolvedCalls: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "existing=1\ntotal_active=7\nnew_calls=2\nresolved_calls=1\n"
	if string(data) != want {
		t.Fatalf("unexpected output file:\n%q\nwant:\n%q", string(data), want)
	}
}

func TestWriteNoopOutsideCI(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	if err := Write(Outputs{TotalActive: 1}); err != nil {
		t.Fatalf("expected no-op without GITHUB_OUTPUT, got %v", err)
	}
}
