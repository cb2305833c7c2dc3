package ci

import (
	"fmt"
	"os"
)

// Outputs are the values surfaced to the CI workflow after a cycle.
type Outputs struct {
	TotalActive   int
	NewCalls      int
	ResolvedCalls int
}

// Write appends key=value lines to the file named by GITHUB_OUTPUT.
// Outside of CI the variable is unset and Write is a no-op.
func Write(out Outputs) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "total_active=%d\nnew_calls=%d\nresolved_calls=%d\n",
		out.TotalActive, out.NewCalls, out.ResolvedCalls)
	if err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	return nil
}
