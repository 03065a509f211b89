// Package doctor verifies that the external NCBI tooling the pipeline shells
// out to is installed before any work starts.
package doctor

import (
	"fmt"
	"os/exec"
	"strings"
)

// RequiredTools are the command-line tools the run depends on: EDirect's
// esearch/efetch for discovery and the NCBI datasets CLI for enrichment.
var RequiredTools = []string{"esearch", "efetch", "datasets"}

// CheckResult is the outcome of a single tool lookup.
type CheckResult struct {
	Tool string
	Path string
	Err  error
}

// Check looks up every required tool on PATH.
func Check() []CheckResult {
	results := make([]CheckResult, 0, len(RequiredTools))
	for _, tool := range RequiredTools {
		path, err := exec.LookPath(tool)
		results = append(results, CheckResult{Tool: tool, Path: path, Err: err})
	}
	return results
}

// Verify returns an error naming every missing tool, or nil when the
// environment is complete. A failure here is fatal: the pipeline must not
// start without its collaborators.
func Verify() error {
	var missing []string
	for _, r := range Check() {
		if r.Err != nil {
			missing = append(missing, r.Tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found on PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
