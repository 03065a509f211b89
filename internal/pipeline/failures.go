package pipeline

import (
	"fmt"
	"io"
)

// WriteFailureLog writes one tab-separated line per failure entry.
func WriteFailureLog(w io.Writer, failures []FailureEntry) error {
	for _, f := range failures {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", f.Accession, f.Stage, f.Reason); err != nil {
			return err
		}
	}
	return nil
}
