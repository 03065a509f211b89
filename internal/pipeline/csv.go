package pipeline

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes rows as a CSV with the stable Header() ordering.
func WriteCSV(w io.Writer, rows []MergedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
