package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes the table comma-separated.
func WriteCSV(w io.Writer, t *Table) error {
	return write(w, t, ',')
}

// WriteTSV writes the table tab-separated.
func WriteTSV(w io.Writer, t *Table) error {
	return write(w, t, '\t')
}

func write(w io.Writer, t *Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
