package output

import (
	"encoding/csv"
	"io"
	"os"
)

// Table is a header row plus records, as listing pages flatten into
type Table struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes the table with its header first
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

// SaveCSV writes the table to a CSV file. Returns an error on failure.
func SaveCSV(t Table, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, t)
}
