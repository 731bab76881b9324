package output

import (
	"encoding/csv"
	"fmt"
	"os"
)

type rower interface {
	Row() []string
}

// writeRowsCSV writes a header followed by one line per row.
func writeRowsCSV[T rower](path string, header []string, rows []T) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, r := range rows {
		records = append(records, r.Row())
	}
	return writeCSV(path, records)
}

func writeIDsCSV(path string, ids []string) error {
	records := make([][]string, 0, len(ids)+1)
	records = append(records, []string{"ID"})
	for _, id := range ids {
		records = append(records, []string{id})
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	return nil
}
