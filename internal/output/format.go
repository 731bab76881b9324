// Package output provides formatting for litfetch CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/henrybloomingdale/litfetch/internal/eutils"
	"github.com/henrybloomingdale/litfetch/internal/europepmc"
)

// OutputConfig controls which output mode(s) are active.
type OutputConfig struct {
	JSON    bool   // Structured JSON
	Human   bool   // Rich terminal output with color
	Full    bool   // Show full abstract (human mode)
	CSVFile string // Export results to this CSV path (works alongside any mode)
	RISFile string // Export records to this RIS path (works alongside any mode)
}

// FormatCount writes the hit count of a query.
func FormatCount(w io.Writer, query string, count int, cfg OutputConfig) error {
	if cfg.JSON {
		return writeJSON(w, struct {
			Query string `json:"query"`
			Count int    `json:"count"`
		}{query, count})
	}
	if cfg.Human {
		fmt.Fprintf(w, "🔬 %s matching %s\n", bold.Render(fmt.Sprintf("%d", count)), dim.Render(query))
		return nil
	}
	fmt.Fprintln(w, count)
	return nil
}

// FormatSearchResult writes every identifier of an exhaustive search.
func FormatSearchResult(w io.Writer, result *eutils.SearchResult, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeIDsCSV(cfg.CSVFile, result.IDs); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, result)
	}
	if cfg.Human {
		return formatIDsHuman(w, fmt.Sprintf("Found %d results", result.Count), result.IDs)
	}
	return formatIDsPlain(w, result.IDs)
}

// FormatRanked writes the single page returned by an ordered web search.
func FormatRanked(w io.Writer, order eutils.Order, ids []string, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeIDsCSV(cfg.CSVFile, ids); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, struct {
			Order eutils.Order `json:"order"`
			IDs   []string     `json:"ids"`
		}{order, ids})
	}
	if cfg.Human {
		return formatIDsHuman(w, fmt.Sprintf("Top %d by %s", len(ids), order), ids)
	}
	return formatIDsPlain(w, ids)
}

// FormatEPMCResult writes a Europe PMC identifier search.
func FormatEPMCResult(w io.Writer, result *europepmc.SearchResult, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeIDsCSV(cfg.CSVFile, result.IDs); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, result)
	}
	if cfg.Human {
		return formatIDsHuman(w, fmt.Sprintf("Europe PMC: %d hits, %d distinct ids", result.HitCount, len(result.IDs)), result.IDs)
	}
	return formatIDsPlain(w, result.IDs)
}

// FormatRecords writes bibliographic records.
func FormatRecords(w io.Writer, records []eutils.Record, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeRowsCSV(cfg.CSVFile, eutils.RecordColumns, records); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.RISFile != "" {
		if err := writeRecordsRIS(cfg.RISFile, records); err != nil {
			return fmt.Errorf("RIS export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, records)
	}
	if cfg.Human {
		return formatRecordsHuman(w, records, cfg.Full)
	}
	return formatRecordsPlain(w, records)
}

// FormatMeshRecords writes MeSH-only rows.
func FormatMeshRecords(w io.Writer, records []eutils.MeshRecord, cfg OutputConfig) error {
	if cfg.CSVFile != "" {
		if err := writeRowsCSV(cfg.CSVFile, eutils.MeshColumns, records); err != nil {
			return fmt.Errorf("CSV export failed: %w", err)
		}
	}
	if cfg.JSON {
		return writeJSON(w, records)
	}
	if cfg.Human {
		return formatMeshHuman(w, records)
	}
	return formatMeshPlain(w, records)
}

// FormatFetchSummary reports failed batches and skipped identifiers. It
// writes nothing when the fetch was complete.
func FormatFetchSummary[T any](w io.Writer, result *eutils.FetchResult[T]) {
	if result.Complete() {
		return
	}
	fmt.Fprintf(w, "%d of %d requests failed, %d ids skipped\n",
		len(result.Failed), result.Requests, len(result.Skipped))
	for _, f := range result.Failed {
		fmt.Fprintf(w, "  batch %d (%d ids): %s\n", f.Index, len(f.IDs), f.Reason)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(w, "  input %d %q: %s\n", s.Position+1, s.Value, s.Reason)
	}
}

// --- Plain text formatters (default) ---

func formatIDsPlain(w io.Writer, ids []string) error {
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

func formatRecordsPlain(w io.Writer, records []eutils.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	for i, r := range records {
		if i > 0 {
			fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("─", 80))
		}

		fmt.Fprintf(w, "PMID: %s\n", r.ID)
		fmt.Fprintf(w, "Title: %s\n", r.Title)
		if r.Year != "" {
			fmt.Fprintf(w, "Year: %s\n", r.Year)
		}
		if len(r.PublicationTypes) > 0 {
			fmt.Fprintf(w, "Type: %s\n", strings.Join(r.PublicationTypes, ", "))
		}
		if len(r.Keywords) > 0 {
			fmt.Fprintf(w, "Keywords: %s\n", strings.Join(r.Keywords, ", "))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Abstract:")
		fmt.Fprintln(w, r.Abstract)
		if len(r.MeshTerms) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "MeSH Terms:")
			for _, m := range r.MeshTerms {
				fmt.Fprintf(w, "  %s\n", m)
			}
		}
	}

	return nil
}

func formatMeshPlain(w io.Writer, records []eutils.MeshRecord) error {
	for _, r := range records {
		fmt.Fprintln(w, strings.Join(r.Row(), "\t"))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
