package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/henrybloomingdale/litfetch/internal/eutils"
)

func TestWriteRecordsRIS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.ris")

	records := []eutils.Record{
		{
			ID:               "38000001",
			Year:             "2026",
			PublicationTypes: []string{"Journal Article"},
			Title:            "Testing RIS Export",
			Abstract:         "Line one.\nLine two.",
			MeshTerms:        []string{"Cilia/genetics"},
			Keywords:         []string{"dynein"},
		},
	}

	if err := writeRecordsRIS(path, records); err != nil {
		t.Fatalf("unexpected error writing RIS: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read RIS output: %v", err)
	}
	out := string(body)

	expected := []string{
		"TY  - JOUR",
		"TI  - Testing RIS Export",
		"PY  - 2026",
		"AB  - Line one. Line two.",
		"KW  - dynein",
		"KW  - Cilia/genetics",
		"ID  - PMID:38000001",
		"UR  - https://pubmed.ncbi.nlm.nih.gov/38000001/",
		"ER  -",
	}
	for _, line := range expected {
		if !strings.Contains(out, line) {
			t.Errorf("expected RIS output to contain %q\nOutput:\n%s", line, out)
		}
	}
	if !strings.HasSuffix(out, "ER  -\n") {
		t.Errorf("expected record to end with ER tag, got %q", out)
	}
}

func TestWriteRecordsRIS_SkipsEmptyTagsAndSeparatesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.ris")

	records := []eutils.Record{
		{ID: "1", Title: "First", Abstract: "A."},
		{ID: "2", Title: "Second", Abstract: "B.", PublicationTypes: []string{"Preprint"}},
	}
	if err := writeRecordsRIS(path, records); err != nil {
		t.Fatalf("unexpected error writing RIS: %v", err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read RIS output: %v", err)
	}
	out := string(body)

	if strings.Contains(out, "PY  -") {
		t.Error("empty year should not produce a PY tag")
	}
	if strings.Count(out, "ER  -") != 2 {
		t.Errorf("expected two records, got:\n%s", out)
	}
	if !strings.Contains(out, "ER  -\n\nTY  - UNPB") {
		t.Errorf("expected blank line between records and preprint type, got:\n%s", out)
	}
}

func TestFormatRecords_RISFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ris")
	records := []eutils.Record{{ID: "5", Title: "T", Abstract: "A"}}

	if err := FormatRecords(os.Stdout, records, OutputConfig{JSON: true, RISFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected RIS file to be written: %v", err)
	}
}

func TestRISType(t *testing.T) {
	tests := []struct {
		types []string
		want  string
	}{
		{nil, "JOUR"},
		{[]string{"Journal Article", "Review"}, "JOUR"},
		{[]string{"Preprint"}, "UNPB"},
		{[]string{"Book Chapter"}, "CHAP"},
		{[]string{"Dataset"}, "DATA"},
	}
	for _, tt := range tests {
		if got := risType(tt.types); got != tt.want {
			t.Errorf("risType(%v) = %q, want %q", tt.types, got, tt.want)
		}
	}
}
