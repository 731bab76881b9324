package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/henrybloomingdale/litfetch/internal/eutils"
	"github.com/henrybloomingdale/litfetch/internal/europepmc"
)

func sampleRecords() []eutils.Record {
	return []eutils.Record{
		{
			ID:               "31000001",
			Year:             "2019",
			PublicationTypes: []string{"Journal Article", "Review"},
			Title:            "Motile cilia in Chlamydomonas and primary ciliary dyskinesia.",
			Abstract:         "BACKGROUND: Primary ciliary dyskinesia is rare. RESULTS: We found <103> variants.",
			MeshTerms:        []string{"Cilia/physiology", "Humans"},
			Keywords:         []string{"cilia", "dynein arm"},
		},
		{
			ID:       "31000004",
			Title:    "Undated record",
			Abstract: "Unlabelled abstract text.",
		},
	}
}

func TestFormatSearchJSON(t *testing.T) {
	result := &eutils.SearchResult{
		Count:    42,
		IDs:      []string{"PMC123", "PMC456", "PMC789"},
		IDPrefix: "PMC",
	}

	var buf bytes.Buffer
	if err := FormatSearchResult(&buf, result, OutputConfig{JSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, buf.String())
	}
	if count, ok := parsed["count"].(float64); !ok || int(count) != 42 {
		t.Errorf("expected count 42, got %v", parsed["count"])
	}
	ids, ok := parsed["ids"].([]interface{})
	if !ok || len(ids) != 3 {
		t.Errorf("expected 3 ids, got %v", parsed["ids"])
	}
	if parsed["id_prefix"] != "PMC" {
		t.Errorf("expected id_prefix PMC, got %v", parsed["id_prefix"])
	}
}

func TestFormatSearchPlain(t *testing.T) {
	result := &eutils.SearchResult{Count: 2, IDs: []string{"123", "456"}}

	var buf bytes.Buffer
	if err := FormatSearchResult(&buf, result, OutputConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "123\n456\n" {
		t.Errorf("expected one id per line, got %q", buf.String())
	}
}

func TestFormatSearchHuman(t *testing.T) {
	result := &eutils.SearchResult{Count: 42, IDs: []string{"123", "456"}}

	var buf bytes.Buffer
	if err := FormatSearchResult(&buf, result, OutputConfig{Human: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"42", "123", "456"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestFormatSearchEmpty(t *testing.T) {
	result := &eutils.SearchResult{Count: 0, IDs: []string{}}

	var buf bytes.Buffer
	if err := FormatSearchResult(&buf, result, OutputConfig{Human: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No results") {
		t.Errorf("expected 'No results', got %q", buf.String())
	}

	buf.Reset()
	if err := FormatSearchResult(&buf, result, OutputConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no plain output, got %q", buf.String())
	}
}

func TestFormatCount(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatCount(&buf, "cilia", 17, OutputConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "17\n" {
		t.Errorf("expected 17, got %q", buf.String())
	}

	buf.Reset()
	if err := FormatCount(&buf, "cilia", 17, OutputConfig{JSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var parsed struct {
		Query string `json:"query"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Query != "cilia" || parsed.Count != 17 {
		t.Errorf("unexpected JSON: %+v", parsed)
	}
}

func TestFormatRankedJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatRanked(&buf, eutils.OrderDate, []string{"9", "8"}, OutputConfig{JSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"order": "date"`) {
		t.Errorf("expected order in JSON, got %s", buf.String())
	}
}

func TestFormatEPMCResult(t *testing.T) {
	result := &europepmc.SearchResult{HitCount: 3, IDs: []string{"1", "PMC2"}}

	var buf bytes.Buffer
	if err := FormatEPMCResult(&buf, result, OutputConfig{Human: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "3 hits") || !strings.Contains(out, "2 distinct") {
		t.Errorf("expected hit and distinct counts, got %q", out)
	}
	if !strings.Contains(out, "PMC2") {
		t.Error("expected output to contain PMC2")
	}
}

func TestFormatRecordsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatRecords(&buf, sampleRecords(), OutputConfig{JSON: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "<103>") {
		t.Error("expected HTML escaping to be disabled")
	}

	var parsed []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 records, got %d", len(parsed))
	}
	if parsed[0]["pmid"] != "31000001" {
		t.Errorf("expected pmid 31000001, got %v", parsed[0]["pmid"])
	}
	if mesh, ok := parsed[0]["mesh_terms"].([]interface{}); !ok || len(mesh) != 2 {
		t.Errorf("expected 2 mesh terms, got %v", parsed[0]["mesh_terms"])
	}
}

func TestFormatRecordsPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatRecords(&buf, sampleRecords(), OutputConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"PMID: 31000001",
		"Year: 2019",
		"Type: Journal Article, Review",
		"Keywords: cilia, dynein arm",
		"  Cilia/physiology",
		"PMID: 31000004",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Count(out, "Year:") != 1 {
		t.Error("empty year should not be printed")
	}
}

func TestFormatRecordsHuman(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatRecords(&buf, sampleRecords(), OutputConfig{Human: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PMID", "Year", "Type", "Title", "31000001", "Journal Article", "--full"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, "RESULTS:") {
		t.Error("abstract should be hidden without --full")
	}

	buf.Reset()
	if err := FormatRecords(&buf, sampleRecords(), OutputConfig{Human: true, Full: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "RESULTS:") {
		t.Error("expected abstract with --full")
	}
}

func TestFormatRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatRecords(&buf, nil, OutputConfig{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No records") {
		t.Errorf("expected 'No records', got %q", buf.String())
	}
}

func TestFormatRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	var buf bytes.Buffer
	if err := FormatRecords(&buf, sampleRecords(), OutputConfig{CSVFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "PMID,YEAR,PUBLICATION_TYPE,TITLE,ABSTRACT,MESH,KEYWORDS" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "Journal Article|Review" {
		t.Errorf("expected pipe-joined types, got %q", rows[1][2])
	}
	if rows[1][5] != "Cilia/physiology,Humans" {
		t.Errorf("expected comma-joined mesh, got %q", rows[1][5])
	}
	if rows[2][1] != "" {
		t.Errorf("expected empty year, got %q", rows[2][1])
	}
}

func TestFormatMeshRecords(t *testing.T) {
	records := []eutils.MeshRecord{
		{ID: "1", MeshTerms: []string{"A/Q1/Q2", "B"}},
		{ID: "2", MeshTerms: []string{}},
	}
	path := filepath.Join(t.TempDir(), "mesh.csv")

	var buf bytes.Buffer
	if err := FormatMeshRecords(&buf, records, OutputConfig{CSVFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "1\tA/Q1/Q2,B\n2\t\n" {
		t.Errorf("unexpected plain output %q", buf.String())
	}

	rows := readCSV(t, path)
	if len(rows) != 3 || rows[0][0] != "PMID" || rows[0][1] != "MESH" {
		t.Fatalf("unexpected CSV: %v", rows)
	}
	if rows[1][1] != "A/Q1/Q2,B" {
		t.Errorf("expected comma-joined mesh, got %q", rows[1][1])
	}

	buf.Reset()
	if err := FormatMeshRecords(&buf, records, OutputConfig{Human: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "A/Q1/Q2, B") {
		t.Errorf("expected mesh terms in table, got %q", buf.String())
	}
}

func TestFormatSearchCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.csv")
	result := &eutils.SearchResult{Count: 2, IDs: []string{"1", "2"}}

	var buf bytes.Buffer
	if err := FormatSearchResult(&buf, result, OutputConfig{CSVFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := readCSV(t, path)
	if len(rows) != 3 || rows[0][0] != "ID" || rows[2][0] != "2" {
		t.Errorf("unexpected CSV: %v", rows)
	}
}

func TestFormatCSV_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	err := FormatRecords(&bytes.Buffer{}, sampleRecords(), OutputConfig{CSVFile: path})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestFormatFetchSummary(t *testing.T) {
	var buf bytes.Buffer
	FormatFetchSummary(&buf, &eutils.FetchResult[eutils.Record]{Requests: 3})
	if buf.Len() != 0 {
		t.Errorf("expected no summary for a complete fetch, got %q", buf.String())
	}

	result := &eutils.FetchResult[eutils.Record]{
		Requests: 3,
		Failed:   []eutils.FailedBatch{{Index: 1, IDs: []string{"a", "b"}, Reason: "efetch.fcgi returned HTTP 503"}},
		Skipped:  []eutils.SkippedID{{Position: 4, Value: "1,2", Reason: "contains a list separator"}},
	}
	FormatFetchSummary(&buf, result)
	out := buf.String()
	for _, want := range []string{"1 of 3 requests failed", "1 ids skipped", "batch 1 (2 ids)", "HTTP 503", `input 5 "1,2"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q, got %q", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := truncate("dyskinésie ciliaire", 6); got != "dyski…" {
		t.Errorf("expected rune-aware cut, got %q", got)
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Errorf("unexpected wrap %q", got)
	}
	if wordWrap("   ", 10) != "" {
		t.Error("expected empty wrap for blank text")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening CSV: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	return rows
}
