package output

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/henrybloomingdale/litfetch/internal/eutils"
)

// writeRecordsRIS exports records to RIS format for citation managers.
func writeRecordsRIS(path string, records []eutils.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating RIS file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, r := range records {
		writeRISTag(w, "TY", risType(r.PublicationTypes))
		writeRISTag(w, "TI", r.Title)
		writeRISTag(w, "PY", r.Year)
		writeRISTag(w, "AB", r.Abstract)
		for _, kw := range r.Keywords {
			writeRISTag(w, "KW", kw)
		}
		for _, m := range r.MeshTerms {
			writeRISTag(w, "KW", m)
		}
		if r.ID != "" {
			writeRISTag(w, "ID", "PMID:"+r.ID)
			writeRISTag(w, "UR", "https://pubmed.ncbi.nlm.nih.gov/"+r.ID+"/")
		}
		writeRISTag(w, "ER", "")

		if i < len(records)-1 {
			if _, err := w.WriteString("\n"); err != nil {
				return fmt.Errorf("writing RIS separator: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing RIS output: %w", err)
	}

	return nil
}

// risType maps PubMed publication types onto RIS reference types.
func risType(types []string) string {
	for _, t := range types {
		switch strings.ToLower(t) {
		case "preprint":
			return "UNPB"
		case "book", "book chapter":
			return "CHAP"
		case "dataset":
			return "DATA"
		}
	}
	return "JOUR"
}

func writeRISTag(w *bufio.Writer, tag, value string) {
	if tag == "ER" {
		_, _ = w.WriteString("ER  -\n")
		return
	}
	if strings.TrimSpace(value) == "" {
		return
	}
	_, _ = w.WriteString(tag + "  - " + sanitizeRISValue(value) + "\n")
}

func sanitizeRISValue(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}
