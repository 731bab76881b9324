// Package eutils provides search and fetch clients for NCBI E-utilities.
package eutils

import (
	"fmt"
	"strings"
)

// Database selects the NCBI database a client queries.
type Database string

const (
	// PubMed is the primary literature database.
	PubMed Database = "pubmed"
	// PMC is the PubMed Central full-text repository.
	PMC Database = "pmc"
)

// PMCPrefix is prepended to PMC identifiers returned by open-access searches.
const PMCPrefix = "PMC"

// ParseDatabase accepts "pubmed" or "pmc" in any case.
func ParseDatabase(s string) (Database, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PubMed):
		return PubMed, nil
	case string(PMC):
		return PMC, nil
	default:
		return "", fmt.Errorf("unknown database %q (want pubmed or pmc)", s)
	}
}

// QueryContext is the per-client search configuration.
type QueryContext struct {
	APIKey         string   `json:"-"`
	OpenAccessOnly bool     `json:"open_access_only"`
	Database       Database `json:"database"`
}

// Rewrite applies the open-access filter for the configured database and
// returns the query to send along with the prefix for returned ids.
func (q QueryContext) Rewrite(query string) (string, string) {
	if !q.OpenAccessOnly {
		return query, ""
	}
	switch q.db() {
	case PMC:
		return `"open access"[filter] AND (` + query + `)`, PMCPrefix
	case PubMed:
		return `"loattrfree full text"[sb] AND (` + query + `)`, ""
	}
	return query, ""
}

func (q QueryContext) db() Database {
	if q.Database == "" {
		return PubMed
	}
	return q.Database
}

// Order is the ranking used by SearchOrdered.
type Order string

const (
	OrderRelevance Order = "relevance"
	OrderDate      Order = "date"
)

// ParseOrder accepts "relevance" (or empty) and "date".
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderRelevance:
		return OrderRelevance, nil
	case OrderDate:
		return OrderDate, nil
	default:
		return "", fmt.Errorf("invalid order %q (want relevance or date)", s)
	}
}

// SearchResult holds every identifier matched by an ESearch query.
type SearchResult struct {
	Count    int      `json:"count"`
	IDs      []string `json:"ids"`
	IDPrefix string   `json:"id_prefix,omitempty"`
}

// Record is one bibliographic row flattened from a MedlineCitation.
type Record struct {
	ID               string   `json:"pmid"`
	Year             string   `json:"year"`
	PublicationTypes []string `json:"publication_types"`
	Title            string   `json:"title"`
	Abstract         string   `json:"abstract"`
	MeshTerms        []string `json:"mesh_terms"`
	Keywords         []string `json:"keywords"`
}

// RecordColumns names the columns produced by Record.Row.
var RecordColumns = []string{"PMID", "YEAR", "PUBLICATION_TYPE", "TITLE", "ABSTRACT", "MESH", "KEYWORDS"}

// Row returns the record as flat string columns.
func (r Record) Row() []string {
	return []string{
		r.ID,
		r.Year,
		strings.Join(r.PublicationTypes, "|"),
		r.Title,
		r.Abstract,
		strings.Join(r.MeshTerms, ","),
		strings.Join(r.Keywords, "|"),
	}
}

// MeshRecord is a MeSH-only row.
type MeshRecord struct {
	ID        string   `json:"pmid"`
	MeshTerms []string `json:"mesh_terms"`
}

// MeshColumns names the columns produced by MeshRecord.Row.
var MeshColumns = []string{"PMID", "MESH"}

// Row returns the record as flat string columns.
func (r MeshRecord) Row() []string {
	return []string{r.ID, strings.Join(r.MeshTerms, ",")}
}

// FailedBatch is a fetch batch whose request or response failed.
type FailedBatch struct {
	Index  int      `json:"index"`
	IDs    []string `json:"ids"`
	Reason string   `json:"error"`
	Err    error    `json:"-"`
}

// SkippedID is an input identifier that could not be used.
type SkippedID struct {
	Position int    `json:"position"`
	Value    string `json:"value"`
	Reason   string `json:"error"`
	Err      error  `json:"-"`
}

// FetchResult carries the rows parsed from every successful batch along
// with the batches and identifiers that did not make it.
type FetchResult[T any] struct {
	Records  []T           `json:"records"`
	Failed   []FailedBatch `json:"failed,omitempty"`
	Skipped  []SkippedID   `json:"skipped,omitempty"`
	Requests int           `json:"requests"`
}

// FailedIDs lists the identifiers of every failed batch in input order.
func (r *FetchResult[T]) FailedIDs() []string {
	var ids []string
	for _, f := range r.Failed {
		ids = append(ids, f.IDs...)
	}
	return ids
}

// Complete reports whether every batch succeeded and no input was skipped.
func (r *FetchResult[T]) Complete() bool {
	return len(r.Failed) == 0 && len(r.Skipped) == 0
}
