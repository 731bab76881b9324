package eutils

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// XML structures for parsing PubMed EFetch responses. Optional elements
// are pointers; read them through the accessor methods.

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID            *markupText         `xml:"PMID"`
	Article         *xmlArticle         `xml:"Article"`
	MeshHeadingList *xmlMeshHeadingList `xml:"MeshHeadingList"`
	OtherAbstracts  []xmlAbstract       `xml:"OtherAbstract"`
	KeywordLists    []xmlKeywordList    `xml:"KeywordList"`
}

type xmlArticle struct {
	Journal             *xmlJournal             `xml:"Journal"`
	ArticleTitle        *markupText             `xml:"ArticleTitle"`
	Abstract            *xmlAbstract            `xml:"Abstract"`
	PublicationTypeList *xmlPublicationTypeList `xml:"PublicationTypeList"`
}

type xmlJournal struct {
	JournalIssue *xmlJournalIssue `xml:"JournalIssue"`
}

type xmlJournalIssue struct {
	PubDate *xmlPubDate `xml:"PubDate"`
}

type xmlPubDate struct {
	Year *markupText `xml:"Year"`
}

type xmlAbstract struct {
	AbstractTexts []xmlAbstractText `xml:"AbstractText"`
}

type xmlPublicationTypeList struct {
	Types []markupText `xml:"PublicationType"`
}

type xmlMeshHeadingList struct {
	MeshHeadings []xmlMeshHeading `xml:"MeshHeading"`
}

type xmlMeshHeading struct {
	Descriptor *markupText  `xml:"DescriptorName"`
	Qualifiers []markupText `xml:"QualifierName"`
}

type xmlKeywordList struct {
	Keywords []markupText `xml:"Keyword"`
}

// markupText is the text content of an element, including the text of
// any inline markup (<i>, <sup>, ...) nested in it.
type markupText struct {
	Text string
}

func (t *markupText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	text, err := collectText(d)
	t.Text = text
	return err
}

// xmlAbstractText is one abstract segment with its optional Label.
type xmlAbstractText struct {
	Label string
	Text  string
}

func (a *xmlAbstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = strings.TrimSpace(attr.Value)
		}
	}
	text, err := collectText(d)
	a.Text = text
	return err
}

// collectText reads character data up to the end of the current element.
func collectText(d *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return b.String(), err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return b.String(), nil
			}
			depth--
		}
	}
}

func (t *markupText) value() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(t.Text)
}

// oneLine flattens embedded newlines the way tabular output expects.
func oneLine(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func (mc *medlineCitation) id() string {
	return mc.PMID.value()
}

func (mc *medlineCitation) title() string {
	if mc.Article == nil {
		return ""
	}
	return mc.Article.ArticleTitle.value()
}

func (mc *medlineCitation) year() string {
	a := mc.Article
	if a == nil || a.Journal == nil || a.Journal.JournalIssue == nil || a.Journal.JournalIssue.PubDate == nil {
		return ""
	}
	return a.Journal.JournalIssue.PubDate.Year.value()
}

func (mc *medlineCitation) publicationTypes() []string {
	if mc.Article == nil || mc.Article.PublicationTypeList == nil {
		return []string{}
	}
	types := make([]string, 0, len(mc.Article.PublicationTypeList.Types))
	for i := range mc.Article.PublicationTypeList.Types {
		types = append(types, mc.Article.PublicationTypeList.Types[i].value())
	}
	return types
}

// abstract joins every abstract segment in document order: the article
// abstract first, then any OtherAbstract blocks. A labelled segment reads
// "Label: text"; segments without text are skipped.
func (mc *medlineCitation) abstract() string {
	var segments []xmlAbstractText
	if mc.Article != nil && mc.Article.Abstract != nil {
		segments = append(segments, mc.Article.Abstract.AbstractTexts...)
	}
	for _, oa := range mc.OtherAbstracts {
		segments = append(segments, oa.AbstractTexts...)
	}

	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		switch {
		case text == "":
		case s.Label != "":
			parts = append(parts, s.Label+": "+text)
		default:
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// meshTerms renders each heading as Descriptor or Descriptor/Q1/Q2.
func (mc *medlineCitation) meshTerms() []string {
	terms := []string{}
	if mc.MeshHeadingList == nil {
		return terms
	}
	for _, mh := range mc.MeshHeadingList.MeshHeadings {
		if mh.Descriptor == nil {
			continue
		}
		parts := []string{oneLine(mh.Descriptor.Text)}
		for _, q := range mh.Qualifiers {
			parts = append(parts, oneLine(q.Text))
		}
		terms = append(terms, strings.Join(parts, "/"))
	}
	return terms
}

func (mc *medlineCitation) keywords() []string {
	kws := []string{}
	for _, kl := range mc.KeywordLists {
		for _, kw := range kl.Keywords {
			kws = append(kws, oneLine(kw.Text))
		}
	}
	return kws
}

func decodeArticleSet(data []byte) (*pubmedArticleSet, error) {
	var set pubmedArticleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing PubMed XML: %w", err)
	}
	return &set, nil
}

// parseRecords flattens every citation that has an id, a title and an
// abstract. Anything else is dropped.
func parseRecords(data []byte) ([]Record, error) {
	set, err := decodeArticleSet(data)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(set.Articles))
	for i := range set.Articles {
		mc := &set.Articles[i].Citation
		r := Record{
			ID:       mc.id(),
			Title:    mc.title(),
			Abstract: mc.abstract(),
		}
		if r.ID == "" || r.Title == "" || r.Abstract == "" {
			continue
		}
		r.Year = mc.year()
		r.PublicationTypes = mc.publicationTypes()
		r.MeshTerms = mc.meshTerms()
		r.Keywords = mc.keywords()
		records = append(records, r)
	}
	return records, nil
}

// parseMeshRecords keeps every citation with an id.
func parseMeshRecords(data []byte) ([]MeshRecord, error) {
	set, err := decodeArticleSet(data)
	if err != nil {
		return nil, err
	}

	records := make([]MeshRecord, 0, len(set.Articles))
	for i := range set.Articles {
		mc := &set.Articles[i].Citation
		id := mc.id()
		if id == "" {
			continue
		}
		records = append(records, MeshRecord{ID: id, MeshTerms: mc.meshTerms()})
	}
	return records, nil
}
