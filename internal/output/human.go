package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/henrybloomingdale/litfetch/internal/eutils"
)

// --- Styles ---

var (
	cyan       = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold       = lipgloss.NewStyle().Bold(true)
	dim        = lipgloss.NewStyle().Faint(true)
	yellow     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

// truncate cuts a string to maxLen runes, appending "…" if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
			}
			return lipgloss.NewStyle()
		})
}

// --- Identifier lists ---

func formatIDsHuman(w io.Writer, header string, ids []string) error {
	if len(ids) == 0 {
		fmt.Fprintln(w, "🔬 No results found.")
		return nil
	}

	fmt.Fprintln(w, bold.Render("🔬 "+header))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(ids))
	for i, id := range ids {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), cyan.Render(id)})
	}
	fmt.Fprintln(w, newTable([]string{"#", "ID"}, rows).Render())

	fmt.Fprintln(w)
	fmt.Fprintln(w, dim.Render("💾 Use --csv output.csv to export"))
	return nil
}

// --- Records ---

func formatRecordsHuman(w io.Writer, records []eutils.Record, full bool) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		pubType := ""
		if len(r.PublicationTypes) > 0 {
			pubType = r.PublicationTypes[0]
		}
		rows = append(rows, []string{
			cyan.Render(r.ID),
			r.Year,
			pubType,
			bold.Render(truncate(r.Title, 50)),
		})
	}
	fmt.Fprintln(w, newTable([]string{"PMID", "Year", "Type", "Title"}, rows).Render())

	if !full {
		fmt.Fprintln(w)
		fmt.Fprintln(w, dim.Render("[use --full for abstracts]"))
		return nil
	}

	for _, r := range records {
		fmt.Fprintln(w)
		meta := cyan.Render("PMID: " + r.ID)
		if r.Year != "" {
			meta += dim.Render(" · ") + r.Year
		}
		fmt.Fprintln(w, boxStyle.Render(bold.Render(r.Title)+"\n"+meta))
		if len(r.Keywords) > 0 {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Keywords:"), yellow.Render(strings.Join(r.Keywords, ", ")))
		}
		if len(r.MeshTerms) > 0 {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("MeSH:"), strings.Join(r.MeshTerms, ", "))
		}
		fmt.Fprintf(w, "  %s\n", labelStyle.Render("Abstract:"))
		for _, line := range strings.Split(wordWrap(r.Abstract, 76), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	return nil
}

// --- MeSH ---

func formatMeshHuman(w io.Writer, records []eutils.MeshRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "🏷️  No MeSH rows.")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{cyan.Render(r.ID), fmt.Sprintf("%d", len(r.MeshTerms)), truncate(strings.Join(r.MeshTerms, ", "), 70)})
	}
	fmt.Fprintln(w, newTable([]string{"PMID", "#", "MeSH"}, rows).Render())
	return nil
}

// wordWrap wraps text at the given width, breaking at spaces.
func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return strings.Join(lines, "\n")
}
