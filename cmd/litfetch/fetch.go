package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/litfetch/internal/output"
)

// fetchCmd implements the fetch subcommand.
var fetchCmd = &cobra.Command{
	Use:   "fetch <pmid> [pmid...]",
	Short: "Fetch citation records",
	Long: `Fetch PubMed records in batches of 100 and print one row per citation that
has a title and an abstract. Failed batches are reported on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := collectIDs(cmd, args)
		if err != nil {
			return err
		}
		client, err := newEutilsClient()
		if err != nil {
			return err
		}

		if len(ids) == 1 && flagIDsFile == "" {
			records, err := client.FetchOne(cmd.Context(), ids[0])
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}
			return output.FormatRecords(cmd.OutOrStdout(), records, outputCfg())
		}

		result, err := client.FetchAll(cmd.Context(), ids)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		output.FormatFetchSummary(cmd.ErrOrStderr(), result)
		return output.FormatRecords(cmd.OutOrStdout(), result.Records, outputCfg())
	},
}

// meshCmd implements the mesh subcommand.
var meshCmd = &cobra.Command{
	Use:   "mesh <pmid> [pmid...]",
	Short: "Fetch MeSH headings",
	Long: `Fetch the MeSH headings of each PubMed record, posting up to 10000 ids per
request. Headings render as Descriptor/Qualifier.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := collectIDs(cmd, args)
		if err != nil {
			return err
		}
		client, err := newEutilsClient()
		if err != nil {
			return err
		}

		result, err := client.FetchMeshAll(cmd.Context(), ids)
		if err != nil {
			return fmt.Errorf("MeSH fetch failed: %w", err)
		}
		output.FormatFetchSummary(cmd.ErrOrStderr(), result)
		return output.FormatMeshRecords(cmd.OutOrStdout(), result.Records, outputCfg())
	},
}

// collectIDs gathers ids from arguments and --ids-file. Arguments may be
// comma-separated; file lines are passed through untouched so malformed
// lines are reported by the fetch.
func collectIDs(cmd *cobra.Command, args []string) ([]string, error) {
	ids := splitIDArgs(args)

	if flagIDsFile != "" {
		var r io.Reader
		if flagIDsFile == "-" {
			r = cmd.InOrStdin()
		} else {
			f, err := os.Open(flagIDsFile)
			if err != nil {
				return nil, fmt.Errorf("opening ids file: %w", err)
			}
			defer f.Close()
			r = f
		}
		lines, err := readLines(r)
		if err != nil {
			return nil, fmt.Errorf("reading ids file: %w", err)
		}
		ids = append(ids, lines...)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given: pass ids as arguments or use --ids-file")
	}
	return ids, nil
}

func splitIDArgs(args []string) []string {
	var ids []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	return ids
}

// readLines returns the lines of r. Lines up to 4 MB are accepted.
func readLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
