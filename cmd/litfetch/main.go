// Command litfetch searches PubMed, PMC and Europe PMC and fetches
// citation records as flat rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/litfetch/internal/config"
	"github.com/henrybloomingdale/litfetch/internal/eutils"
	"github.com/henrybloomingdale/litfetch/internal/europepmc"
	"github.com/henrybloomingdale/litfetch/internal/logging"
	"github.com/henrybloomingdale/litfetch/internal/ncbi"
	"github.com/henrybloomingdale/litfetch/internal/output"
)

var (
	flagJSON       bool
	flagHuman      bool
	flagFull       bool
	flagCSV        string
	flagRIS        string
	flagAPIKey     string
	flagDB         string
	flagOpenAccess bool
	flagLogLevel   string

	flagOrder    string
	flagPageSize int
	flagIDsFile  string
)

// Resolved in PersistentPreRunE.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "litfetch",
	Short: "Literature search and record fetch CLI",
	Long: `Search NCBI PubMed/PMC and Europe PMC, page through every matching
identifier, and fetch citation records or MeSH headings as flat rows.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "Output as structured JSON")
	pf.BoolVarP(&flagHuman, "human", "H", false, "Rich colorful terminal output")
	pf.BoolVar(&flagFull, "full", false, "Show full abstracts (with --human)")
	pf.StringVar(&flagCSV, "csv", "", "Export results to CSV file")
	pf.StringVar(&flagRIS, "ris", "", "Export fetched records to RIS file")
	pf.StringVar(&flagAPIKey, "api-key", "", "NCBI API key (or set NCBI_API_KEY env var)")
	pf.StringVar(&flagDB, "db", "", "NCBI database: pubmed or pmc (default from LITFETCH_DATABASE)")
	pf.BoolVar(&flagOpenAccess, "open-access", false, "Restrict searches to open-access/free full text")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default from LITFETCH_LOG_LEVEL)")

	rankedCmd.Flags().StringVar(&flagOrder, "order", string(eutils.OrderRelevance), "Ranking: relevance or date")
	epmcCmd.Flags().IntVar(&flagPageSize, "page-size", europepmc.DefaultPageSize, "Europe PMC page size")
	fetchCmd.Flags().StringVar(&flagIDsFile, "ids-file", "", "Read ids from file, one per line (- for stdin)")
	meshCmd.Flags().StringVar(&flagIDsFile, "ids-file", "", "Read ids from file, one per line (- for stdin)")

	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(rankedCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(meshCmd)
	rootCmd.AddCommand(epmcCmd)
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := validateGlobalFlags(cmd); err != nil {
		return err
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	if flagAPIKey != "" {
		c.APIKey = flagAPIKey
	}
	if flagDB != "" {
		c.Database = flagDB
	}
	if cmd.Flags().Changed("open-access") {
		c.OpenAccess = flagOpenAccess
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}

	l, err := logging.New(c.LogLevel, c.LogJSON)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// validateGlobalFlags rejects flag combinations that cannot apply to cmd.
func validateGlobalFlags(cmd *cobra.Command) error {
	if flagJSON && flagHuman {
		return fmt.Errorf("--json and --human are mutually exclusive")
	}
	if flagRIS != "" && cmd.Name() != "fetch" {
		return fmt.Errorf("--ris is only supported by fetch")
	}
	if flagDB != "" {
		if _, err := eutils.ParseDatabase(flagDB); err != nil {
			return err
		}
	}
	return nil
}

func outputCfg() output.OutputConfig {
	return output.OutputConfig{
		JSON:    flagJSON,
		Human:   flagHuman,
		Full:    flagFull,
		CSVFile: flagCSV,
		RISFile: flagRIS,
	}
}

func newEutilsClient() (*eutils.Client, error) {
	q, err := cfg.QueryContext()
	if err != nil {
		return nil, err
	}
	return eutils.NewClient(q,
		eutils.WithWebURL(cfg.PubmedWebURL),
		eutils.WithBaseOptions(
			ncbi.WithBaseURL(cfg.EutilsURL),
			ncbi.WithTool(cfg.Tool),
			ncbi.WithEmail(cfg.Email),
			ncbi.WithLogger(logger),
		),
	), nil
}

func newEPMCClient() *europepmc.Client {
	return europepmc.NewClient(
		europepmc.WithURL(cfg.EpmcURL),
		europepmc.WithLogger(logger),
	)
}

func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// countCmd implements the count subcommand.
var countCmd = &cobra.Command{
	Use:   "count <query>",
	Short: "Count matching records",
	Long:  `Issue a single ESearch request and print the total number of matches.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newEutilsClient()
		if err != nil {
			return err
		}
		query := buildQuery(args)

		n, err := client.Count(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		return output.FormatCount(cmd.OutOrStdout(), query, n, outputCfg())
	},
}

// searchCmd implements the search subcommand.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "List every matching identifier",
	Long: `Page through ESearch until every identifier matching the query has been
collected. With --open-access and --db pmc, ids carry the PMC prefix.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newEutilsClient()
		if err != nil {
			return err
		}

		result, err := client.SearchAll(cmd.Context(), buildQuery(args))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return output.FormatSearchResult(cmd.OutOrStdout(), result, outputCfg())
	},
}

// rankedCmd implements the ranked subcommand.
var rankedCmd = &cobra.Command{
	Use:   "ranked <query>",
	Short: "Show the top 10 PubMed hits by relevance or date",
	Long:  `Query the PubMed web front end for a single ranked page of 10 PMIDs.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		order, err := eutils.ParseOrder(flagOrder)
		if err != nil {
			return err
		}
		client, err := newEutilsClient()
		if err != nil {
			return err
		}

		ids, err := client.SearchOrdered(cmd.Context(), buildQuery(args), order)
		if err != nil {
			return fmt.Errorf("ranked search failed: %w", err)
		}
		return output.FormatRanked(cmd.OutOrStdout(), order, ids, outputCfg())
	},
}

// epmcCmd implements the epmc subcommand.
var epmcCmd = &cobra.Command{
	Use:   "epmc <query>",
	Short: "Search Europe PMC",
	Long:  `Page through Europe PMC with a cursor and print the distinct identifiers, sorted.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagPageSize <= 0 {
			return fmt.Errorf("--page-size must be positive, got %d", flagPageSize)
		}

		result, err := newEPMCClient().Search(cmd.Context(), buildQuery(args), flagPageSize)
		if err != nil {
			return fmt.Errorf("europe pmc search failed: %w", err)
		}
		return output.FormatEPMCResult(cmd.OutOrStdout(), result, outputCfg())
	},
}
