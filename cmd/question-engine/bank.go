package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/question-engine/internal/bank"
	"github.com/pdiddy/question-engine/pkg/types"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Manage the question bank (store, retrieve, export)",
	Long: `Bank manages a local SQLite question bank built from converted papers.
Use subcommands to index converted output, query questions, or export.`,
}

// --- store subcommand ---

var bankStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest converted papers into the question bank",
	Long: `Store scans the output directory for converted papers (one subdirectory
per document), ingests their question records into a SQLite database
with FTS5 indexing, and skips documents unchanged since the last run.`,
	RunE: runBankStore,
}

func runBankStore(cmd *cobra.Command, args []string) error {
	store, err := bank.NewStore(bankConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var bankRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the question bank with full-text search and filters",
	Long: `Retrieve searches question text using FTS5 full-text search, structured
filters (document, question number), or a combination of both.

Use --docs to list indexed documents instead of querying questions.`,
	RunE: runBankRetrieve,
}

func runBankRetrieve(cmd *cobra.Command, args []string) error {
	store, err := bank.NewStore(bankConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	listDocs, _ := cmd.Flags().GetBool("docs")
	if listDocs {
		docs, err := store.Documents(context.Background())
		if err != nil {
			return err
		}
		for _, d := range docs {
			fmt.Printf("%-30s  %4d questions  %4d images\n", d.ID, d.Questions, d.Images)
		}
		fmt.Printf("\n%d document(s)\n", len(docs))
		return nil
	}

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --doc, or --number")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRetrieveOutput(results, jsonOutput)
}

func formatRetrieveOutput(results []bank.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-4s  %-60s  %s\n",
		"Rank", "Document", "Q#", "Question", "Images")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		question := r.Question
		if len(question) > 60 {
			question = question[:57] + "..."
		}
		doc := r.DocID
		if len(doc) > 20 {
			doc = doc[:17] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-4d  %-60s  %d\n",
			i+1, doc, r.QuestionNumber, question,
			len(r.QuestionImages)+len(r.OptionImages))
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var bankExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the question bank to YAML or JSON",
	Long: `Export writes the full question bank (or a filtered subset) to
export.yaml or export.json in the bank directory. Supports the same
filter flags as retrieve for partial exports.`,
	RunE: runBankExport,
}

func runBankExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := bank.NewStore(bankConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := queryOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.yaml in the bank directory")
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Println("Exported to export.json in the bank directory")
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func bankConfig(cmd *cobra.Command) types.BankConfig {
	bankDir, _ := cmd.Flags().GetString("bank-dir")
	if bankDir == "" {
		bankDir = "bank"
	}
	resultsDir, _ := cmd.Flags().GetString("results-dir")
	if resultsDir == "" {
		resultsDir = "output"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.BankConfig{
		BankDir:    bankDir,
		ResultsDir: resultsDir,
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) bank.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	docID, _ := cmd.Flags().GetString("doc")
	numberStr, _ := cmd.Flags().GetString("number")
	number, _ := strconv.Atoi(numberStr)
	limit, _ := cmd.Flags().GetInt("limit")

	return bank.QueryOptions{
		Query:      queryText,
		DocID:      docID,
		Number:     number,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	bankCmd.PersistentFlags().String("bank-dir", "bank", "directory for the SQLite database and exports")
	bankCmd.PersistentFlags().String("results-dir", "output", "directory scanned for converted papers")
	bankCmd.PersistentFlags().Int("max-results", 20, "maximum number of query results")

	// Retrieve flags.
	bankRetrieveCmd.Flags().String("query", "", "full-text search query")
	bankRetrieveCmd.Flags().String("doc", "", "filter by document ID")
	bankRetrieveCmd.Flags().String("number", "", "filter by question number")
	bankRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	bankRetrieveCmd.Flags().Bool("docs", false, "list indexed documents")
	bankRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	bankExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	bankExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	bankExportCmd.Flags().String("doc", "", "filter by document ID for partial export")
	bankExportCmd.Flags().String("number", "", "filter by question number for partial export")
	bankExportCmd.Flags().Int("limit", 0, "maximum questions to export (0 = all)")

	// Wire subcommands.
	bankCmd.AddCommand(bankStoreCmd)
	bankCmd.AddCommand(bankRetrieveCmd)
	bankCmd.AddCommand(bankExportCmd)

	rootCmd.AddCommand(bankCmd)
}
