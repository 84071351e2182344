package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/factweave/veridex/internal/classify"
	"github.com/factweave/veridex/internal/model"
	"github.com/factweave/veridex/internal/retrieve"
)

var (
	outJSON        string
	timeout        time.Duration
	userAgent      string
	noCache        bool
	excludedDomain string
	searchEndpoint string
	subjectContext string
	keyEntities    []string
)

// retrieveCmd represents the retrieve command
var retrieveCmd = &cobra.Command{
	Use:   "retrieve <claim>",
	Short: "Retrieve ranked evidence for a single claim",
	Long: `Retrieve classifies the claim, queries the relevant institutional
APIs, searches the web, and returns a ranked evidence set.

Example:
  veridex retrieve "UK unemployment rose to 5.2% in 2024"
  veridex retrieve "The WHO reported 12 million cases" --json evidence.json
  veridex retrieve "Oil prices dropped 20%" --exclude-domain example.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)

	// Output flags
	retrieveCmd.Flags().StringVar(&outJSON, "json", "", "write the evidence report to this path instead of stdout")

	// Claim context flags
	retrieveCmd.Flags().StringVar(&subjectContext, "subject", "", "topic context for query building")
	retrieveCmd.Flags().StringSliceVar(&keyEntities, "entity", nil, "named entity in the claim (repeatable)")
	retrieveCmd.Flags().StringVar(&excludedDomain, "exclude-domain", "", "domain excluded from web evidence (the claim's own publication)")

	// HTTP flags
	retrieveCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall retrieval timeout")
	retrieveCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")
	retrieveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetches)")
	retrieveCmd.Flags().StringVar(&searchEndpoint, "search-endpoint", "", "web search endpoint override")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	claimText := strings.TrimSpace(strings.Join(args, " "))
	if claimText == "" {
		return fmt.Errorf("empty claim")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.Timeout = timeout
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if searchEndpoint != "" {
		cfg.Search.Endpoint = searchEndpoint
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	application, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	claim := model.Claim{
		Text:           claimText,
		SubjectContext: subjectContext,
		KeyEntities:    keyEntities,
	}

	result, stats := application.retriever.RetrieveForClaim(ctx, claim, excludedDomain)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Domain: %s/%s (confidence %d)\n",
			result.Classification.PrimaryDomain, result.Classification.Jurisdiction,
			result.Classification.Confidence)
		fmt.Fprintf(os.Stderr, "Evidence: %d snippets (API share %.0f%%)\n",
			len(result.Evidence), stats.APIShare()*100)
		application.printCacheMetrics()
	}

	report := evidenceReport{Results: []retrieve.Result{result}, Stats: stats}
	return writeReport(report, outJSON)
}

// classifyCmd shows how a claim would be routed without retrieving
// anything. Useful for tuning keyword tables.
var classifyCmd = &cobra.Command{
	Use:   "classify <claim>",
	Short: "Show domain and jurisdiction classification for a claim",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		classifier := classify.NewClassifier(cfg.Classify.GeneralConfidenceCutoff)
		classification := classifier.DetectDomain(text)

		out, err := json.MarshalIndent(classification, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

// evidenceReport is the JSON document both retrieve and batch emit.
type evidenceReport struct {
	Results []retrieve.Result `json:"results"`
	Stats   *retrieve.Stats   `json:"stats"`
}

func writeReport(report evidenceReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Report written: %s\n", path)
	}
	return nil
}
