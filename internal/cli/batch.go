package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/factweave/veridex/internal/retrieve"
	"github.com/factweave/veridex/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	batchOut     string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Retrieve evidence for many claims from a file in parallel",
	Long: `Batch reads claims from a file (one per line, '#' starts a comment)
and retrieves evidence for each concurrently.

Example:
  veridex batch claims.txt
  veridex batch claims.txt --concurrency 8 --json evidence.json
  veridex batch claims.txt --exclude-domain example.com --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent claim retrievals")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the batch")
	batchCmd.Flags().StringVar(&batchOut, "json", "", "write the combined report to this path instead of stdout")
	batchCmd.Flags().StringVar(&excludedDomain, "exclude-domain", "", "domain excluded from web evidence for every claim")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetches)")
	batchCmd.Flags().StringVar(&searchEndpoint, "search-endpoint", "", "web search endpoint override")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if searchEndpoint != "" {
		cfg.Search.Endpoint = searchEndpoint
	}

	application, err := newApp(cfg)
	if err != nil {
		return err
	}

	claims, err := worker.ReadClaimsFromFile(file)
	if err != nil {
		return err
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims in %s", file)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Claims: %d, workers: %d, timeout: %v\n", len(claims), concurrency, batchTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	processor := worker.NewBatchProcessor(application.retriever, concurrency, excludedDomain)
	results := processor.ProcessClaims(ctx, claims)

	report := evidenceReport{Stats: &retrieve.Stats{}}
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "claim %q: %v\n", res.Claim.Text, res.Err)
			continue
		}
		report.Results = append(report.Results, res.Retrieved)
		mergeStats(report.Stats, res.Stats)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Coverage: %.0f%%, API share: %.0f%%, failures: %d\n",
			report.Stats.Coverage()*100, report.Stats.APIShare()*100, failed)
		application.printCacheMetrics()
	}

	if err := writeReport(report, batchOut); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d claims failed", failed, len(results))
	}
	return nil
}

// mergeStats folds one claim's counters into the batch totals. Each job
// carries its own Stats, so no locking is needed here.
func mergeStats(total, part *retrieve.Stats) {
	if part == nil {
		return
	}
	total.APICalls += part.APICalls
	total.APIErrors += part.APIErrors
	total.APIResults += part.APIResults
	total.APIEvidence += part.APIEvidence
	total.WebResults += part.WebResults
	total.ClaimsTotal += part.ClaimsTotal
	total.ClaimsCovered += part.ClaimsCovered
	for api, n := range part.CallsByAPI {
		if total.CallsByAPI == nil {
			total.CallsByAPI = make(map[string]int)
		}
		total.CallsByAPI[api] += n
	}
	for api, n := range part.ResultsByAPI {
		if total.ResultsByAPI == nil {
			total.ResultsByAPI = make(map[string]int)
		}
		total.ResultsByAPI[api] += n
	}
}
