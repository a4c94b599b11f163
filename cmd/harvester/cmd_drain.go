package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/CdubVentures/spec-harvester-sub006/internal/fetch"
	"github.com/CdubVentures/spec-harvester-sub006/internal/hostbudget"
	"github.com/CdubVentures/spec-harvester-sub006/internal/logging"
	"github.com/CdubVentures/spec-harvester-sub006/internal/queue"
)

var (
	drainConcurrency int64
	drainMaxRetries  int
	drainUserAgent   string
)

var drainCmd = &cobra.Command{
	Use:   "drain <category>",
	Short: "Fetch every selectable product's seed URLs, pacing per host and applying fallback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := args[0]
		log := logging.For(logging.ComponentScheduler).Sugar()

		rows, err := db.QueueRowsByCategory(category)
		if err != nil {
			return fmt.Errorf("load queue rows: %w", err)
		}
		selectable := queue.SortSelectable(rows, time.Now())
		if len(selectable) == 0 {
			fmt.Println("no selectable rows")
			return nil
		}

		var sources []fetch.Source
		for _, r := range selectable {
			product, ok, err := db.ProductByID(category, r.ProductID)
			if err != nil {
				return fmt.Errorf("load product %s: %w", r.ProductID, err)
			}
			if !ok {
				continue
			}
			for _, u := range product.SeedURLs {
				host := hostOf(u)
				sources = append(sources, fetch.Source{URL: u, Host: host})
			}
		}

		budgets := make(map[string]*hostbudget.Row)
		budgetFor := func(host string) *hostbudget.Row {
			b, ok := budgets[host]
			if !ok {
				b = hostbudget.NewRow(host)
				budgets[host] = b
			}
			return b
		}
		backoffCfg := hostbudget.BackoffConfig{
			Base429Seconds: cfg.FrontierCooldown429BaseSeconds,
			Base403Seconds: cfg.FrontierCooldown403BaseSeconds,
		}

		httpFetcher := fetch.NewHTTPFetcher(30*time.Second, drainUserAgent)
		router := fetch.NewModeRouter(httpFetcher.Fetch, httpFetcher.Fetch, httpFetcher.Fetch)

		urlsByHost := make(map[string][]string)

		result := fetch.DrainQueue(cmd.Context(), fetch.DrainOptions{
			Sources:       sources,
			FetchWithMode: router.FetchWithMode,
			InitialMode:   fetch.ModeHTTP,
			MaxRetries:    drainMaxRetries,
			Concurrency:   drainConcurrency,
			PerHostDelayMs: cfg.PerHostMinDelayMs,
			ClassifyOutcome: func(r fetch.Result, err error) hostbudget.Outcome {
				if err != nil {
					return hostbudget.OutcomeFetchError
				}
				return hostbudget.Classify(hostbudget.FetchResult{Status: r.StatusCode})
			},
			Callbacks: fetch.Callbacks{
				OnFetchResult: func(src fetch.Source, res fetch.Result, mode fetch.Mode) {
					outcome := hostbudget.Classify(hostbudget.FetchResult{Status: res.StatusCode})
					b := budgetFor(src.Host)
					b.RecordOutcome(outcome)
					b.ApplyBackoff(outcome, time.Now().UnixMilli(), backoffCfg)
					urlsByHost[src.Host] = append(urlsByHost[src.Host], src.URL)
				},
				OnFetchError: func(src fetch.Source, err error, mode fetch.Mode) {
					b := budgetFor(src.Host)
					b.RecordOutcome(hostbudget.OutcomeFetchError)
					urlsByHost[src.Host] = append(urlsByHost[src.Host], src.URL)
					log.Warnw("fetch failed", "url", src.URL, "mode", mode, "err", err)
				},
			},
		})

		now := time.Now()
		var attemptedURLs []string
		for _, urls := range urlsByHost {
			attemptedURLs = append(attemptedURLs, urls...)
		}
		for _, r := range selectable {
			queue.RecordRun(r, r.LastSummary, 0, attemptedURLs, now)
			if err := db.UpsertQueueRow(category, r); err != nil {
				return fmt.Errorf("persist queue row %s: %w", r.ProductID, err)
			}
		}

		log.Infow("drain complete", "category", category, "processed", result.Processed,
			"skipped", result.Skipped, "failed", result.Failed,
			"fallback_attempts", result.FallbackAttempts, "elapsed_ms", result.ElapsedMs)
		fmt.Printf("processed=%d skipped=%d failed=%d fallback_attempts=%d elapsed_ms=%d\n",
			result.Processed, result.Skipped, result.Failed, result.FallbackAttempts, result.ElapsedMs)
		return nil
	},
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

func init() {
	drainCmd.Flags().Int64Var(&drainConcurrency, "concurrency", 4, "maximum in-flight fetches")
	drainCmd.Flags().IntVar(&drainMaxRetries, "max-retries", 3, "maximum fallback/retry attempts per source")
	drainCmd.Flags().StringVar(&drainUserAgent, "user-agent", "harvester/1.0", "User-Agent header sent with every fetch")
}
