package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/david/tender-radar/internal/config"
	"github.com/david/tender-radar/internal/digest"
	"github.com/david/tender-radar/internal/frameworks"
	"github.com/david/tender-radar/internal/ingest"
	"github.com/david/tender-radar/internal/models"
	"github.com/david/tender-radar/internal/report"
	"github.com/david/tender-radar/internal/scoring"
)

var (
	cfg      *config.Config
	asJSON   bool
	days     int
	source   string
	minScore int
	limit    int
	excluded bool
)

var rootCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a collection and print scored tenders",
	Long: `collect runs every configured source adapter once, scores the results
and prints the tenders, per-source health and run statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := run(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(result)
		}
		renderTenders(report.FilterMinScore(result.Tenders, minScore), excluded, limit)
		renderHealth(result.SourceHealth)
		renderStats(result.Stats)
		return nil
	},
}

func main() {
	cfg = config.Load()

	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "output JSON")
	rootCmd.PersistentFlags().IntVarP(&days, "days", "d", cfg.Collect.LookbackDays, "lookback window in days (1-30), defaults to LOOKBACK_DAYS")
	rootCmd.PersistentFlags().StringVarP(&source, "source", "s", "", "only run sources whose name contains this (e.g. \"chest\")")
	rootCmd.Flags().IntVar(&minScore, "min-score", 0, "hide eligible tenders scoring below this")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 25, "maximum tenders to print")
	rootCmd.Flags().BoolVar(&excluded, "excluded", false, "include excluded tenders in the table")

	rootCmd.AddCommand(frameworksCmd())
	rootCmd.AddCommand(digestCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (models.ScrapeResult, error) {
	pipeline, err := ingest.NewPipelineFromRegistry(cfg.Collect.RegistryPath)
	if err != nil {
		return models.ScrapeResult{}, err
	}
	if source != "" {
		pipeline.Adapters = filterAdapters(pipeline.Adapters, source)
		pipeline.AwardAdapters = nil
		if len(pipeline.Adapters) == 0 {
			return models.ScrapeResult{}, fmt.Errorf("no source matches %q", source)
		}
	}

	window := config.ClampDays(days)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	collection := pipeline.CollectTenders(ctx, window)
	scored := scoring.NewEngine(nil).ScoreTenders(collection.Tenders)
	return report.Build(collection, scored, window, time.Now()), nil
}

func frameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "Show tracked frameworks and upcoming contract expiries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := frameworks.LoadCatalogue(cfg.Collect.FrameworkPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			intel := frameworks.NewService(cat, nil).Intelligence(ctx)
			if asJSON {
				return printJSON(intel)
			}
			renderFrameworks(intel)
			return nil
		},
	}
}

func digestCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Render the daily digest email without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := run(cmd.Context())
			if err != nil {
				return err
			}
			body, err := digest.Render(result, cfg.Digest.DashboardURL, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Subject:", digest.Subject(result))
			if out == "" {
				_, err = fmt.Fprint(os.Stdout, body)
				return err
			}
			return os.WriteFile(out, []byte(body), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the HTML to this file instead of stdout")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func filterAdapters(adapters []ingest.Adapter, match string) []ingest.Adapter {
	match = strings.ToLower(match)
	var out []ingest.Adapter
	for _, a := range adapters {
		if strings.Contains(strings.ToLower(a.Name()), match) {
			out = append(out, a)
		}
	}
	return out
}

func renderTenders(tenders []models.ScoredTender, showExcluded bool, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Tenders")
	t.AppendHeader(table.Row{"Score", "Priority", "Title", "Buyer", "Value", "Deadline", "Route", "Region", "Source"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 50},
		{Number: 4, WidthMax: 30},
	})

	shown := 0
	for _, st := range tenders {
		if st.Excluded && !showExcluded {
			continue
		}
		if shown >= limit {
			break
		}
		priority := string(st.Priority)
		if st.Excluded && st.ExclusionReason != nil {
			priority = "EXCLUDED: " + *st.ExclusionReason
		}
		deadline := "-"
		if st.DeadlineDate != nil {
			deadline = *st.DeadlineDate
		}
		t.AppendRow(table.Row{
			st.Score.Total,
			priority,
			st.Title,
			st.Buyer,
			models.FormatValue(st.Value, "-"),
			deadline,
			st.ProcurementRoute,
			st.Region,
			st.Source.Label(),
		})
		shown++
	}
	t.Render()
}

func renderHealth(health []models.SourceHealth) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Source health")
	t.AppendHeader(table.Row{"Source", "Status", "Count"})
	for _, h := range health {
		status := text.FgGreen.Sprint("OK")
		if !h.OK {
			status = text.FgRed.Sprint("DOWN")
		}
		t.AppendRow(table.Row{h.Name, status, h.Count})
	}
	t.Render()
}

func renderStats(s models.ScrapeStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Found", "Deduped", "Eligible", "High", "Medium", "Low", "Pipeline value", "Avg score"})
	t.AppendRow(table.Row{
		s.TotalFound, s.AfterDedup, s.AfterExclusions,
		s.HighPriority, s.MediumPriority, s.LowPriority,
		models.FormatGBP(s.PipelineValue), s.AvgScore,
	})
	t.Render()
}

func renderFrameworks(intel models.FrameworkIntelligence) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Frameworks (%s tracked)", intel.TotalFrameworkValue))
	t.AppendHeader(table.Row{"Name", "Operator", "Status", "Expiry", "Signals"})
	for _, fw := range intel.Frameworks {
		expiry := "-"
		if fw.ExpiryDate != nil {
			expiry = *fw.ExpiryDate
		}
		t.AppendRow(table.Row{fw.Name, fw.Operator, fw.CurrentStatus, expiry, len(fw.FTSSignals)})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d upcoming", intel.UpcomingReprocurements), "", ""})
	t.Render()

	e := table.NewWriter()
	e.SetOutputMirror(os.Stdout)
	e.SetTitle(fmt.Sprintf("Contract expiries (%d in next 6 months)", intel.ExpiringNext6Months))
	e.AppendHeader(table.Row{"Days", "Title", "Buyer", "Value", "Ends"})
	e.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 50}})
	for _, ce := range intel.ContractExpiries {
		ends := "-"
		switch {
		case ce.ExpiryDate != nil:
			ends = *ce.ExpiryDate
		case ce.EstimatedExpiryDate != nil:
			ends = *ce.EstimatedExpiryDate + " (est.)"
		}
		days := "-"
		if ce.DaysUntilExpiry != nil {
			days = fmt.Sprint(*ce.DaysUntilExpiry)
		}
		e.AppendRow(table.Row{days, ce.Title, ce.Buyer, models.FormatValue(ce.Value, "-"), ends})
	}
	e.Render()
}
