package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/config"
	"github.com/nutrilens/nlens/internal/ui"
)

var (
	historyPage   int
	historyAll    bool
	historyDetail bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past daily evaluations",
	Long: `Show the evaluated days stored on the server, newest first.

The server returns 10 days per page. Use --all to fetch every page
(at most history_max_pages pages).

Examples:
  nlens history             # Most recent 10 days
  nlens history --page 2    # The 10 days before that
  nlens history --all -d    # Everything, with reasons and tips`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		client, err := newClient(cfg, true)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		var days []api.DailyHistory
		if historyAll {
			days, err = fetchAllHistory(ctx, client, cfg.HistoryMaxPages)
		} else {
			days, err = fetchHistoryPage(ctx, client, historyPage)
		}
		if err != nil {
			return describeAPIError(err)
		}

		if len(days) == 0 {
			fmt.Println("No evaluated days yet.")
			fmt.Println("\nEvaluate today with:\n  nlens evaluate")
			return nil
		}

		theme := ui.NewTheme(ui.IsTerminal(os.Stdout))
		out, err := theme.RenderMarkdown(historyMarkdown(days, historyDetail), ui.Width(os.Stdout))
		if err != nil {
			return fmt.Errorf("rendering history: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

type historySource interface {
	History(ctx context.Context, page int) ([]api.DailyHistory, error)
}

// fetchHistoryPage returns one page. A page past the end is empty.
func fetchHistoryPage(ctx context.Context, src historySource, page int) ([]api.DailyHistory, error) {
	days, err := src.History(ctx, page)
	var remote *api.RemoteError
	if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	return days, err
}

// fetchAllHistory walks pages until one is short or empty, or maxPages is
// reached.
func fetchAllHistory(ctx context.Context, src historySource, maxPages int) ([]api.DailyHistory, error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	var all []api.DailyHistory
	for page := 1; page <= maxPages; page++ {
		days, err := fetchHistoryPage(ctx, src, page)
		if err != nil {
			return all, err
		}
		all = append(all, days...)
		if len(days) < api.HistoryPageSize {
			break
		}
	}
	return all, nil
}

func historyMarkdown(days []api.DailyHistory, detail bool) string {
	var b strings.Builder
	b.WriteString("# Evaluation history\n\n")
	b.WriteString("| Date | Grade | Macro | Disease | Goal | Intake |\n")
	b.WriteString("|------|:-----:|:-----:|:-------:|:----:|--------|\n")
	for _, d := range days {
		fmt.Fprintf(&b, "| %s | %s | %d/10 | %d/10 | %d/10 | %s |\n",
			d.Date,
			ui.EscapeMarkdown(d.TotalGrade),
			d.ScoreMacro,
			d.ScoreDisease,
			d.ScoreGoal,
			ui.EscapeMarkdown(truncate(d.TotalIntakeText, 60)),
		)
	}

	if !detail {
		return b.String()
	}
	for _, d := range days {
		fmt.Fprintf(&b, "\n## %s: %s\n\n", d.Date, d.TotalGrade)
		if d.TotalIntakeText != "" {
			fmt.Fprintf(&b, "_%s_\n\n", ui.EscapeMarkdown(d.TotalIntakeText))
		}
		for _, s := range []struct {
			label, reason, advice string
			score                 int
		}{
			{"Macro", d.ReasonMacro, d.AdviceMacro, d.ScoreMacro},
			{"Disease", d.ReasonDisease, d.AdviceDisease, d.ScoreDisease},
			{"Goal", d.ReasonGoal, d.AdviceGoal, d.ScoreGoal},
		} {
			fmt.Fprintf(&b, "- **%s (%d/10)**: %s\n", s.label, s.score, s.reason)
			if s.advice != "" {
				fmt.Fprintf(&b, "  - 💡 %s\n", s.advice)
			}
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyPage, "page", "p", 1, "Page to show (10 days per page)")
	historyCmd.Flags().BoolVarP(&historyAll, "all", "a", false, "Fetch every page up to history_max_pages")
	historyCmd.Flags().BoolVarP(&historyDetail, "detail", "d", false, "Include reasons and improvement tips")
	historyCmd.MarkFlagsMutuallyExclusive("page", "all")
}
