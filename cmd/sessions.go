package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutrilens/nlens/internal/nutrilens/config"
	"github.com/nutrilens/nlens/internal/nutrilens/session"
	"github.com/nutrilens/nlens/internal/nutrilens/timeline"
	"github.com/nutrilens/nlens/internal/nutrilens/transcript"
	"github.com/nutrilens/nlens/internal/ui"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved logging sessions",
	Long: `Manage the transcripts of past logging sessions.

Every interactive session and every 'nlens log' call is saved locally so you
can look back at what was recorded and how the day was evaluated.`,
}

// sessionsListCmd represents the sessions list command
var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Long:  `List all saved sessions sorted by most recently updated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transcripts, err := transcript.List()
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		if len(transcripts) == 0 {
			fmt.Println("No sessions found.")
			fmt.Println("\nStart a new session with:")
			fmt.Println("  nlens analyze")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODE\tPHASE\tGRADE\tCREATED\tMESSAGES")
		fmt.Fprintln(w, "--\t----\t-----\t-----\t-------\t--------")

		for _, t := range transcripts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
				t.GetShortID(),
				t.Mode,
				t.Phase,
				t.Grade(),
				t.CreatedAt.Format("2006-01-02 15:04"),
				t.MessageCount(),
			)
		}
		w.Flush()

		fmt.Println("\nUse 'nlens sessions show <id>' to view session details.")
		return nil
	},
}

// sessionsShowCmd represents the sessions show command
var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show session details and messages",
	Long: `Show a saved session including every message and the evaluation.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest" for the most recent session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := transcript.FindByPrefix(args[0])
		if err != nil {
			return fmt.Errorf("finding session: %w", err)
		}

		theme := ui.NewTheme(ui.IsTerminal(os.Stdout))

		fmt.Printf("Session: %s\n", t.ID)
		fmt.Printf("Mode: %s\n", t.Mode)
		fmt.Printf("Phase: %s\n", t.Phase)
		fmt.Printf("Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Messages: %d\n", t.MessageCount())
		if t.Evaluation != nil {
			fmt.Printf("Grade: %s\n", theme.Grade(t.Evaluation.Grade))
		}
		fmt.Println()

		if len(t.Messages) == 0 {
			fmt.Println("No messages in this session.")
			return nil
		}

		fmt.Println("Message History:")
		fmt.Println("----------------")
		for i, msg := range t.Messages {
			if msg.IsEvaluation {
				fmt.Printf("\n[%d] Evaluation (%s):\n%s\n",
					i+1,
					msg.CreatedAt.Format("15:04:05"),
					theme.Panel(msg.Text),
				)
				continue
			}
			fmt.Printf("\n[%d] %s (%s):\n%s\n",
				i+1,
				roleLabel(msg.Role),
				msg.CreatedAt.Format("15:04:05"),
				msg.Text,
			)
		}

		if t.Phase == session.PhaseActive {
			fmt.Println("\nThis session was not evaluated. Start a new one with:\n  nlens analyze")
		}
		return nil
	},
}

func roleLabel(r timeline.Role) string {
	if r == timeline.RoleSystem {
		return "NutriLens"
	}
	return "You"
}

// sessionsDeleteCmd represents the sessions delete command
var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Long: `Delete a saved session permanently. Records stored on the server are not affected.

The ID can be a short ID (minimum 4 characters), full UUID, or "latest" for the most recent session.

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := transcript.FindByPrefix(args[0])
		if err != nil {
			return fmt.Errorf("finding session: %w", err)
		}

		if !confirm(fmt.Sprintf("Are you sure you want to delete session %s?", t.GetShortID())) {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		if err := transcript.Delete(t.ID); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}

		fmt.Printf("Session %s deleted successfully.\n", t.GetShortID())
		return nil
	},
}

// sessionsClearCmd represents the sessions clear command
var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete old sessions",
	Long: `Delete old saved sessions permanently.

By default, deletes sessions not updated within the configured retention
period (session_retention_days, 30 days unless changed).
Use --before to specify a date, or --all to delete all sessions.

Warning: This action cannot be undone.

Examples:
  nlens sessions clear                      # Delete sessions older than the retention period
  nlens sessions clear --before 2026-01-01  # Delete sessions updated before 2026-01-01
  nlens sessions clear --before 2026-03     # Delete sessions updated before 2026-03-01
  nlens sessions clear --all                # Delete all sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeDateStr, _ := cmd.Flags().GetString("before")
		deleteAll, _ := cmd.Flags().GetBool("all")

		transcripts, err := transcript.List()
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if len(transcripts) == 0 {
			fmt.Println("No sessions to delete.")
			return nil
		}

		if deleteAll {
			if !confirm(fmt.Sprintf("Are you sure you want to delete all %d sessions?", len(transcripts))) {
				fmt.Println("Deletion cancelled.")
				return nil
			}
			n, err := transcript.Clear()
			if err != nil {
				return fmt.Errorf("deleting sessions: %w", err)
			}
			fmt.Printf("Successfully deleted %d sessions.\n", n)
			return nil
		}

		now := time.Now()
		var cutoff time.Time
		var prompt string
		if beforeDateStr != "" {
			cutoff, err = parseDate(beforeDateStr)
			if err != nil {
				return fmt.Errorf("parsing date: %w", err)
			}
			prompt = fmt.Sprintf("created before %s", cutoff.Format("2006-01-02"))
		} else {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			retention := cfg.GetRetention()
			if retention <= 0 {
				fmt.Println("Session retention is disabled (session_retention_days = 0). Use --before or --all.")
				return nil
			}
			cutoff = now.Add(-retention)
			prompt = fmt.Sprintf("older than %d days (updated before %s)", cfg.SessionRetentionDays, cutoff.Format("2006-01-02"))
		}

		count := 0
		for _, t := range transcripts {
			if t.UpdatedAt.Before(cutoff) {
				count++
			}
		}
		if count == 0 {
			fmt.Printf("No sessions found updated before %s.\n", cutoff.Format("2006-01-02"))
			return nil
		}

		if !confirm(fmt.Sprintf("Are you sure you want to delete %d sessions %s?", count, prompt)) {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		deleted, err := transcript.Prune(now.Sub(cutoff), now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		fmt.Printf("Successfully deleted %d sessions.\n", deleted)
		return nil
	},
}

// confirm asks a y/N question on stdout.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// parseDate parses a date string in various formats and returns a time.Time
// Supported formats: YYYY-MM-DD, YYYY-MM, YYYY
func parseDate(dateStr string) (time.Time, error) {
	// Try YYYY-MM-DD format
	if t, err := time.Parse("2006-01-02", dateStr); err == nil {
		return t, nil
	}

	// Try YYYY-MM format (use first day of month)
	if t, err := time.Parse("2006-01", dateStr); err == nil {
		return t, nil
	}

	// Try YYYY format (use first day of year)
	if t, err := time.Parse("2006", dateStr); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD, YYYY-MM, or YYYY)", dateStr)
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)

	sessionsClearCmd.Flags().String("before", "", "Delete sessions updated before this date (YYYY-MM-DD, YYYY-MM, or YYYY)")
	sessionsClearCmd.Flags().Bool("all", false, "Delete all sessions")
}
