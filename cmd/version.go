package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nutrilens/nlens/internal/nutrilens/config"
	"github.com/nutrilens/nlens/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show the nlens version, the commit and time it was built from, and the
NutriLens server it is configured to talk to.

Use --json for scripts and bug reports.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetBool("short")
		asJSON, _ := cmd.Flags().GetBool("json")

		// The version must print even when the config is broken.
		server := ""
		if cfg, err := config.LoadConfig(); err == nil {
			server = cfg.APIBaseURL
		}
		return printVersion(cmd.OutOrStdout(), version.Get(), server, short, asJSON)
	},
}

type versionReport struct {
	version.Build
	Server string `json:"server,omitempty"`
}

func printVersion(w io.Writer, b version.Build, server string, short, asJSON bool) error {
	switch {
	case short:
		_, err := fmt.Fprintln(w, b.Version)
		return err
	case asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(versionReport{Build: b, Server: server})
	}

	fmt.Fprintf(w, "nlens %s\n", b.Version)
	fmt.Fprintf(w, "  commit: %s\n", b.Commit)
	fmt.Fprintf(w, "  built:  %s\n", b.BuildTime)
	fmt.Fprintf(w, "  go:     %s %s\n", b.GoVersion, b.Platform)
	if server != "" {
		_, err := fmt.Fprintf(w, "  server: %s\n", server)
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolP("short", "s", false, "Show only the version number")
	versionCmd.Flags().Bool("json", false, "Print the report as JSON")
	versionCmd.MarkFlagsMutuallyExclusive("short", "json")
}
