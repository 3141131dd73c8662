package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nutrilens/nlens/internal/nutrilens/auth"
	"github.com/nutrilens/nlens/internal/nutrilens/config"
)

const configFields = "configfile, api_base_url, token, default_mode, reveal_delay, session_retention_days, log_level, log_format, history_max_pages, credentials"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  nlens config                  # Show all configuration
  nlens config api_base_url     # Show only the API base URL
  nlens config token            # Show only the token (masked)
  nlens config default_mode     # Show only the default mode`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		token, source := tokenSource(cfg)

		if len(args) > 0 {
			field := strings.ToLower(args[0])
			switch field {
			case "configfile":
				fmt.Println(viper.ConfigFileUsed())
			case "api_base_url", "apibaseurl":
				fmt.Println(cfg.APIBaseURL)
			case "token":
				fmt.Println(maskToken(token))
			case "default_mode", "defaultmode":
				fmt.Println(cfg.DefaultMode)
			case "reveal_delay", "revealdelay":
				fmt.Println(cfg.RevealDelay)
			case "session_retention_days", "sessionretentiondays":
				fmt.Println(cfg.SessionRetentionDays)
			case "log_level", "loglevel":
				fmt.Println(cfg.LogLevel)
			case "log_format", "logformat":
				fmt.Println(cfg.LogFormat)
			case "history_max_pages", "historymaxpages":
				fmt.Println(cfg.HistoryMaxPages)
			case "credentials":
				path, _ := auth.Path()
				fmt.Println(path)
			default:
				fmt.Fprintf(os.Stderr, "Unknown field: %s\n", args[0])
				fmt.Fprintf(os.Stderr, "Available fields: %s\n", configFields)
				os.Exit(1)
			}
			return
		}

		fmt.Printf("ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Printf("APIBaseURL: %s\n", cfg.APIBaseURL)
		fmt.Printf("Token: %s (%s)\n", maskToken(token), source)
		fmt.Printf("DefaultMode: %s\n", cfg.DefaultMode)
		fmt.Printf("RevealDelay: %s\n", cfg.RevealDelay)
		fmt.Printf("SessionRetentionDays: %d\n", cfg.SessionRetentionDays)
		fmt.Printf("LogLevel: %s\n", cfg.LogLevel)
		fmt.Printf("LogFormat: %s\n", cfg.LogFormat)
		fmt.Printf("HistoryMaxPages: %d\n", cfg.HistoryMaxPages)
	},
}

// tokenSource returns the token in effect and where it came from.
func tokenSource(cfg *config.Config) (string, string) {
	if cfg.Token != "" {
		return cfg.Token, "config"
	}
	if creds, err := auth.Load(); err == nil {
		return creds.Token, "login"
	}
	return "", "not set"
}

// maskToken returns a masked version of the token for security
func maskToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
