package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nutrilens/nlens/internal/logging"
	"github.com/nutrilens/nlens/internal/nutrilens/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nlens",
	Short: "Log meals and get a daily nutrition evaluation from NutriLens",
	Long: `nlens is a command-line client for the NutriLens nutrition service.
Describe what you ate, attach meal photos, and ask for an evaluation of the day
scored against your health profile.
You can configure the tool using a TOML configuration file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		_, err = logging.Setup(os.Stderr, logging.Options{
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Verbose: verbose,
		})
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/nlens/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("token", "", "API token (overrides config and saved login)")
	rootCmd.PersistentFlags().String("api-url", "", "NutriLens API base URL")

	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("api_base_url", rootCmd.PersistentFlags().Lookup("api-url"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// .env in the working directory; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	viper.SetEnvPrefix("NLENS")
	viper.AutomaticEnv()

	userConfigDir, err := config.UserConfigDir()
	cobra.CheckErr(err)

	config.SetDefaults()

	viper.BindEnv("api_base_url", "NLENS_API_BASE_URL")
	viper.BindEnv("token", "NLENS_TOKEN")
	viper.BindEnv("default_mode", "NLENS_DEFAULT_MODE")
	viper.BindEnv("reveal_delay", "NLENS_REVEAL_DELAY")
	viper.BindEnv("log_level", "NLENS_LOG_LEVEL")
	viper.BindEnv("log_format", "NLENS_LOG_FORMAT")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		// Load system-wide config first (lower priority)
		systemConfigPaths := []string{
			"/etc/nlens",
			"/usr/local/etc/nlens",
		}

		systemConfigLoaded := false
		for _, path := range systemConfigPaths {
			viper.AddConfigPath(path)
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		if err := viper.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			if verbose {
				fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
			}
		}

		// Load user config (higher priority) - merge with system config
		userConfig := filepath.Join(userConfigDir, "config.toml")
		if systemConfigLoaded {
			if _, err := os.Stat(userConfig); err == nil {
				viper.SetConfigFile(userConfig)
				if err := viper.MergeInConfig(); err != nil {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				} else if verbose {
					fmt.Fprintln(os.Stderr, "Merged user config:", userConfig)
				}
			}
		} else {
			viper.AddConfigPath(userConfigDir)
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
				}
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "Environment variables:")
		fmt.Fprintln(os.Stderr, "  NLENS_API_BASE_URL:", viper.GetString("api_base_url"))
		fmt.Fprintln(os.Stderr, "  NLENS_DEFAULT_MODE:", viper.GetString("default_mode"))
		fmt.Fprintln(os.Stderr, "  NLENS_REVEAL_DELAY:", viper.GetString("reveal_delay"))
		fmt.Fprintln(os.Stderr, "  NLENS_LOG_LEVEL:", viper.GetString("log_level"))
	}
}
