package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/persistorai/wifimap/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3031"

var (
	apiClient   *client.Client
	flagURL     string
	flagKey     string
	flagFmt     string
	flagProfile string
	flagRetries int
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("wifimap version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("wifimap version %s-dev", version)
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "wifimap",
		Short:   "wifimap CLI for merging WiGLE exports into a shared network map",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flagFmt); err != nil {
				return err
			}

			resolveConfig()

			opts := []client.Option{
				client.WithRetries(flagRetries),
				client.WithUserAgent("wifimap-cli/" + version),
			}
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}

			apiClient = client.New(flagURL, opts...)

			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "wifimap server URL (env: WIFIMAP_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: WIFIMAP_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|csv|quiet")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Config profile to use (env: WIFIMAP_PROFILE)")
	rootCmd.PersistentFlags().IntVar(&flagRetries, "retries", 2, "Retries when the server is busy with another import")

	initCmd := newInitCmd()
	initCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil } // skip client setup
	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil } // skip client setup

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newNetworksCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newNoteCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
