package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/wifimap/client"
)

func newInitCmd() *cobra.Command {
	var (
		initURL    string
		initAPIKey string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up wifimap CLI configuration",
		Long: "Interactive setup wizard that writes a profile to ~/.wifimap/config.yaml.\n" +
			"Existing profiles are kept; use --profile to name a second server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			nonInteractive := initURL != "" || initAPIKey != ""
			return runInit(flagProfile, initURL, initAPIKey, nonInteractive)
		},
	}

	cmd.Flags().StringVar(&initURL, "url", "", "Server URL (non-interactive mode)")
	cmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key (non-interactive mode)")
	return cmd
}

func runInit(profile, url, apiKey string, nonInteractive bool) error {
	if !nonInteractive {
		fmt.Println("\n  wifimap setup")
		fmt.Println("  ─────────────")
		fmt.Println()

		reader := bufio.NewReader(os.Stdin)

		fmt.Printf("  Server URL [%s]: ", defaultURL)
		line, _ := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			url = line
		}

		fmt.Print("  API Key (blank for none): ")
		keyLine, _ := reader.ReadString('\n')
		apiKey = strings.TrimSpace(keyLine)
	}

	if url == "" {
		url = defaultURL
	}

	if !nonInteractive {
		fmt.Print("\n  Testing connection... ")
	}

	ver, err := testConnection(url, apiKey)
	if err != nil {
		if !nonInteractive {
			fmt.Println("✗")
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	if !nonInteractive {
		fmt.Printf("✓ Connected (v%s)\n", ver)
	}

	cfgPath, err := saveProfile(profile, url, apiKey)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if profile == "" {
		profile = defaultProfile
	}

	if nonInteractive {
		fmt.Printf("Profile %q saved to %s\n", profile, cfgPath)
		return nil
	}

	fmt.Printf("\n  ✓ Profile %q saved to %s\n", profile, cfgPath)
	fmt.Println()
	fmt.Println("  Next steps:")
	fmt.Println("    wifimap doctor              # Full diagnostic check")
	fmt.Println("    wifimap import backup.sqlite # Merge an export")
	fmt.Println("    wifimap --help              # See all commands")
	fmt.Println()

	return nil
}

// testConnection checks the health endpoint and, when a key is given, that
// the key opens an authenticated route.
func testConnection(url, apiKey string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.New(url, client.WithAPIKey(apiKey))

	health, err := c.Health(ctx)
	if err != nil {
		return "", err
	}

	if _, err := c.Stats(ctx); err != nil {
		return "", err
	}

	if health.Version == "" {
		return "unknown", nil
	}
	return health.Version, nil
}
