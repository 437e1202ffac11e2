package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/wifimap/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server, schema, and auth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nwifimap doctor")
	fmt.Println("==============")

	var results []checkResult

	cfgPath, cfg, cfgErr := loadConfigFile()
	switch {
	case cfgErr != nil:
		results = append(results, checkResult{
			Name: "Config file", Passed: false,
			Detail: cfgErr.Error(),
			Hint:   "Fix the YAML or run: wifimap init",
		})
	case cfg == nil:
		results = append(results, checkResult{
			Name: "Config file", Passed: false,
			Detail: cfgPath + " not found",
			Hint:   "Run: wifimap init",
		})
	default:
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	}

	eff := settle(cfg, flagURL, flagKey, flagProfile)
	url, apiKey := eff.URL, eff.APIKey

	if cfg != nil {
		_, known := cfg.Profiles[eff.Profile]
		results = append(results, checkResult{
			Name: "Profile", Passed: known || len(cfg.Profiles) == 0,
			Detail: eff.Profile,
			Hint:   "Create it with: wifimap init --profile " + eff.Profile,
		})
	}

	if url == "" {
		results = append(results, checkResult{
			Name: "Server URL", Passed: false,
			Hint: "Set --url, WIFIMAP_URL, or run wifimap init",
		})
	} else {
		results = append(results, checkResult{
			Name: "Server URL", Passed: true, Detail: url,
		})
	}

	if apiKey == "" {
		results = append(results, checkResult{
			Name: "API key", Passed: true, Detail: "not set (fine if the server runs without one)",
		})
	} else {
		results = append(results, checkResult{
			Name: "API key", Passed: true, Detail: "configured",
		})
	}

	if url != "" {
		c := client.New(url, client.WithAPIKey(apiKey), client.WithTimeout(5*time.Second))
		results = append(results, doctorServerChecks(c, url)...)
	}

	fmt.Println()
	allPassed := true
	for _, r := range results {
		mark := "✅"
		if !r.Passed {
			mark = "❌"
			allPassed = false
		}
		if r.Detail != "" {
			fmt.Printf("%s %s: %s\n", mark, r.Name, r.Detail)
		} else {
			fmt.Printf("%s %s\n", mark, r.Name)
		}
		if !r.Passed && r.Hint != "" {
			fmt.Printf("   Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("❌ Some checks failed.")
		return errors.New("doctor found issues")
	}

	fmt.Println("✅ All checks passed!")
	return nil
}

func doctorServerChecks(c *client.Client, url string) []checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := c.Health(ctx)
	if err != nil {
		return []checkResult{{
			Name: "Server reachable", Passed: false,
			Detail: url,
			Hint:   fmt.Sprintf("Is the wifimap server running? Try: systemctl status wifimap\n   Error: %v", err),
		}}
	}

	results := []checkResult{{Name: "Server reachable", Passed: true, Detail: "v" + health.Version}}

	if _, err := c.Ready(ctx); err != nil {
		results = append(results, checkResult{
			Name: "Schema", Passed: false,
			Hint: fmt.Sprintf("Migrations have not been applied. Error: %v", err),
		})
	} else {
		results = append(results, checkResult{Name: "Schema", Passed: true, Detail: "up to date"})
	}

	if _, err := c.Stats(ctx); err != nil {
		results = append(results, checkResult{
			Name: "Authentication", Passed: false,
			Hint: fmt.Sprintf("Check your API key. Error: %v", err),
		})
	} else {
		results = append(results, checkResult{Name: "Authentication", Passed: true, Detail: "valid"})
	}

	return results
}
