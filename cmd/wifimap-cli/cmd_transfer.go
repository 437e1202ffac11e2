package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/wifimap/client"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Merge WiGLE SQLite exports into the master store",
		Long: `Upload one or more WiGLE SQLite export files (backup or snapshot layout).
Each file is merged in its own transaction; a failing file leaves the store
exactly as it was before that file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var results []*client.ImportResult
			for _, path := range args {
				blob, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}

				result, err := apiClient.Import(ctx, blob)
				if err != nil {
					if client.IsImportBusy(err) {
						return fmt.Errorf("%s: server is busy with another import, retry later: %w", path, err)
					}
					return fmt.Errorf("%s: %w", path, err)
				}

				fmt.Fprintf(os.Stderr, "%s: %d added, %d updated, %d notes, %d skipped (%s)\n",
					filepath.Base(path), result.Added, result.Updated, result.Notes, result.Skipped, result.Schema)
				results = append(results, result)
			}

			v := view{
				data:    results,
				headers: []string{"FILE", "SCHEMA", "ADDED", "UPDATED", "NOTES", "SKIPPED"},
			}
			for i, r := range results {
				v.ids = append(v.ids, r.ImportID)
				v.rows = append(v.rows, []string{
					filepath.Base(args[i]), r.Schema,
					fmt.Sprint(r.Added), fmt.Sprint(r.Updated), fmt.Sprint(r.Notes), fmt.Sprint(r.Skipped),
				})
			}
			render(v)
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the master store as a snapshot-layout SQLite file",
		Long: `Export every stored network to an SQLite file in the WiGLE snapshot layout.
The file can be imported again by this tool or opened by other WiGLE tooling.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := apiClient.Export(ctx)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if outputPath == "" {
				outputPath = fmt.Sprintf("wifimap-export-%s.sqlite",
					time.Now().UTC().Format("20060102T150405Z"))
			}

			if outputPath == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}

			if err := os.WriteFile(outputPath, data, 0o600); err != nil {
				return fmt.Errorf("writing export file: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Exported %d bytes to %s\n", len(data), outputPath)

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: wifimap-export-<timestamp>.sqlite, use - for stdout)")

	return cmd
}
