package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/wifimap/client"
)

func newHistoryCmd() *cobra.Command {
	var opts client.HistoryListOptions
	var since string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the import log, newest first",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if since != "" {
				d, err := time.ParseDuration(since)
				if err != nil {
					fatal("parse --since", err)
				}
				t := time.Now().Add(-d)
				opts.Since = &t
			}

			records, hasMore, err := apiClient.History.List(context.Background(), &opts)
			if err != nil {
				fatal("list imports", err)
			}

			v := view{
				data:    map[string]any{"data": records, "has_more": hasMore},
				headers: []string{"WHEN", "STATUS", "SCHEMA", "ORIGIN", "ADDED", "UPDATED", "NOTES", "SKIPPED"},
			}
			for _, r := range records {
				v.ids = append(v.ids, r.ImportID)
				v.rows = append(v.rows, []string{
					r.CreatedAt.Local().Format(time.DateTime), r.Status, r.Schema, r.Origin,
					fmt.Sprint(r.Added), fmt.Sprint(r.Updated), fmt.Sprint(r.Notes), fmt.Sprint(r.Skipped),
				})
			}
			if hasMore {
				v.footer = "(more entries, use --offset)"
			}
			render(v)
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "Only entries with this status (ok, malformed, rolled_back, failed)")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "Only entries whose origin starts with this prefix")
	cmd.Flags().StringVar(&since, "since", "", "Only entries newer than this duration, e.g. 24h")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum entries to return")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Entries to skip")

	cmd.AddCommand(historyPurgeCmd())
	return cmd
}

func historyPurgeCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete import log entries older than the retention window",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			deleted, err := apiClient.History.Purge(context.Background(), days)
			if err != nil {
				fatal("purge imports", err)
			}
			render(view{data: map[string]int{"deleted": deleted}, ids: []string{fmt.Sprint(deleted)}})
		},
	}
	cmd.Flags().IntVar(&days, "retention-days", 90, "Keep entries newer than this many days")
	return cmd
}
