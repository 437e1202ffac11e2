package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/persistorai/wifimap/client"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Read and write network notes",
	}
	cmd.AddCommand(noteGetCmd())
	cmd.AddCommand(noteSetCmd())
	return cmd
}

func noteGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <bssid-or-ssid>",
		Short: "Show the note for a network",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			note, err := apiClient.Notes.Get(context.Background(), args[0])
			if err != nil {
				if client.IsNotFound(err) {
					fmt.Fprintf(os.Stderr, "no note for %s\n", args[0])
					os.Exit(1)
				}
				fatal("get note", err)
			}
			render(view{data: note, ids: []string{note.Note}})
		},
	}
}

func noteSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <bssid-or-ssid> <text>",
		Short: "Write the note for a network",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			note, err := apiClient.Notes.Set(context.Background(), args[0], args[1])
			if err != nil {
				fatal("set note", err)
			}
			render(view{data: note, ids: []string{note.Identity}})
		},
	}
}
