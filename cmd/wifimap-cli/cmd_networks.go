package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/persistorai/wifimap/client"
)

func newNetworksCmd() *cobra.Command {
	var limit int
	var geo bool
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List stored networks, strongest signal first",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if geo {
				fc, err := apiClient.Networks.GeoJSON(context.Background())
				if err != nil {
					fatal("networks geojson", err)
				}
				render(view{data: fc})
				return
			}

			networks, err := apiClient.Networks.List(context.Background())
			if err != nil {
				fatal("list networks", err)
			}
			networks = truncate(networks, limit)

			v := view{
				data:    networks,
				headers: []string{"BSSID", "SSID", "LEVEL", "LAT", "LON", "APS", "NOTE"},
				rows:    networkRows(networks),
			}
			for _, n := range networks {
				v.ids = append(v.ids, n.BSSID)
			}
			render(v)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many networks (0 for all)")
	cmd.Flags().BoolVar(&geo, "geojson", false, "Print the networks as a GeoJSON FeatureCollection")
	return cmd
}

func truncate(networks []client.Network, limit int) []client.Network {
	if limit > 0 && len(networks) > limit {
		return networks[:limit]
	}
	return networks
}

func networkRows(networks []client.Network) [][]string {
	rows := make([][]string, 0, len(networks))
	for _, n := range networks {
		rows = append(rows, []string{
			n.BSSID, n.SSID, fmt.Sprint(n.BestLevel),
			fmt.Sprintf("%.6f", n.Lat), fmt.Sprintf("%.6f", n.Lon),
			fmt.Sprint(n.APCount), n.Note,
		})
	}
	return rows
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate counts over the stored networks",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			stats, err := apiClient.Stats(context.Background())
			if err != nil {
				fatal("stats", err)
			}

			rows := [][]string{
				{"total", "", fmt.Sprint(stats.TotalNetworks)},
				{"with notes", "", fmt.Sprint(stats.NetworksWithNotes)},
			}
			rows = append(rows, histogramRows("type", stats.NetworkTypes)...)
			rows = append(rows, histogramRows("security", stats.SecurityTypes)...)

			render(view{
				data:    stats,
				headers: []string{"METRIC", "KEY", "COUNT"},
				rows:    rows,
				ids:     []string{fmt.Sprint(stats.TotalNetworks)},
			})
		},
	}
}

func histogramRows(metric string, h map[string]int) [][]string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{metric, k, fmt.Sprint(h[k])})
	}
	return rows
}
