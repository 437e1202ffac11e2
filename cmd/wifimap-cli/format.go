package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// stdout is where command output goes. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

var outputFormats = []string{"json", "table", "csv", "quiet"}

// view is a command result in a shape every output format can draw. A view
// without headers falls back to JSON for table and csv.
type view struct {
	data    any
	headers []string
	rows    [][]string
	ids     []string
	footer  string
}

func render(v view) {
	var err error

	switch {
	case flagFmt == "quiet":
		for _, id := range v.ids {
			fmt.Fprintln(stdout, id)
		}
	case flagFmt == "table" && v.headers != nil:
		writeTable(stdout, v.headers, v.rows)
		if v.footer != "" {
			fmt.Fprintln(stdout, v.footer)
		}
	case flagFmt == "csv" && v.headers != nil:
		err = writeCSV(stdout, v.headers, v.rows)
	default:
		err = writeJSON(stdout, v.data)
	}

	if err != nil {
		fatal("write output", err)
	}
}

func checkFormat(f string) error {
	for _, ok := range outputFormats {
		if f == ok {
			return nil
		}
	}

	return fmt.Errorf("unknown --format %q (want one of %s)", f, strings.Join(outputFormats, ", "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func writeCSV(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}

	if err := cw.WriteAll(rows); err != nil {
		return err
	}

	return cw.Error()
}

// writeTable left-aligns each column to its widest cell and underlines the
// header row.
func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], len(row[i]))
		}
	}

	line := func(cells []string) {
		var b strings.Builder

		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}

			pad := 0
			if i < len(widths) {
				pad = widths[i]
			}

			fmt.Fprintf(&b, "%-*s", pad, cell)
		}

		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	line(headers)
	line(rule)

	for _, row := range rows {
		line(row)
	}
}
