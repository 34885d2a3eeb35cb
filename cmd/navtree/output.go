package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// table is the plain-text rendering of a result
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// OutputFormatter prints results as a table, JSON or YAML
type OutputFormatter struct {
	format string
	w      io.Writer
}

// NewOutputFormatter creates a formatter writing to w
func NewOutputFormatter(format string, w io.Writer) *OutputFormatter {
	return &OutputFormatter{format: strings.ToLower(format), w: w}
}

// Print writes data in the configured format; tbl is used for "table"
func (of *OutputFormatter) Print(data any, tbl *table) error {
	switch of.format {
	case "json":
		enc := json.NewEncoder(of.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(of.w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		return of.printTable(tbl)
	default:
		return NewUsageError("print results", "format", of.format, "Use --format table, json or yaml")
	}
}

func (of *OutputFormatter) printTable(tbl *table) error {
	if tbl == nil {
		return nil
	}
	tw := tabwriter.NewWriter(of.w, 0, 4, 2, ' ', 0)
	if len(tbl.header) > 0 {
		fmt.Fprintln(tw, strings.Join(tbl.header, "\t"))
	}
	for _, row := range tbl.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (cli *CLI) formatter() *OutputFormatter {
	return NewOutputFormatter(cli.v.GetString("format"), cli.out)
}
