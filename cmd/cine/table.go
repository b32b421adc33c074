package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws headers and rows in the rounded go-pretty style. Short
// rows are padded to the header width; aligns applies per column and
// defaults to left.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range configs {
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       alignmentFor(aligns, i),
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// toRow converts cells to a table row of exactly width columns.
func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func alignmentFor(aligns []columnAlignment, column int) text.Align {
	if column < len(aligns) && aligns[column] == alignRight {
		return text.AlignRight
	}
	return text.AlignLeft
}
