package app

import (
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableStyle selects how the batch tally table is drawn.
type TableStyle int

const (
	// TablePlain uses ASCII borders, suitable for pipes and log files.
	TablePlain TableStyle = iota
	// TableRounded uses box-drawing characters for terminals.
	TableRounded
)

// RenderBatchTable formats one row per attempted directory.
func RenderBatchTable(sum BatchSummary, style TableStyle) string {
	tw := table.NewWriter()
	if style == TableRounded {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	tw.AppendHeader(table.Row{"Directory", "Status", "Images", "Points", "Output", "Size"})
	for _, res := range sum.Results {
		output, size := "-", "-"
		if res.Success() {
			output = filepath.Base(res.OutputPath)
			size = humanize.Bytes(uint64(res.Bytes))
		}
		tw.AppendRow(table.Row{
			res.InputDir,
			res.Status.String(),
			strconv.Itoa(res.Images),
			strconv.Itoa(res.PointCount),
			output,
			size,
		})
	}
	for _, skipped := range sum.Skipped {
		tw.AppendRow(table.Row{skipped.Path, "skipped", "-", "-", "-", "-"})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
