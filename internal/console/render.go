package console

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/randomchars42/Sortingshop/internal/command"
	"github.com/randomchars42/Sortingshop/internal/prepare"
	"github.com/randomchars42/Sortingshop/internal/session"
	"github.com/randomchars42/Sortingshop/internal/sorter"
)

var metaHelp = []command.HelpEntry{
	{Directive: metaPrepare, Label: "prepare all files"},
	{Directive: metaFinalize, Label: "apply deletion marks"},
	{Directive: metaSort, Label: "apply deletion marks and sort files"},
	{Directive: metaQuit, Label: "apply deletion marks and exit"},
}

func (c *Console) printFeedback(fb *session.Feedback) {
	if fb.File == "" {
		fmt.Fprintln(c.out, fb.Message)
		c.printHelp(fb.Help)
		return
	}

	fmt.Fprintf(c.out, "[%d/%d] %s (%s)\n", fb.Position, fb.Total, fb.File, fb.State)

	source := "file"
	if fb.Source > 0 {
		source = fmt.Sprintf("sidecar %d/%d", fb.Source, fb.Sources-1)
	}
	fmt.Fprintf(c.out, "  source:      %s\n", source)

	tags := "-"
	if len(fb.Tags) > 0 {
		tags = strings.Join(fb.Tags, ", ")
	}
	fmt.Fprintf(c.out, "  tags:        %s\n", tags)

	rating := strconv.Itoa(fb.Rating)
	if fb.Rejected {
		rating = "rejected"
	}
	fmt.Fprintf(c.out, "  rating:      %s\n", rating)
	fmt.Fprintf(c.out, "  orientation: %s\n", orientation(fb))

	if fb.MarkedDeleted {
		fmt.Fprintln(c.out, "  marked for deletion")
	}
	if fb.Message != "" {
		fmt.Fprintf(c.out, "  %s\n", fb.Message)
	}
	c.printHelp(fb.Help)
}

func orientation(fb *session.Feedback) string {
	parts := []string{strconv.Itoa(fb.Rotation) + "°"}
	if fb.FlipHorizontal {
		parts = append(parts, "flipped horizontally")
	}
	if fb.FlipVertical {
		parts = append(parts, "flipped vertically")
	}
	return strings.Join(parts, ", ")
}

func (c *Console) printHelp(entries []command.HelpEntry) {
	if len(entries) == 0 {
		return
	}
	table := c.newTable("directive", "argument", "action")
	for _, entry := range slices.Concat(entries, metaHelp) {
		table.Append([]string{entry.Directive, entry.Argument, entry.Label})
	}
	table.Render()
}

func (c *Console) printPrepare(report prepare.Report) {
	fmt.Fprintf(c.out, "prepared %d, skipped %d, renamed %d, failed %d\n",
		len(report.Prepared), len(report.Skipped), len(report.Renamed), len(report.Failed))

	if len(report.Renamed)+len(report.Failed) > 0 {
		table := c.newTable("result", "file", "detail")
		for _, r := range report.Renamed {
			table.Append([]string{"renamed", r.From, r.To})
		}
		for _, f := range report.Failed {
			table.Append([]string{"failed", f.File, string(f.Code) + ": " + f.Error})
		}
		table.Render()
	}
	c.printInterrupted(report.Interrupted)
}

func (c *Console) printFinalize(report session.FinalizeReport) {
	fmt.Fprintf(c.out, "deleted %d, restored %d, failed %d\n",
		len(report.Deleted), len(report.Restored), len(report.Failed))

	if len(report.Deleted)+len(report.Restored)+len(report.Failed) > 0 {
		table := c.newTable("result", "file", "detail")
		for _, m := range report.Deleted {
			table.Append([]string{"deleted", m.From, m.To})
		}
		for _, m := range report.Restored {
			table.Append([]string{"restored", m.From, m.To})
		}
		for _, f := range report.Failed {
			table.Append([]string{"failed", f.File, string(f.Code) + ": " + f.Error})
		}
		table.Render()
	}
	c.printInterrupted(report.Interrupted)
}

func (c *Console) printSort(report sorter.Report) {
	fmt.Fprintf(c.out, "sorted %d, skipped %d, failed %d\n",
		len(report.Sorted), len(report.Skipped), len(report.Failed))

	if len(report.Sorted)+len(report.Skipped)+len(report.Failed) > 0 {
		table := c.newTable("result", "file", "detail")
		for _, m := range report.Sorted {
			table.Append([]string{"sorted", m.From, m.To})
		}
		for _, s := range report.Skipped {
			table.Append([]string{"skipped", s.File, s.Reason})
		}
		for _, f := range report.Failed {
			table.Append([]string{"failed", f.File, string(f.Code) + ": " + f.Error})
		}
		table.Render()
	}
	c.printInterrupted(report.Interrupted)
}

func (c *Console) printInterrupted(interrupted bool) {
	if interrupted {
		fmt.Fprintln(c.out, "interrupted, remaining files were left untouched")
	}
}

func (c *Console) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeader(header)
	return table
}
