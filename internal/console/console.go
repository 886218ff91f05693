// Package console is the interactive line-oriented front end of a session.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/randomchars42/Sortingshop/internal/prepare"
	"github.com/randomchars42/Sortingshop/internal/session"
	"github.com/randomchars42/Sortingshop/internal/sorter"
)

// Words the console handles itself. They are longer than any directive so
// they never shadow one.
const (
	metaPrepare  = "prepare"
	metaFinalize = "finalize"
	metaSort     = "sort"
	metaQuit     = "quit"
)

const prompt = "> "

// Shop is the service the console drives.
type Shop interface {
	State(ctx context.Context) *session.Feedback
	Run(ctx context.Context, line string) (*session.Feedback, error)
	Prepare(ctx context.Context) prepare.Report
	Finalize(ctx context.Context) session.FinalizeReport
	Sort(ctx context.Context) (session.FinalizeReport, sorter.Report)
}

// Console reads command lines and prints feedback.
type Console struct {
	shop   Shop
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

// New creates a console reading from in and writing to out.
func New(shop Shop, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	return &Console{
		shop:   shop,
		in:     in,
		out:    out,
		logger: logger,
	}
}

// Run processes lines until "quit", end of input or cancellation. Deletion
// marks are applied before Run returns in every case.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	done := make(chan struct{})
	// The reader may stay blocked on input after Run returns.
	go c.read(lines, done)
	defer close(done)

	c.printFeedback(c.shop.State(ctx))
	for {
		fmt.Fprint(c.out, prompt)

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			c.quit(context.WithoutCancel(ctx))
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(c.out)
			c.quit(ctx)
			return nil
		}

		if c.dispatch(ctx, strings.TrimSpace(line)) {
			c.quit(ctx)
			return nil
		}
	}
}

// read forwards input lines until EOF or until done is closed.
func (c *Console) read(lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("reading input failed", "error", err)
	}
}

// dispatch handles one line and reports whether the console should quit.
func (c *Console) dispatch(ctx context.Context, line string) bool {
	switch line {
	case "":
		return false
	case metaQuit:
		return true
	case metaPrepare:
		c.printPrepare(c.shop.Prepare(ctx))
		c.printFeedback(c.shop.State(ctx))
	case metaFinalize:
		c.printFinalize(c.shop.Finalize(ctx))
		c.printFeedback(c.shop.State(ctx))
	case metaSort:
		finalized, sorted := c.shop.Sort(ctx)
		c.printFinalize(finalized)
		c.printSort(sorted)
		c.printFeedback(c.shop.State(ctx))
	default:
		fb, err := c.shop.Run(ctx, line)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return false
		}
		c.printFeedback(fb)
	}
	return false
}

func (c *Console) quit(ctx context.Context) {
	report := c.shop.Finalize(ctx)
	if len(report.Deleted)+len(report.Restored)+len(report.Failed) > 0 {
		c.printFinalize(report)
	}
	c.logger.Debug("console closed")
}
