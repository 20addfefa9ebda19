// Package cli implements the gridroute command-line interface.
//
// This package provides commands for routing KiCad boards, inspecting them,
// drawing their ratsnest, serving the routing API, and managing the result
// cache. The CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - route: Route a board and write the routed KiCad file plus extra outputs
//   - info: Show board statistics and the routing grid size
//   - ratsnest: Draw each net's connection tree with Graphviz
//   - serve: Run the HTTP routing API
//   - cache: Manage the result cache
//   - config: Write or print the TOML configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports every rip-up pass and cache decision.
//
// # Example
//
//	import "github.com/matzehuels/gridroute/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Built routing grid (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
