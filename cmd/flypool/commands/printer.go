package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/jonwraymond/flypool/health"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func printListing(w io.Writer, pool *CarPool) {
	cyan.Fprintf(w, "\nFlyweightFactory: I have %d flyweights:\n", pool.Len())
	for _, k := range pool.Keys() {
		fmt.Fprintln(w, k)
	}
}

func printLookup(w io.Writer, reused bool) {
	if reused {
		green.Fprintln(w, "FlyweightFactory: Reusing existing flyweight.")
		return
	}
	yellow.Fprintln(w, "FlyweightFactory: Can't find a flyweight, creating new one.")
}

func printStats(w io.Writer, pool *CarPool) {
	s := pool.Stats()
	fmt.Fprintf(w, "\nStats: %d hits, %d misses, %d rejected, %d flyweights\n", s.Hits, s.Misses, s.Rejected, s.Size)
}

func printHealth(w io.Writer, name string, r health.Result) {
	c := green
	switch r.Status {
	case health.StatusDegraded:
		c = yellow
	case health.StatusUnhealthy:
		c = red
	}
	c.Fprintf(w, "Health (%s): %s - %s\n", name, r.Status, r.Message)
}

func printError(w io.Writer, format string, a ...any) {
	red.Fprintf(w, format, a...)
}
