package board

import (
	"fmt"
	"io"

	"github.com/busboard/internal/departures"
)

// Render writes one "LLL HH:MM MM" line per record. A stale board is
// prefixed with a marker line.
func Render(w io.Writer, b *departures.Board, stale bool) error {
	if stale {
		if _, err := fmt.Fprintln(w, "-- stale --"); err != nil {
			return err
		}
	}
	for _, r := range b.Records {
		if _, err := fmt.Fprintf(w, "%-3s %s %s\n", r.LineNumber, r.ArrivalClock, r.MinutesUntil); err != nil {
			return err
		}
	}
	return nil
}

// RenderError writes the fixed error indicator shown when no board exists
func RenderError(w io.Writer, code int) error {
	_, err := fmt.Fprintf(w, "ERR %d\n", code)
	return err
}
