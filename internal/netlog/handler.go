package netlog

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// StreamHandler writes formatted records to w, serialized by a mutex since
// multiple peer goroutines may log concurrently.
func StreamHandler(w io.Writer, fmtr Format) Handler {
	var mu sync.Mutex
	return HandlerFunc(func(r *Record) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := w.Write(fmtr.Format(r))
		return err
	})
}

// LvlFilterHandler drops any record above the given verbosity level before
// passing it to h.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return HandlerFunc(func(r *Record) error {
		if r.Lvl > maxLvl {
			return nil
		}
		return h.Log(r)
	})
}

// StdoutHandler is a StreamHandler over os.Stdout with TerminalFormat. When
// stdout is a terminal it writes through a colorable writer; otherwise it
// writes to os.Stdout directly.
func StdoutHandler() Handler {
	var w io.Writer = os.Stdout
	if isatty.IsTerminal(os.Stdout.Fd()) {
		w = colorable.NewColorableStdout()
	}
	return StreamHandler(w, TerminalFormat())
}
