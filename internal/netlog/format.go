package netlog

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Format renders a Record to bytes for a Handler to write out.
type Format interface {
	Format(r *Record) []byte
}

type FormatFunc func(r *Record) []byte

func (f FormatFunc) Format(r *Record) []byte { return f(r) }

var lvlColor = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgMagenta, color.Bold),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgWhite),
}

// TerminalFormat renders a colorized, human-readable line:
//
//	INFO [15:04:05] message                         k=v k2=v2
func TerminalFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		c, ok := lvlColor[r.Lvl]
		lvl := strings.ToUpper(r.Lvl.String())
		if ok {
			lvl = c.Sprint(lvl)
		}
		line := fmt.Sprintf("%s[%s] %-40s%s\n",
			lvl+" ",
			r.Time.Format("15:04:05"),
			r.Msg,
			fmtCtx(r.Ctx),
		)
		return []byte(line)
	})
}

// LogfmtFormat renders machine-parseable logfmt-style lines. StdoutHandler
// does not select it; it always uses TerminalFormat.
func LogfmtFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		line := fmt.Sprintf("t=%s lvl=%s msg=%q%s\n",
			r.Time.Format("2006-01-02T15:04:05.000"),
			r.Lvl,
			r.Msg,
			fmtCtx(r.Ctx),
		)
		return []byte(line)
	})
}
