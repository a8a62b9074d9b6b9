// Package netlog is a small leveled, structured logger in the style of
// inconshreveable/log15: a Logger bound with persistent key-value context,
// a package Root() logger, and a colorized terminal Format, built on
// go-stack/stack for caller frames and mattn/go-colorable (plus
// mattn/go-isatty) for terminal-safe ANSI output.
package netlog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
)

// Lvl is a logging severity level, ordered from most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "crit"
	case LvlError:
		return "eror"
	case LvlWarn:
		return "warn"
	case LvlInfo:
		return "info"
	case LvlDebug:
		return "dbug"
	case LvlTrace:
		return "trce"
	default:
		return "unkn"
	}
}

// Record is a single log event: timestamp, level, caller, message, and
// flattened key/value context.
type Record struct {
	Time    time.Time
	Lvl     Lvl
	Msg     string
	Ctx     []interface{}
	Call    stack.Call
}

// Handler writes (or further routes) a Record.
type Handler interface {
	Log(r *Record) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(r *Record) error

func (f HandlerFunc) Log(r *Record) error { return f(r) }

// Logger is a leveled, structured logger bound with persistent context.
type Logger interface {
	New(ctx ...interface{}) Logger

	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
}

type logger struct {
	ctx []interface{}
	h   *handlerState
}

type handlerState struct {
	mu sync.RWMutex
	h  Handler
}

func (hs *handlerState) get() Handler {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return hs.h
}

func (hs *handlerState) set(h Handler) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.h = h
}

var root = &logger{h: &handlerState{h: StreamHandler(os.Stderr, TerminalFormat())}}

// Root returns the package-level root logger.
func Root() Logger { return root }

// SetHandler replaces the root logger's output handler (e.g. to apply a
// verbosity filter from a CLI flag).
func SetHandler(h Handler) { root.h.set(h) }

// New returns a child logger with extra persistent context appended.
func (l *logger) New(ctx ...interface{}) Logger {
	newCtx := make([]interface{}, 0, len(l.ctx)+len(ctx))
	newCtx = append(newCtx, l.ctx...)
	newCtx = append(newCtx, ctx...)
	return &logger{ctx: newCtx, h: l.h}
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	full := make([]interface{}, 0, len(l.ctx)+len(ctx))
	full = append(full, l.ctx...)
	full = append(full, ctx...)

	r := &Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  full,
		Call: stack.Caller(2),
	}
	if h := l.h.get(); h != nil {
		_ = h.Log(r)
	}
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }

// New constructs a logger bound with ctx. It shares Root's handler, so a
// later SetHandler call also applies to loggers created here.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// LvlFromInt maps the CLI's 0-5 verbosity scale (crit..trace) onto Lvl,
// clamping out-of-range values.
func LvlFromInt(v int) Lvl {
	switch {
	case v < int(LvlCrit):
		return LvlCrit
	case v > int(LvlTrace):
		return LvlTrace
	default:
		return Lvl(v)
	}
}

func fmtCtx(ctx []interface{}) string {
	s := ""
	for i := 0; i+1 < len(ctx); i += 2 {
		s += fmt.Sprintf(" %v=%v", ctx[i], ctx[i+1])
	}
	return s
}
