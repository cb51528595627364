package interpreter

import (
	"io/ioutil"
	"log"
	"sync"

	"github.com/mastercactapus/gcinterp/gcode"
)

// Handler is invoked with the arguments of a resolved command.
type Handler func(args gcode.Args) error

// DefaultHandler is invoked when no Handler matched a command code.
type DefaultHandler func(code string, args gcode.Args) error

// CommandSet is implemented by types that carry their own handlers, keyed
// by command code. It is consulted after Options.Handlers.
type CommandSet interface {
	Commands() map[string]Handler
}

type Options struct {
	Handlers       map[string]Handler
	DefaultHandler DefaultHandler
	Commands       CommandSet

	// PersistMode keeps the modal command between load calls instead of
	// resetting it at the start of each one.
	PersistMode bool

	Logger *log.Logger
}

// Interpreter resolves command groups against the modal command and
// dispatches them. One load runs at a time.
type Interpreter struct {
	loadMx sync.Mutex

	tables  []map[string]Handler
	def     DefaultHandler
	persist bool
	log     *log.Logger

	mx   sync.RWMutex
	mode string

	subMx      sync.Mutex
	onData     []func(gcode.Line)
	onProgress []func(Progress)
	onEnd      []func([]gcode.Line)
}

func New(opt Options) *Interpreter {
	in := &Interpreter{
		def:     opt.DefaultHandler,
		persist: opt.PersistMode,
		log:     opt.Logger,
	}
	if in.log == nil {
		in.log = log.New(ioutil.Discard, "", 0)
	}
	if len(opt.Handlers) > 0 {
		in.tables = append(in.tables, copyTable(opt.Handlers))
	}
	if opt.Commands != nil {
		if cmds := opt.Commands.Commands(); len(cmds) > 0 {
			in.tables = append(in.tables, copyTable(cmds))
		}
	}
	return in
}

func copyTable(m map[string]Handler) map[string]Handler {
	c := make(map[string]Handler, len(m))
	for code, h := range m {
		if h != nil {
			c[code] = h
		}
	}
	return c
}

// Mode returns the current modal command code, or "" if none has been seen.
func (in *Interpreter) Mode() string {
	in.mx.RLock()
	defer in.mx.RUnlock()
	return in.mode
}

func (in *Interpreter) setMode(code string) {
	in.mx.Lock()
	in.mode = code
	in.mx.Unlock()
}

// Process dispatches every command group of a single line, in order, and
// emits a data event for it when dispatch succeeds. Progress and end events
// are never emitted.
//
// Process shares the load lock, so calling Process or a Load*Sync method on
// the same Interpreter from a handler or event subscriber deadlocks.
func (in *Interpreter) Process(ln gcode.Line) error {
	in.loadMx.Lock()
	defer in.loadMx.Unlock()
	err := in.process(ln, 0)
	if err != nil {
		return err
	}
	in.emitData(ln)
	return nil
}

// resolve returns the code and arguments of a command group, updating the
// modal command when the group has a head word.
func (in *Interpreter) resolve(g gcode.Block) (string, gcode.Args) {
	if head, ok := g.Head(); ok {
		code := head.Code()
		in.setMode(code)
		return code, g[1:].Args()
	}
	return in.Mode(), g.Args()
}

func (in *Interpreter) process(ln gcode.Line, index int) error {
	for _, g := range ln.Words.Groups() {
		code, args := in.resolve(g)
		err := in.dispatch(code, args)
		if err != nil {
			return &HandlerError{Code: code, Index: index, Err: err}
		}
	}
	return nil
}

func (in *Interpreter) dispatch(code string, args gcode.Args) error {
	var matched bool
	for _, t := range in.tables {
		h, ok := t[code]
		if !ok {
			continue
		}
		matched = true
		err := h(args)
		if err != nil {
			return err
		}
	}
	if matched {
		return nil
	}
	if in.def != nil {
		return in.def(code, args)
	}

	in.log.Printf("unhandled command '%s'", code)
	return nil
}
