package main

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/mastercactapus/gcinterp/gcode"
	"github.com/mastercactapus/gcinterp/interpreter"
)

// tally counts dispatched commands by code.
type tally struct {
	mx     sync.Mutex
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) count(code string, _ gcode.Args) error {
	t.mx.Lock()
	t.counts[code]++
	t.mx.Unlock()
	return nil
}

func (t *tally) Counts() map[string]int {
	t.mx.Lock()
	defer t.mx.Unlock()
	c := make(map[string]int, len(t.counts))
	for code, n := range t.counts {
		c[code] = n
	}
	return c
}

// interpreter returns an interpreter that counts every command.
func (t *tally) interpreter(l *log.Logger) *interpreter.Interpreter {
	return interpreter.New(interpreter.Options{
		DefaultHandler: t.count,
		Logger:         l,
	})
}

func modalGroup(code string) string {
	if code == "" {
		return "-"
	}
	w, err := gcode.ParseWord(code)
	if err != nil {
		return "-"
	}
	return w.ModalGroup().String()
}

func (t *tally) print(w io.Writer, lines int) error {
	counts := t.Counts()
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tGROUP\tCOUNT")
	for _, code := range codes {
		name := code
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, modalGroup(code), counts[code])
	}
	fmt.Fprintf(tw, "\n%d lines\n", lines)
	return tw.Flush()
}
