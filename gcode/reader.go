package gcode

import "io"

// Reader is a lazy, ordered source of Lines. Read returns io.EOF once the
// source is exhausted.
type Reader interface {
	Read() (Line, error)
}

// LinesReader serves Lines that are already in memory.
type LinesReader struct {
	Lines []Line
	n     int
}

func (r *LinesReader) Read() (Line, error) {
	if r.n == len(r.Lines) {
		return Line{}, io.EOF
	}

	r.n++
	return r.Lines[r.n-1], nil
}
