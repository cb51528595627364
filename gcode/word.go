package gcode

import (
	"errors"
	"strconv"
	"strings"
)

type Word struct {
	W   byte
	Arg float64
}

// IsHead reports whether w starts a new command group.
func (w Word) IsHead() bool {
	return w.W == 'G' || w.W == 'M'
}

func (w Word) IsAxis() bool {
	switch w.W {
	case 'X', 'Y', 'Z', 'A', 'B', 'C':
		return true
	}
	return false
}

func (w Word) IsValid() bool {
	return w.W >= 'A' && w.W <= 'Z'
}

func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimRight(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func (w Word) String() string {
	return string(w.W) + formatFloat(w.Arg, 3)
}

// Code returns the command code of w with its argument at full precision,
// so G1.0001 stays distinct from G1. Leading zeros are dropped (G01 is G1).
func (w Word) Code() string {
	return string(w.W) + formatFloat(w.Arg, -1)
}

// ParseWord parses a single word such as "G1" or "x-.5".
func ParseWord(s string) (Word, error) {
	if len(s) < 2 {
		return Word{}, errors.New("invalid word: " + s)
	}
	w := Word{W: s[0]}
	if w.W >= 'a' && w.W <= 'z' {
		w.W -= 'a' - 'A'
	}
	if !w.IsValid() {
		return Word{}, errors.New("invalid word: " + s)
	}
	var err error
	w.Arg, err = strconv.ParseFloat(s[1:], 64)
	if err != nil {
		return Word{}, errors.New("invalid word: " + s)
	}
	return w, nil
}
