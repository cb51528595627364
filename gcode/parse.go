package gcode

import (
	"io"
	"strings"
)

// Parse tokenizes all of data.
func Parse(data string) ([]Line, error) {
	return ReadAll(NewParser(strings.NewReader(data)))
}

func MustParse(data string) []Line {
	l, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return l
}

// ReadAll drains r. A nil slice is never returned on success.
func ReadAll(r Reader) ([]Line, error) {
	lines := []Line{}
	for {
		ln, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, ln)
	}
	return lines, nil
}
