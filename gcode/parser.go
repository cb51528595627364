package gcode

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// SyntaxError is returned when a line cannot be split into words.
type SyntaxError struct {
	Line int
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("gcode: line %d: invalid or unhandled line: %s", e.Line, e.Text)
}

// Parser reads Lines from an io.Reader, one source line at a time.
type Parser struct {
	br *bufio.Reader
	n  int
}

var _ Reader = &Parser{}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}

	return &Parser{br: bufio.NewReader(r)}
}

var (
	rx        = regexp.MustCompile(`^([A-Z][+\-]?[0-9.]+)*$`)
	rxSplit   = regexp.MustCompile(`[A-Z][+\-]?[0-9.]+`)
	rxComment = regexp.MustCompile(`\([^)]*\)`)
)

// Read returns the next non-blank line. Errors from the underlying reader
// are returned as-is; io.EOF marks the end of input.
func (p *Parser) Read() (Line, error) {
	for {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return Line{}, err
		}
		p.n++

		text := strings.TrimSpace(s)
		if text == "" {
			continue
		}

		s = strings.SplitN(text, ";", 2)[0]
		s = rxComment.ReplaceAllString(s, "")
		s = strings.Replace(s, "%", "", -1)
		s = strings.Join(strings.Fields(s), "")
		s = strings.ToUpper(s)

		if !rx.MatchString(s) {
			return Line{}, &SyntaxError{Line: p.n, Text: text}
		}

		codes := rxSplit.FindAllString(s, -1)
		ln := Line{Text: text, Words: make(Block, len(codes))}
		for i, c := range codes {
			ln.Words[i], err = ParseWord(c)
			if err != nil {
				return Line{}, &SyntaxError{Line: p.n, Text: text}
			}
		}

		return ln, nil
	}
}
