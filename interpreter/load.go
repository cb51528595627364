package interpreter

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/mastercactapus/gcinterp/gcode"
)

// Callback receives the outcome of an asynchronous load. On failure lines
// is nil.
type Callback func(lines []gcode.Line, err error)

// LineFunc observes each line, with its index, during a synchronous load.
type LineFunc func(ln gcode.Line, index int)

// LoadFromString interprets text in the background. See LoadFromStream.
func (in *Interpreter) LoadFromString(text string, cb Callback) <-chan struct{} {
	return in.LoadFromStream(strings.NewReader(text), cb)
}

// LoadFromStream interprets r in the background, dispatching each line as
// it is read. cb is called exactly once when r is exhausted or on the first
// error, after which the returned channel is closed.
func (in *Interpreter) LoadFromStream(r io.Reader, cb Callback) <-chan struct{} {
	if r == nil {
		return in.fail(ErrSourceUnavailable, cb)
	}
	return in.async(r, "", cb)
}

// LoadFromFile opens path and interprets it in the background. Open errors
// are reported through cb, like any other load error.
func (in *Interpreter) LoadFromFile(path string, cb Callback) <-chan struct{} {
	f, err := openFile(path)
	if err != nil {
		return in.fail(err, cb)
	}
	return in.async(f, path, cb)
}

// LoadFromStringSync tokenizes all of text, then dispatches every line in
// order and returns them.
func (in *Interpreter) LoadFromStringSync(text string, fn LineFunc) ([]gcode.Line, error) {
	lines, err := gcode.Parse(text)
	if err != nil {
		in.log.Printf("ERROR: load: %v", err)
		return nil, err
	}
	return in.runSync(lines, fn)
}

// LoadFromFileSync is LoadFromStringSync for the contents of path.
func (in *Interpreter) LoadFromFileSync(path string, fn LineFunc) ([]gcode.Line, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := gcode.ReadAll(gcode.NewParser(f))
	if err != nil {
		err = sourceErr(err, path)
		in.log.Printf("ERROR: load '%s': %v", path, err)
		return nil, err
	}
	return in.runSync(lines, fn)
}

func openFile(path string) (*os.File, error) {
	if path == "" {
		return nil, ErrSourceUnavailable
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Op: "open", Name: path, Err: err}
	}
	return f, nil
}

// sourceErr classifies an error from the tokenizer. Syntax errors pass
// through; anything else came from the underlying reader.
func sourceErr(err error, name string) error {
	var se *gcode.SyntaxError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{Op: "read", Name: name, Err: err}
}

func (in *Interpreter) begin() {
	if !in.persist {
		in.setMode("")
	}
}

func (in *Interpreter) runSync(lines []gcode.Line, fn LineFunc) ([]gcode.Line, error) {
	in.loadMx.Lock()
	defer in.loadMx.Unlock()
	in.begin()

	for i, ln := range lines {
		err := in.process(ln, i)
		if err != nil {
			in.log.Printf("ERROR: load: %v", err)
			return nil, err
		}
		in.emitData(ln)
		in.emitProgress(Progress{Current: i, Total: len(lines)})
		if fn != nil {
			fn(ln, i)
		}
	}

	in.emitEnd(lines)
	return lines, nil
}

func (in *Interpreter) async(r io.Reader, name string, cb Callback) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		// only files opened by LoadFromFile are named
		if c, ok := r.(io.Closer); ok && name != "" {
			defer c.Close()
		}

		lines, err := in.stream(gcode.NewParser(r), name)
		if err != nil {
			in.log.Printf("ERROR: load: %v", err)
			lines = nil
		}
		if cb != nil {
			cb(lines, err)
		}
	}()
	return done
}

func (in *Interpreter) stream(p gcode.Reader, name string) ([]gcode.Line, error) {
	in.loadMx.Lock()
	defer in.loadMx.Unlock()
	in.begin()

	lines := []gcode.Line{}
	for {
		ln, err := p.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, sourceErr(err, name)
		}

		err = in.process(ln, len(lines))
		if err != nil {
			return nil, err
		}
		lines = append(lines, ln)
		in.emitData(ln)
	}

	in.emitEnd(lines)
	return lines, nil
}

func (in *Interpreter) fail(err error, cb Callback) <-chan struct{} {
	in.log.Printf("ERROR: load: %v", err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if cb != nil {
			cb(nil, err)
		}
	}()
	return done
}
