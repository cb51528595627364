package interpreter

import (
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mastercactapus/gcinterp/gcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const circle = "testdata/circle.nc"

type result struct {
	lines []gcode.Line
	err   error
}

// wait blocks until an async load finishes and returns what its callback
// received.
func wait(t *testing.T, load func(Callback) <-chan struct{}) result {
	t.Helper()
	var res result
	var calls int
	done := load(func(lines []gcode.Line, err error) {
		calls++
		res = result{lines: lines, err: err}
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("load did not complete")
	}
	assert.Equal(t, 1, calls, "callback calls")
	return res
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := ioutil.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

func TestLoad_NilSource(t *testing.T) {
	in := New(Options{})

	res := wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromString("", cb) })
	assert.NoError(t, res.err)
	assert.NotNil(t, res.lines)
	assert.Len(t, res.lines, 0)

	res = wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromFile("", cb) })
	assert.True(t, errors.Is(res.err, ErrSourceUnavailable))
	assert.Nil(t, res.lines)

	res = wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromStream(nil, cb) })
	assert.True(t, errors.Is(res.err, ErrSourceUnavailable))
	assert.Nil(t, res.lines)
}

func TestLoad_MissingFile(t *testing.T) {
	in := New(Options{})
	missing := filepath.Join("testdata", "does-not-exist.nc")

	res := wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromFile(missing, cb) })
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, ErrSourceUnavailable))
	assert.True(t, errors.Is(res.err, os.ErrNotExist))
	assert.Nil(t, res.lines)

	lines, err := in.LoadFromFileSync(missing, nil)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.Nil(t, lines)

	_, err = in.LoadFromFileSync("", nil)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestLoad_Events(t *testing.T) {
	text := readFixture(t, circle)
	loads := map[string]func(*Interpreter, Callback) <-chan struct{}{
		"file": func(in *Interpreter, cb Callback) <-chan struct{} { return in.LoadFromFile(circle, cb) },
		"stream": func(in *Interpreter, cb Callback) <-chan struct{} {
			return in.LoadFromStream(strings.NewReader(text), cb)
		},
		"string": func(in *Interpreter, cb Callback) <-chan struct{} { return in.LoadFromString(text, cb) },
	}

	for name, load := range loads {
		t.Run(name, func(t *testing.T) {
			var data int
			var end [][]gcode.Line
			in := New(Options{}).
				OnData(func(ln gcode.Line) {
					data++
					assert.NotEmpty(t, ln.Words)
				}).
				OnEnd(func(lines []gcode.Line) { end = append(end, lines) }).
				OnProgress(func(Progress) { t.Error("progress reported for async load") })

			res := wait(t, func(cb Callback) <-chan struct{} { return load(in, cb) })
			require.NoError(t, res.err)
			assert.Len(t, res.lines, 7)
			assert.Equal(t, 7, data)
			require.Len(t, end, 1)
			assert.Equal(t, res.lines, end[0])
			assert.Equal(t, "G0 X-5 Y0 Z0 F200", res.lines[0].Text)
			assert.Equal(t, "G00 X0 Y0 Z5", res.lines[6].Text)
		})
	}
}

func TestLoad_SyncObserver(t *testing.T) {
	check := func(name string, load func(*Interpreter, LineFunc) ([]gcode.Line, error)) {
		t.Run(name, func(t *testing.T) {
			var i int
			var progress []Progress
			var end int
			in := New(Options{}).
				OnProgress(func(p Progress) { progress = append(progress, p) }).
				OnEnd(func(lines []gcode.Line) {
					end++
					assert.Len(t, lines, 7)
				})

			lines, err := load(in, func(ln gcode.Line, index int) {
				assert.Equal(t, i, index)
				i++
			})
			require.NoError(t, err)
			assert.Len(t, lines, 7)
			assert.Equal(t, 7, i)
			assert.Equal(t, 1, end)

			require.Len(t, progress, 7)
			for n, p := range progress {
				assert.Equal(t, Progress{Current: n, Total: 7}, p)
			}
		})
	}

	check("file", func(in *Interpreter, fn LineFunc) ([]gcode.Line, error) {
		return in.LoadFromFileSync(circle, fn)
	})
	text := readFixture(t, circle)
	check("string", func(in *Interpreter, fn LineFunc) ([]gcode.Line, error) {
		return in.LoadFromStringSync(text, fn)
	})
}

func TestLoad_DefaultHandler(t *testing.T) {
	var r recorder
	in := New(Options{
		Handlers:       r.handlers("G0", "G1"),
		DefaultHandler: r.def,
	})

	lines, err := in.LoadFromStringSync(readFixture(t, "testdata/default-handler.nc"), nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"G0": 1, "G1": 1, "default:G9999": 1}, r.count())
	assert.Equal(t, gcode.Args{'P': 1}, r.calls[2].Args)
	assert.Equal(t, []gcode.Line{
		{Text: "G0 X0 Y0 Z0", Words: gcode.Block{{W: 'G', Arg: 0}, {W: 'X', Arg: 0}, {W: 'Y', Arg: 0}, {W: 'Z', Arg: 0}}},
		{Text: "G1 X10 Y10", Words: gcode.Block{{W: 'G', Arg: 1}, {W: 'X', Arg: 10}, {W: 'Y', Arg: 10}}},
		{Text: "G9999 P1", Words: gcode.Block{{W: 'G', Arg: 9999}, {W: 'P', Arg: 1}}},
	}, lines)
}

func TestLoad_Circle(t *testing.T) {
	var r recorder
	in := New(Options{Handlers: r.handlers("G0", "G1", "G2")})

	res := wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromFile(circle, cb) })
	require.NoError(t, res.err)
	assert.Len(t, res.lines, 7)
	assert.Equal(t, map[string]int{"G0": 2, "G1": 1, "G2": 4}, r.count())
}

type oneInchRunner struct {
	recorder
}

func (r *oneInchRunner) Commands() map[string]Handler {
	return r.handlers("G17", "G20", "G90", "G94", "G54", "G0", "G1", "G2")
}

func TestLoad_SyncAsyncParity(t *testing.T) {
	const fixture = "testdata/one-inch-circle.nc"
	exp := map[string]int{
		"G17": 1, "G20": 1, "G90": 1, "G94": 1, "G54": 1,
		"G0": 4, "G1": 2, "G2": 4,
	}

	r := &oneInchRunner{}
	in := New(Options{Commands: r})

	lines, err := in.LoadFromFileSync(fixture, nil)
	require.NoError(t, err)
	assert.Len(t, lines, 12)
	assert.Equal(t, exp, r.count())

	_, err = in.LoadFromStringSync(readFixture(t, fixture), nil)
	require.NoError(t, err)

	res := wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromFile(fixture, cb) })
	require.NoError(t, res.err)
	assert.Len(t, res.lines, 12)

	for code, n := range exp {
		exp[code] = n * 3
	}
	assert.Equal(t, exp, r.count())
}

func TestLoad_ModeReset(t *testing.T) {
	var r recorder
	in := New(Options{Handlers: r.handlers("G1"), DefaultHandler: r.def})

	_, err := in.LoadFromStringSync("G1 X1", nil)
	require.NoError(t, err)
	assert.Equal(t, "G1", in.Mode())

	_, err = in.LoadFromStringSync("X2", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"G1", "default:"}, codes(r.calls))
	assert.Equal(t, "", in.Mode())
}

func TestLoad_PersistMode(t *testing.T) {
	var r recorder
	in := New(Options{Handlers: r.handlers("G1"), PersistMode: true})

	_, err := in.LoadFromStringSync("G1 X1", nil)
	require.NoError(t, err)

	res := wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromString("X2", cb) })
	require.NoError(t, res.err)

	assert.Equal(t, []call{
		{Code: "G1", Args: gcode.Args{'X': 1}},
		{Code: "G1", Args: gcode.Args{'X': 2}},
	}, r.calls)
}

func TestLoad_SyntaxError(t *testing.T) {
	var end int
	in := New(Options{}).OnEnd(func([]gcode.Line) { end++ })

	res := wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromFile("testdata/invalid.nc", cb) })
	var se *gcode.SyntaxError
	require.True(t, errors.As(res.err, &se))
	assert.Equal(t, 2, se.Line)
	assert.Nil(t, res.lines)

	lines, err := in.LoadFromFileSync("testdata/invalid.nc", nil)
	assert.True(t, errors.As(err, &se))
	assert.Nil(t, lines)
	assert.Equal(t, 0, end)
}

type brokenReader struct {
	r   io.Reader
	err error
}

func (b *brokenReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		return n, b.err
	}
	return n, err
}

func TestLoad_ReadError(t *testing.T) {
	var r recorder
	in := New(Options{Handlers: r.handlers("G0")})
	broken := errors.New("connection reset")

	res := wait(t, func(cb Callback) <-chan struct{} {
		return in.LoadFromStream(&brokenReader{r: strings.NewReader("G0 X1\n"), err: broken}, cb)
	})
	assert.True(t, errors.Is(res.err, ErrSourceRead))
	assert.True(t, errors.Is(res.err, broken))
	assert.Nil(t, res.lines)

	// lines read before the failure were still dispatched
	assert.Equal(t, map[string]int{"G0": 1}, r.count())
}

func TestLoad_HandlerError(t *testing.T) {
	var data int
	stop := errors.New("stop")
	in := New(Options{Handlers: map[string]Handler{
		"G2": func(gcode.Args) error { return stop },
	}}).OnData(func(gcode.Line) { data++ })

	res := wait(t, func(cb Callback) <-chan struct{} { return in.LoadFromFile(circle, cb) })
	assert.True(t, errors.Is(res.err, stop))
	var he *HandlerError
	require.True(t, errors.As(res.err, &he))
	assert.Equal(t, HandlerError{Code: "G2", Index: 1, Err: stop}, *he)
	assert.Equal(t, 1, data)

	_, err := in.LoadFromFileSync(circle, nil)
	assert.True(t, errors.Is(err, stop))
}

func TestLoad_Serialized(t *testing.T) {
	var r recorder
	in := New(Options{Handlers: r.handlers("G0", "G1", "G2")})

	a := in.LoadFromFile(circle, nil)
	b := in.LoadFromFile(circle, nil)
	<-a
	<-b

	assert.Equal(t, map[string]int{"G0": 4, "G1": 2, "G2": 8}, r.count())
}
