package interpreter

import "github.com/mastercactapus/gcinterp/gcode"

// Progress is reported once per line by the synchronous loaders, where the
// total is known before dispatch begins. Current is zero-based.
type Progress struct {
	Current int
	Total   int
}

// OnData registers fn to be called with each line after it is dispatched.
func (in *Interpreter) OnData(fn func(gcode.Line)) *Interpreter {
	in.subMx.Lock()
	in.onData = append(in.onData, fn)
	in.subMx.Unlock()
	return in
}

// OnProgress registers fn for progress reports from the synchronous loaders.
func (in *Interpreter) OnProgress(fn func(Progress)) *Interpreter {
	in.subMx.Lock()
	in.onProgress = append(in.onProgress, fn)
	in.subMx.Unlock()
	return in
}

// OnEnd registers fn to be called with every line once a load completes
// successfully.
func (in *Interpreter) OnEnd(fn func([]gcode.Line)) *Interpreter {
	in.subMx.Lock()
	in.onEnd = append(in.onEnd, fn)
	in.subMx.Unlock()
	return in
}

func (in *Interpreter) emitData(ln gcode.Line) {
	in.subMx.Lock()
	subs := in.onData
	in.subMx.Unlock()
	for _, fn := range subs {
		fn(ln)
	}
}

func (in *Interpreter) emitProgress(p Progress) {
	in.subMx.Lock()
	subs := in.onProgress
	in.subMx.Unlock()
	for _, fn := range subs {
		fn(p)
	}
}

func (in *Interpreter) emitEnd(lines []gcode.Line) {
	in.subMx.Lock()
	subs := in.onEnd
	in.subMx.Unlock()
	for _, fn := range subs {
		fn(lines)
	}
}
