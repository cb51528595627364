package gcode

import "strings"

// Block is an ordered list of words. A full line of words and a single
// command group are both Blocks.
type Block []Word

// Args maps a parameter letter to its value.
type Args map[byte]float64

// Get returns the value for letter w, if present.
func (a Args) Get(w byte) (float64, bool) {
	v, ok := a[w]
	return v, ok
}

func (b Block) String() string {
	var sb strings.Builder
	for _, w := range b {
		sb.WriteString(w.String())
	}
	return sb.String()
}

// Args collects every word of b into an Args map. Repeated letters are
// legal; the last one wins.
func (b Block) Args() Args {
	res := make(Args, len(b))
	for _, w := range b {
		res[w.W] = w.Arg
	}
	return res
}

// Groups partitions b into command groups. A G or M word opens a new group
// and every other word joins the open one. If b does not start with a head
// word, the leading parameter words form their own group.
func (b Block) Groups() []Block {
	var groups []Block
	for _, w := range b {
		if w.IsHead() || len(groups) == 0 {
			groups = append(groups, Block{w})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], w)
	}
	return groups
}

// Head returns the head word of a group, if it has one.
func (b Block) Head() (Word, bool) {
	if len(b) == 0 || !b[0].IsHead() {
		return Word{}, false
	}
	return b[0], true
}
