package gcode

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinesReader(t *testing.T) {
	lines := []Line{
		{Text: "G1G2", Words: Block{{W: 'G', Arg: 1}, {W: 'G', Arg: 2}}},

		{Text: "M2", Words: Block{{W: 'M', Arg: 2}}},
	}

	gr := &LinesReader{Lines: lines}

	l, err := gr.Read()
	assert.NoError(t, err)
	assert.Equal(t, Block{{W: 'G', Arg: 1}, {W: 'G', Arg: 2}}, l.Words)

	l, err = gr.Read()
	assert.NoError(t, err)
	assert.Equal(t, "M2", l.Text)

	l, err = gr.Read()
	assert.Error(t, err)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, l.Words)
}

func TestReadAll_Empty(t *testing.T) {
	lines, err := ReadAll(&LinesReader{})
	assert.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Len(t, lines, 0)
}
