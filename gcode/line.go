package gcode

// Line is one tokenized source line. Text holds the trimmed source for
// diagnostics; Words may be empty for comment-only lines.
type Line struct {
	Text  string
	Words Block
}
