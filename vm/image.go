package vm

// Coord is the source location a translated word came from: the file it
// was read out of, and the (row, col) of its leading character. Rows and
// columns are stored 1-indexed, ready for display.
type Coord struct {
	Filename string
	Row      int
	Col      int
}

// Image is the machine's flat memory together with its per-cell source
// coordinates and the translator-computed program size.
type Image struct {
	M           [Size]Word
	Coords      [Size]Coord
	ProgramSize Word
}

// NewImage allocates a zeroed image. Because Size is large (2^21 words),
// callers should keep at most one Image alive per run.
func NewImage() *Image {
	return &Image{}
}

// ProgramSizeValue returns the image's program size and whether
// translation has actually run (a zero-value Image reports false).
func (img *Image) ProgramSizeValue() (Word, bool) {
	return img.ProgramSize, img.ProgramSize >= Reserved
}
