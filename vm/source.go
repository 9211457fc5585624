package vm

import "os"

// SourceBuffer holds one source file's bytes together with a monotonic
// byte cursor and its mirrored (row, col) position. Rows/cols are
// 0-indexed internally; callers add 1 when rendering diagnostics.
type SourceBuffer struct {
	Filename string
	text     []byte
	observed int
	Pos      Position
}

// ReadSourceFile loads filename's contents into a fresh SourceBuffer,
// enforcing the filename-length and program-size limits.
func ReadSourceFile(filename string) (*SourceBuffer, *Error) {
	if len(filename) > MaxFilenameLength {
		return nil, &Error{Kind: FilenameTooLong}
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &Error{Kind: CantReadFile}
	}
	if len(data) > ProgramTextSize {
		return nil, &Error{Kind: ProgramTooLong}
	}

	return &SourceBuffer{Filename: filename, text: data}, nil
}

// Reset rewinds the cursor and position to the start of the buffer,
// without touching the underlying bytes. Used between pass 1 and pass 2.
func (s *SourceBuffer) Reset() {
	s.observed = 0
	s.Pos = Position{}
}

func (s *SourceBuffer) AtEnd() bool {
	return s.observed >= len(s.text)
}

func (s *SourceBuffer) Current() byte {
	return s.text[s.observed]
}

// Len, Observed and ByteAt expose the raw buffer for diagnostic rendering
// (finding token/line boundaries around a reported error position).
func (s *SourceBuffer) Len() int          { return len(s.text) }
func (s *SourceBuffer) Observed() int     { return s.observed }
func (s *SourceBuffer) ByteAt(i int) byte { return s.text[i] }

// Advance consumes the current byte, updating row/col bookkeeping. It does
// not special-case newlines; callers that need row/col to track logical
// lines use AdvanceNewline for the newline itself.
func (s *SourceBuffer) Advance() {
	s.observed++
	s.Pos.Col++
}

// AdvanceNewline consumes a newline byte and moves to the start of the
// next row.
func (s *SourceBuffer) AdvanceNewline() {
	s.observed++
	s.Pos.Row++
	s.Pos.Col = 0
}

// LineAt returns the full source line containing byte offset off, without
// the trailing newline, for use in diagnostics.
func (s *SourceBuffer) LineAt(off int) string {
	start := lineStart(s.text, off)
	end := off
	for end < len(s.text) && s.text[end] != '\n' {
		end++
	}
	return string(s.text[start:end])
}

func lineStart(text []byte, off int) int {
	i := off
	for i > 0 && text[i-1] != '\n' {
		i--
	}
	return i
}

func IsDigit(c byte) bool { return c >= '0' && c <= '9' }

func IsLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func IsAlphaNumeric(c byte) bool { return IsLetter(c) || IsDigit(c) }

func IsWhitespace(c byte) bool { return c == '\t' || c == '\n' || c == ' ' }

func IsAllowedChar(c byte) bool {
	return IsAlphaNumeric(c) ||
		IsWhitespace(c) ||
		c == ':' || c == '+' || c == '-' || c == '_' || c == ';'
}

// SkipUnnecessary skips runs of whitespace and line comments (';' to
// end-of-line, inclusive), exactly as the grammar's token separator rule
// requires.
func (s *SourceBuffer) SkipUnnecessary() {
	changed := true
	for !s.AtEnd() && changed {
		changed = false
		for !s.AtEnd() && IsWhitespace(s.Current()) {
			if s.Current() == '\n' {
				s.AdvanceNewline()
			} else {
				s.Advance()
			}
			changed = true
		}
		if s.AtEnd() {
			return
		}
		if s.Current() == ';' {
			for !s.AtEnd() && s.Current() != '\n' {
				s.observed++
			}
			if !s.AtEnd() {
				s.observed++
			}
			s.Pos.Row++
			s.Pos.Col = 0
			changed = true
		}
	}
}

// SkipToWhitespace implements the translator's error-recovery step: skip
// forward to the next whitespace byte (or end of input) without touching
// row/col tracking beyond a straight column advance, matching the
// reference implementation's recovery loop.
func (s *SourceBuffer) SkipToWhitespace() {
	for !s.AtEnd() && !IsWhitespace(s.Current()) {
		s.Advance()
	}
}
