package vm

import "fmt"

const int32Max = 1<<31 - 1

// Translator runs the two-pass assembler over a sequence of source files
// that share one symbol table. Emission continues across files: each
// file's pass 1 resumes from the cursor left by the previous file, and
// its pass 2 rewinds only to that file's own starting cursor.
type Translator struct {
	Symbols *SymbolTable
	Diags   *Diagnostics

	image      *Image
	current    Word
	fileStart  Word // current's value at the start of the file being translated
}

// NewTranslator returns a translator with a freshly keyword-populated
// symbol table and an empty image, cursor positioned at the first code
// word.
func NewTranslator() *Translator {
	return &Translator{
		Symbols: NewSymbolTable(),
		Diags:   &Diagnostics{},
		image:   NewImage(),
		current: Reserved,
	}
}

// TranslateFiles translates filenames in order into a single image. It
// returns the image regardless of errors (callers must check Diags before
// trusting it), along with a non-nil error when any diagnostic was
// collected.
func (t *Translator) TranslateFiles(filenames []string) (*Image, error) {
	for _, filename := range filenames {
		buf, rerr := ReadSourceFile(filename)
		if rerr != nil {
			t.Diags.Add(rerr)
			return t.image, t.Diags
		}
		t.translateFile(buf)
	}

	if err := t.Symbols.Put("PROGRAM_SIZE", IdentInfo{Address: t.current, IsUserDefined: false}); err != nil {
		t.Diags.Add(&Error{Kind: TooManyIdents})
	}
	t.image.ProgramSize = t.current

	if t.Diags.HasErrors() {
		return t.image, t.Diags
	}
	return t.image, nil
}

// translateFile runs pass 1 then pass 2 over a single already-loaded
// buffer, recovering from errors by skipping to the next whitespace and
// resuming, exactly as the reference translator does.
func (t *Translator) translateFile(buf *SourceBuffer) {
	t.fileStart = t.current

	for {
		err := t.pass1(buf)
		if err == nil {
			break
		}
		t.Diags.Add(err)
		buf.SkipToWhitespace()
		if buf.AtEnd() {
			break
		}
	}

	// PROGRAM_SIZE reflects this file's end until a later file overwrites
	// it; the final file's value is the one that survives.
	_ = t.Symbols.Put("PROGRAM_SIZE", IdentInfo{Address: t.current, IsUserDefined: false})

	fileEnd := t.current
	t.current = t.fileStart
	buf.Reset()

	for {
		err := t.pass2(buf)
		if err == nil {
			break
		}
		t.Diags.Add(err)
		buf.SkipToWhitespace()
		if buf.AtEnd() {
			break
		}
	}

	// Pass 2 must land on the same cursor pass 1 computed; if it didn't
	// (possible only when pass 2 errored out before reaching the end),
	// trust pass 1's bookkeeping for the next file's start address.
	t.current = fileEnd
}

// pass1 walks tokens from the buffer's current position to end-of-input,
// computing addresses and recording labels. It returns on the buffer's
// first error, matching the reference FirstPass's single-error-per-call
// shape; translateFile's loop handles recovery and re-entry.
func (t *Translator) pass1(buf *SourceBuffer) *Error {
	for !buf.AtEnd() {
		buf.SkipUnnecessary()
		if buf.AtEnd() {
			break
		}

		switch {
		case buf.Current() == ':':
			identPos := buf.Pos
			buf.Advance()
			ident, err := t.parseIdent(buf)
			if err != nil {
				return err
			}
			if existing, found := t.Symbols.Get(ident); found {
				if existing.IsUserDefined {
					return t.diagError(buf, LabelRedefinition)
				}
				return t.diagError(buf, KeywordRedefinition)
			}
			if perr := t.Symbols.Put(ident, IdentInfo{Address: t.current, IsUserDefined: true, Position: identPos}); perr != nil {
				return &Error{Kind: TooManyIdents}
			}

		case buf.Current() == '-' || buf.Current() == '+' || IsDigit(buf.Current()):
			// Corrected rule: every integer literal advances the cursor
			// exactly once, regardless of sign.
			t.current++
			buf.Advance()
			for !buf.AtEnd() && IsDigit(buf.Current()) {
				buf.Advance()
			}
			if !buf.AtEnd() && !IsWhitespace(buf.Current()) {
				return t.diagError(buf, UnexpectedCharacter)
			}

		case IsLetter(buf.Current()) || buf.Current() == '_':
			t.current++
			if _, err := t.parseIdent(buf); err != nil {
				return err
			}
			if !buf.AtEnd() && !IsWhitespace(buf.Current()) {
				return t.diagError(buf, UnexpectedCharacter)
			}

		default:
			return t.diagError(buf, UnexpectedCharacter)
		}
	}
	return nil
}

// pass2 re-walks the same tokens, emitting words and coordinates into the
// image. Its cursor starts at the file's starting address (the caller
// rewinds it) so addresses line up with what pass 1 computed.
func (t *Translator) pass2(buf *SourceBuffer) *Error {
	for !buf.AtEnd() {
		buf.SkipUnnecessary()
		if buf.AtEnd() {
			break
		}

		switch {
		case buf.Current() == ':':
			for !buf.AtEnd() && !IsWhitespace(buf.Current()) {
				buf.Advance()
			}

		case buf.Current() == '-' || buf.Current() == '+' || IsDigit(buf.Current()):
			startPos := buf.Pos
			isNeg := buf.Current() == '-'
			if buf.Current() == '-' || buf.Current() == '+' {
				buf.Advance()
			}

			var magnitude int64
			for !buf.AtEnd() && IsDigit(buf.Current()) {
				magnitude = magnitude*10 + int64(buf.Current()-'0')
				buf.Advance()
			}

			var value Word
			if isNeg {
				if magnitude > 1<<31 {
					return t.diagError(buf, NumberTooBig)
				}
				value = Word(-magnitude)
			} else {
				if magnitude > int32Max {
					return t.diagError(buf, NumberTooBig)
				}
				value = Word(magnitude)
			}

			t.image.M[t.current] = value
			t.image.Coords[t.current] = Coord{Filename: buf.Filename, Row: startPos.Row + 1, Col: startPos.Col + 1}
			t.current++

			if !buf.AtEnd() && !IsWhitespace(buf.Current()) {
				return t.diagError(buf, UnexpectedCharacter)
			}

		case IsLetter(buf.Current()) || buf.Current() == '_':
			startPos := buf.Pos
			ident, err := t.parseIdent(buf)
			if err != nil {
				return err
			}
			info, found := t.Symbols.Get(ident)
			if !found {
				return t.diagError(buf, UnknownIdent)
			}
			t.image.M[t.current] = info.Address
			t.image.Coords[t.current] = Coord{Filename: buf.Filename, Row: startPos.Row + 1, Col: startPos.Col + 1}
			t.current++

			if !buf.AtEnd() && !IsWhitespace(buf.Current()) {
				return t.diagError(buf, UnexpectedCharacter)
			}

		default:
			return t.diagError(buf, UnexpectedCharacter)
		}
	}
	return nil
}

// parseIdent reads one identifier starting at the buffer's current byte,
// which must be a letter or underscore. Hyphens and digits are permitted
// after the first character.
func (t *Translator) parseIdent(buf *SourceBuffer) (string, *Error) {
	if buf.AtEnd() || IsWhitespace(buf.Current()) {
		return "", t.diagError(buf, EmptyLabel)
	}
	if !IsAllowedChar(buf.Current()) {
		return "", t.diagError(buf, UnexpectedCharacter)
	}
	if !IsLetter(buf.Current()) && buf.Current() != '_' {
		return "", t.diagError(buf, UnexpectedCharacter)
	}

	ident := make([]byte, 0, MaxIdentLength+1)
	ident = append(ident, buf.Current())
	buf.Advance()

	for !buf.AtEnd() && len(ident) < MaxIdentLength+1 &&
		(IsAlphaNumeric(buf.Current()) || buf.Current() == '-' || buf.Current() == '_') {
		ident = append(ident, buf.Current())
		buf.Advance()
	}

	if len(ident) == MaxIdentLength+1 {
		return "", t.diagError(buf, IdentTooLong)
	}
	return string(ident), nil
}

// diagError builds a located diagnostic from the buffer's current
// position, underlining the token that position falls on or immediately
// follows.
func (t *Translator) diagError(buf *SourceBuffer, kind ErrorKind) *Error {
	obs := buf.Observed()
	n := buf.Len()

	probe := obs
	if probe > 0 && (probe >= n || IsWhitespace(buf.ByteAt(probe))) {
		probe--
	}

	wordStart := probe
	for wordStart > 0 && !IsWhitespace(buf.ByteAt(wordStart-1)) {
		wordStart--
	}
	wordEnd := probe
	for wordEnd+1 < n && !IsWhitespace(buf.ByteAt(wordEnd+1)) {
		wordEnd++
	}

	lineStart := obs - buf.Pos.Col
	if lineStart < 0 {
		lineStart = 0
	}
	lineEnd := obs
	for lineEnd < n && buf.ByteAt(lineEnd) != '\n' {
		lineEnd++
	}

	line := make([]byte, 0, lineEnd-lineStart)
	for i := lineStart; i < lineEnd; i++ {
		line = append(line, buf.ByteAt(i))
	}

	return &Error{
		Kind:     kind,
		Pos:      Coord{Filename: buf.Filename, Row: buf.Pos.Row + 1, Col: buf.Pos.Col + 1},
		Line:     string(line),
		ColStart: max0(wordStart - lineStart),
		ColEnd:   max0(wordEnd - lineStart),
	}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// Disassemble renders one line per emitted word, in the format the
// reference driver prints unconditionally after translation.
func Disassemble(img *Image) []string {
	lines := make([]string, 0, img.ProgramSize-Reserved)
	for i := Reserved; i < img.ProgramSize; i++ {
		c := img.Coords[i]
		lines = append(lines, fmt.Sprintf("%3d %4d    %s:%d:%d", i, img.M[i], c.Filename, c.Row, c.Col))
	}
	return lines
}
