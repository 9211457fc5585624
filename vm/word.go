// Package vm implements the bipca stack machine and its two-pass translator.
package vm

// Word is the unit of memory, register content, and instruction opcode.
type Word = int32

const (
	// Size is the number of words in the machine's flat memory image.
	// The canonical value matches the original implementation's 2<<20.
	Size Word = 1 << 21

	// ProgramTextSize bounds the size in bytes of each translated source file.
	ProgramTextSize = 1 << 23

	// Reserved is the number of always-zero scratch words preceding the
	// translated program.
	Reserved Word = 256

	// MaxIdentLength is the maximum byte length of an identifier or label
	// name (a label definition's leading ':' is not counted).
	MaxIdentLength = 63

	// MaxNIdent bounds the symbol table's fixed capacity.
	MaxNIdent = 1 << 15

	// MaxFilenameLength bounds a single source file's path length.
	MaxFilenameLength = 255

	// MaxNFiles is the limit on the number of source files translated
	// together. TranslateFiles does not check it; any number of files is
	// accepted.
	MaxNFiles = 256

	// NMaxPlugins bounds the number of plugins a host may register.
	NMaxPlugins = 64
)

// Undef is the bit pattern used for registers that have not yet been
// assigned a meaningful value (FP, RV at startup).
const Undef Word = -559038737 // 0xDEADBEEF as a signed 32-bit word
