package vm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translateSource(t *testing.T, src string) (*Image, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.asm")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	tr := NewTranslator()
	return tr.TranslateFiles([]string{path})
}

func TestTranslate_EmptySource_ProgramSizeEqualsReserved(t *testing.T) {
	img, err := translateSource(t, "")
	require.NoError(t, err)
	assert.Equal(t, Reserved, img.ProgramSize)
}

func TestTranslate_LabelOnly_EmitsNoWords(t *testing.T) {
	img, err := translateSource(t, ":only_a_label")
	require.NoError(t, err)
	assert.Equal(t, Reserved, img.ProgramSize)
}

func TestTranslate_Int32Min_Succeeds(t *testing.T) {
	img, err := translateSource(t, "-2147483648 HALT")
	require.NoError(t, err)
	assert.Equal(t, Word(-2147483648), img.M[Reserved])
}

func TestTranslate_Int32MaxPlusOne_FailsNumberTooBig(t *testing.T) {
	_, err := translateSource(t, "2147483648 HALT")
	require.Error(t, err)
	diags := err.(*Diagnostics)
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, NumberTooBig, diags.Errors[0].Kind)
}

func TestTranslate_Int32Max_Succeeds(t *testing.T) {
	img, err := translateSource(t, "2147483647 HALT")
	require.NoError(t, err)
	assert.Equal(t, Word(2147483647), img.M[Reserved])
}

func TestTranslate_Ident63Bytes_Succeeds(t *testing.T) {
	ident := strings.Repeat("a", MaxIdentLength)
	_, err := translateSource(t, ":"+ident+"\nHALT")
	require.NoError(t, err)
}

func TestTranslate_Ident64Bytes_FailsIdentTooLong(t *testing.T) {
	ident := strings.Repeat("a", MaxIdentLength+1)
	_, err := translateSource(t, ":"+ident+"\nHALT")
	require.Error(t, err)
	diags := err.(*Diagnostics)
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, IdentTooLong, diags.Errors[0].Kind)
}

func TestTranslate_UnknownIdent(t *testing.T) {
	_, err := translateSource(t, "never_defined HALT")
	require.Error(t, err)
	diags := err.(*Diagnostics)
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, UnknownIdent, diags.Errors[0].Kind)
}

func TestTranslate_LabelRedefinition(t *testing.T) {
	_, err := translateSource(t, ":loop HALT :loop HALT")
	require.Error(t, err)
	diags := err.(*Diagnostics)
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, LabelRedefinition, diags.Errors[0].Kind)
}

func TestTranslate_KeywordRedefinition(t *testing.T) {
	_, err := translateSource(t, ":ADD HALT")
	require.Error(t, err)
	diags := err.(*Diagnostics)
	require.Len(t, diags.Errors, 1)
	assert.Equal(t, KeywordRedefinition, diags.Errors[0].Kind)
}

func runScenario(t *testing.T, src string, stdin string) (Word, string) {
	t.Helper()
	img, err := translateSource(t, src)
	require.NoError(t, err)

	var out bytes.Buffer
	machine := NewVM(img, nil, strings.NewReader(stdin), &out)
	result, rerr := machine.Run(InterpretParams{})
	require.NoError(t, rerr)
	return result, out.String()
}

func TestScenario_PushAndHalt(t *testing.T) {
	result, _ := runScenario(t, "42 HALT", "")
	assert.Equal(t, Word(42), result)
}

func TestScenario_Arithmetic(t *testing.T) {
	result, _ := runScenario(t, "3 4 ADD HALT", "")
	assert.Equal(t, Word(7), result)
}

func TestScenario_EchoOneByte(t *testing.T) {
	result, out := runScenario(t, "IN OUT 0 HALT", "A")
	assert.Equal(t, Word(0), result)
	assert.Equal(t, "A", out)
}

func TestScenario_BranchTaken(t *testing.T) {
	result, _ := runScenario(t, "0 skip JEQ\n999 HALT\n:skip\n42 HALT", "")
	assert.Equal(t, Word(42), result)
}

func TestScenario_ConditionalNotTaken(t *testing.T) {
	result, _ := runScenario(t, "5 skip JEQ\n999 HALT\n:skip\n42 HALT", "")
	assert.Equal(t, Word(999), result)
}

func TestScenario_LoadSaveRoundTrip(t *testing.T) {
	result, _ := runScenario(t, "5000 99 SAVE 5000 LOAD HALT", "")
	assert.Equal(t, Word(99), result)
}
