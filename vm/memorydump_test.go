package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDump_DumpsRegistersAndNonzeroCells(t *testing.T) {
	img, err := translateSource(t, "HALT")
	require.NoError(t, err)

	var out bytes.Buffer
	p := &MemoryDump{Out: &out}
	machine := NewVM(img, nil, strings.NewReader(""), &bytes.Buffer{})
	state, ierr := p.Init(machine)
	require.NoError(t, ierr)

	machine.Image.M[Reserved+500] = 7
	p.AfterExecution(machine, state, HALT)

	text := out.String()
	assert.Contains(t, text, "IP=")
	assert.Contains(t, text, "756: 7")
}

func TestMemoryDump_ElidesLongZeroRuns(t *testing.T) {
	img, err := translateSource(t, "HALT")
	require.NoError(t, err)

	var out bytes.Buffer
	p := &MemoryDump{Out: &out}
	machine := NewVM(img, nil, strings.NewReader(""), &bytes.Buffer{})
	state, ierr := p.Init(machine)
	require.NoError(t, ierr)

	p.AfterExecution(machine, state, HALT)
	assert.Contains(t, out.String(), "elided")
}

func TestMemoryDump_WarnsOnNonzeroReservedCell(t *testing.T) {
	img, err := translateSource(t, "HALT")
	require.NoError(t, err)

	var out bytes.Buffer
	p := &MemoryDump{Out: &out}
	machine := NewVM(img, nil, strings.NewReader(""), &bytes.Buffer{})
	state, ierr := p.Init(machine)
	require.NoError(t, ierr)

	machine.Image.M[10] = 99
	p.AfterExecution(machine, state, HALT)
	assert.Contains(t, out.String(), "reserved memory cell 10")
}
