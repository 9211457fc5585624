package vm

import (
	"fmt"
	"io"
)

// minZerosWindow is the run length of consecutive zero cells that must be
// exceeded before MemoryDump elides the run with a placeholder line
// instead of printing every cell.
const minZerosWindow = 8

// MemoryDump is an after-hook plugin that prints the register file and a
// memory dump after each executed instruction. It never inspects anything
// before an instruction runs.
type MemoryDump struct {
	Out io.Writer
}

type memoryDumpState struct {
	progSize Word
}

func (p *MemoryDump) Name() string { return "MemoryDump" }

func (p *MemoryDump) Init(vm *VM) (any, error) {
	size, _ := vm.Image.ProgramSizeValue()
	return &memoryDumpState{progSize: size}, nil
}

func (p *MemoryDump) BeforeExecution(vm *VM, state any, cmd Word) {}

func (p *MemoryDump) out(vm *VM) io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return vm.stdout
}

// AfterExecution dumps registers and memory after every instruction. The
// reference plugin it is ported from runs unconditionally on each
// after-hook call (it has no notion of "only on halt"). HALT itself gets no
// dump, because the interpreter returns before calling after-hooks for it.
func (p *MemoryDump) AfterExecution(vm *VM, state any, cmd Word) {
	st := state.(*memoryDumpState)
	w := p.out(vm)

	fmt.Fprintf(w, "IP=%d SP=%d FP=%d RV=%d\n", vm.Registers.IP, vm.Registers.SP, vm.Registers.FP, vm.Registers.RV)

	p.checkReservedMemory(vm, w)
	p.dumpMemory(vm, st, w)
}

// checkReservedMemory warns about any nonzero cell in [0, RESERVED), which
// should only ever hold the zero value the image starts with.
func (p *MemoryDump) checkReservedMemory(vm *VM, w io.Writer) {
	for i := Word(0); i < Reserved; i++ {
		if vm.Image.M[i] != 0 {
			fmt.Fprintf(w, "warning: reserved memory cell %d is nonzero (%d)\n", i, vm.Image.M[i])
		}
	}
}

// dumpMemory prints one line per memory cell from RESERVED to SIZE,
// eliding runs of more than minZerosWindow consecutive zero cells with a
// single placeholder line so large, mostly-empty stacks stay readable.
func (p *MemoryDump) dumpMemory(vm *VM, st *memoryDumpState, w io.Writer) {
	m := &vm.Image.M
	i := Reserved
	for i < Size {
		if m[i] != 0 {
			fmt.Fprintf(w, "%7d: %d\n", i, m[i])
			i++
			continue
		}

		runStart := i
		for i < Size && m[i] == 0 {
			i++
		}
		runLen := i - runStart

		if runLen > minZerosWindow {
			fmt.Fprintf(w, "%7d: 0 ... (%d zero words elided)\n", runStart, runLen)
		} else {
			for j := runStart; j < i; j++ {
				fmt.Fprintf(w, "%7d: 0\n", j)
			}
		}
	}
}
