package vm

import (
	"fmt"
	"log/slog"
)

// MemOverseer is a before-hook plugin that tracks per-cell "definedness"
// (has this stack/heap cell ever been written by a defined value?),
// flags IP/SP range violations, and flags SAVE destinations that land in
// code or reserved memory.
type MemOverseer struct {
	Log *slog.Logger
}

// memOverseerState is the opaque per-run state created by Init. The
// definedness bitmap is a dense [Size]bool, not a map, per the design's
// explicit instruction to keep it a bit set.
type memOverseerState struct {
	defined   [Size]bool
	fpDefined bool
	rvDefined bool
	progSize  Word
}

func (p *MemOverseer) Name() string { return "MemOverseer" }

// Init succeeds exactly when the image's program size is available. The
// reference implementation this is ported from has the inverse condition
// (it fails when the lookup succeeds); this is the corrected behavior.
func (p *MemOverseer) Init(vm *VM) (any, error) {
	size, ok := vm.Image.ProgramSizeValue()
	if !ok {
		return nil, fmt.Errorf("program size unavailable")
	}
	return &memOverseerState{progSize: size}, nil
}

func (p *MemOverseer) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// checkStackPop warns when the next instruction's stack consumption would
// underflow or would read an undefined cell.
func (p *MemOverseer) checkStackPop(log *slog.Logger, st *memOverseerState, sp Word, n int) {
	from := sp
	to := sp + Word(n)
	for i := from; i < to; i++ {
		if i >= Size {
			log.Warn("next instruction will cause stack underflow")
			return
		}
		if !st.defined[i] {
			log.Warn("next instruction operates with undefined stack element")
			return
		}
	}
}

// AfterExecution is a no-op: MemOverseer only inspects state before an
// instruction runs.
func (p *MemOverseer) AfterExecution(vm *VM, state any, cmd Word) {}

func (p *MemOverseer) BeforeExecution(vm *VM, state any, cmd Word) {
	st := state.(*memOverseerState)
	log := p.logger()
	reg := vm.Registers

	if !(Reserved <= reg.IP && reg.IP <= st.progSize) {
		log.Warn("IP out of range [RESERVED, PROGRAM_SIZE]", "IP", reg.IP, "RESERVED", Reserved, "PROGRAM_SIZE", st.progSize)
	}
	if !(st.progSize < reg.SP) {
		log.Warn("stack overflow, SP <= PROGRAM_SIZE", "SP", reg.SP, "PROGRAM_SIZE", st.progSize)
	} else if !(reg.SP <= Size) {
		log.Warn("stack underflow, SP > SIZE", "SP", reg.SP, "SIZE", Size)
	}

	sp := reg.SP
	switch cmd {
	case ADD, SUB, MUL, DIV, MOD, BITAND, BITOR, BITXOR, LSHIFT, RSHIFT, CMP, SDROP:
		p.checkStackPop(log, st, sp, 2)
		st.defined[sp] = false
	case NEG, BITNOT:
		p.checkStackPop(log, st, sp, 1)
	case DUP:
		p.checkStackPop(log, st, sp, 1)
		st.defined[sp-1] = true
	case DROP:
		st.defined[sp] = false
	case SWAP:
		p.checkStackPop(log, st, sp, 2)
	case ROT:
		p.checkStackPop(log, st, sp, 3)
	case OVER:
		p.checkStackPop(log, st, sp, 2)
		st.defined[sp-1] = true
	case DROP2:
		st.defined[sp] = false
		st.defined[sp+1] = false
	case LOAD:
		p.checkStackPop(log, st, sp, 1)
		if !st.defined[vm.Image.M[sp]] {
			log.Warn("loading variable from undefined element of stack")
		}
	case SAVE:
		p.checkStackPop(log, st, sp, 2)
		addr := vm.Image.M[sp+1]
		if addr <= st.progSize {
			log.Warn("saving word to program memory or reserved memory")
		} else if addr >= Size {
			log.Error("saving word outside of memory")
		}
		if addr < Size {
			st.defined[addr] = true
		}
	case GETIP, GETSP:
		st.defined[sp-1] = true
	case GETFP:
		if !st.fpDefined {
			log.Warn("trying to get FP value but FP is undefined")
		}
		st.defined[sp-1] = true
	case GETRV:
		if !st.rvDefined {
			log.Warn("trying to get RV value but RV is undefined")
		}
		st.defined[sp-1] = true
	case SETSP:
		p.checkStackPop(log, st, sp, 1)
		st.defined[sp] = false
	case SETFP:
		p.checkStackPop(log, st, sp, 1)
		st.defined[sp] = false
		st.fpDefined = true
	case SETRV:
		p.checkStackPop(log, st, sp, 1)
		st.defined[sp] = false
		st.rvDefined = true
	case JMP:
		p.checkStackPop(log, st, sp, 1)
		st.defined[sp] = false
	case JLT, JGT, JEQ, JLE, JGE, JNE:
		p.checkStackPop(log, st, sp, 2)
		st.defined[sp] = false
		st.defined[sp+1] = false
	case RET2:
		// Only the return address (sp) must be defined; the frame slot
		// beneath it (sp+1) is discarded, not read.
		p.checkStackPop(log, st, sp, 1)
		st.defined[sp] = false
		st.defined[sp+1] = false
	case CALL:
		p.checkStackPop(log, st, sp, 1)
	case IN:
		st.defined[sp-1] = true
	case OUT, HALT:
		p.checkStackPop(log, st, sp, 1)
		st.defined[sp] = false
	default:
		// Positive literal push, or an opcode that has no stack effect
		// MemOverseer tracks.
		if cmd >= 0 {
			st.defined[sp-1] = true
		}
	}
}
