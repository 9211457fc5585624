package vm

import (
	"bufio"
	"fmt"
	"io"
	"runtime/debug"
)

// RuntimeError reports an abort during interpretation: an unknown opcode
// or a trapped arithmetic fault (division/modulo by zero).
type RuntimeError struct {
	Opcode Word
	IP     Word
	Reason string
}

func (e *RuntimeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s at instruction %d (opcode %d)", e.Reason, e.IP, e.Opcode)
	}
	return fmt.Sprintf("unknown instruction with code %d", e.Opcode)
}

// InterpretParams configures a single Run call.
type InterpretParams struct {
	StepByStep bool
}

// VM is the machine: an image, its registers, and the plugin host that
// observes every step.
type VM struct {
	Image     *Image
	Registers Registers
	Host      *PluginHost

	stdin  *bufio.Reader
	stdout io.Writer
}

// NewVM builds a VM over img with registers in their initial state. stdin
// is consumed byte-by-byte by IN and by step-mode's wait; stdout receives
// OUT's byte writes.
func NewVM(img *Image, host *PluginHost, stdin io.Reader, stdout io.Writer) *VM {
	if host == nil {
		host = NewPluginHost()
	}
	return &VM{
		Image:     img,
		Registers: NewRegisters(),
		Host:      host,
		stdin:     bufio.NewReader(stdin),
		stdout:    stdout,
	}
}

// RunProgram executes the image with the garbage collector disabled for
// the duration of the run: the image and plugin state are allocated up
// front, and the tight fetch-decode-execute loop below is the one place
// an allocation or GC pause would actually be felt.
func (vm *VM) RunProgram(params InterpretParams) (Word, error) {
	gcPercent := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(gcPercent)
	return vm.Run(params)
}

// Run executes the image to completion, returning the value HALT popped,
// or an error when the run aborts on an unknown opcode, a trapped
// arithmetic fault, or a plugin init failure.
func (vm *VM) Run(params InterpretParams) (result Word, err error) {
	if err := vm.Host.initAll(vm); err != nil {
		return -1, err
	}

	defer func() {
		if r := recover(); r != nil {
			reason, _ := r.(string)
			if reason == "" {
				reason = "arithmetic fault"
			}
			err = &RuntimeError{Opcode: vm.Image.M[vm.Registers.IP-1], IP: vm.Registers.IP - 1, Reason: reason}
			result = -1
		}
	}()

	m := &vm.Image.M
	reg := &vm.Registers

	for {
		cmd := m[reg.IP]
		reg.IP++

		vm.Host.before(vm, cmd)

		switch cmd {
		case ADD:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x + y
		case SUB:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x - y
		case MUL:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x * y
		case DIV:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			if y == 0 {
				panic("division by zero")
			}
			m[reg.SP] = x / y
		case MOD:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			if y == 0 {
				panic("modulo by zero")
			}
			m[reg.SP] = x % y
		case NEG:
			m[reg.SP] = -m[reg.SP]

		case BITAND:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x & y
		case BITOR:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x | y
		case BITXOR:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x ^ y
		case BITNOT:
			m[reg.SP] = ^m[reg.SP]
		case LSHIFT:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x << uint32(y)
		case RSHIFT:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x >> uint32(y)

		case DUP:
			x := m[reg.SP]
			reg.SP--
			m[reg.SP] = x
		case DROP:
			reg.SP++
		case SWAP:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = y
			reg.SP--
			m[reg.SP] = x
		case ROT:
			z, y, x := m[reg.SP], m[reg.SP+1], m[reg.SP+2]
			reg.SP += 2
			m[reg.SP] = y
			reg.SP--
			m[reg.SP] = z
			reg.SP--
			m[reg.SP] = x
		case OVER:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = x
			reg.SP--
			m[reg.SP] = y
			reg.SP--
			m[reg.SP] = x
		case SDROP:
			y, _ := m[reg.SP], m[reg.SP+1]
			reg.SP++
			m[reg.SP] = y
		case DROP2:
			reg.SP += 2

		case LOAD:
			a := m[reg.SP]
			m[reg.SP] = m[a]
		case SAVE:
			v, a := m[reg.SP], m[reg.SP+1]
			reg.SP += 2
			m[a] = v

		case GETIP:
			reg.SP--
			m[reg.SP] = reg.IP
		case GETSP:
			x := reg.SP
			reg.SP--
			m[reg.SP] = x
		case GETFP:
			reg.SP--
			m[reg.SP] = reg.FP
		case GETRV:
			reg.SP--
			m[reg.SP] = reg.RV
		case SETSP:
			a := m[reg.SP]
			reg.SP = a
		case SETFP:
			a := m[reg.SP]
			reg.SP++
			reg.FP = a
		case SETRV:
			a := m[reg.SP]
			reg.SP++
			reg.RV = a

		case CMP:
			y, x := m[reg.SP], m[reg.SP+1]
			reg.SP++
			switch {
			case x < y:
				m[reg.SP] = -1
			case x > y:
				m[reg.SP] = 1
			default:
				m[reg.SP] = 0
			}

		case JMP: // also SETIP, RET: identical numeric opcode
			a := m[reg.SP]
			reg.SP++
			reg.IP = a
		case JLT:
			a, x := m[reg.SP], m[reg.SP+1]
			reg.SP += 2
			if x < 0 {
				reg.IP = a
			}
		case JGT:
			a, x := m[reg.SP], m[reg.SP+1]
			reg.SP += 2
			if x > 0 {
				reg.IP = a
			}
		case JEQ:
			a, x := m[reg.SP], m[reg.SP+1]
			reg.SP += 2
			if x == 0 {
				reg.IP = a
			}
		case JLE:
			a, x := m[reg.SP], m[reg.SP+1]
			reg.SP += 2
			if x <= 0 {
				reg.IP = a
			}
		case JGE:
			a, x := m[reg.SP], m[reg.SP+1]
			reg.SP += 2
			if x >= 0 {
				reg.IP = a
			}
		case JNE:
			a, x := m[reg.SP], m[reg.SP+1]
			reg.SP += 2
			if x != 0 {
				reg.IP = a
			}

		case CALL:
			a := m[reg.SP]
			m[reg.SP] = reg.IP
			reg.IP = a
		case RET2:
			a := m[reg.SP]
			reg.SP += 2
			reg.IP = a

		case IN:
			b, rerr := vm.stdin.ReadByte()
			reg.SP--
			if rerr != nil {
				m[reg.SP] = -1
			} else {
				m[reg.SP] = Word(b)
			}
		case OUT:
			c := m[reg.SP]
			reg.SP++
			// Write the raw byte: %c would UTF-8-encode values >= 128
			// instead of emitting them as single bytes.
			vm.stdout.Write([]byte{byte(c)})

		case HALT:
			// Matches the reference interpreter: HALT returns before the
			// after-hooks run, same as the unknown-opcode abort path.
			result = m[reg.SP]
			reg.SP++
			return result, nil

		default:
			if cmd < 0 {
				return -1, &RuntimeError{Opcode: cmd, IP: reg.IP - 1}
			}
			// Positive words are literals, not opcodes: push them.
			reg.SP--
			m[reg.SP] = cmd
		}

		vm.Host.after(vm, cmd)

		if params.StepByStep {
			fmt.Fprintf(vm.stdout, "step completed, press <Enter> to proceed")
			vm.stdin.ReadByte()
		}
	}
}
