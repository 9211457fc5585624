package vm

// Registers holds the four architectural registers of the machine.
type Registers struct {
	IP Word // instruction pointer
	SP Word // stack pointer
	FP Word // frame pointer, undefined until SETFP
	RV Word // return value, undefined until SETRV
}

// NewRegisters returns the register file in its initial state: IP at the
// first code word, SP at an empty stack, FP/RV undefined.
func NewRegisters() Registers {
	return Registers{
		IP: Reserved,
		SP: Size,
		FP: Undef,
		RV: Undef,
	}
}
