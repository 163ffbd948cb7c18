package okto

import (
	"crypto/rand"
	"fmt"
	"io"
)

const stackDepth = 16

var (
	ErrStackOverflow  = fmt.Errorf("call stack exceeds %d levels", stackDepth)
	ErrStackUnderflow = fmt.Errorf("return with an empty call stack")
)

type InvalidRegisterError struct {
	Register byte
}

func (err InvalidRegisterError) Error() string {
	return fmt.Sprintf("invalid register V%X", err.Register)
}

type InvalidProgramCounterError struct {
	Addr uint16
}

func (err InvalidProgramCounterError) Error() string {
	return fmt.Sprintf("program counter 0x%04X outside memory", err.Addr)
}

// InstructionError wraps any failure raised while executing an
// instruction, carrying the opcode and the address it was fetched from.
type InstructionError struct {
	Opcode uint16
	Addr   uint16
	Err    error
}

func (err InstructionError) Error() string {
	return fmt.Sprintf("instruction 0x%04X at 0x%04X failed: %s", err.Opcode, err.Addr, err.Err)
}

func (err InstructionError) Unwrap() error {
	return err.Err
}

// executionState tags what the next cycle will do. The zero value is
// stateRunning.
type executionState int

const (
	stateRunning executionState = iota
	stateWaitingForKey
)

// Cpu interprets instructions against a Memory, a Display and a
// Keyboard. It owns the registers, the program counter, the call stack
// and both timers. A Cpu is not safe for concurrent use; one cycle runs
// to completion before the next begins.
type Cpu struct {
	memory   *Memory
	display  *Display
	keyboard Keyboard

	v     [16]byte
	i     uint16
	pc    uint16
	stack [stackDepth]uint16
	sp    byte

	delayTimer byte
	soundTimer byte

	state  executionState
	waitVx byte

	// Rand feeds the random instruction. Tests swap it for a
	// deterministic reader.
	Rand io.Reader

	pcRepeats uint64
}

func NewCpu(memory *Memory, display *Display, keyboard Keyboard) *Cpu {
	return &Cpu{
		memory:   memory,
		display:  display,
		keyboard: keyboard,
		pc:       StartOfProgram,
		Rand:     rand.Reader,
	}
}

// Reset returns the interpreter to its power-on state. Memory and
// display contents are left alone; callers reset those separately.
func (cpu *Cpu) Reset() {
	cpu.v = [16]byte{}
	cpu.i = 0
	cpu.pc = StartOfProgram
	cpu.stack = [stackDepth]uint16{}
	cpu.sp = 0
	cpu.delayTimer = 0
	cpu.soundTimer = 0
	cpu.state = stateRunning
	cpu.waitVx = 0
	cpu.pcRepeats = 0
}

// ExecuteCycle runs exactly one fetch/decode/execute step, or one key
// poll when the interpreter is suspended on a wait-for-key. Errors are
// fatal for the run; there is no retry.
func (cpu *Cpu) ExecuteCycle() error {
	if cpu.state == stateWaitingForKey {
		if key, ok := cpu.keyboard.TryTakeKeyPress(); ok {
			cpu.v[cpu.waitVx] = key
			cpu.state = stateRunning
		}

		return nil
	}

	fetchAddr := cpu.pc
	opcode, err := cpu.fetch()
	if err != nil {
		return err
	}

	in, err := Decode(opcode)
	if err != nil {
		return InstructionError{Opcode: opcode, Addr: fetchAddr, Err: err}
	}

	if err := cpu.execute(in); err != nil {
		return InstructionError{Opcode: opcode, Addr: fetchAddr, Err: err}
	}

	if cpu.pc == fetchAddr {
		cpu.pcRepeats++
	} else {
		cpu.pcRepeats = 0
	}

	return nil
}

// fetch bounds-checks the program counter, reads the big-endian opcode
// and advances PC by 2 unconditionally. Jumps overwrite PC afterwards;
// skips add a further 2 on top of this advance.
func (cpu *Cpu) fetch() (uint16, error) {
	if int(cpu.pc)+1 >= MemorySize {
		return 0, InvalidProgramCounterError{Addr: cpu.pc}
	}

	opcode, err := cpu.memory.ReadWord(cpu.pc)
	if err != nil {
		return 0, err
	}
	cpu.pc += 2

	return opcode, nil
}

func (cpu *Cpu) execute(in Instruction) error {
	switch in.Op {
	case OpClearScreen:
		cpu.display.Clear()

	case OpReturn:
		if cpu.sp == 0 {
			return ErrStackUnderflow
		}
		cpu.sp--
		cpu.pc = cpu.stack[cpu.sp]

	case OpSystem:
		// Machine-code routines have no host to run on; ignored.

	case OpJump:
		cpu.pc = in.Addr

	case OpCall:
		if cpu.sp == stackDepth {
			return ErrStackOverflow
		}
		cpu.stack[cpu.sp] = cpu.pc
		cpu.sp++
		cpu.pc = in.Addr

	case OpSkipIfEqual:
		if cpu.v[in.Vx] == in.NN {
			cpu.pc += 2
		}

	case OpSkipIfNotEqual:
		if cpu.v[in.Vx] != in.NN {
			cpu.pc += 2
		}

	case OpSkipIfRegistersEqual:
		if cpu.v[in.Vx] == cpu.v[in.Vy] {
			cpu.pc += 2
		}

	case OpSetRegister:
		cpu.v[in.Vx] = in.NN

	case OpAddToRegister:
		cpu.v[in.Vx] += in.NN

	case OpCopyRegister:
		cpu.v[in.Vx] = cpu.v[in.Vy]

	case OpOr:
		cpu.v[in.Vx] |= cpu.v[in.Vy]

	case OpAnd:
		cpu.v[in.Vx] &= cpu.v[in.Vy]

	case OpXor:
		cpu.v[in.Vx] ^= cpu.v[in.Vy]

	case OpAddRegisters:
		sum := uint16(cpu.v[in.Vx]) + uint16(cpu.v[in.Vy])
		cpu.v[in.Vx] = byte(sum)
		cpu.v[0xF] = boolToFlag(sum > 0xFF)

	case OpSubtractRegisters:
		noBorrow := cpu.v[in.Vx] >= cpu.v[in.Vy]
		cpu.v[in.Vx] -= cpu.v[in.Vy]
		cpu.v[0xF] = boolToFlag(noBorrow)

	case OpShiftRight:
		bit := cpu.v[in.Vx] & 0x01
		cpu.v[in.Vx] >>= 1
		cpu.v[0xF] = bit

	case OpSubtractReversed:
		noBorrow := cpu.v[in.Vy] >= cpu.v[in.Vx]
		cpu.v[in.Vx] = cpu.v[in.Vy] - cpu.v[in.Vx]
		cpu.v[0xF] = boolToFlag(noBorrow)

	case OpShiftLeft:
		bit := (cpu.v[in.Vx] & 0x80) >> 7
		cpu.v[in.Vx] <<= 1
		cpu.v[0xF] = bit

	case OpSkipIfRegistersNotEqual:
		if cpu.v[in.Vx] != cpu.v[in.Vy] {
			cpu.pc += 2
		}

	case OpSetIndex:
		cpu.i = in.Addr

	case OpJumpWithOffset:
		cpu.pc = in.Addr + uint16(cpu.v[0])

	case OpRandom:
		var buf [1]byte
		if _, err := io.ReadFull(cpu.Rand, buf[:]); err != nil {
			return fmt.Errorf("reading random byte: %w", err)
		}
		cpu.v[in.Vx] = buf[0] & in.NN

	case OpDraw:
		rows := make([]byte, in.N)
		for r := range rows {
			b, err := cpu.memory.ReadByte(cpu.i + uint16(r))
			if err != nil {
				return err
			}
			rows[r] = b
		}
		collided, err := cpu.display.DrawSprite(cpu.v[in.Vx], cpu.v[in.Vy], rows)
		if err != nil {
			return err
		}
		cpu.v[0xF] = boolToFlag(collided)

	case OpSkipIfKeyPressed:
		if cpu.keyboard.IsPressed(cpu.v[in.Vx] & 0x0F) {
			cpu.pc += 2
		}

	case OpSkipIfKeyNotPressed:
		if !cpu.keyboard.IsPressed(cpu.v[in.Vx] & 0x0F) {
			cpu.pc += 2
		}

	case OpReadDelayTimer:
		cpu.v[in.Vx] = cpu.delayTimer

	case OpWaitForKey:
		if key, ok := cpu.keyboard.TryTakeKeyPress(); ok {
			cpu.v[in.Vx] = key
		} else {
			cpu.state = stateWaitingForKey
			cpu.waitVx = in.Vx
		}

	case OpSetDelayTimer:
		cpu.delayTimer = cpu.v[in.Vx]

	case OpSetSoundTimer:
		cpu.soundTimer = cpu.v[in.Vx]

	case OpAddToIndex:
		cpu.i += uint16(cpu.v[in.Vx])

	case OpLoadFontGlyph:
		addr, err := cpu.memory.FontAddress(cpu.v[in.Vx])
		if err != nil {
			return err
		}
		cpu.i = addr

	case OpStoreBCD:
		value := cpu.v[in.Vx]
		digits := [3]byte{value / 100, value / 10 % 10, value % 10}
		for d, digit := range digits {
			if err := cpu.memory.WriteByte(cpu.i+uint16(d), digit); err != nil {
				return err
			}
		}

	case OpStoreRegisters:
		for r := byte(0); r <= in.Vx; r++ {
			if err := cpu.memory.WriteByte(cpu.i+uint16(r), cpu.v[r]); err != nil {
				return err
			}
		}

	case OpLoadRegisters:
		for r := byte(0); r <= in.Vx; r++ {
			b, err := cpu.memory.ReadByte(cpu.i + uint16(r))
			if err != nil {
				return err
			}
			cpu.v[r] = b
		}
	}

	return nil
}

// UpdateTimers decrements both 60Hz timers by one, never below zero.
// The driving loop calls this at a fixed rate decoupled from the cycle
// rate.
func (cpu *Cpu) UpdateTimers() {
	if cpu.delayTimer > 0 {
		cpu.delayTimer--
	}
	if cpu.soundTimer > 0 {
		cpu.soundTimer--
	}
}

// ShouldBeep reports whether the sound timer is active.
func (cpu *Cpu) ShouldBeep() bool {
	return cpu.soundTimer > 0
}

// Waiting reports whether the interpreter is suspended on a
// wait-for-key, and which register the key will land in.
func (cpu *Cpu) Waiting() (byte, bool) {
	return cpu.waitVx, cpu.state == stateWaitingForKey
}

// Spinning reports whether the last executed instruction jumped back to
// its own address. Many ROMs end in such a loop deliberately, so this
// is a signal for drivers and debuggers, not an error.
func (cpu *Cpu) Spinning() bool {
	return cpu.pcRepeats > 0
}

func (cpu *Cpu) PC() uint16 {
	return cpu.pc
}

func (cpu *Cpu) Index() uint16 {
	return cpu.i
}

// Register returns the value of Vx, failing on indices outside V0..VF.
// Decoded instructions can never carry an invalid index; this guards
// external callers such as debuggers.
func (cpu *Cpu) Register(x byte) (byte, error) {
	if x > 0xF {
		return 0, InvalidRegisterError{Register: x}
	}

	return cpu.v[x], nil
}

// Registers returns a copy of V0..VF.
func (cpu *Cpu) Registers() [16]byte {
	return cpu.v
}

func (cpu *Cpu) DelayTimer() byte {
	return cpu.delayTimer
}

func (cpu *Cpu) SoundTimer() byte {
	return cpu.soundTimer
}

// StackDepth returns how many return addresses are currently pushed.
func (cpu *Cpu) StackDepth() int {
	return int(cpu.sp)
}

// Stack returns a copy of the pushed return addresses, innermost last.
func (cpu *Cpu) Stack() []uint16 {
	stack := make([]uint16, cpu.sp)
	copy(stack, cpu.stack[:cpu.sp])

	return stack
}

func boolToFlag(b bool) byte {
	if b {
		return 1
	}

	return 0
}
