package okto

import "fmt"

// Op identifies a decoded operation independently of its operands.
type Op int

const (
	OpClearScreen Op = iota
	OpReturn
	OpSystem
	OpJump
	OpCall
	OpSkipIfEqual
	OpSkipIfNotEqual
	OpSkipIfRegistersEqual
	OpSetRegister
	OpAddToRegister
	OpCopyRegister
	OpOr
	OpAnd
	OpXor
	OpAddRegisters
	OpSubtractRegisters
	OpShiftRight
	OpSubtractReversed
	OpShiftLeft
	OpSkipIfRegistersNotEqual
	OpSetIndex
	OpJumpWithOffset
	OpRandom
	OpDraw
	OpSkipIfKeyPressed
	OpSkipIfKeyNotPressed
	OpReadDelayTimer
	OpWaitForKey
	OpSetDelayTimer
	OpSetSoundTimer
	OpAddToIndex
	OpLoadFontGlyph
	OpStoreBCD
	OpStoreRegisters
	OpLoadRegisters
)

var opNames = map[Op]string{
	OpClearScreen:             "ClearScreen",
	OpReturn:                  "Return",
	OpSystem:                  "System",
	OpJump:                    "Jump",
	OpCall:                    "Call",
	OpSkipIfEqual:             "SkipIfEqual",
	OpSkipIfNotEqual:          "SkipIfNotEqual",
	OpSkipIfRegistersEqual:    "SkipIfRegistersEqual",
	OpSetRegister:             "SetRegister",
	OpAddToRegister:           "AddToRegister",
	OpCopyRegister:            "CopyRegister",
	OpOr:                      "Or",
	OpAnd:                     "And",
	OpXor:                     "Xor",
	OpAddRegisters:            "AddRegisters",
	OpSubtractRegisters:       "SubtractRegisters",
	OpShiftRight:              "ShiftRight",
	OpSubtractReversed:        "SubtractReversed",
	OpShiftLeft:               "ShiftLeft",
	OpSkipIfRegistersNotEqual: "SkipIfRegistersNotEqual",
	OpSetIndex:                "SetIndex",
	OpJumpWithOffset:          "JumpWithOffset",
	OpRandom:                  "Random",
	OpDraw:                    "Draw",
	OpSkipIfKeyPressed:        "SkipIfKeyPressed",
	OpSkipIfKeyNotPressed:     "SkipIfKeyNotPressed",
	OpReadDelayTimer:          "ReadDelayTimer",
	OpWaitForKey:              "WaitForKey",
	OpSetDelayTimer:           "SetDelayTimer",
	OpSetSoundTimer:           "SetSoundTimer",
	OpAddToIndex:              "AddToIndex",
	OpLoadFontGlyph:           "LoadFontGlyph",
	OpStoreBCD:                "StoreBCD",
	OpStoreRegisters:          "StoreRegisters",
	OpLoadRegisters:           "LoadRegisters",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}

	return fmt.Sprintf("Op(%d)", int(op))
}

// Instruction is a decoded opcode plus every operand field the
// instruction set uses. Fields not meaningful for the Op are zero.
type Instruction struct {
	Op     Op
	Opcode uint16

	Vx   byte
	Vy   byte
	N    byte
	NN   byte
	Addr uint16
}

type UnknownOpcodeError struct {
	Opcode uint16
}

func (err UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%04X", err.Opcode)
}

// Decode maps a raw 16-bit word to an Instruction. It is a pure
// function of its argument; the only possible failure is an opcode no
// instruction matches.
func Decode(opcode uint16) (Instruction, error) {
	in := Instruction{
		Opcode: opcode,
		Vx:     byte(opcode >> 8 & 0x0F),
		Vy:     byte(opcode >> 4 & 0x0F),
		N:      byte(opcode & 0x000F),
		NN:     byte(opcode & 0x00FF),
		Addr:   opcode & 0x0FFF,
	}

	switch opcode >> 12 {
	case 0x0:
		switch opcode {
		case 0x00E0:
			in.Op = OpClearScreen
		case 0x00EE:
			in.Op = OpReturn
		default:
			in.Op = OpSystem
		}
	case 0x1:
		in.Op = OpJump
	case 0x2:
		in.Op = OpCall
	case 0x3:
		in.Op = OpSkipIfEqual
	case 0x4:
		in.Op = OpSkipIfNotEqual
	case 0x5:
		if in.N != 0 {
			return Instruction{}, UnknownOpcodeError{Opcode: opcode}
		}
		in.Op = OpSkipIfRegistersEqual
	case 0x6:
		in.Op = OpSetRegister
	case 0x7:
		in.Op = OpAddToRegister
	case 0x8:
		switch in.N {
		case 0x0:
			in.Op = OpCopyRegister
		case 0x1:
			in.Op = OpOr
		case 0x2:
			in.Op = OpAnd
		case 0x3:
			in.Op = OpXor
		case 0x4:
			in.Op = OpAddRegisters
		case 0x5:
			in.Op = OpSubtractRegisters
		case 0x6:
			in.Op = OpShiftRight
		case 0x7:
			in.Op = OpSubtractReversed
		case 0xE:
			in.Op = OpShiftLeft
		default:
			return Instruction{}, UnknownOpcodeError{Opcode: opcode}
		}
	case 0x9:
		if in.N != 0 {
			return Instruction{}, UnknownOpcodeError{Opcode: opcode}
		}
		in.Op = OpSkipIfRegistersNotEqual
	case 0xA:
		in.Op = OpSetIndex
	case 0xB:
		in.Op = OpJumpWithOffset
	case 0xC:
		in.Op = OpRandom
	case 0xD:
		in.Op = OpDraw
	case 0xE:
		switch in.NN {
		case 0x9E:
			in.Op = OpSkipIfKeyPressed
		case 0xA1:
			in.Op = OpSkipIfKeyNotPressed
		default:
			return Instruction{}, UnknownOpcodeError{Opcode: opcode}
		}
	case 0xF:
		switch in.NN {
		case 0x07:
			in.Op = OpReadDelayTimer
		case 0x0A:
			in.Op = OpWaitForKey
		case 0x15:
			in.Op = OpSetDelayTimer
		case 0x18:
			in.Op = OpSetSoundTimer
		case 0x1E:
			in.Op = OpAddToIndex
		case 0x29:
			in.Op = OpLoadFontGlyph
		case 0x33:
			in.Op = OpStoreBCD
		case 0x55:
			in.Op = OpStoreRegisters
		case 0x65:
			in.Op = OpLoadRegisters
		default:
			return Instruction{}, UnknownOpcodeError{Opcode: opcode}
		}
	}

	return in, nil
}

// IsSkip reports whether the instruction can skip over its successor,
// which matters when walking code linearly.
func (in Instruction) IsSkip() bool {
	switch in.Op {
	case OpSkipIfEqual, OpSkipIfNotEqual, OpSkipIfRegistersEqual,
		OpSkipIfRegistersNotEqual, OpSkipIfKeyPressed, OpSkipIfKeyNotPressed:
		return true
	}

	return false
}

// IsJump reports whether the instruction unconditionally redirects
// control flow.
func (in Instruction) IsJump() bool {
	switch in.Op {
	case OpJump, OpJumpWithOffset, OpReturn:
		return true
	}

	return false
}

// Mnemonic formats the instruction in conventional assembly syntax.
func (in Instruction) Mnemonic() string {
	switch in.Op {
	case OpClearScreen:
		return "CLS"
	case OpReturn:
		return "RET"
	case OpSystem:
		return fmt.Sprintf("SYS $%03X", in.Addr)
	case OpJump:
		return fmt.Sprintf("JP $%03X", in.Addr)
	case OpCall:
		return fmt.Sprintf("CALL $%03X", in.Addr)
	case OpSkipIfEqual:
		return fmt.Sprintf("SE V%X, $%02X", in.Vx, in.NN)
	case OpSkipIfNotEqual:
		return fmt.Sprintf("SNE V%X, $%02X", in.Vx, in.NN)
	case OpSkipIfRegistersEqual:
		return fmt.Sprintf("SE V%X, V%X", in.Vx, in.Vy)
	case OpSetRegister:
		return fmt.Sprintf("LD V%X, $%02X", in.Vx, in.NN)
	case OpAddToRegister:
		return fmt.Sprintf("ADD V%X, $%02X", in.Vx, in.NN)
	case OpCopyRegister:
		return fmt.Sprintf("LD V%X, V%X", in.Vx, in.Vy)
	case OpOr:
		return fmt.Sprintf("OR V%X, V%X", in.Vx, in.Vy)
	case OpAnd:
		return fmt.Sprintf("AND V%X, V%X", in.Vx, in.Vy)
	case OpXor:
		return fmt.Sprintf("XOR V%X, V%X", in.Vx, in.Vy)
	case OpAddRegisters:
		return fmt.Sprintf("ADD V%X, V%X", in.Vx, in.Vy)
	case OpSubtractRegisters:
		return fmt.Sprintf("SUB V%X, V%X", in.Vx, in.Vy)
	case OpShiftRight:
		return fmt.Sprintf("SHR V%X", in.Vx)
	case OpSubtractReversed:
		return fmt.Sprintf("SUBN V%X, V%X", in.Vx, in.Vy)
	case OpShiftLeft:
		return fmt.Sprintf("SHL V%X", in.Vx)
	case OpSkipIfRegistersNotEqual:
		return fmt.Sprintf("SNE V%X, V%X", in.Vx, in.Vy)
	case OpSetIndex:
		return fmt.Sprintf("LD I, $%03X", in.Addr)
	case OpJumpWithOffset:
		return fmt.Sprintf("JP V0, $%03X", in.Addr)
	case OpRandom:
		return fmt.Sprintf("RND V%X, $%02X", in.Vx, in.NN)
	case OpDraw:
		return fmt.Sprintf("DRW V%X, V%X, $%X", in.Vx, in.Vy, in.N)
	case OpSkipIfKeyPressed:
		return fmt.Sprintf("SKP V%X", in.Vx)
	case OpSkipIfKeyNotPressed:
		return fmt.Sprintf("SKNP V%X", in.Vx)
	case OpReadDelayTimer:
		return fmt.Sprintf("LD V%X, DT", in.Vx)
	case OpWaitForKey:
		return fmt.Sprintf("LD V%X, K", in.Vx)
	case OpSetDelayTimer:
		return fmt.Sprintf("LD DT, V%X", in.Vx)
	case OpSetSoundTimer:
		return fmt.Sprintf("LD ST, V%X", in.Vx)
	case OpAddToIndex:
		return fmt.Sprintf("ADD I, V%X", in.Vx)
	case OpLoadFontGlyph:
		return fmt.Sprintf("LD F, V%X", in.Vx)
	case OpStoreBCD:
		return fmt.Sprintf("LD B, V%X", in.Vx)
	case OpStoreRegisters:
		return fmt.Sprintf("LD [I], V%X", in.Vx)
	case OpLoadRegisters:
		return fmt.Sprintf("LD V%X, [I]", in.Vx)
	}

	return fmt.Sprintf(".DW $%04X", in.Opcode)
}
