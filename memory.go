package okto

import (
	"errors"
	"fmt"
)

const (
	// MemorySize is the full addressable extent of a CHIP-8 machine.
	MemorySize = 4096

	// StartOfProgram is where ROMs are loaded and execution begins.
	StartOfProgram = 0x200

	// EndOfReserved is the last address of the interpreter-reserved
	// region; writes below this fail while protection is enabled.
	EndOfReserved = 0x1FF

	// StartOfFont is where the built-in hex glyphs live.
	StartOfFont = 0x050

	fontGlyphHeight = 5

	// MaxRomSize is the largest ROM that fits above the reserved region.
	MaxRomSize = MemorySize - StartOfProgram
)

var ErrRomTooLarge = errors.New("rom does not fit into program memory")

type OutOfBoundsError struct {
	Addr uint16
}

func (err OutOfBoundsError) Error() string {
	return fmt.Sprintf("address %#04x is out of bounds (max %#04x)", err.Addr, MemorySize-1)
}

type WriteProtectedError struct {
	Addr uint16
}

func (err WriteProtectedError) Error() string {
	return fmt.Sprintf("cannot write to reserved area at %#04x (write protection enabled)", err.Addr)
}

// WordBoundsError reports a 2-byte access whose second byte falls
// outside the memory extent.
type WordBoundsError struct {
	Addr uint16
}

func (err WordBoundsError) Error() string {
	return fmt.Sprintf("word access at %#04x would exceed memory bounds", err.Addr)
}

type InvalidFontDigitError struct {
	Digit byte
}

func (err InvalidFontDigitError) Error() string {
	return fmt.Sprintf("invalid font digit %d (must be 0-15)", err.Digit)
}

// fontSet holds the 16 built-in glyphs for the hex digits 0-F,
// 5 bytes per glyph, each byte one 4-pixel row.
var fontSet = [16 * fontGlyphHeight]byte{
	// 0
	0xF0, 0x90, 0x90, 0x90, 0xF0,
	// 1
	0x20, 0x60, 0x20, 0x20, 0x70,
	// 2
	0xF0, 0x10, 0xF0, 0x80, 0xF0,
	// 3
	0xF0, 0x10, 0xF0, 0x10, 0xF0,
	// 4
	0x90, 0x90, 0xF0, 0x10, 0x10,
	// 5
	0xF0, 0x80, 0xF0, 0x10, 0xF0,
	// 6
	0xF0, 0x80, 0xF0, 0x90, 0xF0,
	// 7
	0xF0, 0x10, 0x20, 0x40, 0x40,
	// 8
	0xF0, 0x90, 0xF0, 0x90, 0xF0,
	// 9
	0xF0, 0x90, 0xF0, 0x10, 0xF0,
	// A
	0xF0, 0x90, 0xF0, 0x90, 0x90,
	// B
	0xE0, 0x90, 0xE0, 0x90, 0xE0,
	// C
	0xF0, 0x80, 0x80, 0x80, 0xF0,
	// D
	0xE0, 0x90, 0x90, 0x90, 0xE0,
	// E
	0xF0, 0x80, 0xF0, 0x80, 0xF0,
	// F
	0xF0, 0x80, 0xF0, 0x80, 0x80,
}

// Memory is the flat 4KB address space of the machine. The region
// below StartOfProgram is reserved for the interpreter and can be made
// read-only at construction; the protection policy is fixed for the
// lifetime of the value.
type Memory struct {
	ram            [MemorySize]byte
	writeProtected bool
}

// NewMemory creates a memory with the font table loaded and write
// protection for the reserved area enabled.
func NewMemory() *Memory {
	return NewMemoryWithProtection(true)
}

// NewMemoryWithProtection creates a memory with an explicit protection
// policy for the reserved region.
func NewMemoryWithProtection(writeProtected bool) *Memory {
	mem := &Memory{writeProtected: writeProtected}
	mem.loadFont()

	return mem
}

func (mem *Memory) loadFont() {
	copy(mem.ram[StartOfFont:], fontSet[:])
}

// ReadByte reads a single byte, bounds-checked against the extent.
func (mem *Memory) ReadByte(addr uint16) (byte, error) {
	if int(addr) >= MemorySize {
		return 0, OutOfBoundsError{Addr: addr}
	}

	return mem.ram[addr], nil
}

// WriteByte writes a single byte. Writes into the reserved area fail
// while protection is enabled.
func (mem *Memory) WriteByte(addr uint16, value byte) error {
	if int(addr) >= MemorySize {
		return OutOfBoundsError{Addr: addr}
	}
	if mem.writeProtected && addr <= EndOfReserved {
		return WriteProtectedError{Addr: addr}
	}

	mem.ram[addr] = value

	return nil
}

// ReadWord reads a big-endian 16-bit value; the high byte sits at the
// lower address.
func (mem *Memory) ReadWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= MemorySize {
		return 0, WordBoundsError{Addr: addr}
	}

	return uint16(mem.ram[addr])<<8 | uint16(mem.ram[addr+1]), nil
}

// WriteWord writes a big-endian 16-bit value. Bounds and protection are
// validated up front so a failing write never mutates either byte.
func (mem *Memory) WriteWord(addr uint16, value uint16) error {
	if int(addr)+1 >= MemorySize {
		return WordBoundsError{Addr: addr}
	}
	if mem.writeProtected && addr <= EndOfReserved {
		return WriteProtectedError{Addr: addr}
	}

	mem.ram[addr] = byte(value >> 8)
	mem.ram[addr+1] = byte(value)

	return nil
}

// LoadROM copies the program into memory starting at StartOfProgram.
// An oversized ROM fails without touching memory.
func (mem *Memory) LoadROM(rom []byte) error {
	if len(rom) > MaxRomSize {
		return ErrRomTooLarge
	}

	copy(mem.ram[StartOfProgram:], rom)

	return nil
}

// FontAddress returns the address of the 5-byte glyph for a hex digit.
func (mem *Memory) FontAddress(digit byte) (uint16, error) {
	if digit > 0xF {
		return 0, InvalidFontDigitError{Digit: digit}
	}

	return StartOfFont + uint16(digit)*fontGlyphHeight, nil
}

// Reset zeroes all of memory and reloads the font table. The write
// protection policy is not affected.
func (mem *Memory) Reset() {
	mem.ram = [MemorySize]byte{}
	mem.loadFont()
}

// IsWriteProtected reports the construction-time protection policy.
func (mem *Memory) IsWriteProtected() bool {
	return mem.writeProtected
}

// Dump returns a read-only copy of the full extent for debugging and
// disassembly tools.
func (mem *Memory) Dump() []byte {
	out := make([]byte, MemorySize)
	copy(out, mem.ram[:])

	return out
}
