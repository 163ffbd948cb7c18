package okto

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// DisassembledInstruction is one decoded line of a program listing.
type DisassembledInstruction struct {
	Addr        uint16
	Opcode      uint16
	Instruction Instruction
}

func (d DisassembledInstruction) String() string {
	return fmt.Sprintf("0x%04X: %04X  %s", d.Addr, d.Opcode, d.Instruction.Mnemonic())
}

// Disassemble walks the ROM linearly from the program start address
// and decodes every word it can. CHIP-8 programs interleave code and
// sprite data with no marker between them, so the walk stops at the
// first zero word or undecodable opcode; everything before that point
// is very likely code, everything after is guesswork.
func Disassemble(rom []byte) []DisassembledInstruction {
	var out []DisassembledInstruction

	for offset := 0; offset+1 < len(rom); offset += 2 {
		opcode := binary.BigEndian.Uint16(rom[offset:])
		if opcode == 0 {
			break
		}

		in, err := Decode(opcode)
		if err != nil {
			break
		}

		out = append(out, DisassembledInstruction{
			Addr:        StartOfProgram + uint16(offset),
			Opcode:      opcode,
			Instruction: in,
		})
	}

	return out
}

// WriteDisassembly writes one formatted line per decoded instruction,
// followed by the usage summary.
func WriteDisassembly(w io.Writer, rom []byte) error {
	lines := Disassemble(rom)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return AnalyzeUsage(lines).WriteSummary(w)
}

// Usage counts how often each operation appears in a listing.
type Usage map[Op]int

func AnalyzeUsage(lines []DisassembledInstruction) Usage {
	usage := make(Usage)
	for _, line := range lines {
		usage[line.Instruction.Op]++
	}

	return usage
}

// WriteSummary prints the counts, most frequent first, name breaking
// ties so the output is stable.
func (u Usage) WriteSummary(w io.Writer) error {
	ops := make([]Op, 0, len(u))
	for op := range u {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if u[ops[i]] != u[ops[j]] {
			return u[ops[i]] > u[ops[j]]
		}
		return ops[i].String() < ops[j].String()
	})

	if _, err := fmt.Fprintln(w, "\nInstruction usage:"); err != nil {
		return err
	}
	for _, op := range ops {
		if _, err := fmt.Fprintf(w, "%s: %d\n", op, u[op]); err != nil {
			return err
		}
	}

	return nil
}
