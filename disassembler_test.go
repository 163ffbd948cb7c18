package okto_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"

	okto "github.com/guslan/okto"
)

func TestDisassemble(t *testing.T) {
	rom := []byte{
		0x60, 0x0A, // LD V0, $0A
		0xA2, 0x20, // LD I, $220
		0xD0, 0x05, // DRW V0, V0, $5
		0x12, 0x00, // JP $200
	}

	lines := okto.Disassemble(rom)
	assert.Len(t, lines, 4)

	var got []string
	for _, line := range lines {
		got = append(got, line.String())
	}

	want := []string{
		"0x0200: 600A  LD V0, $0A",
		"0x0202: A220  LD I, $220",
		"0x0204: D005  DRW V0, V0, $5",
		"0x0206: 1200  JP $200",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("disassembly mismatch (-want +got):\n%s", diff)
	}
}

func TestDisassembleStopsAtZeroWord(t *testing.T) {
	rom := []byte{
		0x60, 0x0A,
		0x00, 0x00, // padding before sprite data
		0xFF, 0xFF,
	}

	lines := okto.Disassemble(rom)
	assert.Len(t, lines, 1)
}

func TestDisassembleStopsAtUndecodableWord(t *testing.T) {
	rom := []byte{
		0x60, 0x0A,
		0xF0, 0xFF, // not an instruction, likely sprite data
		0x60, 0x0B,
	}

	lines := okto.Disassemble(rom)
	assert.Len(t, lines, 1)
}

func TestDisassembleIgnoresTrailingByte(t *testing.T) {
	lines := okto.Disassemble([]byte{0x60, 0x0A, 0x12})
	assert.Len(t, lines, 1)

	assert.Len(t, okto.Disassemble(nil), 0)
	assert.Len(t, okto.Disassemble([]byte{0x60}), 0)
}

func TestWriteDisassembly(t *testing.T) {
	rom := []byte{
		0x00, 0xE0, // CLS
		0x12, 0x00, // JP $200
	}

	var sb strings.Builder
	assert.NoError(t, okto.WriteDisassembly(&sb, rom))

	want := "0x0200: 00E0  CLS\n" +
		"0x0202: 1200  JP $200\n" +
		"\nInstruction usage:\n" +
		"ClearScreen: 1\n" +
		"Jump: 1\n"
	assert.Equal(t, want, sb.String())
}

func TestAnalyzeUsage(t *testing.T) {
	rom := []byte{
		0x60, 0x01, // LD V0, $01
		0x61, 0x02, // LD V1, $02
		0xD0, 0x15, // DRW V0, V1, $5
		0x12, 0x00, // JP $200
	}

	usage := okto.AnalyzeUsage(okto.Disassemble(rom))

	assert.Equal(t, 2, usage[okto.OpSetRegister])
	assert.Equal(t, 1, usage[okto.OpDraw])
	assert.Equal(t, 1, usage[okto.OpJump])
	assert.Equal(t, 0, usage[okto.OpCall])
}
