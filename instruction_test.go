package okto_test

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	okto "github.com/guslan/okto"
)

func TestDecodeOperands(t *testing.T) {
	in, err := okto.Decode(0xD123)
	assert.NoError(t, err)

	assert.Equal(t, okto.OpDraw, in.Op)
	assert.Equal(t, uint16(0xD123), in.Opcode)
	assert.Equal(t, byte(0x1), in.Vx)
	assert.Equal(t, byte(0x2), in.Vy)
	assert.Equal(t, byte(0x3), in.N)
	assert.Equal(t, byte(0x23), in.NN)
	assert.Equal(t, uint16(0x123), in.Addr)
}

func TestDecodeEveryOperation(t *testing.T) {
	tests := []struct {
		opcode uint16
		op     okto.Op
	}{
		{0x00E0, okto.OpClearScreen},
		{0x00EE, okto.OpReturn},
		{0x0123, okto.OpSystem},
		{0x1234, okto.OpJump},
		{0x2345, okto.OpCall},
		{0x3122, okto.OpSkipIfEqual},
		{0x4122, okto.OpSkipIfNotEqual},
		{0x5120, okto.OpSkipIfRegistersEqual},
		{0x6122, okto.OpSetRegister},
		{0x7122, okto.OpAddToRegister},
		{0x8120, okto.OpCopyRegister},
		{0x8121, okto.OpOr},
		{0x8122, okto.OpAnd},
		{0x8123, okto.OpXor},
		{0x8124, okto.OpAddRegisters},
		{0x8125, okto.OpSubtractRegisters},
		{0x8126, okto.OpShiftRight},
		{0x8127, okto.OpSubtractReversed},
		{0x812E, okto.OpShiftLeft},
		{0x9120, okto.OpSkipIfRegistersNotEqual},
		{0xA123, okto.OpSetIndex},
		{0xB123, okto.OpJumpWithOffset},
		{0xC122, okto.OpRandom},
		{0xD123, okto.OpDraw},
		{0xE19E, okto.OpSkipIfKeyPressed},
		{0xE1A1, okto.OpSkipIfKeyNotPressed},
		{0xF107, okto.OpReadDelayTimer},
		{0xF10A, okto.OpWaitForKey},
		{0xF115, okto.OpSetDelayTimer},
		{0xF118, okto.OpSetSoundTimer},
		{0xF11E, okto.OpAddToIndex},
		{0xF129, okto.OpLoadFontGlyph},
		{0xF133, okto.OpStoreBCD},
		{0xF155, okto.OpStoreRegisters},
		{0xF165, okto.OpLoadRegisters},
	}

	for _, tt := range tests {
		in, err := okto.Decode(tt.opcode)
		assert.NoError(t, err, "opcode 0x%04X", tt.opcode)
		assert.Equal(t, tt.op, in.Op, "opcode 0x%04X", tt.opcode)
	}
}

func TestDecodeUnknownOpcodes(t *testing.T) {
	for _, opcode := range []uint16{0x5121, 0x8128, 0x812F, 0x9121, 0xE100, 0xF100, 0xF1FF} {
		_, err := okto.Decode(opcode)

		var unknown okto.UnknownOpcodeError
		assert.True(t, errors.As(err, &unknown), "opcode 0x%04X", opcode)
		assert.Equal(t, opcode, unknown.Opcode)
	}
}

// TestDecodeIsTotal sweeps the whole opcode space: every word either
// decodes or fails cleanly.
func TestDecodeIsTotal(t *testing.T) {
	decoded := 0
	for opcode := 0; opcode <= 0xFFFF; opcode++ {
		in, err := okto.Decode(uint16(opcode))
		if err != nil {
			var unknown okto.UnknownOpcodeError
			assert.True(t, errors.As(err, &unknown))
			continue
		}

		decoded++
		assert.Equal(t, uint16(opcode), in.Opcode)
	}

	assert.True(t, decoded > 0)
}

func TestInstructionClassification(t *testing.T) {
	skip, err := okto.Decode(0x3122)
	assert.NoError(t, err)
	assert.True(t, skip.IsSkip())
	assert.False(t, skip.IsJump())

	jump, err := okto.Decode(0x1234)
	assert.NoError(t, err)
	assert.True(t, jump.IsJump())
	assert.False(t, jump.IsSkip())

	ret, err := okto.Decode(0x00EE)
	assert.NoError(t, err)
	assert.True(t, ret.IsJump())

	load, err := okto.Decode(0x6122)
	assert.NoError(t, err)
	assert.False(t, load.IsSkip())
	assert.False(t, load.IsJump())
}

func TestMnemonics(t *testing.T) {
	tests := []struct {
		opcode uint16
		want   string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x1234, "JP $234"},
		{0x2345, "CALL $345"},
		{0x6A02, "LD VA, $02"},
		{0x7B10, "ADD VB, $10"},
		{0x8AB0, "LD VA, VB"},
		{0x8AB4, "ADD VA, VB"},
		{0xA2EA, "LD I, $2EA"},
		{0xC00F, "RND V0, $0F"},
		{0xD015, "DRW V0, V1, $5"},
		{0xE09E, "SKP V0"},
		{0xF00A, "LD V0, K"},
		{0xF033, "LD B, V0"},
		{0xF155, "LD [I], V1"},
		{0xF165, "LD V1, [I]"},
	}

	for _, tt := range tests {
		in, err := okto.Decode(tt.opcode)
		assert.NoError(t, err, "opcode 0x%04X", tt.opcode)
		assert.Equal(t, tt.want, in.Mnemonic(), "opcode 0x%04X", tt.opcode)
	}
}
