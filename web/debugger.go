package web

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/retroenv/retrogolib/log"

	"github.com/guslan/okto"
)

// machineState is one debugger event, captured after a cycle.
type machineState struct {
	Opcode    uint16
	PC        uint16
	V         [16]byte
	I         uint16
	Stack     []uint16
	Delay     byte
	Sound     byte
	CycleSeen uint64
}

// Debugger streams machine state over a websocket after every executed
// cycle. Events are dropped when no client is connected or the client
// cannot keep up; debugging never stalls the emulator.
type Debugger struct {
	Emulator *okto.Emulator

	// SendEvery thins the stream: only every n-th cycle is sent.
	SendEvery uint64

	logger        *log.Logger
	currentOpcode uint16
	send          chan machineState
}

// NewDebugger registers cycle hooks on the emulator and pauses it so
// the client decides when execution starts.
func NewDebugger(emu *okto.Emulator, logger *log.Logger) *Debugger {
	deb := &Debugger{
		Emulator:  emu,
		SendEvery: 1,
		logger:    logger,
		send:      make(chan machineState, 16),
	}

	emu.AddBeforeCycleHook(deb.beforeCycle)
	emu.AddAfterCycleHook(deb.afterCycle)
	emu.Pause()

	return deb
}

func (d *Debugger) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Error("upgrading debugger socket", log.Err(err))
		return
	}
	defer conn.Close()

	d.logger.Info("debugger connected")

	for {
		select {
		case state := <-d.send:
			if err := conn.WriteMessage(websocket.BinaryMessage, encodeState(state)); err != nil {
				d.logger.Error("writing debugger message", log.Err(err))
				return
			}

		case <-r.Context().Done():
			d.logger.Info("debugger disconnected")
			return
		}
	}
}

func (d *Debugger) beforeCycle(emu *okto.Emulator) {
	opcode, err := emu.Memory.ReadWord(emu.Cpu.PC())
	if err != nil {
		// The cycle itself will surface this.
		return
	}
	d.currentOpcode = opcode
}

func (d *Debugger) afterCycle(emu *okto.Emulator) {
	if emu.Cycles()%d.SendEvery != 0 {
		return
	}

	state := machineState{
		Opcode:    d.currentOpcode,
		PC:        emu.Cpu.PC(),
		V:         emu.Cpu.Registers(),
		I:         emu.Cpu.Index(),
		Stack:     emu.Cpu.Stack(),
		Delay:     emu.Cpu.DelayTimer(),
		Sound:     emu.Cpu.SoundTimer(),
		CycleSeen: emu.Cycles(),
	}

	select {
	case d.send <- state:
	default:
	}
}

// encodeState lays the event out as fixed-width big-endian fields:
// opcode, PC, V0..VF, I, stack depth, 16 stack slots (unused ones
// zero), delay, sound, then display width and height.
func encodeState(state machineState) []byte {
	buf := make([]byte, 0, 64)

	buf = appendWord(buf, state.Opcode)
	buf = appendWord(buf, state.PC)
	buf = append(buf, state.V[:]...)
	buf = appendWord(buf, state.I)
	buf = append(buf, byte(len(state.Stack)))
	for i := 0; i < 16; i++ {
		var slot uint16
		if i < len(state.Stack) {
			slot = state.Stack[i]
		}
		buf = appendWord(buf, slot)
	}
	buf = append(buf, state.Delay, state.Sound)
	buf = append(buf, byte(okto.DisplayWidth), byte(okto.DisplayHeight))

	return buf
}

func appendWord(buf []byte, w uint16) []byte {
	return append(buf, byte(w>>8), byte(w))
}
