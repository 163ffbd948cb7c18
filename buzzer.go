package okto

import "io"

// Buzzer is told to play while the sound timer is active and to stop
// once it hits zero. Audio synthesis is out of scope, so the bundled
// implementations only track or signal the on/off state.
type Buzzer interface {
	// Boot initializes the component
	Boot() error
	Play()
	Stop()
}

type DummyBuzzer struct {
	IsPlaying bool
}

func NewDummyBuzzer() *DummyBuzzer {
	return &DummyBuzzer{}
}

// Boot implements Buzzer.
func (b *DummyBuzzer) Boot() error {
	return nil
}

// Play implements Buzzer.
func (b *DummyBuzzer) Play() {
	b.IsPlaying = true
}

// Stop implements Buzzer.
func (b *DummyBuzzer) Stop() {
	b.IsPlaying = false
}

// TerminalBuzzer rings the terminal bell when the beep starts.
type TerminalBuzzer struct {
	playing bool
	out     io.Writer
}

func NewTerminalBuzzer(out io.Writer) *TerminalBuzzer {
	return &TerminalBuzzer{out: out}
}

// Boot implements Buzzer.
func (b *TerminalBuzzer) Boot() error {
	return nil
}

// Play implements Buzzer.
func (b *TerminalBuzzer) Play() {
	if b.playing {
		return
	}
	b.playing = true
	b.out.Write([]byte{0x07})
}

// Stop implements Buzzer.
func (b *TerminalBuzzer) Stop() {
	b.playing = false
}
