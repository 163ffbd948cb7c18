package okto

import (
	"io"
	"os"
)

// Renderer draws the framebuffer somewhere visible. The emulator calls
// Render only on frames where the display changed.
type Renderer interface {
	// Boot initializes the component
	Boot() error
	Render(*Display) error
}

// DummyRenderer is a renderer that does nothing. Headless runs and
// tests use it.
type DummyRenderer struct{}

func NewDummyRenderer() *DummyRenderer {
	return &DummyRenderer{}
}

func (r DummyRenderer) Boot() error {
	return nil
}

func (r DummyRenderer) Render(*Display) error {
	return nil
}

const esc = 0x1B

// TerminalRenderer paints the framebuffer as text, two characters per
// pixel, repositioning the cursor instead of clearing so frames do not
// flicker.
type TerminalRenderer struct {
	terminal        io.Writer
	OnChar, OffChar string
}

func NewTerminalRenderer() *TerminalRenderer {
	return NewTerminalRendererWithOutput(os.Stdout)
}

func NewTerminalRendererWithOutput(out io.Writer) *TerminalRenderer {
	return &TerminalRenderer{
		terminal: out,
		OnChar:   "##",
		OffChar:  "  ",
	}
}

// Boot implements Renderer.
func (r *TerminalRenderer) Boot() error {
	_, err := r.terminal.Write([]byte{
		// Move cursor to start
		esc, '[', '1', 'H',
		// clear the terminal
		esc, '[', '0', 'J',
	})

	return err
}

func (r *TerminalRenderer) Render(d *Display) error {
	buff := make([]byte, 0, DisplayWidth*DisplayHeight*2+DisplayHeight*2+8)
	buff = append(buff, esc, '[', '1', 'H')
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			if d.Pixel(x, y) {
				buff = append(buff, r.OnChar...)
			} else {
				buff = append(buff, r.OffChar...)
			}
		}
		buff = append(buff, '|', '\n')
	}

	_, err := r.terminal.Write(buff)

	return err
}
