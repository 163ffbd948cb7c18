package okto

import (
	"errors"
	"fmt"
)

const (
	DisplayWidth  = 64
	DisplayHeight = 32

	// maxSpriteRows is fixed by the draw opcode: its height nibble can
	// encode at most 15 rows.
	maxSpriteRows = 15
)

var ErrEmptySprite = errors.New("sprite data is empty")

type SpriteTooTallError struct {
	Rows int
}

func (err SpriteTooTallError) Error() string {
	return fmt.Sprintf("sprite too tall: %d rows (max %d)", err.Rows, maxSpriteRows)
}

// Display is the 64x32 monochrome framebuffer. The only mutations the
// interpreter performs are Clear and DrawSprite; everything else exists
// for renderers and tests.
type Display struct {
	fb    [DisplayHeight][DisplayWidth]bool
	dirty bool
}

func NewDisplay() *Display {
	return &Display{}
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	d.fb = [DisplayHeight][DisplayWidth]bool{}
	d.dirty = true
}

// DrawSprite XORs the sprite rows onto the framebuffer at (x, y), one
// byte per row, bit 7 leftmost. Coordinates wrap via modulo rather than
// clip. It reports whether any pixel transitioned from on to off; the
// collision flag accumulates over the whole sprite.
func (d *Display) DrawSprite(x, y byte, rows []byte) (bool, error) {
	if len(rows) == 0 {
		return false, ErrEmptySprite
	}
	if len(rows) > maxSpriteRows {
		return false, SpriteTooTallError{Rows: len(rows)}
	}

	collided := false
	for r, row := range rows {
		screenY := (int(y) + r) % DisplayHeight

		for b := 0; b < 8; b++ {
			if row&(1<<(7-byte(b))) == 0 {
				continue
			}

			screenX := (int(x) + b) % DisplayWidth
			was := d.fb[screenY][screenX]
			d.fb[screenY][screenX] = !was
			if was {
				collided = true
			}
		}
	}
	d.dirty = true

	return collided, nil
}

// Pixel returns the state of a cell; out-of-range coordinates read as
// off so renderers do not have to bounds-check.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return false
	}

	return d.fb[y][x]
}

// SetPixel sets a cell directly; out of range is a silent no-op. The
// interpreter never calls this, it exists for tests and tooling.
func (d *Display) SetPixel(x, y int, on bool) {
	if x < 0 || x >= DisplayWidth || y < 0 || y >= DisplayHeight {
		return
	}

	d.fb[y][x] = on
	d.dirty = true
}

// TakeDirty reports whether the framebuffer changed since the last call
// and resets the flag. Renderers use it to skip redundant frames.
func (d *Display) TakeDirty() bool {
	dirty := d.dirty
	d.dirty = false

	return dirty
}

// Packed returns the framebuffer as a row-major bitfield, 8 pixels per
// byte with bit 7 leftmost. This is the wire format the web display
// streams.
func (d *Display) Packed() []byte {
	out := make([]byte, DisplayWidth*DisplayHeight/8)
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			if d.fb[y][x] {
				t := y*DisplayWidth + x
				out[t/8] |= 1 << (7 - byte(t%8))
			}
		}
	}

	return out
}

// DisplayStats is a derived summary of the framebuffer, recomputed by
// full scan. It feeds UIs and heuristics, never the interpreter.
type DisplayStats struct {
	Width       int
	Height      int
	PixelsOn    int
	PixelsTotal int
}

func (d *Display) Stats() DisplayStats {
	on := 0
	for y := 0; y < DisplayHeight; y++ {
		for x := 0; x < DisplayWidth; x++ {
			if d.fb[y][x] {
				on++
			}
		}
	}

	return DisplayStats{
		Width:       DisplayWidth,
		Height:      DisplayHeight,
		PixelsOn:    on,
		PixelsTotal: DisplayWidth * DisplayHeight,
	}
}
