package okto

import (
	"context"
	"errors"
	"time"

	"github.com/retroenv/retrogolib/log"
)

var ErrNotBooted = errors.New("the emulator has not been booted")

const (
	DefaultSpeed uint = 500
	MaxSpeed     uint = 700
	MinSpeed     uint = 5

	// timerRate is the cadence of both countdown timers and of frame
	// rendering. It is fixed by the machine, not by the cycle speed.
	timerRate = 60

	frameDuration = time.Second / timerRate
)

// Emulator drives a Cpu against its collaborators: it paces cycles to
// a configurable speed, ticks the timers at 60Hz, renders frames when
// the display changed and keeps the buzzer in sync with the sound
// timer. The two clocks are independent so timers run at a constant
// rate whatever the cycle speed.
type Emulator struct {
	Cpu      *Cpu
	Memory   *Memory
	Display  *Display
	Keyboard Keyboard
	Buzzer   Buzzer
	Renderer Renderer

	// MaxCycles stops Run after that many executed cycles. Zero means
	// no limit.
	MaxCycles uint64

	logger *log.Logger

	speedInHz uint
	step      time.Duration

	cycles uint64
	frames uint64

	isBooted   bool
	isPaused   bool
	lastError  error
	spinLogged bool

	beforeCycleHooks []Hook
	afterCycleHooks  []Hook
	errorHooks       []Hook
}

func NewEmulator(memory *Memory, display *Display, keyboard Keyboard, buzzer Buzzer, renderer Renderer, logger *log.Logger) *Emulator {
	return &Emulator{
		Cpu:      NewCpu(memory, display, keyboard),
		Memory:   memory,
		Display:  display,
		Keyboard: keyboard,
		Buzzer:   buzzer,
		Renderer: renderer,

		logger: logger,

		speedInHz: DefaultSpeed,
		step:      time.Second / time.Duration(DefaultSpeed),
	}
}

func (emu *Emulator) SpeedInHz() uint {
	return emu.speedInHz
}

func (emu *Emulator) SetSpeedInHz(inHz uint) {
	if inHz < MinSpeed {
		inHz = MinSpeed
	}
	if inHz > MaxSpeed {
		inHz = MaxSpeed
	}

	emu.speedInHz = inHz
	emu.step = time.Second / time.Duration(inHz)
}

func (emu *Emulator) Cycles() uint64 {
	return emu.cycles
}

func (emu *Emulator) Frames() uint64 {
	return emu.frames
}

func (emu *Emulator) IsRunning() bool {
	return !emu.isPaused
}

func (emu *Emulator) LastError() error {
	return emu.lastError
}

// Boot initializes all the components.
// If the emulator was already booted, this method is a noop.
func (emu *Emulator) Boot() error {
	if emu.isBooted {
		return nil
	}

	if err := emu.Renderer.Boot(); err != nil {
		return err
	}

	if err := emu.Keyboard.Boot(); err != nil {
		return err
	}

	if err := emu.Buzzer.Boot(); err != nil {
		return err
	}

	emu.isBooted = true

	return nil
}

// LoadROM resets the machine and copies the program into memory at the
// program start address.
func (emu *Emulator) LoadROM(rom []byte) error {
	emu.Reset()

	return emu.Memory.LoadROM(rom)
}

// Reset returns the whole machine to its power-on state. Loaded ROM
// bytes are cleared along with everything else.
func (emu *Emulator) Reset() {
	emu.Memory.Reset()
	emu.Display.Clear()
	emu.Cpu.Reset()
	emu.cycles = 0
	emu.frames = 0
	emu.lastError = nil
	emu.spinLogged = false
}

func (emu *Emulator) Pause() {
	emu.isPaused = true
}

func (emu *Emulator) Unpause() {
	emu.isPaused = false
}

// RunAtSpeed sets the speed and starts the loop.
func (emu *Emulator) RunAtSpeed(ctx context.Context, speedInHz uint) error {
	emu.SetSpeedInHz(speedInHz)

	return emu.Run(ctx)
}

// Run executes cycles at the configured speed until the context is
// cancelled, MaxCycles is reached or a cycle fails. A failed cycle
// latches its error; subsequent Run calls return it until Reset.
func (emu *Emulator) Run(ctx context.Context) error {
	if !emu.isBooted {
		return ErrNotBooted
	}

	if emu.lastError != nil {
		return emu.lastError
	}

	var last time.Time
	nextFrame := time.Now().Add(frameDuration)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Catch up on every frame owed since the last iteration, so
		// timers keep their 60Hz cadence at cycle speeds below the
		// timer rate.
		for !time.Now().Before(nextFrame) {
			emu.tickFrame()
			nextFrame = nextFrame.Add(frameDuration)
		}

		if !emu.isPaused {
			if err := emu.runCycle(); err != nil {
				return err
			}
		}

		if emu.MaxCycles > 0 && emu.cycles >= emu.MaxCycles {
			return nil
		}

		// Prevent the machine from running faster than expected
		time.Sleep(max(emu.step-time.Since(last), 0))
		last = time.Now()
	}
}

// Step runs a single cycle bypassing the pause state.
func (emu *Emulator) Step() error {
	if !emu.isBooted {
		return ErrNotBooted
	}

	if emu.lastError != nil {
		return emu.lastError
	}

	if err := emu.runCycle(); err != nil {
		return err
	}
	emu.tickFrame()

	return nil
}

// tickFrame advances everything that runs at the 60Hz timer rate.
func (emu *Emulator) tickFrame() {
	emu.Cpu.UpdateTimers()

	if emu.Cpu.ShouldBeep() {
		emu.Buzzer.Play()
	} else {
		emu.Buzzer.Stop()
	}

	if emu.Display.TakeDirty() {
		if err := emu.Renderer.Render(emu.Display); err != nil {
			emu.logger.Error("rendering frame", log.Err(err))
		}
	}

	emu.frames++
}

func (emu *Emulator) runCycle() error {
	emu.runHooks(emu.beforeCycleHooks)

	if err := emu.Cpu.ExecuteCycle(); err != nil {
		emu.lastError = err
		emu.logger.Error("cycle failed",
			log.Uint64("cycle", emu.cycles),
			log.Err(err))
		emu.runHooks(emu.errorHooks)

		return err
	}
	emu.cycles++

	if emu.Cpu.Spinning() && !emu.spinLogged {
		emu.spinLogged = true
		emu.logger.Debug("program entered a tight jump loop",
			log.Uint16("pc", emu.Cpu.PC()))
	}

	emu.runHooks(emu.afterCycleHooks)

	return nil
}
