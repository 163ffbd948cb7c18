package okto

import (
	"sync"
	"time"

	"github.com/pkg/term"
)

type KeyboardState [16]bool

// Keyboard is the 16-key keypad the interpreter polls. TryTakeKeyPress
// consumes one queued press without blocking, which is how the
// wait-for-key opcode suspends cooperatively. Implementations must be
// safe to feed from another goroutine than the one running cycles.
type Keyboard interface {
	// Boot initializes the component
	Boot() error
	IsPressed(k byte) bool
	TryTakeKeyPress() (byte, bool)
}

// InMemoryKeyboard holds key state set programmatically. It backs
// tests, the web server and headless runs.
type InMemoryKeyboard struct {
	mu      sync.Mutex
	state   KeyboardState
	pending []byte
}

func NewInMemoryKeyboard() *InMemoryKeyboard {
	return &InMemoryKeyboard{}
}

// Boot implements Keyboard.
func (kb *InMemoryKeyboard) Boot() error {
	return nil
}

func (kb *InMemoryKeyboard) IsPressed(k byte) bool {
	if k > 15 {
		return false
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.state[k]
}

// TryTakeKeyPress pops the oldest queued press, if any.
func (kb *InMemoryKeyboard) TryTakeKeyPress() (byte, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if len(kb.pending) == 0 {
		return 0, false
	}

	k := kb.pending[0]
	kb.pending = kb.pending[1:]

	return k, true
}

// Press marks the key down and queues it for the next TryTakeKeyPress.
func (kb *InMemoryKeyboard) Press(k byte) {
	if k > 15 {
		return
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.state[k] = true
	kb.pending = append(kb.pending, k)
}

func (kb *InMemoryKeyboard) Release(k byte) {
	if k > 15 {
		return
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	kb.state[k] = false
}

func (kb *InMemoryKeyboard) Get() KeyboardState {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	return kb.state
}

// KeyMap maps terminal characters to keypad keys 0x0..0xF.
type KeyMap map[rune]byte

// DefaultKeyMap lays the keypad over the left-hand block of a QWERTY
// keyboard, the conventional arrangement:
//
//	1 2 3 4        1 2 3 C
//	q w e r   →    4 5 6 D
//	a s d f        7 8 9 E
//	z x c v        A 0 B F
func DefaultKeyMap() KeyMap {
	return KeyMap{
		'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
		'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
		'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
		'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
	}
}

// keyHoldDuration is how long a terminal keystroke counts as held.
// Terminals report presses but never releases, so each press decays.
const keyHoldDuration = 150 * time.Millisecond

// TerminalKeyboard reads raw keystrokes from the controlling terminal.
type TerminalKeyboard struct {
	keyMap KeyMap

	mu       sync.Mutex
	lastSeen [16]time.Time
	pending  []byte

	tty  *term.Term
	done chan struct{}
}

func NewTerminalKeyboard() *TerminalKeyboard {
	return NewTerminalKeyboardWithKeyMap(DefaultKeyMap())
}

func NewTerminalKeyboardWithKeyMap(keyMap KeyMap) *TerminalKeyboard {
	return &TerminalKeyboard{
		keyMap: keyMap,
		done:   make(chan struct{}),
	}
}

// Boot puts the terminal in raw mode and starts draining keystrokes.
func (kb *TerminalKeyboard) Boot() error {
	tty, err := term.Open("/dev/tty", term.RawMode, term.ReadTimeout(10*time.Millisecond))
	if err != nil {
		return err
	}
	kb.tty = tty

	go kb.readLoop()

	return nil
}

// Close restores the terminal. Safe to call once after Boot.
func (kb *TerminalKeyboard) Close() error {
	close(kb.done)
	if kb.tty == nil {
		return nil
	}
	if err := kb.tty.Restore(); err != nil {
		return err
	}

	return kb.tty.Close()
}

func (kb *TerminalKeyboard) readLoop() {
	buf := make([]byte, 1)
	for {
		select {
		case <-kb.done:
			return
		default:
		}

		n, err := kb.tty.Read(buf)
		if err != nil || n == 0 {
			continue
		}

		k, ok := kb.keyMap[rune(buf[0])]
		if !ok {
			continue
		}

		kb.mu.Lock()
		kb.lastSeen[k] = time.Now()
		kb.pending = append(kb.pending, k)
		kb.mu.Unlock()
	}
}

func (kb *TerminalKeyboard) IsPressed(k byte) bool {
	if k > 15 {
		return false
	}

	kb.mu.Lock()
	defer kb.mu.Unlock()

	return time.Since(kb.lastSeen[k]) < keyHoldDuration
}

func (kb *TerminalKeyboard) TryTakeKeyPress() (byte, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	if len(kb.pending) == 0 {
		return 0, false
	}

	k := kb.pending[0]
	kb.pending = kb.pending[1:]

	return k, true
}
