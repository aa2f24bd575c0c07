package keymap

import (
	"fmt"

	"github.com/ardnew/softps2/pkg"
)

// Scan Code Set 2 prefixes and controller status bytes.
const (
	PrefixRelease  = 0xF0 // Next scancode is a release
	PrefixExtended = 0xE0 // Next scancode is from the extended table
	PrefixPause    = 0xE1 // Start of the Pause/Break sequence

	StatusSelfTestOK = 0xAA // Basic assurance test passed
	StatusAck        = 0xFA // Command acknowledged
	StatusEcho       = 0xEE // Echo response
	StatusResend     = 0xFE // Host should resend the last command
	StatusOverrun    = 0x00 // Key detection error or buffer overrun
	StatusOverrunAlt = 0xFF // Overrun in scan code sets 1 and 3
	StatusFailure    = 0xFC // Basic assurance test failed
	StatusFailureAlt = 0xFD
)

// pauseSequence is what a keyboard sends for the Pause key. It has no
// release code.
var pauseSequence = [...]byte{0xE1, 0x14, 0x77, 0xE1, 0xF0, 0x14, 0xF0, 0x77}

// set2 maps single-byte Scan Code Set 2 make codes to keys.
var set2 = [256]KeyCode{
	0x01: KeyF9,
	0x03: KeyF5,
	0x04: KeyF3,
	0x05: KeyF1,
	0x06: KeyF2,
	0x07: KeyF12,
	0x09: KeyF10,
	0x0A: KeyF8,
	0x0B: KeyF6,
	0x0C: KeyF4,
	0x0D: KeyTab,
	0x0E: KeyGrave,
	0x11: KeyLeftAlt,
	0x12: KeyLeftShift,
	0x14: KeyLeftCtrl,
	0x15: KeyQ,
	0x16: Key1,
	0x1A: KeyZ,
	0x1B: KeyS,
	0x1C: KeyA,
	0x1D: KeyW,
	0x1E: Key2,
	0x21: KeyC,
	0x22: KeyX,
	0x23: KeyD,
	0x24: KeyE,
	0x25: Key4,
	0x26: Key3,
	0x29: KeySpace,
	0x2A: KeyV,
	0x2B: KeyF,
	0x2C: KeyT,
	0x2D: KeyR,
	0x2E: Key5,
	0x31: KeyN,
	0x32: KeyB,
	0x33: KeyH,
	0x34: KeyG,
	0x35: KeyY,
	0x36: Key6,
	0x3A: KeyM,
	0x3B: KeyJ,
	0x3C: KeyU,
	0x3D: Key7,
	0x3E: Key8,
	0x41: KeyComma,
	0x42: KeyK,
	0x43: KeyI,
	0x44: KeyO,
	0x45: Key0,
	0x46: Key9,
	0x49: KeyDot,
	0x4A: KeySlash,
	0x4B: KeyL,
	0x4C: KeySemicolon,
	0x4D: KeyP,
	0x4E: KeyMinus,
	0x52: KeyQuote,
	0x54: KeyLeftBracket,
	0x55: KeyEqual,
	0x58: KeyCapsLock,
	0x59: KeyRightShift,
	0x5A: KeyEnter,
	0x5B: KeyRightBracket,
	0x5D: KeyBackslash,
	0x66: KeyBackspace,
	0x69: KeyKP1,
	0x6B: KeyKP4,
	0x6C: KeyKP7,
	0x70: KeyKP0,
	0x71: KeyKPDot,
	0x72: KeyKP2,
	0x73: KeyKP5,
	0x74: KeyKP6,
	0x75: KeyKP8,
	0x76: KeyEscape,
	0x77: KeyNumLock,
	0x78: KeyF11,
	0x79: KeyKPPlus,
	0x7A: KeyKP3,
	0x7B: KeyKPMinus,
	0x7C: KeyKPAsterisk,
	0x7D: KeyKP9,
	0x7E: KeyScrollLock,
	0x83: KeyF7,
}

// set2Extended maps make codes that follow PrefixExtended.
var set2Extended = [256]KeyCode{
	0x11: KeyRightAlt,
	0x14: KeyRightCtrl,
	0x1F: KeyLeftGUI,
	0x27: KeyRightGUI,
	0x2F: KeyApps,
	0x4A: KeyKPSlash,
	0x5A: KeyKPEnter,
	0x69: KeyEnd,
	0x6B: KeyLeft,
	0x6C: KeyHome,
	0x70: KeyInsert,
	0x71: KeyDelete,
	0x72: KeyDown,
	0x74: KeyRight,
	0x75: KeyUp,
	0x7A: KeyPageDown,
	0x7C: KeyPrintScreen,
	0x7D: KeyPageUp,
}

// Extended codes a keyboard wraps around navigation keys to cancel a held
// Shift. They carry no key transition of their own.
const (
	fakeLeftShift  = 0x12
	fakeRightShift = 0x59
)

type decodeState uint8

const (
	stateStart decodeState = iota
	stateRelease
	stateExtended
	stateExtendedRelease
	statePause
)

// Translator decodes a Scan Code Set 2 byte stream into key events.
//
// Multi-byte sequences (release prefix, extended prefix, Pause) are tracked
// internally; the caller only feeds bytes in arrival order. A Translator is
// not safe for concurrent use.
type Translator struct {
	state decodeState
	pause int // Bytes of pauseSequence matched so far
}

// NewTranslator creates a translator in its initial state.
func NewTranslator() *Translator {
	return &Translator{}
}

// Reset abandons any partially received sequence.
func (t *Translator) Reset() {
	t.state = stateStart
	t.pause = 0
}

// AddByte feeds one byte of the scancode stream.
//
// It returns the completed event and ok=true when b finishes a key
// transition. Prefix bytes and acknowledgement status bytes return ok=false
// with a nil error. A scancode with no key in the table returns an error
// wrapping pkg.ErrUnknownScancode; a keyboard error status returns one
// wrapping pkg.ErrKeyboardError. Both reset the decode state.
func (t *Translator) AddByte(b byte) (ev KeyEvent, ok bool, err error) {
	switch t.state {
	case stateStart:
		return t.start(b)

	case stateRelease:
		t.state = stateStart
		return t.lookup(set2[b], b, Up)

	case stateExtended:
		switch b {
		case PrefixRelease:
			t.state = stateExtendedRelease
			return KeyEvent{}, false, nil
		case fakeLeftShift, fakeRightShift:
			t.state = stateStart
			return KeyEvent{}, false, nil
		}
		t.state = stateStart
		return t.lookup(set2Extended[b], b, Down)

	case stateExtendedRelease:
		t.state = stateStart
		if b == fakeLeftShift || b == fakeRightShift {
			return KeyEvent{}, false, nil
		}
		return t.lookup(set2Extended[b], b, Up)

	case statePause:
		if b != pauseSequence[t.pause] {
			t.Reset()
			return KeyEvent{}, false, fmt.Errorf("pause sequence byte %#02x: %w", b, pkg.ErrUnknownScancode)
		}
		t.pause++
		if t.pause < len(pauseSequence) {
			return KeyEvent{}, false, nil
		}
		t.Reset()
		return KeyEvent{Code: KeyPauseBreak, State: SingleShot}, true, nil
	}

	t.Reset()
	return KeyEvent{}, false, pkg.ErrInvalidState
}

// start handles a byte that begins a new sequence.
func (t *Translator) start(b byte) (KeyEvent, bool, error) {
	switch b {
	case PrefixRelease:
		t.state = stateRelease
		return KeyEvent{}, false, nil
	case PrefixExtended:
		t.state = stateExtended
		return KeyEvent{}, false, nil
	case PrefixPause:
		t.state = statePause
		t.pause = 1
		return KeyEvent{}, false, nil
	case StatusSelfTestOK, StatusAck, StatusEcho:
		return KeyEvent{}, false, nil
	case StatusResend, StatusOverrun, StatusOverrunAlt, StatusFailure, StatusFailureAlt:
		return KeyEvent{}, false, fmt.Errorf("status %#02x: %w", b, pkg.ErrKeyboardError)
	}
	return t.lookup(set2[b], b, Down)
}

func (t *Translator) lookup(code KeyCode, b byte, state KeyState) (KeyEvent, bool, error) {
	if code == KeyNone {
		t.Reset()
		return KeyEvent{}, false, fmt.Errorf("scancode %#02x: %w", b, pkg.ErrUnknownScancode)
	}
	return KeyEvent{Code: code, State: state}, true, nil
}
