package keymap

// KeyCode identifies a physical key independent of the scancode set.
type KeyCode uint8

// Key codes for a US 104-key keyboard.
const (
	KeyNone KeyCode = iota

	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeySpace
	KeyMinus
	KeyEqual
	KeyLeftBracket
	KeyRightBracket
	KeyBackslash
	KeySemicolon
	KeyQuote
	KeyGrave
	KeyComma
	KeyDot
	KeySlash

	KeyCapsLock
	KeyNumLock
	KeyScrollLock

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	KeyPrintScreen
	KeyPauseBreak
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	KeyKP0
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKPDot
	KeyKPSlash
	KeyKPAsterisk
	KeyKPMinus
	KeyKPPlus
	KeyKPEnter

	KeyLeftShift
	KeyRightShift
	KeyLeftCtrl
	KeyRightCtrl
	KeyLeftAlt
	KeyRightAlt
	KeyLeftGUI
	KeyRightGUI
	KeyApps

	// KeyCount is the number of defined key codes.
	KeyCount
)

var keyNames = [KeyCount]string{
	KeyNone:         "None",
	KeyA:            "A",
	KeyB:            "B",
	KeyC:            "C",
	KeyD:            "D",
	KeyE:            "E",
	KeyF:            "F",
	KeyG:            "G",
	KeyH:            "H",
	KeyI:            "I",
	KeyJ:            "J",
	KeyK:            "K",
	KeyL:            "L",
	KeyM:            "M",
	KeyN:            "N",
	KeyO:            "O",
	KeyP:            "P",
	KeyQ:            "Q",
	KeyR:            "R",
	KeyS:            "S",
	KeyT:            "T",
	KeyU:            "U",
	KeyV:            "V",
	KeyW:            "W",
	KeyX:            "X",
	KeyY:            "Y",
	KeyZ:            "Z",
	Key0:            "0",
	Key1:            "1",
	Key2:            "2",
	Key3:            "3",
	Key4:            "4",
	Key5:            "5",
	Key6:            "6",
	Key7:            "7",
	Key8:            "8",
	Key9:            "9",
	KeyEnter:        "Enter",
	KeyEscape:       "Escape",
	KeyBackspace:    "Backspace",
	KeyTab:          "Tab",
	KeySpace:        "Space",
	KeyMinus:        "Minus",
	KeyEqual:        "Equal",
	KeyLeftBracket:  "LeftBracket",
	KeyRightBracket: "RightBracket",
	KeyBackslash:    "Backslash",
	KeySemicolon:    "Semicolon",
	KeyQuote:        "Quote",
	KeyGrave:        "Grave",
	KeyComma:        "Comma",
	KeyDot:          "Dot",
	KeySlash:        "Slash",
	KeyCapsLock:     "CapsLock",
	KeyNumLock:      "NumLock",
	KeyScrollLock:   "ScrollLock",
	KeyF1:           "F1",
	KeyF2:           "F2",
	KeyF3:           "F3",
	KeyF4:           "F4",
	KeyF5:           "F5",
	KeyF6:           "F6",
	KeyF7:           "F7",
	KeyF8:           "F8",
	KeyF9:           "F9",
	KeyF10:          "F10",
	KeyF11:          "F11",
	KeyF12:          "F12",
	KeyPrintScreen:  "PrintScreen",
	KeyPauseBreak:   "PauseBreak",
	KeyInsert:       "Insert",
	KeyDelete:       "Delete",
	KeyHome:         "Home",
	KeyEnd:          "End",
	KeyPageUp:       "PageUp",
	KeyPageDown:     "PageDown",
	KeyUp:           "Up",
	KeyDown:         "Down",
	KeyLeft:         "Left",
	KeyRight:        "Right",
	KeyKP0:          "KP0",
	KeyKP1:          "KP1",
	KeyKP2:          "KP2",
	KeyKP3:          "KP3",
	KeyKP4:          "KP4",
	KeyKP5:          "KP5",
	KeyKP6:          "KP6",
	KeyKP7:          "KP7",
	KeyKP8:          "KP8",
	KeyKP9:          "KP9",
	KeyKPDot:        "KPDot",
	KeyKPSlash:      "KPSlash",
	KeyKPAsterisk:   "KPAsterisk",
	KeyKPMinus:      "KPMinus",
	KeyKPPlus:       "KPPlus",
	KeyKPEnter:      "KPEnter",
	KeyLeftShift:    "LeftShift",
	KeyRightShift:   "RightShift",
	KeyLeftCtrl:     "LeftCtrl",
	KeyRightCtrl:    "RightCtrl",
	KeyLeftAlt:      "LeftAlt",
	KeyRightAlt:     "RightAlt",
	KeyLeftGUI:      "LeftGUI",
	KeyRightGUI:     "RightGUI",
	KeyApps:         "Apps",
}

// String returns the key name.
func (k KeyCode) String() string {
	if k >= KeyCount {
		return "Unknown"
	}
	return keyNames[k]
}

// KeyState is the transition carried by a KeyEvent.
type KeyState uint8

// Key transitions.
const (
	Down       KeyState = iota // Key pressed (or typematic repeat)
	Up                         // Key released
	SingleShot                 // Key with no release code, e.g. Pause
)

// String returns the state name.
func (s KeyState) String() string {
	switch s {
	case Down:
		return "Down"
	case Up:
		return "Up"
	case SingleShot:
		return "SingleShot"
	default:
		return "Unknown"
	}
}

// KeyEvent is one key transition decoded from the scancode stream.
type KeyEvent struct {
	Code  KeyCode
	State KeyState
}

// Pressed reports whether the event is a press rather than a release.
func (e KeyEvent) Pressed() bool {
	return e.State != Up
}
