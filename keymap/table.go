package keymap

// Marker bytes that precede each mapped byte in key-marker framing.
const (
	MarkerDown = '0' // Key pressed, or a SingleShot key
	MarkerUp   = '1' // Key released
)

// Output bytes for keys with no printable character. Codes in
// 0x80..0xBF never collide with ASCII.
const (
	OutCapsLock    = 0x80
	OutNumLock     = 0x81
	OutScrollLock  = 0x82
	OutF1          = 0x83 // F1..F12 are consecutive
	OutPrintScreen = 0x8F
	OutPauseBreak  = 0x90
	OutInsert      = 0x91
	OutDelete      = 0x92
	OutHome        = 0x93
	OutEnd         = 0x94
	OutPageUp      = 0x95
	OutPageDown    = 0x96
	OutUp          = 0x97
	OutDown        = 0x98
	OutLeft        = 0x99
	OutRight       = 0x9A
	OutLeftShift   = 0xA0
	OutRightShift  = 0xA1
	OutLeftCtrl    = 0xA2
	OutRightCtrl   = 0xA3
	OutLeftAlt     = 0xA4
	OutRightAlt    = 0xA5
	OutLeftGUI     = 0xA6
	OutRightGUI    = 0xA7
	OutApps        = 0xA8
)

// Table is a fixed lookup from key to output byte. A zero entry means the
// key is not transmitted.
type Table [KeyCount]byte

// DefaultTable returns the US layout table: printable keys map to their
// unshifted ASCII character and all other keys to the Out* codes.
func DefaultTable() *Table {
	t := &Table{}
	for k := KeyA; k <= KeyZ; k++ {
		t[k] = 'a' + byte(k-KeyA)
	}
	for k := Key0; k <= Key9; k++ {
		t[k] = '0' + byte(k-Key0)
	}
	for k := KeyKP0; k <= KeyKP9; k++ {
		t[k] = '0' + byte(k-KeyKP0)
	}
	for k := KeyF1; k <= KeyF12; k++ {
		t[k] = OutF1 + byte(k-KeyF1)
	}

	t[KeyEnter] = '\r'
	t[KeyKPEnter] = '\r'
	t[KeyEscape] = 0x1B
	t[KeyBackspace] = 0x08
	t[KeyTab] = '\t'
	t[KeySpace] = ' '
	t[KeyMinus] = '-'
	t[KeyEqual] = '='
	t[KeyLeftBracket] = '['
	t[KeyRightBracket] = ']'
	t[KeyBackslash] = '\\'
	t[KeySemicolon] = ';'
	t[KeyQuote] = '\''
	t[KeyGrave] = '`'
	t[KeyComma] = ','
	t[KeyDot] = '.'
	t[KeySlash] = '/'
	t[KeyKPDot] = '.'
	t[KeyKPSlash] = '/'
	t[KeyKPAsterisk] = '*'
	t[KeyKPMinus] = '-'
	t[KeyKPPlus] = '+'

	t[KeyCapsLock] = OutCapsLock
	t[KeyNumLock] = OutNumLock
	t[KeyScrollLock] = OutScrollLock
	t[KeyPrintScreen] = OutPrintScreen
	t[KeyPauseBreak] = OutPauseBreak
	t[KeyInsert] = OutInsert
	t[KeyDelete] = OutDelete
	t[KeyHome] = OutHome
	t[KeyEnd] = OutEnd
	t[KeyPageUp] = OutPageUp
	t[KeyPageDown] = OutPageDown
	t[KeyUp] = OutUp
	t[KeyDown] = OutDown
	t[KeyLeft] = OutLeft
	t[KeyRight] = OutRight
	t[KeyLeftShift] = OutLeftShift
	t[KeyRightShift] = OutRightShift
	t[KeyLeftCtrl] = OutLeftCtrl
	t[KeyRightCtrl] = OutRightCtrl
	t[KeyLeftAlt] = OutLeftAlt
	t[KeyRightAlt] = OutRightAlt
	t[KeyLeftGUI] = OutLeftGUI
	t[KeyRightGUI] = OutRightGUI
	t[KeyApps] = OutApps
	return t
}

// Lookup returns the output byte for k, or false if k is not transmitted.
func (t *Table) Lookup(k KeyCode) (byte, bool) {
	if k >= KeyCount {
		return 0, false
	}
	b := t[k]
	return b, b != 0
}

// Set maps k to b. Setting b to zero removes k from the table.
func (t *Table) Set(k KeyCode, b byte) {
	if k < KeyCount {
		t[k] = b
	}
}

// Frame returns the marker and mapped byte for ev, or false if the key is
// not in the table.
func (t *Table) Frame(ev KeyEvent) (marker, b byte, ok bool) {
	b, ok = t.Lookup(ev.Code)
	if !ok {
		return 0, 0, false
	}
	marker = MarkerDown
	if ev.State == Up {
		marker = MarkerUp
	}
	return marker, b, true
}
