package keymap

// Modifiers is the set of modifier and lock keys currently in effect.
type Modifiers struct {
	LeftShift  bool
	RightShift bool
	LeftCtrl   bool
	RightCtrl  bool
	LeftAlt    bool
	RightAlt   bool
	CapsLock   bool
	NumLock    bool
}

// Shift reports whether either Shift key is held.
func (m Modifiers) Shift() bool { return m.LeftShift || m.RightShift }

// Ctrl reports whether either Ctrl key is held.
func (m Modifiers) Ctrl() bool { return m.LeftCtrl || m.RightCtrl }

// Alt reports whether either Alt key is held.
func (m Modifiers) Alt() bool { return m.LeftAlt || m.RightAlt }

// shifted maps printable keys to their Shift character on a US keyboard.
var shifted = map[KeyCode]rune{
	Key1:            '!',
	Key2:            '@',
	Key3:            '#',
	Key4:            '$',
	Key5:            '%',
	Key6:            '^',
	Key7:            '&',
	Key8:            '*',
	Key9:            '(',
	Key0:            ')',
	KeyMinus:        '_',
	KeyEqual:        '+',
	KeyLeftBracket:  '{',
	KeyRightBracket: '}',
	KeyBackslash:    '|',
	KeySemicolon:    ':',
	KeyQuote:        '"',
	KeyGrave:        '~',
	KeyComma:        '<',
	KeyDot:          '>',
	KeySlash:        '?',
}

// Keyboard turns a scancode stream into characters for a US 104-key layout.
// It owns a Translator and tracks modifier state across events. NumLock is
// on initially, as after keyboard reset.
type Keyboard struct {
	translator *Translator
	table      *Table
	mods       Modifiers
}

// NewKeyboard creates a keyboard decoder.
func NewKeyboard() *Keyboard {
	return &Keyboard{
		translator: NewTranslator(),
		table:      DefaultTable(),
		mods:       Modifiers{NumLock: true},
	}
}

// Modifiers returns the current modifier state.
func (k *Keyboard) Modifiers() Modifiers {
	return k.mods
}

// AddByte feeds one scancode byte to the underlying translator.
func (k *Keyboard) AddByte(b byte) (KeyEvent, bool, error) {
	return k.translator.AddByte(b)
}

// Process updates modifier state from ev and returns the character it
// produces, if any. Releases and modifier keys produce nothing.
func (k *Keyboard) Process(ev KeyEvent) (rune, bool) {
	switch ev.Code {
	case KeyLeftShift:
		k.mods.LeftShift = ev.Pressed()
		return 0, false
	case KeyRightShift:
		k.mods.RightShift = ev.Pressed()
		return 0, false
	case KeyLeftCtrl:
		k.mods.LeftCtrl = ev.Pressed()
		return 0, false
	case KeyRightCtrl:
		k.mods.RightCtrl = ev.Pressed()
		return 0, false
	case KeyLeftAlt:
		k.mods.LeftAlt = ev.Pressed()
		return 0, false
	case KeyRightAlt:
		k.mods.RightAlt = ev.Pressed()
		return 0, false
	case KeyCapsLock:
		if ev.State == Down {
			k.mods.CapsLock = !k.mods.CapsLock
		}
		return 0, false
	case KeyNumLock:
		if ev.State == Down {
			k.mods.NumLock = !k.mods.NumLock
		}
		return 0, false
	}

	if !ev.Pressed() {
		return 0, false
	}
	return k.decode(ev.Code)
}

// decode maps a pressed key to a character under the current modifiers.
func (k *Keyboard) decode(code KeyCode) (rune, bool) {
	switch {
	case code >= KeyA && code <= KeyZ:
		if k.mods.Ctrl() {
			return rune(code-KeyA) + 1, true // Ctrl+A is U+0001
		}
		r := 'a' + rune(code-KeyA)
		if k.mods.Shift() != k.mods.CapsLock {
			r -= 'a' - 'A'
		}
		return r, true

	case code >= KeyKP0 && code <= KeyKPDot:
		if !k.mods.NumLock {
			return 0, false
		}

	case code == KeyDelete:
		return 0x7F, true

	case code == KeyEnter || code == KeyKPEnter:
		return '\n', true
	}

	if k.mods.Shift() {
		if r, ok := shifted[code]; ok {
			return r, true
		}
	}
	b, ok := k.table.Lookup(code)
	if !ok || b >= 0x80 {
		return 0, false
	}
	return rune(b), true
}

// AddByteDecode feeds one scancode byte and returns the character it
// completes, if any. Errors from the translator are returned unchanged.
func (k *Keyboard) AddByteDecode(b byte) (rune, bool, error) {
	ev, ok, err := k.translator.AddByte(b)
	if err != nil || !ok {
		return 0, false, err
	}
	r, ok := k.Process(ev)
	return r, ok, nil
}
