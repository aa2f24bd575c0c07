package pipeline

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ardnew/softps2/keymap"
	"github.com/ardnew/softps2/pkg"
)

// Forwarding selects what the consumer writes to the sink for each byte.
type Forwarding uint8

// Forwarding modes.
const (
	// ForwardRaw writes every received byte unmodified.
	ForwardRaw Forwarding = iota

	// ForwardKeyMarker decodes scancodes and writes a marker byte ('0'
	// press, '1' release) followed by the key's table byte.
	ForwardKeyMarker

	// ForwardText decodes scancodes with modifier tracking and writes the
	// typed characters as UTF-8.
	ForwardText
)

// String returns the forwarding mode name.
func (f Forwarding) String() string {
	switch f {
	case ForwardRaw:
		return "raw"
	case ForwardKeyMarker:
		return "key-marker"
	case ForwardText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseForwarding returns the forwarding mode whose String is name.
func ParseForwarding(name string) (Forwarding, error) {
	for f := ForwardRaw; f <= ForwardText; f++ {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("forwarding %q: %w", name, pkg.ErrInvalidParameter)
}

// Forwarder converts one received byte into zero or more output bytes,
// passing each to emit. It keeps whatever state multi-byte input needs.
type Forwarder interface {
	Forward(b byte, emit func(byte))
}

// RawForwarder emits each byte as received.
type RawForwarder struct{}

// Forward emits b.
func (RawForwarder) Forward(b byte, emit func(byte)) { emit(b) }

// KeyMarkerForwarder frames each recognized key transition as a marker
// byte and a mapped byte. Keys missing from the table produce nothing.
type KeyMarkerForwarder struct {
	translator *keymap.Translator
	table      *keymap.Table
}

// NewKeyMarkerForwarder creates a forwarder using table, or
// keymap.DefaultTable if table is nil.
func NewKeyMarkerForwarder(table *keymap.Table) *KeyMarkerForwarder {
	if table == nil {
		table = keymap.DefaultTable()
	}
	return &KeyMarkerForwarder{translator: keymap.NewTranslator(), table: table}
}

// Forward feeds b to the translator and emits the frame for a completed
// event.
func (f *KeyMarkerForwarder) Forward(b byte, emit func(byte)) {
	ev, ok, err := f.translator.AddByte(b)
	if err != nil {
		logTranslateError(b, err)
		return
	}
	if !ok {
		return
	}
	marker, out, ok := f.table.Frame(ev)
	if !ok {
		pkg.LogDebug(pkg.ComponentTranslator, "key not in table",
			"key", ev.Code.String())
		return
	}
	emit(marker)
	emit(out)
}

// TextForwarder emits the characters a US keyboard types.
type TextForwarder struct {
	keyboard *keymap.Keyboard
	buf      [utf8.UTFMax]byte
}

// NewTextForwarder creates a text forwarder.
func NewTextForwarder() *TextForwarder {
	return &TextForwarder{keyboard: keymap.NewKeyboard()}
}

// Forward feeds b to the keyboard and emits the UTF-8 encoding of a typed
// character.
func (f *TextForwarder) Forward(b byte, emit func(byte)) {
	r, ok, err := f.keyboard.AddByteDecode(b)
	if err != nil {
		logTranslateError(b, err)
		return
	}
	if !ok {
		return
	}
	n := utf8.EncodeRune(f.buf[:], r)
	for _, c := range f.buf[:n] {
		emit(c)
	}
}

// logTranslateError reports a translator error. Unknown scancodes are
// expected noise and only logged at debug level.
func logTranslateError(b byte, err error) {
	if errors.Is(err, pkg.ErrUnknownScancode) {
		pkg.LogDebug(pkg.ComponentTranslator, "scancode dropped", "byte", b, "error", err)
		return
	}
	pkg.LogWarn(pkg.ComponentTranslator, "keyboard reported error", "byte", b, "error", err)
}

// newForwarder builds the forwarder for mode f.
func newForwarder(f Forwarding, table *keymap.Table) (Forwarder, error) {
	switch f {
	case ForwardRaw:
		return RawForwarder{}, nil
	case ForwardKeyMarker:
		return NewKeyMarkerForwarder(table), nil
	case ForwardText:
		return NewTextForwarder(), nil
	}
	return nil, pkg.ErrInvalidParameter
}
