package keymap

import (
	"fmt"

	"github.com/ardnew/softps2/pkg"
)

// makeCode is where a key sits in Scan Code Set 2.
type makeCode struct {
	code     byte
	extended bool
}

// makeCodes inverts set2 and set2Extended.
var makeCodes = func() (m [KeyCount]makeCode) {
	for b, k := range set2 {
		if k != KeyNone && m[k].code == 0 {
			m[k] = makeCode{code: byte(b)}
		}
	}
	for b, k := range set2Extended {
		if k != KeyNone && m[k].code == 0 {
			m[k] = makeCode{code: byte(b), extended: true}
		}
	}
	return m
}()

// stroke is the key, and whether Shift is held, that types a character.
type stroke struct {
	code  KeyCode
	shift bool
}

// strokes maps each character a US keyboard can type to its key.
var strokes = func() map[rune]stroke {
	m := map[rune]stroke{'\n': {code: KeyEnter}}
	t := DefaultTable()
	for k := KeyA; k < KeyCount; k++ {
		b, ok := t.Lookup(k)
		if !ok || b >= 0x80 || k == KeyEnter || k == KeyKPEnter {
			continue
		}
		if _, dup := m[rune(b)]; !dup {
			m[rune(b)] = stroke{code: k}
		}
	}
	for k := KeyA; k <= KeyZ; k++ {
		m['A'+rune(k-KeyA)] = stroke{code: k, shift: true}
	}
	for k, r := range shifted {
		m[r] = stroke{code: k, shift: true}
	}
	return m
}()

// Scancodes returns the bytes a keyboard sends for ev. A SingleShot event
// is only valid for KeyPauseBreak, whose sequence has no release.
func Scancodes(ev KeyEvent) ([]byte, error) {
	if ev.Code == KeyPauseBreak {
		if ev.State == Up {
			return nil, fmt.Errorf("%s release: %w", ev.Code, pkg.ErrInvalidParameter)
		}
		return append([]byte(nil), pauseSequence[:]...), nil
	}
	if ev.Code >= KeyCount || ev.State == SingleShot {
		return nil, fmt.Errorf("%s %s: %w", ev.Code, ev.State, pkg.ErrInvalidParameter)
	}
	mc := makeCodes[ev.Code]
	if mc.code == 0 {
		return nil, fmt.Errorf("%s: %w", ev.Code, pkg.ErrUnknownScancode)
	}

	out := make([]byte, 0, 3)
	if mc.extended {
		out = append(out, PrefixExtended)
	}
	if ev.State == Up {
		out = append(out, PrefixRelease)
	}
	return append(out, mc.code), nil
}

// Type returns the byte stream a keyboard sends when s is typed on a US
// layout: a press and release per character, wrapped in a Left Shift press
// and release where the character needs it.
func Type(s string) ([]byte, error) {
	var out []byte
	for _, r := range s {
		st, ok := strokes[r]
		if !ok {
			return nil, fmt.Errorf("character %q: %w", r, pkg.ErrInvalidParameter)
		}
		keys := []KeyEvent{{Code: st.code, State: Down}, {Code: st.code, State: Up}}
		if st.shift {
			keys = []KeyEvent{
				{Code: KeyLeftShift, State: Down},
				keys[0], keys[1],
				{Code: KeyLeftShift, State: Up},
			}
		}
		for _, ev := range keys {
			codes, err := Scancodes(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, codes...)
		}
	}
	return out, nil
}
