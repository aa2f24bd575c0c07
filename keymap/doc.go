// Package keymap translates PS/2 Scan Code Set 2 bytes into key events and
// output bytes.
//
// [Translator] is the stateful decoder. A release is signalled by the 0xF0
// prefix before the key's make code, extended keys by 0xE0, and Pause by a
// fixed eight-byte sequence with no release:
//
//	t := keymap.NewTranslator()
//	t.AddByte(0x1C) // {A Down}, true, nil
//	t.AddByte(0xF0) // {}, false, nil
//	t.AddByte(0x1C) // {A Up}, true, nil
//
// [Table] maps each key to one output byte. [Table.Frame] produces the
// two-byte serial framing: a marker ('0' for a press, '1' for a release)
// followed by the mapped byte. Keys absent from the table are not sent.
//
// [Keyboard] adds modifier tracking on top of the translator and yields the
// characters a US 104-key keyboard would type.
package keymap
