package uart

import (
	"fmt"

	"github.com/aymanbagabas/go-pty"

	"github.com/ardnew/softps2/pkg"
)

// PTY is a hal.Sink backed by a pseudo-terminal. Bytes written to it appear
// as input on the terminal named by Name, so a terminal program attached
// there sees the same stream a serial cable would carry.
type PTY struct {
	*Writer
	pty pty.Pty
}

// OpenPTY allocates a new pseudo-terminal.
func OpenPTY() (*PTY, error) {
	p, err := pty.New()
	if err != nil {
		return nil, fmt.Errorf("allocate pty: %w", err)
	}
	pkg.LogInfo(pkg.ComponentSink, "pty allocated", "name", p.Name())
	return &PTY{Writer: NewWriter(p), pty: p}, nil
}

// Name returns the path of the terminal side.
func (p *PTY) Name() string { return p.pty.Name() }

// Read returns bytes typed on the terminal side.
func (p *PTY) Read(b []byte) (int, error) { return p.pty.Read(b) }

// Close releases the pseudo-terminal.
func (p *PTY) Close() error { return p.pty.Close() }
