package uart

import (
	"fmt"
	"io"
	"sync"

	"github.com/tarm/serial"

	"github.com/ardnew/softps2/hal"
	"github.com/ardnew/softps2/pkg"
)

// DefaultBaud is the line rate used when Config.Baud is zero: 115200 8N1.
const DefaultBaud = 115200

// Writer adapts any io.Writer to hal.Sink, one Write call per byte.
type Writer struct {
	mutex sync.Mutex
	w     io.Writer
	buf   [1]byte
}

// NewWriter creates a sink that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteByte writes b. A short write is reported as pkg.ErrSinkWrite.
func (s *Writer) WriteByte(b byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.buf[0] = b
	n, err := s.w.Write(s.buf[:])
	if err != nil {
		return fmt.Errorf("%w: %w", pkg.ErrSinkWrite, err)
	}
	if n != 1 {
		return pkg.ErrSinkWrite
	}
	return nil
}

// Config selects the serial device.
type Config struct {
	Name string // Device path, e.g. /dev/ttyUSB0
	Baud int    // Zero means DefaultBaud
}

// Port is a hal.Sink over a serial device.
type Port struct {
	*Writer
	port *serial.Port
	name string
}

// Open opens the serial device at 8 data bits, no parity, one stop bit.
func Open(cfg Config) (*Port, error) {
	if cfg.Name == "" {
		return nil, pkg.ErrInvalidParameter
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:     cfg.Name,
		Baud:     baud,
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Name, err)
	}

	pkg.LogInfo(pkg.ComponentSink, "serial port opened", "name", cfg.Name, "baud", baud)
	return &Port{Writer: NewWriter(port), port: port, name: cfg.Name}, nil
}

// Name returns the device path.
func (p *Port) Name() string { return p.name }

// Close flushes and closes the device.
func (p *Port) Close() error {
	if err := p.port.Flush(); err != nil {
		pkg.LogWarn(pkg.ComponentSink, "serial flush failed", "name", p.name, "error", err)
	}
	return p.port.Close()
}

var (
	_ hal.Sink = (*Writer)(nil)
	_ hal.Sink = (*Port)(nil)
)
