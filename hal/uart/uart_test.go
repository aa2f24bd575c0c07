package uart

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softps2/pkg"
)

type failingWriter struct {
	n   int
	err error
}

func (f failingWriter) Write(p []byte) (int, error) { return f.n, f.err }

func TestWriter_WriteByte(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, b := range []byte("0a1a") {
		require.NoError(t, w.WriteByte(b))
	}
	assert.Equal(t, "0a1a", buf.String())
}

func TestWriter_Errors(t *testing.T) {
	cause := errors.New("device gone")
	err := NewWriter(failingWriter{err: cause}).WriteByte('x')
	assert.ErrorIs(t, err, pkg.ErrSinkWrite)
	assert.ErrorIs(t, err, cause)

	err = NewWriter(failingWriter{n: 0}).WriteByte('x')
	assert.ErrorIs(t, err, pkg.ErrSinkWrite)
}

func TestOpen_Invalid(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)

	_, err = Open(Config{Name: "/nonexistent/tty"})
	assert.Error(t, err)
}

func TestPTY_RoundTrip(t *testing.T) {
	p, err := OpenPTY()
	if err != nil {
		t.Skipf("pty not available: %v", err)
	}
	defer p.Close()

	tty, err := os.Open(p.Name())
	if err != nil {
		t.Skipf("open %s: %v", p.Name(), err)
	}
	defer tty.Close()

	// The terminal side is in canonical mode, so input is delivered a line
	// at a time.
	for _, b := range []byte("0a\n") {
		require.NoError(t, p.WriteByte(b))
	}

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := tty.Read(buf)
		got <- string(buf[:n])
	}()

	select {
	case line := <-got:
		assert.Equal(t, "0a\n", line)
	case <-time.After(5 * time.Second):
		t.Fatal("no data on terminal side")
	}
}
