package pkg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameStatus_String(t *testing.T) {
	tests := []struct {
		status FrameStatus
		want   string
	}{
		{FrameOK, "ok"},
		{FrameBadStart, "bad-start"},
		{FrameBadParity, "bad-parity"},
		{FrameBadStop, "bad-stop"},
		{FrameStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestFrameStatus_Error(t *testing.T) {
	tests := []struct {
		status  FrameStatus
		wantErr error
	}{
		{FrameOK, nil},
		{FrameBadStart, ErrBadStartBit},
		{FrameBadParity, ErrBadParity},
		{FrameBadStop, ErrBadStopBit},
		{FrameStatus(99), ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := tt.status.Error()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	errs := []error{
		ErrBadStartBit,
		ErrBadParity,
		ErrBadStopBit,
		ErrOverrun,
		ErrClosed,
		ErrUnknownScancode,
		ErrInvalidState,
		ErrKeyboardError,
		ErrCellOccupied,
		ErrNotConfigured,
		ErrAlreadyRunning,
		ErrInvalidParameter,
		ErrNoHandler,
		ErrHandlerExists,
		ErrPinNotFound,
		ErrSinkWrite,
	}

	for i, err1 := range errs {
		assert.NotNil(t, err1, "error %d", i)
		for j, err2 := range errs {
			if i != j {
				assert.False(t, errors.Is(err1, err2), "error %d and %d are equal", i, j)
			}
		}
	}
}
