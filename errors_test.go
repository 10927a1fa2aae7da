package Goraster

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestBandError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     ErrorKind
		sentinel error
		message  string
	}{
		{
			name:     "invalid argument",
			err:      invalidArgf("op", 0, "bad %s", "thing"),
			kind:     KindInvalidArgument,
			sentinel: ErrInvalidArgument,
			message:  "op: InvalidArgument: bad thing",
		},
		{
			name:     "out of range",
			err:      outOfRange("get", 4, 3),
			kind:     KindIndexOutOfRange,
			sentinel: ErrIndexOutOfRange,
			message:  "get: IndexOutOfRange (band 4): band index 4 outside [1, 3]",
		},
		{
			name:     "unsupported",
			err:      unsupportedf("create", "no"),
			kind:     KindUnsupportedOperation,
			sentinel: ErrUnsupported,
			message:  "create: UnsupportedOperation: no",
		},
		{
			name:     "driver",
			err:      driverErr("create", 2, "MEM", errors.New("boom")),
			kind:     KindDriverError,
			sentinel: ErrDriver,
			message:  "create: DriverError (band 2): MEM driver: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.EqualError(t, tt.err, tt.message)

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.Equal(t, tt.kind, KindOf(wrapped))
			assert.True(t, errors.Is(wrapped, tt.sentinel))
		})
	}

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Nil(t, DriverCause(outOfRange("get", 0, 0)))
	assert.EqualError(t, DriverCause(driverErr("x", 0, "MEM", errors.New("root"))), "root")
	assert.False(t, errors.Is(outOfRange("get", 0, 0), ErrDriver))
}
